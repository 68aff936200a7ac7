package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/dashboard/models"
	fdmodels "github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	fdservices "github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/services"
	"github.com/Srikanthmvtsc/doc-queue-plus/pkg/cache"
)

// CountsReader is the part of the visit store the dashboard reads.
type CountsReader interface {
	DailyCounts(ctx context.Context, date string) (fdmodels.DailyCounts, error)
}

type DashboardService struct {
	Store   CountsReader
	Clock   fdservices.Clock
	Timeout time.Duration

	// Cache is optional. A nil Cache reads the store on every call.
	Cache    cache.Cache
	CacheTTL time.Duration
}

func NewDashboardService(store CountsReader, clock fdservices.Clock, timeout time.Duration) *DashboardService {
	return &DashboardService{Store: store, Clock: clock, Timeout: timeout}
}

// WithCache enables the read-through stats cache.
func (s *DashboardService) WithCache(c cache.Cache, ttl time.Duration) *DashboardService {
	s.Cache = c
	s.CacheTTL = ttl
	return s
}

// Cached stats live under a per-day generation that every visit change
// bumps. A read that raced with a change writes under the generation it
// started with, which no later read looks up.
const generationTTL = 48 * time.Hour

func generationKey(date string) string {
	return "stats:gen:" + date
}

func statsKey(date string, gen int64) string {
	return fmt.Sprintf("stats:%s:%d", date, gen)
}

// GetDashboardStats derives the day's counters from its visits. An empty
// date means today in the clinic time zone.
func (s *DashboardService) GetDashboardStats(ctx context.Context, date string) (models.DashboardStats, error) {
	if date == "" {
		date = s.Clock.Today()
	}
	if err := fdservices.ValidateDate(date); err != nil {
		return models.DashboardStats{}, err
	}

	gen, cacheable := s.generation(ctx, date)
	if cacheable {
		if stats, ok := s.cached(ctx, date, gen); ok {
			return stats, nil
		}
	}

	readCtx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	counts, err := s.Store.DailyCounts(readCtx, date)
	if err != nil {
		return models.DashboardStats{}, apperrors.Storage("dashboard stats", err)
	}
	stats := models.DashboardStats{
		Date:               date,
		TotalPatientsToday: counts.Total,
		PendingPatients:    counts.Pending,
		CompletedToday:     counts.Completed,
		RevenueToday:       counts.Revenue,
	}

	if cacheable {
		s.store(ctx, date, gen, stats)
	}
	return stats, nil
}

// VisitChanged moves the visit's day to a new cache generation. When the
// bump fails the previous entry is served until CacheTTL runs out.
func (s *DashboardService) VisitChanged(ctx context.Context, v fdmodels.Visit) {
	if s.Cache == nil {
		return
	}
	if _, err := s.Cache.Incr(ctx, generationKey(v.VisitDate), s.generationTTL()); err != nil {
		log.Warn().Err(err).Str("date", v.VisitDate).Msg("dashboard cache invalidation failed")
	}
}

func (s *DashboardService) timeout() time.Duration {
	if s.Timeout <= 0 {
		return 5 * time.Second
	}
	return s.Timeout
}

// generationTTL outlives any stats entry so a generation never restarts
// under entries written for it earlier. A zero CacheTTL never expires.
func (s *DashboardService) generationTTL() time.Duration {
	if s.CacheTTL <= 0 {
		return 0
	}
	return generationTTL + s.CacheTTL
}

// generation reports the day's current generation. The second result is
// false when the cache is off or unreadable, and the caller then neither
// reads nor writes cached stats.
func (s *DashboardService) generation(ctx context.Context, date string) (int64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	raw, err := s.Cache.Get(ctx, generationKey(date))
	if errors.Is(err, cache.ErrMiss) {
		return 0, true
	}
	if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("dashboard cache read failed")
		return 0, false
	}
	gen, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		log.Warn().Err(err).Str("date", date).Msg("dashboard cache generation unreadable")
		return 0, false
	}
	return gen, true
}

func (s *DashboardService) cached(ctx context.Context, date string, gen int64) (models.DashboardStats, bool) {
	var stats models.DashboardStats
	raw, err := s.Cache.Get(ctx, statsKey(date, gen))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn().Err(err).Str("date", date).Msg("dashboard cache read failed")
		}
		return stats, false
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		log.Warn().Err(err).Str("date", date).Msg("dashboard cache entry unreadable")
		return stats, false
	}
	return stats, true
}

func (s *DashboardService) store(ctx context.Context, date string, gen int64, stats models.DashboardStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := s.Cache.Set(ctx, statsKey(date, gen), raw, s.CacheTTL); err != nil {
		log.Warn().Err(err).Str("date", date).Msg("dashboard cache write failed")
	}
}
