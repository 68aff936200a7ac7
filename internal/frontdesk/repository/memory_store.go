package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
)

// MemoryStore keeps the ledger in process memory. Transactions run one at a
// time under a single mutex and are rolled back by restoring a snapshot.
type MemoryStore struct {
	mu sync.Mutex

	patients    map[string]models.Patient
	visits      map[int64]models.Visit
	counters    map[string]int
	lastVisitID int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		patients: make(map[string]models.Patient),
		visits:   make(map[int64]models.Visit),
		counters: make(map[string]int),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	committed := false
	defer func() {
		if !committed {
			s.restore(snap)
		}
	}()

	if err := fn(&memoryTx{s: s}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

type memorySnapshot struct {
	patients    map[string]models.Patient
	visits      map[int64]models.Visit
	counters    map[string]int
	lastVisitID int64
}

func (s *MemoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		patients:    make(map[string]models.Patient, len(s.patients)),
		visits:      make(map[int64]models.Visit, len(s.visits)),
		counters:    make(map[string]int, len(s.counters)),
		lastVisitID: s.lastVisitID,
	}
	for k, v := range s.patients {
		snap.patients[k] = v
	}
	for k, v := range s.visits {
		snap.visits[k] = v
	}
	for k, v := range s.counters {
		snap.counters[k] = v
	}
	return snap
}

func (s *MemoryStore) restore(snap memorySnapshot) {
	s.patients = snap.patients
	s.visits = snap.visits
	s.counters = snap.counters
	s.lastVisitID = snap.lastVisitID
}

func (s *MemoryStore) GetPatient(ctx context.Context, id string) (models.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	if !ok {
		return models.Patient{}, apperrors.NotFound("patient %s not found", id)
	}
	return p, nil
}

func (s *MemoryStore) ListPatients(ctx context.Context, search, visitDate string) ([]models.PatientWithVisit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	term := strings.ToLower(search)
	latest := make(map[string]models.Visit)
	for _, v := range s.visits {
		if v.VisitDate != visitDate {
			continue
		}
		if cur, ok := latest[v.PatientID]; !ok || v.ID > cur.ID {
			latest[v.PatientID] = v
		}
	}

	result := []models.PatientWithVisit{}
	for _, p := range s.patients {
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.ID), term) &&
			!strings.Contains(strings.ToLower(p.Phone), term) {
			continue
		}
		row := models.PatientWithVisit{Patient: p}
		if v, ok := latest[p.ID]; ok {
			row.AttachVisit(v)
		}
		result = append(result, row)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result, nil
}

func (s *MemoryStore) GetVisit(ctx context.Context, id int64) (models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.visits[id]
	if !ok {
		return models.Visit{}, apperrors.NotFound("visit %d not found", id)
	}
	return v, nil
}

func (s *MemoryStore) ListVisits(ctx context.Context, filter models.VisitFilter) ([]models.Visit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []models.Visit{}
	for _, v := range s.visits {
		if filter.Date != "" && v.VisitDate != filter.Date {
			continue
		}
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].VisitDate != result[j].VisitDate {
			return result[i].VisitDate < result[j].VisitDate
		}
		return result[i].TokenNumber < result[j].TokenNumber
	})
	return result, nil
}

func (s *MemoryStore) DailyCounts(ctx context.Context, date string) (models.DailyCounts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var c models.DailyCounts
	for _, v := range s.visits {
		if v.VisitDate != date {
			continue
		}
		c.Total++
		switch v.Status {
		case models.VisitPending:
			c.Pending++
		case models.VisitCompleted:
			c.Completed++
			if v.ConsultationFee != nil {
				c.Revenue += *v.ConsultationFee
			}
		}
	}
	return c, nil
}

func (s *MemoryStore) GetTokenCounter(ctx context.Context, date string) (models.TokenCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.TokenCounter{Date: date, LastToken: s.counters[date]}, nil
}

// memoryTx runs with MemoryStore.mu already held.
type memoryTx struct {
	s *MemoryStore
}

func (t *memoryTx) PatientExists(ctx context.Context, id string) (bool, error) {
	_, ok := t.s.patients[id]
	return ok, ctx.Err()
}

func (t *memoryTx) NextPatientOrdinal(ctx context.Context) (int, error) {
	return len(t.s.patients) + 1, ctx.Err()
}

func (t *memoryTx) InsertPatient(ctx context.Context, p models.Patient) error {
	if _, ok := t.s.patients[p.ID]; ok {
		return apperrors.Conflict("patient id %s is already taken, retry the registration", p.ID)
	}
	t.s.patients[p.ID] = p
	return ctx.Err()
}

func (t *memoryTx) NextToken(ctx context.Context, date string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	t.s.counters[date]++
	return t.s.counters[date], nil
}

func (t *memoryTx) InsertVisit(ctx context.Context, v *models.Visit) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, existing := range t.s.visits {
		if existing.VisitDate == v.VisitDate && existing.TokenNumber == v.TokenNumber {
			return apperrors.Conflict("token %d already issued for %s", v.TokenNumber, v.VisitDate)
		}
	}
	t.s.lastVisitID++
	v.ID = t.s.lastVisitID
	t.s.visits[v.ID] = *v
	return nil
}

func (t *memoryTx) GetVisitForUpdate(ctx context.Context, id int64) (models.Visit, error) {
	v, ok := t.s.visits[id]
	if !ok {
		return models.Visit{}, apperrors.NotFound("visit %d not found", id)
	}
	return v, ctx.Err()
}

func (t *memoryTx) CompleteVisit(ctx context.Context, id int64, fee float64, at time.Time) error {
	v, ok := t.s.visits[id]
	if !ok {
		return apperrors.NotFound("visit %d not found", id)
	}
	if v.Status != models.VisitPending {
		return apperrors.Conflict("visit %d is not pending", id)
	}
	v.Status = models.VisitCompleted
	v.ConsultationFee = &fee
	v.CompletionTime = &at
	t.s.visits[id] = v
	return ctx.Err()
}
