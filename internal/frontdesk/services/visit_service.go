package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/validation"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
)

// VisitObserver is told about every committed visit change.
type VisitObserver interface {
	VisitChanged(ctx context.Context, v models.Visit)
}

// VisitService owns the pending -> completed lifecycle of visits.
type VisitService struct {
	Store   repository.Store
	Tokens  *TokenService
	Clock   Clock
	Timeout time.Duration

	observers []VisitObserver
}

func NewVisitService(store repository.Store, tokens *TokenService, clock Clock, timeout time.Duration) *VisitService {
	return &VisitService{Store: store, Tokens: tokens, Clock: clock, Timeout: timeout}
}

// AddObserver registers o. Not safe to call once requests are being served.
func (s *VisitService) AddObserver(o VisitObserver) {
	s.observers = append(s.observers, o)
}

// CreateVisit issues today's next token to an existing patient and records a
// pending visit. Patient lookup, token bump and insert share one transaction;
// an unknown patient consumes no token.
func (s *VisitService) CreateVisit(ctx context.Context, patientID, reason string) (models.Visit, error) {
	req := models.CreateVisitRequest{
		PatientID:      strings.TrimSpace(patientID),
		ReasonForVisit: strings.TrimSpace(reason),
	}
	if err := validation.Struct(req); err != nil {
		return models.Visit{}, err
	}

	now := s.Clock.Now()
	visit := models.Visit{
		PatientID:      req.PatientID,
		ReasonForVisit: req.ReasonForVisit,
		Status:         models.VisitPending,
		IssueTime:      now,
		VisitDate:      now.Format(models.DateLayout),
	}

	txCtx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	err := s.Store.WithTx(txCtx, func(tx repository.Tx) error {
		exists, err := tx.PatientExists(txCtx, visit.PatientID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("patient %s not found", visit.PatientID)
		}

		token, err := s.Tokens.issue(txCtx, tx, visit.VisitDate)
		if err != nil {
			return err
		}
		visit.TokenNumber = token
		return tx.InsertVisit(txCtx, &visit)
	})
	if err != nil {
		return models.Visit{}, apperrors.Storage("create visit", err)
	}

	log.Info().
		Int64("visit_id", visit.ID).
		Str("patient_id", visit.PatientID).
		Int("token", visit.TokenNumber).
		Str("date", visit.VisitDate).
		Msg("visit created")
	s.notify(ctx, visit)
	return visit, nil
}

// CompleteVisit closes a pending visit with its fee. Completing a visit twice
// is a conflict; a zero fee is accepted.
func (s *VisitService) CompleteVisit(ctx context.Context, visitID int64, fee float64) (models.Visit, error) {
	if visitID <= 0 {
		return models.Visit{}, apperrors.Validation("visit id must be a positive number")
	}
	if math.IsInf(fee, 0) {
		return models.Visit{}, apperrors.Validation("consultation_fee must be a finite number")
	}
	if err := validation.Struct(models.CompleteVisitRequest{ConsultationFee: &fee}); err != nil {
		return models.Visit{}, err
	}

	now := s.Clock.Now()

	txCtx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var visit models.Visit
	err := s.Store.WithTx(txCtx, func(tx repository.Tx) error {
		var err error
		visit, err = tx.GetVisitForUpdate(txCtx, visitID)
		if err != nil {
			return err
		}
		if visit.Status == models.VisitCompleted {
			return apperrors.Conflict("visit %d is already completed", visitID)
		}
		if err := tx.CompleteVisit(txCtx, visitID, fee, now); err != nil {
			return err
		}
		visit.Status = models.VisitCompleted
		visit.ConsultationFee = &fee
		visit.CompletionTime = &now
		return nil
	})
	if err != nil {
		return models.Visit{}, apperrors.Storage("complete visit", err)
	}

	log.Info().
		Int64("visit_id", visit.ID).
		Float64("fee", fee).
		Msg("visit completed")
	s.notify(ctx, visit)
	return visit, nil
}

func (s *VisitService) GetVisit(ctx context.Context, id int64) (models.Visit, error) {
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	v, err := s.Store.GetVisit(ctx, id)
	if err != nil {
		return v, apperrors.Storage("get visit", err)
	}
	return v, nil
}

// ListVisits returns visits ordered by date then token number.
func (s *VisitService) ListVisits(ctx context.Context, filter models.VisitFilter) ([]models.Visit, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.Validation("status must be one of [pending completed]")
	}
	if err := ValidateDate(filter.Date); err != nil {
		return nil, err
	}
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	visits, err := s.Store.ListVisits(ctx, filter)
	if err != nil {
		return nil, apperrors.Storage("list visits", err)
	}
	return visits, nil
}

func (s *VisitService) ListForDate(ctx context.Context, date string) ([]models.Visit, error) {
	return s.ListVisits(ctx, models.VisitFilter{Date: date})
}

func (s *VisitService) ListPending(ctx context.Context, date string) ([]models.Visit, error) {
	return s.ListVisits(ctx, models.VisitFilter{Date: date, Status: models.VisitPending})
}

func (s *VisitService) ListCompleted(ctx context.Context, date string) ([]models.Visit, error) {
	return s.ListVisits(ctx, models.VisitFilter{Date: date, Status: models.VisitCompleted})
}

func (s *VisitService) notify(ctx context.Context, v models.Visit) {
	for _, o := range s.observers {
		o.VisitChanged(ctx, v)
	}
}
