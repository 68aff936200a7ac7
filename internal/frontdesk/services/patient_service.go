package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/validation"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
)

type PatientService struct {
	Store   repository.Store
	Clock   Clock
	Timeout time.Duration
}

// registerAttempts bounds how often Register retries a registration that
// lost a race for the next patient id.
const registerAttempts = 3

func NewPatientService(store repository.Store, clock Clock, timeout time.Duration) *PatientService {
	return &PatientService{Store: store, Clock: clock, Timeout: timeout}
}

// FormatPatientID renders the display id for the n-th registered patient.
func FormatPatientID(n int) string {
	return fmt.Sprintf("P%03d", n)
}

// Register validates req and stores a new patient under the next display id.
func (s *PatientService) Register(ctx context.Context, req models.RegisterPatientRequest) (models.Patient, error) {
	req = normalizeRegistration(req)
	if err := validation.Struct(req); err != nil {
		return models.Patient{}, err
	}

	now := s.Clock.Now()
	p := models.Patient{
		Name:           req.Name,
		DateOfBirth:    req.DateOfBirth,
		Phone:          req.Phone,
		Address:        req.Address,
		MedicalHistory: req.MedicalHistory,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Email != "" {
		email := req.Email
		p.Email = &email
	}

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= registerAttempts; attempt++ {
		err = s.Store.WithTx(ctx, func(tx repository.Tx) error {
			n, err := tx.NextPatientOrdinal(ctx)
			if err != nil {
				return err
			}
			p.ID = FormatPatientID(n)
			return tx.InsertPatient(ctx, p)
		})
		if !apperrors.IsConflict(err) || ctx.Err() != nil {
			break
		}
		log.Warn().Err(err).Int("attempt", attempt).Msg("patient registration conflicted, retrying")
	}
	if err != nil {
		return models.Patient{}, apperrors.Storage("register patient", err)
	}

	log.Info().Str("patient_id", p.ID).Msg("patient registered")
	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id string) (models.Patient, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Patient{}, apperrors.Validation("patient id is required")
	}
	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	p, err := s.Store.GetPatient(ctx, id)
	if err != nil {
		return p, apperrors.Storage("get patient", err)
	}
	return p, nil
}

// ListPatients returns patients newest first with their latest visit of
// today. A non-empty search keeps only patients whose name, id or phone
// contains it, ignoring case.
func (s *PatientService) ListPatients(ctx context.Context, search string) ([]models.PatientWithVisit, error) {
	today := s.Clock.Today()

	ctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	rows, err := s.Store.ListPatients(ctx, strings.TrimSpace(search), today)
	if err != nil {
		return nil, apperrors.Storage("list patients", err)
	}
	return rows, nil
}

func normalizeRegistration(req models.RegisterPatientRequest) models.RegisterPatientRequest {
	return models.RegisterPatientRequest{
		Name:           strings.TrimSpace(req.Name),
		DateOfBirth:    strings.TrimSpace(req.DateOfBirth),
		Phone:          strings.TrimSpace(req.Phone),
		Email:          strings.TrimSpace(req.Email),
		Address:        strings.TrimSpace(req.Address),
		MedicalHistory: strings.TrimSpace(req.MedicalHistory),
	}
}
