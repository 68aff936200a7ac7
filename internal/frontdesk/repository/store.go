package repository

import (
	"context"
	"strings"
	"time"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
)

// Reader holds the read-only queries. Missing single rows are reported as
// apperrors NotFound; every other error is returned as is.
type Reader interface {
	GetPatient(ctx context.Context, id string) (models.Patient, error)
	ListPatients(ctx context.Context, search, visitDate string) ([]models.PatientWithVisit, error)
	GetVisit(ctx context.Context, id int64) (models.Visit, error)
	ListVisits(ctx context.Context, filter models.VisitFilter) ([]models.Visit, error)
	DailyCounts(ctx context.Context, date string) (models.DailyCounts, error)
	GetTokenCounter(ctx context.Context, date string) (models.TokenCounter, error)
}

// Tx is one atomic unit of work. Either every write made through it is
// committed or none is.
type Tx interface {
	PatientExists(ctx context.Context, id string) (bool, error)
	// NextPatientOrdinal returns patient count + 1 and holds the lock that
	// keeps concurrent registrations from computing the same ordinal.
	NextPatientOrdinal(ctx context.Context) (int, error)
	InsertPatient(ctx context.Context, p models.Patient) error

	// NextToken atomically increments (or creates at 1) the counter row of
	// date and returns the new value.
	NextToken(ctx context.Context, date string) (int, error)

	InsertVisit(ctx context.Context, v *models.Visit) error
	GetVisitForUpdate(ctx context.Context, id int64) (models.Visit, error)
	CompleteVisit(ctx context.Context, id int64, fee float64, at time.Time) error
}

// Store is the persistence boundary of the ledger.
type Store interface {
	Reader
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	Ping(ctx context.Context) error
	Close() error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a lower-cased substring LIKE pattern in which the
// wildcard characters of term match literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
