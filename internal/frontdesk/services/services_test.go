package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/models"
	"github.com/Srikanthmvtsc/doc-queue-plus/internal/frontdesk/repository"
)

// fakeClock is a settable clock shared by the services under test.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Clock() Clock {
	return Clock{NowFunc: c.Now, Location: time.UTC}
}

// failingStore fails every transaction before running it.
type failingStore struct {
	*repository.MemoryStore
	err error
}

func (s failingStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.err
}

var errStoreDown = errors.New("dial tcp 127.0.0.1:3306: connect: connection refused")

type ledger struct {
	store    *repository.MemoryStore
	clock    *fakeClock
	tokens   *TokenService
	visits   *VisitService
	patients *PatientService
}

func newLedger(t *testing.T) *ledger {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := newFakeClock(time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC))
	tokens := NewTokenService(store, clock.Clock(), time.Second)
	return &ledger{
		store:    store,
		clock:    clock,
		tokens:   tokens,
		visits:   NewVisitService(store, tokens, clock.Clock(), time.Second),
		patients: NewPatientService(store, clock.Clock(), time.Second),
	}
}

func (l *ledger) register(t *testing.T, name string) models.Patient {
	t.Helper()
	p, err := l.patients.Register(context.Background(), models.RegisterPatientRequest{
		Name:           name,
		DateOfBirth:    "1990-01-01",
		Phone:          "555-1111",
		Address:        "1 Elm St",
		MedicalHistory: "None",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return p
}
