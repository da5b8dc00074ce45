package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/openclinic-br/consultorio-api/internal/model"
)

// Sentinel errors surfaced by Store implementations.
var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrOpenConsultationExists is returned when the open-consultation
	// uniqueness backstop rejects an insert.
	ErrOpenConsultationExists = errors.New("patient already has an open consultation")
)

// Store is the persistence contract the workflow engine is written against.
// Two interchangeable backends implement it: a client/server PostgreSQL
// store and an embedded single-file SQLite store.
type Store interface {
	Patients() PatientRepository
	Consultations() ConsultationRepository

	// WithTx runs fn against a transaction-scoped Store. All writes issued
	// through that Store commit together or roll back together.
	WithTx(ctx context.Context, fn func(Store) error) error

	Ping(ctx context.Context) error
	Close() error
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error

	// List returns one roster page plus the unpaginated total count.
	List(ctx context.Context, params *model.PatientListParams) ([]*model.Patient, int, error)
	// Search returns summaries whose name contains query, capped at limit.
	Search(ctx context.Context, query string, limit int) ([]*model.PatientSummary, error)

	// DecrementCredits atomically consumes one prepaid credit. The update
	// is guarded by credits > 0 and fails otherwise, so the balance can
	// never go negative.
	DecrementCredits(ctx context.Context, id uuid.UUID) error
}

type ConsultationRepository interface {
	Create(ctx context.Context, consultation *model.Consultation) error
	Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
	GetWithPatient(ctx context.Context, id uuid.UUID) (*model.ConsultationWithPatient, error)
	Update(ctx context.Context, consultation *model.Consultation) error
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, params *model.ConsultationListParams) ([]*model.Consultation, int, error)

	// CountByPatient backs the patient-deletion referential guard.
	CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	// HasOpen reports whether the patient has an open consultation.
	HasOpen(ctx context.Context, patientID uuid.UUID) (bool, error)

	// FinancialTotals returns per-patient consultation counts for every
	// patient, including those without consultations.
	FinancialTotals(ctx context.Context) ([]*model.PatientFinancials, error)
}
