// Package consultation implements the consultation lifecycle: creation with
// credit-based auto-payment, partial updates with finalize/pay stamping, and
// guarded deletion.
package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/repository"
	apperrors "github.com/openclinic-br/consultorio-api/pkg/errors"
	"github.com/openclinic-br/consultorio-api/pkg/metrics"
)

// User-facing rule violations, surfaced verbatim to the caller.
const (
	MsgOpenConsultation = "Paciente possui consulta não finalizada. Finalize a consulta atual antes de criar uma nova."
	MsgDeletePaid       = "Não é possível excluir uma consulta paga."
	MsgDeleteFinalized  = "Não é possível excluir uma consulta finalizada."
)

// Invalidator drops cached aggregates after a write.
type Invalidator interface {
	Invalidate()
}

type Service struct {
	store       repository.Store
	metrics     *metrics.Metrics
	invalidator Invalidator
}

func NewService(store repository.Store, m *metrics.Metrics, invalidator Invalidator) *Service {
	return &Service{
		store:       store,
		metrics:     m,
		invalidator: invalidator,
	}
}

// Create opens a new consultation for a patient. The insert and the credit
// decrement run in one transaction: both commit or neither does.
func (s *Service) Create(ctx context.Context, req *model.CreateConsultationRequest) (*model.ConsultationWithPatient, error) {
	var created *model.Consultation

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		patient, err := tx.Patients().Get(ctx, req.PatientID)
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient")
		}
		if err != nil {
			return fmt.Errorf("failed to load patient: %w", err)
		}

		hasOpen, err := tx.Consultations().HasOpen(ctx, patient.ID)
		if err != nil {
			return fmt.Errorf("failed to check open consultations: %w", err)
		}
		if hasOpen {
			return apperrors.BusinessRule(MsgOpenConsultation)
		}

		price, err := resolvePrice(req.Price, patient)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		consultation := &model.Consultation{
			ID:        uuid.New(),
			PatientID: patient.ID,
			StartedAt: now,
			Status:    model.ConsultationStatusOpen,
			Price:     price,
			Content:   req.Content,
			Notes:     req.Notes,
		}

		// One credit pays one consultation, whatever its price.
		if patient.Credits > 0 {
			paidAt := now
			consultation.Paid = true
			consultation.PaidAt = &paidAt
		}

		if err := tx.Consultations().Create(ctx, consultation); err != nil {
			if errors.Is(err, repository.ErrOpenConsultationExists) {
				// The storage backstop caught a concurrent creation.
				return apperrors.BusinessRule(MsgOpenConsultation)
			}
			return fmt.Errorf("failed to create consultation: %w", err)
		}

		if consultation.Paid {
			if err := tx.Patients().DecrementCredits(ctx, patient.ID); err != nil {
				return fmt.Errorf("failed to consume credit: %w", err)
			}
		}

		created = consultation
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ConsultationsCreated.Inc()
		if created.Paid {
			s.metrics.CreditsConsumed.Inc()
		}
	}
	s.invalidate()

	return s.store.Consultations().GetWithPatient(ctx, created.ID)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ConsultationWithPatient, error) {
	consultation, err := s.store.Consultations().GetWithPatient(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("consultation")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return consultation, nil
}

// Update applies a partial update. Setting status=finalized without an
// explicit finished_at stamps it with now; same for paid/paid_at. Restamping
// an already-set timestamp is a no-op, which makes finalize and pay
// idempotent.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateConsultationRequest) (*model.Consultation, error) {
	consultation, err := s.store.Consultations().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("consultation")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}

	if req.Content != nil {
		consultation.Content = *req.Content
	}
	if req.Notes != nil {
		consultation.Notes = *req.Notes
	}
	if req.FinishedAt != nil {
		consultation.FinishedAt = req.FinishedAt
	}
	if req.PaidAt != nil {
		consultation.PaidAt = req.PaidAt
	}

	if req.Status != nil {
		consultation.Status = *req.Status
		switch consultation.Status {
		case model.ConsultationStatusFinalized:
			if consultation.FinishedAt == nil {
				now := time.Now().UTC()
				consultation.FinishedAt = &now
			}
		case model.ConsultationStatusOpen:
			// status == finalized holds exactly when finished_at is set
			consultation.FinishedAt = nil
		}
	}

	if req.Paid != nil {
		consultation.Paid = *req.Paid
		if consultation.Paid {
			if consultation.PaidAt == nil {
				now := time.Now().UTC()
				consultation.PaidAt = &now
			}
		} else {
			consultation.PaidAt = nil
		}
	}

	if err := s.store.Consultations().Update(ctx, consultation); err != nil {
		return nil, fmt.Errorf("failed to update consultation: %w", err)
	}

	s.invalidate()
	return consultation, nil
}

// Finalize marks the consultation finalized. Finalizing twice is a no-op.
func (s *Service) Finalize(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	status := model.ConsultationStatusFinalized
	return s.Update(ctx, id, &model.UpdateConsultationRequest{Status: &status})
}

// Pay marks the consultation paid. Paying twice is a no-op.
func (s *Service) Pay(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	paid := true
	return s.Update(ctx, id, &model.UpdateConsultationRequest{Paid: &paid})
}

// Delete removes a consultation. Paid or finalized consultations are part of
// the practice's financial history and cannot be removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	consultation, err := s.store.Consultations().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NotFound("consultation")
	}
	if err != nil {
		return fmt.Errorf("failed to get consultation: %w", err)
	}

	if consultation.Paid {
		return apperrors.BusinessRule(MsgDeletePaid)
	}
	if consultation.Status == model.ConsultationStatusFinalized {
		return apperrors.BusinessRule(MsgDeleteFinalized)
	}

	if err := s.store.Consultations().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete consultation: %w", err)
	}

	s.invalidate()
	return nil
}

func (s *Service) List(ctx context.Context, params *model.ConsultationListParams) ([]*model.Consultation, model.PageInfo, error) {
	if err := params.Normalize("started_at", model.SortDesc); err != nil {
		return nil, model.PageInfo{}, err
	}

	consultations, total, err := s.store.Consultations().List(ctx, params)
	if err != nil {
		return nil, model.PageInfo{}, fmt.Errorf("failed to list consultations: %w", err)
	}

	return consultations, model.NewPageInfo(total, params.Page, params.Limit), nil
}

func (s *Service) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}

// resolvePrice picks the explicit override when present, otherwise the
// patient's configured price. Either way the result must be positive.
func resolvePrice(override *decimal.Decimal, patient *model.Patient) (decimal.Decimal, error) {
	var price decimal.Decimal
	switch {
	case override != nil:
		price = *override
	case patient.ConsultationPrice.Valid:
		price = patient.ConsultationPrice.Decimal
	default:
		return decimal.Decimal{}, apperrors.Validation("consultation price is required: set one on the request or on the patient")
	}

	if !price.IsPositive() {
		return decimal.Decimal{}, apperrors.Validation("consultation price must be positive")
	}
	return price, nil
}
