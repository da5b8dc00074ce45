// Package patient implements patient intake and roster operations.
package patient

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/repository"
	apperrors "github.com/openclinic-br/consultorio-api/pkg/errors"
)

const MsgDeleteWithConsultations = "Não é possível excluir um paciente com consultas registradas."

// MinSearchQueryLength is the autocomplete threshold: shorter queries
// return an empty list without error.
const MinSearchQueryLength = 2

const defaultSearchLimit = 10

// Invalidator drops cached aggregates after a write.
type Invalidator interface {
	Invalidate()
}

type Service struct {
	store       repository.Store
	invalidator Invalidator
}

func NewService(store repository.Store, invalidator Invalidator) *Service {
	return &Service{store: store, invalidator: invalidator}
}

func (s *Service) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if req.ConsultationPrice != nil && !req.ConsultationPrice.IsPositive() {
		return nil, apperrors.Validation("consultation price must be positive")
	}

	patient := &model.Patient{
		ID:          uuid.New(),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Profession:  req.Profession,
		Address:     req.Address,
		Photo:       req.Photo,
		Notes:       req.Notes,
		Credits:     req.Credits,
	}
	if req.ConsultationPrice != nil {
		patient.ConsultationPrice.Valid = true
		patient.ConsultationPrice.Decimal = *req.ConsultationPrice
	}

	if err := s.store.Patients().Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	s.invalidate()
	patient.ComputeAge(time.Now())
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	patient.ComputeAge(time.Now())
	return patient, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.store.Patients().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("patient")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Profession != nil {
		patient.Profession = *req.Profession
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.Photo != nil {
		patient.Photo = *req.Photo
	}
	if req.Notes != nil {
		patient.Notes = *req.Notes
	}
	if req.ConsultationPrice != nil {
		if !req.ConsultationPrice.IsPositive() {
			return nil, apperrors.Validation("consultation price must be positive")
		}
		patient.ConsultationPrice.Valid = true
		patient.ConsultationPrice.Decimal = *req.ConsultationPrice
	}
	if req.Credits != nil {
		if *req.Credits < 0 {
			return nil, apperrors.Validation("credits cannot be negative")
		}
		patient.Credits = *req.Credits
	}

	if err := s.store.Patients().Update(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to update patient: %w", err)
	}

	s.invalidate()
	patient.ComputeAge(time.Now())
	return patient, nil
}

// Delete removes a patient. Patients with registered consultations cannot be
// deleted; the count is checked first and the delete is never attempted.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.store.Patients().Get(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient")
		}
		return fmt.Errorf("failed to get patient: %w", err)
	}

	count, err := s.store.Consultations().CountByPatient(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count consultations: %w", err)
	}
	if count > 0 {
		return apperrors.BusinessRule(MsgDeleteWithConsultations)
	}

	if err := s.store.Patients().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.invalidate()
	return nil
}

func (s *Service) List(ctx context.Context, params *model.PatientListParams) ([]*model.Patient, model.PageInfo, error) {
	if err := params.Normalize("name", model.SortAsc); err != nil {
		return nil, model.PageInfo{}, err
	}

	patients, total, err := s.store.Patients().List(ctx, params)
	if err != nil {
		return nil, model.PageInfo{}, fmt.Errorf("failed to list patients: %w", err)
	}

	now := time.Now()
	for _, patient := range patients {
		patient.ComputeAge(now)
	}

	return patients, model.NewPageInfo(total, params.Page, params.Limit), nil
}

// Search serves name autocomplete. Queries shorter than two characters yield
// an empty list, not an error.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]*model.PatientSummary, error) {
	if utf8.RuneCountInString(query) < MinSearchQueryLength {
		return []*model.PatientSummary{}, nil
	}
	if limit <= 0 || limit > model.MaxPageLimit {
		limit = defaultSearchLimit
	}

	summaries, err := s.store.Patients().Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return summaries, nil
}

func (s *Service) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}
