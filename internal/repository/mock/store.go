// Package mock provides an in-memory Store used by service tests. It keeps
// the same semantics as the SQL backends: not-found sentinels, the guarded
// credit decrement, the open-consultation uniqueness backstop, and
// all-or-nothing transactions (via snapshot and restore).
package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/repository"
)

type Store struct {
	mu            sync.Mutex
	patients      map[uuid.UUID]model.Patient
	consultations map[uuid.UUID]model.Consultation

	// Call counters for never-invoked assertions.
	PatientDeletes      int
	ConsultationDeletes int
	ConsultationCreates int
	CreditDecrements    int

	// Error injection points.
	FailConsultationCreate error
	FailDecrementCredits   error
}

func NewStore() *Store {
	return &Store{
		patients:      make(map[uuid.UUID]model.Patient),
		consultations: make(map[uuid.UUID]model.Consultation),
	}
}

// SeedPatient inserts a patient directly, bypassing the repositories.
func (s *Store) SeedPatient(p model.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[p.ID] = p
}

// SeedConsultation inserts a consultation directly.
func (s *Store) SeedConsultation(c model.Consultation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.consultations[c.ID] = c
}

// PatientByID reads back a patient for assertions.
func (s *Store) PatientByID(id uuid.UUID) (model.Patient, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.patients[id]
	return p, ok
}

// ConsultationCount reports how many consultations are stored.
func (s *Store) ConsultationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.consultations)
}

func (s *Store) Patients() repository.PatientRepository {
	return &patientRepo{store: s}
}

func (s *Store) Consultations() repository.ConsultationRepository {
	return &consultationRepo{store: s}
}

// WithTx snapshots both tables and restores them when fn fails, mirroring
// the SQL backends' rollback.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) error {
	s.mu.Lock()
	patientsBackup := make(map[uuid.UUID]model.Patient, len(s.patients))
	for k, v := range s.patients {
		patientsBackup[k] = v
	}
	consultationsBackup := make(map[uuid.UUID]model.Consultation, len(s.consultations))
	for k, v := range s.consultations {
		consultationsBackup[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.patients = patientsBackup
		s.consultations = consultationsBackup
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }
func (s *Store) Close() error                   { return nil }

type patientRepo struct {
	store *Store
}

func (r *patientRepo) Create(ctx context.Context, patient *model.Patient) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepo) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := p
	return &out, nil
}

func (r *patientRepo) Update(ctx context.Context, patient *model.Patient) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.patients[patient.ID]; !ok {
		return repository.ErrNotFound
	}
	r.store.patients[patient.ID] = *patient
	return nil
}

func (r *patientRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.PatientDeletes++
	if _, ok := r.store.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.patients, id)
	return nil
}

func (r *patientRepo) List(ctx context.Context, params *model.PatientListParams) ([]*model.Patient, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*model.Patient
	for id := range r.store.patients {
		p := r.store.patients[id]
		if params.Search != "" && !strings.Contains(p.Name, params.Search) {
			continue
		}
		if params.WithActiveFlag {
			active := r.store.hasOpenLocked(p.ID)
			p.HasActiveConsultation = &active
		}
		all = append(all, &p)
	}

	asc := params.SortOrder != model.SortDesc
	sort.SliceStable(all, func(i, j int) bool {
		var less bool
		switch params.SortBy {
		case "credits":
			less = all[i].Credits < all[j].Credits
		case "created_at":
			less = all[i].CreatedAt.Before(all[j].CreatedAt)
		default:
			if all[i].Name != all[j].Name {
				less = all[i].Name < all[j].Name
			} else {
				less = all[i].ID.String() < all[j].ID.String()
			}
		}
		if asc {
			return less
		}
		return !less
	})

	total := len(all)
	return page(all, params.Offset(), params.Limit), total, nil
}

func (r *patientRepo) Search(ctx context.Context, query string, limit int) ([]*model.PatientSummary, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.PatientSummary
	for id := range r.store.patients {
		p := r.store.patients[id]
		if strings.Contains(p.Name, query) {
			out = append(out, &model.PatientSummary{ID: p.ID, Name: p.Name, Photo: p.Photo})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []*model.PatientSummary{}
	}
	return out, nil
}

func (r *patientRepo) DecrementCredits(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.CreditDecrements++
	if r.store.FailDecrementCredits != nil {
		return r.store.FailDecrementCredits
	}
	p, ok := r.store.patients[id]
	if !ok || p.Credits <= 0 {
		return repository.ErrNotFound
	}
	p.Credits--
	r.store.patients[id] = p
	return nil
}

type consultationRepo struct {
	store *Store
}

func (r *consultationRepo) Create(ctx context.Context, consultation *model.Consultation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.ConsultationCreates++
	if r.store.FailConsultationCreate != nil {
		return r.store.FailConsultationCreate
	}
	if consultation.Status == model.ConsultationStatusOpen && r.store.hasOpenLocked(consultation.PatientID) {
		return repository.ErrOpenConsultationExists
	}
	r.store.consultations[consultation.ID] = *consultation
	return nil
}

func (r *consultationRepo) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.consultations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := c
	return &out, nil
}

func (r *consultationRepo) GetWithPatient(ctx context.Context, id uuid.UUID) (*model.ConsultationWithPatient, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	c, ok := r.store.consultations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p, ok := r.store.patients[c.PatientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := &model.ConsultationWithPatient{
		Consultation: c,
		Patient:      model.PatientSummary{ID: p.ID, Name: p.Name, Photo: p.Photo},
	}
	return out, nil
}

func (r *consultationRepo) Update(ctx context.Context, consultation *model.Consultation) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	existing, ok := r.store.consultations[consultation.ID]
	if !ok {
		return repository.ErrNotFound
	}
	// patient_id is immutable, like in the SQL update statement.
	consultation.PatientID = existing.PatientID
	r.store.consultations[consultation.ID] = *consultation
	return nil
}

func (r *consultationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.ConsultationDeletes++
	if _, ok := r.store.consultations[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.store.consultations, id)
	return nil
}

func (r *consultationRepo) List(ctx context.Context, params *model.ConsultationListParams) ([]*model.Consultation, int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var all []*model.Consultation
	for id := range r.store.consultations {
		c := r.store.consultations[id]
		if params.PatientID != nil && c.PatientID != *params.PatientID {
			continue
		}
		if params.Status != nil && c.Status != *params.Status {
			continue
		}
		if params.Paid != nil && c.Paid != *params.Paid {
			continue
		}
		all = append(all, &c)
	}

	asc := params.SortOrder == model.SortAsc
	sort.SliceStable(all, func(i, j int) bool {
		less := all[i].StartedAt.Before(all[j].StartedAt)
		if all[i].StartedAt.Equal(all[j].StartedAt) {
			less = all[i].ID.String() < all[j].ID.String()
		}
		if asc {
			return less
		}
		return !less
	})

	total := len(all)
	return page(all, params.Offset(), params.Limit), total, nil
}

func (r *consultationRepo) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, c := range r.store.consultations {
		if c.PatientID == patientID {
			count++
		}
	}
	return count, nil
}

func (r *consultationRepo) HasOpen(ctx context.Context, patientID uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.hasOpenLocked(patientID), nil
}

func (r *consultationRepo) FinancialTotals(ctx context.Context) ([]*model.PatientFinancials, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*model.PatientFinancials
	for id := range r.store.patients {
		p := r.store.patients[id]
		row := &model.PatientFinancials{PatientID: p.ID, Name: p.Name}
		for _, c := range r.store.consultations {
			if c.PatientID != p.ID {
				continue
			}
			row.TotalConsultations++
			if c.Paid {
				row.PaidConsultations++
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *Store) hasOpenLocked(patientID uuid.UUID) bool {
	for _, c := range s.consultations {
		if c.PatientID == patientID && c.Status == model.ConsultationStatusOpen {
			return true
		}
	}
	return false
}

func page[T any](items []*T, offset, limit int) []*T {
	if offset > len(items) {
		offset = len(items)
	}
	end := offset + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	out := items[offset:end]
	if out == nil {
		out = []*T{}
	}
	return out
}
