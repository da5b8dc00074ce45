package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/openclinic-br/consultorio-api/internal/model"
	"github.com/openclinic-br/consultorio-api/internal/repository"
)

type patientRepository struct {
	store *Store
}

// patientSortColumns whitelists sortable roster columns.
var patientSortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"credits":    "credits",
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := r.store.rebind(`
		INSERT INTO patients (
			id, name, email, phone, date_of_birth, gender, profession,
			address, photo, notes, consultation_price, credits, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	_, err := r.store.ext.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.Gender,
		patient.Profession,
		patient.Address,
		patient.Photo,
		patient.Notes,
		patient.ConsultationPrice,
		patient.Credits,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := r.store.rebind(`SELECT * FROM patients WHERE id = ?`)
	var patient model.Patient
	err := sqlx.GetContext(ctx, r.store.ext, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := r.store.rebind(`
		UPDATE patients SET
			name = ?, email = ?, phone = ?, date_of_birth = ?, gender = ?,
			profession = ?, address = ?, photo = ?, notes = ?,
			consultation_price = ?, credits = ?, updated_at = ?
		WHERE id = ?
	`)
	patient.UpdatedAt = time.Now().UTC()

	res, err := r.store.ext.ExecContext(ctx, query,
		patient.Name,
		patient.Email,
		patient.Phone,
		patient.DateOfBirth,
		patient.Gender,
		patient.Profession,
		patient.Address,
		patient.Photo,
		patient.Notes,
		patient.ConsultationPrice,
		patient.Credits,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	return requireAffected(res)
}

func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.store.rebind(`DELETE FROM patients WHERE id = ?`)
	res, err := r.store.ext.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	return requireAffected(res)
}

// patientRow carries the optional roster decoration alongside the entity.
type patientRow struct {
	model.Patient
	HasActive *bool `db:"has_active"`
}

func (r *patientRepository) List(ctx context.Context, params *model.PatientListParams) ([]*model.Patient, int, error) {
	where := ""
	var args []interface{}
	if params.Search != "" {
		where = ` WHERE name LIKE ?`
		args = append(args, "%"+params.Search+"%")
	}

	countQuery := r.store.rebind(`SELECT COUNT(*) FROM patients` + where)
	var total int
	if err := sqlx.GetContext(ctx, r.store.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count patients: %w", err)
	}

	column, ok := patientSortColumns[params.SortBy]
	if !ok {
		column = "name"
	}

	selectCols := `patients.*`
	if params.WithActiveFlag {
		selectCols += `, EXISTS(
			SELECT 1 FROM consultations c
			WHERE c.patient_id = patients.id AND c.status = 'open'
		) AS has_active`
	}

	query := r.store.rebind(fmt.Sprintf(
		`SELECT %s FROM patients%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`,
		selectCols, where, column, sortDirection(params.SortOrder),
	))
	args = append(args, params.Limit, params.Offset())

	var rows []patientRow
	if err := sqlx.SelectContext(ctx, r.store.ext, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list patients: %w", err)
	}

	patients := make([]*model.Patient, 0, len(rows))
	for i := range rows {
		patient := rows[i].Patient
		if params.WithActiveFlag {
			active := rows[i].HasActive != nil && *rows[i].HasActive
			patient.HasActiveConsultation = &active
		}
		patients = append(patients, &patient)
	}
	return patients, total, nil
}

func (r *patientRepository) Search(ctx context.Context, query string, limit int) ([]*model.PatientSummary, error) {
	q := r.store.rebind(`
		SELECT id, name, photo FROM patients
		WHERE name LIKE ?
		ORDER BY name ASC, id ASC
		LIMIT ?
	`)
	summaries := []*model.PatientSummary{}
	err := sqlx.SelectContext(ctx, r.store.ext, &summaries, q, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return summaries, nil
}

func (r *patientRepository) DecrementCredits(ctx context.Context, id uuid.UUID) error {
	query := r.store.rebind(`
		UPDATE patients
		SET credits = credits - 1, updated_at = ?
		WHERE id = ? AND credits > 0
	`)
	res, err := r.store.ext.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to decrement credits: %w", err)
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func sortDirection(order string) string {
	if order == model.SortDesc {
		return "DESC"
	}
	return "ASC"
}
