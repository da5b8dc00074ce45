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

type consultationRepository struct {
	store *Store
}

var consultationSortColumns = map[string]string{
	"started_at":  "started_at",
	"finished_at": "finished_at",
	"price":       "price",
	"status":      "status",
}

func (r *consultationRepository) Create(ctx context.Context, consultation *model.Consultation) error {
	query := r.store.rebind(`
		INSERT INTO consultations (
			id, patient_id, started_at, finished_at, paid_at, status, paid,
			price, content, notes, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	now := time.Now().UTC()
	consultation.CreatedAt = now
	consultation.UpdatedAt = now

	_, err := r.store.ext.ExecContext(ctx, query,
		consultation.ID,
		consultation.PatientID,
		consultation.StartedAt,
		consultation.FinishedAt,
		consultation.PaidAt,
		consultation.Status,
		consultation.Paid,
		consultation.Price,
		consultation.Content,
		consultation.Notes,
		consultation.CreatedAt,
		consultation.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrOpenConsultationExists
		}
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := r.store.rebind(`SELECT * FROM consultations WHERE id = ?`)
	var consultation model.Consultation
	err := sqlx.GetContext(ctx, r.store.ext, &consultation, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}
	return &consultation, nil
}

// consultationPatientRow flattens the patient summary join.
type consultationPatientRow struct {
	model.Consultation
	PatientName  string     `db:"patient_name"`
	PatientPhoto string     `db:"patient_photo"`
	PatientBirth *time.Time `db:"patient_date_of_birth"`
}

func (r *consultationRepository) GetWithPatient(ctx context.Context, id uuid.UUID) (*model.ConsultationWithPatient, error) {
	query := r.store.rebind(`
		SELECT c.*,
			p.name AS patient_name,
			p.photo AS patient_photo,
			p.date_of_birth AS patient_date_of_birth
		FROM consultations c
		JOIN patients p ON p.id = c.patient_id
		WHERE c.id = ?
	`)
	var row consultationPatientRow
	err := sqlx.GetContext(ctx, r.store.ext, &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get consultation: %w", err)
	}

	result := &model.ConsultationWithPatient{
		Consultation: row.Consultation,
		Patient: model.PatientSummary{
			ID:    row.PatientID,
			Name:  row.PatientName,
			Photo: row.PatientPhoto,
		},
	}
	if row.PatientBirth != nil {
		age := model.AgeAt(*row.PatientBirth, time.Now())
		result.Patient.Age = &age
	}
	return result, nil
}

func (r *consultationRepository) Update(ctx context.Context, consultation *model.Consultation) error {
	// patient_id is deliberately absent: the reference is immutable.
	query := r.store.rebind(`
		UPDATE consultations SET
			finished_at = ?, paid_at = ?, status = ?, paid = ?,
			content = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`)
	consultation.UpdatedAt = time.Now().UTC()

	res, err := r.store.ext.ExecContext(ctx, query,
		consultation.FinishedAt,
		consultation.PaidAt,
		consultation.Status,
		consultation.Paid,
		consultation.Content,
		consultation.Notes,
		consultation.UpdatedAt,
		consultation.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}
	return requireAffected(res)
}

func (r *consultationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := r.store.rebind(`DELETE FROM consultations WHERE id = ?`)
	res, err := r.store.ext.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete consultation: %w", err)
	}
	return requireAffected(res)
}

func (r *consultationRepository) List(ctx context.Context, params *model.ConsultationListParams) ([]*model.Consultation, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	if params.PatientID != nil {
		where += ` AND patient_id = ?`
		args = append(args, *params.PatientID)
	}
	if params.Status != nil {
		where += ` AND status = ?`
		args = append(args, *params.Status)
	}
	if params.Paid != nil {
		where += ` AND paid = ?`
		args = append(args, *params.Paid)
	}

	countQuery := r.store.rebind(`SELECT COUNT(*) FROM consultations` + where)
	var total int
	if err := sqlx.GetContext(ctx, r.store.ext, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count consultations: %w", err)
	}

	column, ok := consultationSortColumns[params.SortBy]
	if !ok {
		column = "started_at"
	}

	query := r.store.rebind(fmt.Sprintf(
		`SELECT * FROM consultations%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`,
		where, column, sortDirection(params.SortOrder),
	))
	args = append(args, params.Limit, params.Offset())

	consultations := []*model.Consultation{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &consultations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, total, nil
}

func (r *consultationRepository) CountByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	query := r.store.rebind(`SELECT COUNT(*) FROM consultations WHERE patient_id = ?`)
	var count int
	if err := sqlx.GetContext(ctx, r.store.ext, &count, query, patientID); err != nil {
		return 0, fmt.Errorf("failed to count consultations: %w", err)
	}
	return count, nil
}

func (r *consultationRepository) HasOpen(ctx context.Context, patientID uuid.UUID) (bool, error) {
	query := r.store.rebind(`
		SELECT COUNT(*) FROM consultations WHERE patient_id = ? AND status = ?
	`)
	var count int
	err := sqlx.GetContext(ctx, r.store.ext, &count, query, patientID, model.ConsultationStatusOpen)
	if err != nil {
		return false, fmt.Errorf("failed to check open consultations: %w", err)
	}
	return count > 0, nil
}

func (r *consultationRepository) FinancialTotals(ctx context.Context) ([]*model.PatientFinancials, error) {
	query := `
		SELECT p.id AS patient_id,
			p.name AS name,
			COUNT(c.id) AS total_consultations,
			COALESCE(SUM(CASE WHEN c.paid THEN 1 ELSE 0 END), 0) AS paid_consultations
		FROM patients p
		LEFT JOIN consultations c ON c.patient_id = p.id
		GROUP BY p.id, p.name
	`
	rows := []*model.PatientFinancials{}
	if err := sqlx.SelectContext(ctx, r.store.ext, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to aggregate financial totals: %w", err)
	}
	return rows, nil
}
