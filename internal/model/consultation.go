package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ConsultationStatus string

const (
	ConsultationStatusOpen      ConsultationStatus = "open"
	ConsultationStatusFinalized ConsultationStatus = "finalized"
)

type Consultation struct {
	ID         uuid.UUID          `db:"id" json:"id"`
	PatientID  uuid.UUID          `db:"patient_id" json:"patient_id"`
	StartedAt  time.Time          `db:"started_at" json:"started_at"`
	FinishedAt *time.Time         `db:"finished_at" json:"finished_at,omitempty"`
	PaidAt     *time.Time         `db:"paid_at" json:"paid_at,omitempty"`
	Status     ConsultationStatus `db:"status" json:"status"`
	Paid       bool               `db:"paid" json:"paid"`
	Price      decimal.Decimal    `db:"price" json:"price"`
	Content    string             `db:"content" json:"content,omitempty"`
	Notes      string             `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `db:"updated_at" json:"updated_at"`
}

// ConsultationWithPatient joins a consultation with its patient summary.
type ConsultationWithPatient struct {
	Consultation
	Patient PatientSummary `json:"patient"`
}

type CreateConsultationRequest struct {
	PatientID uuid.UUID        `json:"patient_id" binding:"required"`
	Price     *decimal.Decimal `json:"price"`
	Content   string           `json:"content"`
	Notes     string           `json:"notes"`
}

type UpdateConsultationRequest struct {
	Status     *ConsultationStatus `json:"status" binding:"omitempty,oneof=open finalized"`
	Paid       *bool               `json:"paid"`
	FinishedAt *time.Time          `json:"finished_at"`
	PaidAt     *time.Time          `json:"paid_at"`
	Content    *string             `json:"content"`
	Notes      *string             `json:"notes"`
}

// ConsultationListParams extends the common list window with filters.
type ConsultationListParams struct {
	ListParams
	PatientID *uuid.UUID          `form:"patientId"`
	Status    *ConsultationStatus `form:"status"`
	Paid      *bool               `form:"paid"`
}
