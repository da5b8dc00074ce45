package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Patient struct {
	ID                uuid.UUID           `db:"id" json:"id"`
	Name              string              `db:"name" json:"name"`
	Email             string              `db:"email" json:"email,omitempty"`
	Phone             string              `db:"phone" json:"phone,omitempty"`
	DateOfBirth       *time.Time          `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender            string              `db:"gender" json:"gender,omitempty"`
	Profession        string              `db:"profession" json:"profession,omitempty"`
	Address           string              `db:"address" json:"address,omitempty"`
	Photo             string              `db:"photo" json:"photo,omitempty"`
	Notes             string              `db:"notes" json:"notes,omitempty"`
	ConsultationPrice decimal.NullDecimal `db:"consultation_price" json:"consultation_price,omitempty"`
	Credits           int                 `db:"credits" json:"credits"`
	CreatedAt         time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updated_at"`

	// Age is derived from DateOfBirth, never stored.
	Age *int `db:"-" json:"age,omitempty"`
	// HasActiveConsultation decorates roster rows when requested.
	HasActiveConsultation *bool `db:"-" json:"hasActiveConsultation,omitempty"`
}

// ComputeAge fills the derived Age field from DateOfBirth.
func (p *Patient) ComputeAge(now time.Time) {
	if p.DateOfBirth == nil {
		p.Age = nil
		return
	}
	age := AgeAt(*p.DateOfBirth, now)
	p.Age = &age
}

// AgeAt returns full years elapsed between birth and now.
func AgeAt(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	anniversary := birth.AddDate(age, 0, 0)
	if anniversary.After(now) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// PatientSummary is the patient projection joined onto consultations.
type PatientSummary struct {
	ID    uuid.UUID `db:"id" json:"id"`
	Name  string    `db:"name" json:"name"`
	Photo string    `db:"photo" json:"photo,omitempty"`
	Age   *int      `db:"-" json:"age,omitempty"`
}

type CreatePatientRequest struct {
	Name              string           `json:"name" binding:"required,max=200"`
	Email             string           `json:"email" binding:"omitempty,email"`
	Phone             string           `json:"phone" binding:"omitempty,max=30"`
	DateOfBirth       *time.Time       `json:"date_of_birth"`
	Gender            string           `json:"gender" binding:"omitempty,max=30"`
	Profession        string           `json:"profession" binding:"omitempty,max=100"`
	Address           string           `json:"address" binding:"omitempty,max=300"`
	Photo             string           `json:"photo" binding:"omitempty,max=500"`
	Notes             string           `json:"notes"`
	ConsultationPrice *decimal.Decimal `json:"consultation_price"`
	Credits           int              `json:"credits" binding:"gte=0"`
}

type UpdatePatientRequest struct {
	Name              *string          `json:"name" binding:"omitempty,max=200"`
	Email             *string          `json:"email" binding:"omitempty,email"`
	Phone             *string          `json:"phone" binding:"omitempty,max=30"`
	DateOfBirth       *time.Time       `json:"date_of_birth"`
	Gender            *string          `json:"gender" binding:"omitempty,max=30"`
	Profession        *string          `json:"profession" binding:"omitempty,max=100"`
	Address           *string          `json:"address" binding:"omitempty,max=300"`
	Photo             *string          `json:"photo" binding:"omitempty,max=500"`
	Notes             *string          `json:"notes"`
	ConsultationPrice *decimal.Decimal `json:"consultation_price"`
	Credits           *int             `json:"credits" binding:"omitempty,gte=0"`
}

// PatientListParams extends the common list window with roster options.
type PatientListParams struct {
	ListParams
	WithActiveFlag bool `form:"withActiveFlag"`
}
