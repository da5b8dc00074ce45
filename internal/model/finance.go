package model

import "github.com/google/uuid"

// PatientFinancials aggregates a patient's consultation payment standing.
type PatientFinancials struct {
	PatientID          uuid.UUID `db:"patient_id" json:"patient_id"`
	Name               string    `db:"name" json:"name"`
	TotalConsultations int       `db:"total_consultations" json:"totalConsultations"`
	PaidConsultations  int       `db:"paid_consultations" json:"paidConsultations"`
	PaymentDeficit     int       `json:"paymentDeficit"`
	HasPaymentIssues   bool      `json:"hasPaymentIssues"`
}

// FinancialOverview is the paginated financial roster.
type FinancialOverview struct {
	Patients []*PatientFinancials `json:"patients"`
	PageInfo
}
