package models

import "time"

type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitCompleted VisitStatus = "completed"
)

func (s VisitStatus) Valid() bool {
	return s == VisitPending || s == VisitCompleted
}

// DateLayout is the calendar date format used for visit_date, token counter
// keys and date_of_birth.
const DateLayout = "2006-01-02"

// Visit is one consultation, from token issuance to completion.
// ConsultationFee and CompletionTime are set together on completion.
type Visit struct {
	ID              int64       `json:"id" db:"id"`
	PatientID       string      `json:"patient_id" db:"patient_id"`
	TokenNumber     int         `json:"token_number" db:"token_number"`
	ReasonForVisit  string      `json:"reason_for_visit" db:"reason_for_visit"`
	Status          VisitStatus `json:"status" db:"status"`
	ConsultationFee *float64    `json:"consultation_fee,omitempty" db:"consultation_fee"`
	IssueTime       time.Time   `json:"issue_time" db:"issue_time"`
	CompletionTime  *time.Time  `json:"completion_time,omitempty" db:"completion_time"`
	VisitDate       string      `json:"visit_date" db:"visit_date"`
}

type CreateVisitRequest struct {
	PatientID      string `json:"patient_id" validate:"required"`
	ReasonForVisit string `json:"reason_for_visit" validate:"required"`
}

// MaxConsultationFee is the largest value consultation_fee DECIMAL(10,2) holds.
const MaxConsultationFee = 99999999.99

// CompleteVisitRequest uses a pointer so a missing fee is told apart from 0.
// Fees are limited to what the DECIMAL(10,2) column stores exactly.
type CompleteVisitRequest struct {
	ConsultationFee *float64 `json:"consultation_fee" validate:"required,gte=0,lte=99999999.99,cents"`
}

// TokenCounter holds the highest token issued for a calendar day.
type TokenCounter struct {
	Date      string `json:"date" db:"counter_date"`
	LastToken int    `json:"last_token" db:"last_token"`
}

// VisitFilter narrows visit listings. Empty fields do not filter.
type VisitFilter struct {
	Date   string
	Status VisitStatus
}

// DailyCounts is the per-day aggregate the dashboard reads.
type DailyCounts struct {
	Total     int     `db:"total"`
	Pending   int     `db:"pending"`
	Completed int     `db:"completed"`
	Revenue   float64 `db:"revenue"`
}
