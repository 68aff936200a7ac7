package models

import "time"

// Patient is a registered patient. ID is the human readable display id (P001).
type Patient struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	DateOfBirth    string    `json:"date_of_birth" db:"date_of_birth"`
	Phone          string    `json:"phone" db:"phone"`
	Email          *string   `json:"email,omitempty" db:"email"`
	Address        string    `json:"address" db:"address"`
	MedicalHistory string    `json:"medical_history" db:"medical_history"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// RegisterPatientRequest is the payload for registering a patient.
type RegisterPatientRequest struct {
	Name           string `json:"name" validate:"required,max=255"`
	DateOfBirth    string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Phone          string `json:"phone" validate:"required,max=32"`
	Email          string `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Address        string `json:"address" validate:"required"`
	MedicalHistory string `json:"medical_history" validate:"required"`
}

// PatientWithVisit is a list row: the patient plus its latest visit of the
// requested day. Visit fields stay nil when there is no such visit.
type PatientWithVisit struct {
	Patient
	VisitID         *int64     `json:"visit_id" db:"visit_id"`
	TokenNumber     *int       `json:"token_number" db:"token_number"`
	ReasonForVisit  *string    `json:"reason_for_visit" db:"reason_for_visit"`
	Status          *string    `json:"status" db:"status"`
	ConsultationFee *float64   `json:"consultation_fee" db:"consultation_fee"`
	IssueTime       *time.Time `json:"issue_time" db:"issue_time"`
	CompletionTime  *time.Time `json:"completion_time" db:"completion_time"`
	VisitDate       *string    `json:"visit_date" db:"visit_date"`
}

// AttachVisit copies v into the visit columns of the row.
func (p *PatientWithVisit) AttachVisit(v Visit) {
	id, token, reason, status := v.ID, v.TokenNumber, v.ReasonForVisit, string(v.Status)
	issued, date := v.IssueTime, v.VisitDate
	p.VisitID = &id
	p.TokenNumber = &token
	p.ReasonForVisit = &reason
	p.Status = &status
	p.IssueTime = &issued
	p.VisitDate = &date
	p.ConsultationFee = v.ConsultationFee
	p.CompletionTime = v.CompletionTime
}
