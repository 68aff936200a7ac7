package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Srikanthmvtsc/doc-queue-plus/internal/common/apperrors"
)

type sample struct {
	Name  string  `json:"name" validate:"required"`
	Email string  `json:"email,omitempty" validate:"omitempty,email"`
	Born  string  `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Fee   float64 `json:"consultation_fee" validate:"gte=0"`
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(sample{Name: "Jane Doe", Born: "1990-01-01"}))
}

func TestStruct_ReportsJSONFieldNames(t *testing.T) {
	err := Struct(sample{Email: "not-an-email", Born: "01/01/1990", Fee: -1})

	assert.True(t, apperrors.IsValidation(err))
	msg := apperrors.Message(err)
	assert.Contains(t, msg, "name is required")
	assert.Contains(t, msg, "email must be a valid email address")
	assert.Contains(t, msg, "date_of_birth must use the format 2006-01-02")
	assert.Contains(t, msg, "consultation_fee must be greater than or equal to 0")
}

func TestEchoValidator(t *testing.T) {
	var v EchoValidator
	assert.Error(t, v.Validate(sample{}))
	assert.NoError(t, v.Validate(sample{Name: "A", Born: "2000-02-29"}))
}

type feeRequest struct {
	Fee *float64 `json:"consultation_fee" validate:"required,gte=0,lte=99999999.99,cents"`
}

func TestStruct_FeeBounds(t *testing.T) {
	tests := []struct {
		fee  float64
		want string
	}{
		{0, ""},
		{0.1, ""},
		{150.25, ""},
		{99999999.99, ""},
		{100000000, "consultation_fee must be less than or equal to 99999999.99"},
		{1e12, "consultation_fee must be less than or equal to 99999999.99"},
		{150.005, "consultation_fee must have at most 2 decimal places"},
		{-0.01, "consultation_fee must be greater than or equal to 0"},
	}
	for _, tt := range tests {
		fee := tt.fee
		err := Struct(feeRequest{Fee: &fee})
		if tt.want == "" {
			assert.NoError(t, err, "fee %v", tt.fee)
			continue
		}
		assert.True(t, apperrors.IsValidation(err), "fee %v", tt.fee)
		assert.Contains(t, apperrors.Message(err), tt.want)
	}
}
