package utils

import (
	"CityHealth/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func validPatient() models.Patient {
	return models.Patient{
		FirstName:     "Asha",
		LastName:      "Mehta",
		DateOfBirth:   "1985-07-22",
		Gender:        "Female",
		ContactNumber: "9876543210",
		BloodGroup:    "O+",
	}
}

func TestValidatePatientDataAcceptsValidPatient(t *testing.T) {
	assert.NoError(t, ValidatePatientData(validPatient()))
}

func TestValidatePatientDataRejectsBadFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *models.Patient)
	}{
		{"missing first name", func(p *models.Patient) { p.FirstName = "" }},
		{"bad date format", func(p *models.Patient) { p.DateOfBirth = "22/07/1985" }},
		{"unknown gender", func(p *models.Patient) { p.Gender = "X" }},
		{"contact too short", func(p *models.Patient) { p.ContactNumber = "12345" }},
		{"bad blood group", func(p *models.Patient) { p.BloodGroup = "C+" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			patient := validPatient()
			tc.mutate(&patient)
			assert.Error(t, ValidatePatientData(patient))
		})
	}
}

func TestValidateMedicationLine(t *testing.T) {
	assert.NoError(t, ValidateMedicationLine("Paracetamol", "500mg"))
	assert.Error(t, ValidateMedicationLine("", "500mg"))
	assert.Error(t, ValidateMedicationLine("Paracetamol", ""))
}

func TestValidatePasswordComplexity(t *testing.T) {
	assert.NoError(t, validatePassword("Str0ng!Pass"))
	assert.ErrorIs(t, validatePassword("Sh0rt!"), ErrPasswordTooShort)
	assert.ErrorIs(t, validatePassword("alllowercase1!"), ErrPasswordNotComplex)
	assert.ErrorIs(t, validatePassword("NoDigitsHere!"), ErrPasswordNotComplex)
	assert.ErrorIs(t, validatePassword("NoSpecial123"), ErrPasswordNotComplex)
}
