package utils

import (
	"CityHealth/models"
	"errors"
	"log"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Validation errors
var (
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrPasswordNotComplex = errors.New("password must include at least one uppercase letter, one lowercase letter, one digit, and one special character")
	ErrInvalidResetCode   = errors.New("invalid reset code")
)

// ValidateUserData validates a staff account using ozzo-validation.
func ValidateUserData(user models.User) error {
	err := validation.ValidateStruct(&user,
		validation.Field(&user.Username, validation.Required, validation.Length(3, 50)),
		validation.Field(&user.FullName, validation.Required, validation.Length(2, 255)),
		validation.Field(&user.Email, validation.Required, is.Email),
		validation.Field(&user.Password, validation.Required.Error("password cannot be blank"), validation.By(validatePassword)),
	)
	if err != nil {
		log.Printf("Validation error: %v\n", err)
	}
	return err
}

// ValidatePatientData validates a patient registration payload.
func ValidatePatientData(patient models.Patient) error {
	err := validation.ValidateStruct(&patient,
		validation.Field(&patient.FirstName, validation.Required, validation.Length(1, 100)),
		validation.Field(&patient.LastName, validation.Required, validation.Length(1, 100)),
		validation.Field(&patient.DateOfBirth, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&patient.Gender, validation.Required, validation.In("Male", "Female", "Other")),
		validation.Field(&patient.ContactNumber, validation.Required, validation.Length(7, 20)),
		validation.Field(&patient.BloodGroup, validation.In("A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-", "Unknown", "")),
	)
	if err != nil {
		log.Printf("Validation error: %v\n", err)
	}
	return err
}

// ValidateMedicationLine checks the fields a prescription line cannot be
// saved without. Frequency and duration are deliberately absent: the save
// workflow fills defaults for those instead of rejecting.
func ValidateMedicationLine(name, dosage string) error {
	return validation.Errors{
		"name":   validation.Validate(name, validation.Required.Error("medication name is required")),
		"dosage": validation.Validate(dosage, validation.Required.Error("medication dosage is required")),
	}.Filter()
}

// ValidatePasswordReset validates the reset code and new password.
func ValidatePasswordReset(resetCode, newPassword string) error {
	err := validation.Errors{
		"resetCode": validation.Validate(resetCode, validation.Required.Error("invalid reset code")),
		"password":  validation.Validate(newPassword, validation.Required, validation.By(validatePassword)),
	}.Filter()
	if err != nil {
		log.Printf("Validation error: %v\n", err)
	}
	return err
}

// validatePassword checks the password for length and complexity.
func validatePassword(value interface{}) error {
	password, _ := value.(string)

	if len(password) < 8 {
		return ErrPasswordTooShort
	}

	var (
		lowercaseRegex = regexp.MustCompile(`[a-z]`)
		uppercaseRegex = regexp.MustCompile(`[A-Z]`)
		digitRegex     = regexp.MustCompile(`\d`)
		specialRegex   = regexp.MustCompile(`[@$!%*?&]`)
	)

	if !lowercaseRegex.MatchString(password) ||
		!uppercaseRegex.MatchString(password) ||
		!digitRegex.MatchString(password) ||
		!specialRegex.MatchString(password) {
		return ErrPasswordNotComplex
	}

	return nil
}
