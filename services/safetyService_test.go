package services

import (
	"CityHealth/aiclient"
	"CityHealth/models"
	"CityHealth/repositories"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockProfileAssembler struct {
	AssembleProfileFunc func(ctx context.Context, patientID string) (*aiclient.PatientProfile, error)
}

func (m *mockProfileAssembler) AssembleProfile(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
	return m.AssembleProfileFunc(ctx, patientID)
}

type mockAdvisoryChecker struct {
	SafetyCheckFunc func(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error)
}

func (m *mockAdvisoryChecker) SafetyCheck(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error) {
	return m.SafetyCheckFunc(ctx, profile, proposed)
}

var (
	_ ProfileAssembler = (*mockProfileAssembler)(nil)
	_ AdvisoryChecker  = (*mockAdvisoryChecker)(nil)
)

func warfarinProfile() *aiclient.PatientProfile {
	return &aiclient.PatientProfile{
		FirstName:   "Vikram",
		LastName:    "Rao",
		Gender:      "Male",
		DateOfBirth: "1961-03-15",
		BloodGroup:  "B+",
		MedicalHistory: []models.MedicalHistory{
			{
				ConditionName: "Atrial Fibrillation",
				Type:          "Prescription",
				PrescribedMedications: models.PrescribedMedicationList{
					{DrugName: "Warfarin", Dosage: "5mg"},
				},
			},
		},
	}
}

func TestCheckSafetyFlagsKnownInteraction(t *testing.T) {
	svc := NewSafetyService(
		&mockProfileAssembler{AssembleProfileFunc: func(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
			return warfarinProfile(), nil
		}},
		&mockAdvisoryChecker{SafetyCheckFunc: func(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error) {
			return &aiclient.SafetyVerdict{Safe: true, Warnings: []string{}}, nil
		}},
	)

	result, err := svc.CheckSafety(context.Background(), "CH-000042", []models.Medication{
		{Name: "Aspirin", Dosage: "75mg"},
	})

	assert.NoError(t, err)
	assert.False(t, result.Safe)
	assert.Contains(t, result.Warnings, "DANGER: 'Aspirin' interacts with 'Warfarin'")
}

func TestCheckSafetyFailsOpenOnAdvisoryOutage(t *testing.T) {
	svc := NewSafetyService(
		&mockProfileAssembler{AssembleProfileFunc: func(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
			return warfarinProfile(), nil
		}},
		&mockAdvisoryChecker{SafetyCheckFunc: func(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error) {
			return nil, errors.New("connection refused")
		}},
	)

	result, err := svc.CheckSafety(context.Background(), "CH-000042", []models.Medication{
		{Name: "Aspirin", Dosage: "75mg"},
	})

	assert.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Contains(t, result.Warnings, FailOpenWarning)
	assert.Contains(t, result.Warnings, "DANGER: 'Aspirin' interacts with 'Warfarin'")
}

func TestCheckSafetyPropagatesAdvisoryVerdict(t *testing.T) {
	svc := NewSafetyService(
		&mockProfileAssembler{AssembleProfileFunc: func(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
			return &aiclient.PatientProfile{FirstName: "Asha", LastName: "Mehta"}, nil
		}},
		&mockAdvisoryChecker{SafetyCheckFunc: func(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error) {
			return &aiclient.SafetyVerdict{
				Safe:     false,
				Warnings: []string{"Patient is allergic to penicillin"},
			}, nil
		}},
	)

	result, err := svc.CheckSafety(context.Background(), "CH-000001", []models.Medication{
		{Name: "Amoxicillin", Dosage: "500mg"},
	})

	assert.NoError(t, err)
	assert.False(t, result.Safe)
	assert.Equal(t, []string{"Patient is allergic to penicillin"}, result.Warnings)
}

func TestCheckSafetyCleanPrescriptionIsSafe(t *testing.T) {
	svc := NewSafetyService(
		&mockProfileAssembler{AssembleProfileFunc: func(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
			return warfarinProfile(), nil
		}},
		&mockAdvisoryChecker{SafetyCheckFunc: func(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error) {
			return &aiclient.SafetyVerdict{Safe: true, Warnings: []string{}}, nil
		}},
	)

	result, err := svc.CheckSafety(context.Background(), "CH-000042", []models.Medication{
		{Name: "Cetirizine", Dosage: "10mg"},
	})

	assert.NoError(t, err)
	assert.True(t, result.Safe)
	assert.Empty(t, result.Warnings)
}

func TestCheckSafetyUnknownPatientIsAnError(t *testing.T) {
	advisorCalled := false
	svc := NewSafetyService(
		&mockProfileAssembler{AssembleProfileFunc: func(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
			return nil, repositories.ErrPatientNotFound
		}},
		&mockAdvisoryChecker{SafetyCheckFunc: func(ctx context.Context, profile aiclient.PatientProfile, proposed []models.Medication) (*aiclient.SafetyVerdict, error) {
			advisorCalled = true
			return &aiclient.SafetyVerdict{Safe: true}, nil
		}},
	)

	result, err := svc.CheckSafety(context.Background(), "CH-999999", []models.Medication{
		{Name: "Paracetamol", Dosage: "500mg"},
	})

	assert.ErrorIs(t, err, repositories.ErrPatientNotFound)
	assert.Nil(t, result)
	assert.False(t, advisorCalled)
}
