package services

import (
	"CityHealth/models"
	"CityHealth/repositories"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type mockPatientGetter struct {
	GetByIDFunc func(ctx context.Context, id string) (*models.Patient, error)
}

func (m *mockPatientGetter) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	return m.GetByIDFunc(ctx, id)
}

type mockVisitWriter struct {
	SaveVisitFunc func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error
	calls         int
}

func (m *mockVisitWriter) SaveVisit(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
	m.calls++
	return m.SaveVisitFunc(ctx, prescription, history, visitTime)
}

type mockRenderer struct {
	RenderFunc func(patient *models.Patient, prescription *models.Prescription) ([]byte, error)
}

func (m *mockRenderer) RenderPrescription(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
	return m.RenderFunc(patient, prescription)
}

type mockIngestionQueue struct {
	mu       sync.Mutex
	enqueued []string
}

func (m *mockIngestionQueue) Enqueue(text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, text)
}

var (
	_ PatientGetter    = (*mockPatientGetter)(nil)
	_ VisitWriter      = (*mockVisitWriter)(nil)
	_ DocumentRenderer = (*mockRenderer)(nil)
	_ IngestionQueue   = (*mockIngestionQueue)(nil)
)

func testPatient() *models.Patient {
	return &models.Patient{
		ID:          "CH-000042",
		FirstName:   "Vikram",
		LastName:    "Rao",
		Gender:      "Male",
		DateOfBirth: "1961-03-15",
		BloodGroup:  "B+",
	}
}

func newTestService(patients PatientGetter, visits VisitWriter, renderer DocumentRenderer, ingest IngestionQueue) *PrescriptionService {
	return NewPrescriptionService(patients, visits, nil, renderer, ingest)
}

func TestSaveFillsMedicationDefaults(t *testing.T) {
	var saved *models.Prescription
	visits := &mockVisitWriter{
		SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
			saved = prescription
			return nil
		},
	}
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return testPatient(), nil
		}},
		visits,
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			return []byte("%PDF"), nil
		}},
		&mockIngestionQueue{},
	)

	result, err := svc.Save(context.Background(), Clinician{Name: "Dr. A. Sharma"}, SaveRequest{
		PatientID: "CH-000042",
		Medications: []MedicationInput{
			{Name: "Paracetamol", Dosage: "500mg"},
			{Name: "Azithromycin", Dosage: "250mg", Freq: "1-1-1", Dur: "3 Days"},
			{Name: "Cetirizine", Dosage: "10mg", Frequency: "0-0-1", Duration: "SOS"},
		},
	})

	assert.NoError(t, err)
	assert.NotNil(t, saved)
	assert.Equal(t, DefaultFrequency, saved.Medications[0].Frequency)
	assert.Equal(t, DefaultDuration, saved.Medications[0].Duration)
	assert.Equal(t, "1-1-1", saved.Medications[1].Frequency)
	assert.Equal(t, "3 Days", saved.Medications[1].Duration)
	assert.Equal(t, "SOS", saved.Medications[2].Duration)
	assert.Equal(t, DefaultDiagnosis, saved.Diagnosis)
	assert.NotEmpty(t, result.Prescription.ID)
}

func TestSaveUnknownPatientWritesNothing(t *testing.T) {
	visits := &mockVisitWriter{
		SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
			return nil
		},
	}
	ingest := &mockIngestionQueue{}
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return nil, repositories.ErrPatientNotFound
		}},
		visits,
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			return []byte("%PDF"), nil
		}},
		ingest,
	)

	result, err := svc.Save(context.Background(), Clinician{Name: "Dr. A. Sharma"}, SaveRequest{
		PatientID:   "CH-999999",
		Medications: []MedicationInput{{Name: "Paracetamol", Dosage: "500mg"}},
	})

	assert.ErrorIs(t, err, repositories.ErrPatientNotFound)
	assert.Nil(t, result)
	assert.Equal(t, 0, visits.calls)
	assert.Empty(t, ingest.enqueued)
}

func TestSaveRenderFailureStillSucceeds(t *testing.T) {
	ingest := &mockIngestionQueue{}
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return testPatient(), nil
		}},
		&mockVisitWriter{SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
			return nil
		}},
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			return nil, errors.New("font load failed")
		}},
		ingest,
	)

	result, err := svc.Save(context.Background(), Clinician{Name: "Dr. A. Sharma"}, SaveRequest{
		PatientID:   "CH-000042",
		Medications: []MedicationInput{{Name: "Paracetamol", Dosage: "500mg"}},
	})

	assert.NoError(t, err)
	assert.Nil(t, result.Document)
	assert.NotNil(t, result.Prescription)
	assert.Len(t, ingest.enqueued, 1)
}

func TestSaveWriteFailureAbortsWorkflow(t *testing.T) {
	ingest := &mockIngestionQueue{}
	rendered := false
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return testPatient(), nil
		}},
		&mockVisitWriter{SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
			return errors.New("connection reset")
		}},
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			rendered = true
			return []byte("%PDF"), nil
		}},
		ingest,
	)

	result, err := svc.Save(context.Background(), Clinician{Name: "Dr. A. Sharma"}, SaveRequest{
		PatientID:   "CH-000042",
		Medications: []MedicationInput{{Name: "Paracetamol", Dosage: "500mg"}},
	})

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.False(t, rendered)
	assert.Empty(t, ingest.enqueued)
}

func TestSaveMirrorsHistoryEntry(t *testing.T) {
	var history *models.MedicalHistory
	var saved *models.Prescription
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return testPatient(), nil
		}},
		&mockVisitWriter{SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, h *models.MedicalHistory, visitTime time.Time) error {
			saved = prescription
			history = h
			return nil
		}},
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			return []byte("%PDF"), nil
		}},
		&mockIngestionQueue{},
	)

	_, err := svc.Save(context.Background(), Clinician{Name: "Dr. A. Sharma"}, SaveRequest{
		PatientID: "CH-000042",
		Diagnosis: "Viral Fever",
		Medications: []MedicationInput{
			{Name: "Paracetamol", Dosage: "500mg"},
			{Name: "Cetirizine", Dosage: "10mg"},
		},
	})

	assert.NoError(t, err)
	assert.Equal(t, "Viral Fever", history.ConditionName)
	assert.Equal(t, "Prescription", history.Type)
	assert.Equal(t, "OPD Visit. Prescribed: 2 meds.", history.Description)
	assert.Len(t, history.PrescribedMedications, 2)
	assert.Equal(t, "Paracetamol", history.PrescribedMedications[0].DrugName)
	assert.Equal(t, saved.Medications[0].Frequency, history.PrescribedMedications[0].Frequency)
}

func TestSaveEnqueuesClinicalSummary(t *testing.T) {
	ingest := &mockIngestionQueue{}
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return testPatient(), nil
		}},
		&mockVisitWriter{SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
			return nil
		}},
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			return []byte("%PDF"), nil
		}},
		ingest,
	)

	_, err := svc.Save(context.Background(), Clinician{Name: "Dr. A. Sharma"}, SaveRequest{
		PatientID:   "CH-000042",
		Diagnosis:   "Hypertension",
		Symptoms:    []string{"headache", "dizziness"},
		Vitals:      models.Vitals{BloodPressure: "150/95", Weight: "82kg"},
		Medications: []MedicationInput{{Name: "Amlodipine", Dosage: "5mg"}},
	})

	assert.NoError(t, err)
	assert.Len(t, ingest.enqueued, 1)
	summary := ingest.enqueued[0]
	assert.Contains(t, summary, "CLINICAL RECORD")
	assert.Contains(t, summary, "Patient Vikram Rao")
	assert.Contains(t, summary, "headache, dizziness")
	assert.Contains(t, summary, "BP:150/95, Wt:82kg")
	assert.Contains(t, summary, "Diagnosis: Hypertension")
	assert.Contains(t, summary, "Amlodipine 5mg")
}

func TestSaveRequiresClinicianIdentity(t *testing.T) {
	visits := &mockVisitWriter{
		SaveVisitFunc: func(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
			return nil
		},
	}
	svc := newTestService(
		&mockPatientGetter{GetByIDFunc: func(ctx context.Context, id string) (*models.Patient, error) {
			return testPatient(), nil
		}},
		visits,
		&mockRenderer{RenderFunc: func(patient *models.Patient, prescription *models.Prescription) ([]byte, error) {
			return []byte("%PDF"), nil
		}},
		&mockIngestionQueue{},
	)

	_, err := svc.Save(context.Background(), Clinician{}, SaveRequest{
		PatientID:   "CH-000042",
		Medications: []MedicationInput{{Name: "Paracetamol", Dosage: "500mg"}},
	})

	assert.Error(t, err)
	assert.Equal(t, 0, visits.calls)
}
