package services

import (
	"CityHealth/models"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// Defaults filled into incomplete medication lines instead of rejecting
	// the whole prescription.
	DefaultFrequency = "1-0-1"
	DefaultDuration  = "5 Days"
	DefaultDiagnosis = "General Consultation"
)

// PatientGetter resolves a patient record.
type PatientGetter interface {
	GetByID(ctx context.Context, id string) (*models.Patient, error)
}

// VisitWriter atomically persists a prescription visit: the prescription,
// its history mirror, and the patient lastVisit advance.
type VisitWriter interface {
	SaveVisit(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error
}

// DocumentRenderer builds the printable prescription. It is best-effort:
// the coordinator swallows its failures.
type DocumentRenderer interface {
	RenderPrescription(patient *models.Patient, prescription *models.Prescription) ([]byte, error)
}

// IngestionQueue accepts a clinical summary for detached delivery to the
// knowledge store. Implementations must never block.
type IngestionQueue interface {
	Enqueue(text string)
}

// PrescriptionReader provides the lookup paths for saved prescriptions.
type PrescriptionReader interface {
	GetByID(ctx context.Context, id string) (*models.Prescription, error)
	GetAll(ctx context.Context) ([]models.Prescription, error)
}

// Clinician identifies who is saving the prescription. It comes from the
// authenticated session, never from configuration.
type Clinician struct {
	UserID       int64
	Name         string
	Registration string
}

// MedicationInput is one medication line as submitted. The prescription pad
// sends the short keys (freq, dur); older clients send the long ones.
type MedicationInput struct {
	Name        string `json:"name"`
	Dosage      string `json:"dosage"`
	Freq        string `json:"freq"`
	Frequency   string `json:"frequency"`
	Dur         string `json:"dur"`
	Duration    string `json:"duration"`
	Instruction string `json:"instruction"`
}

// SaveRequest is the validated input to the save workflow.
type SaveRequest struct {
	PatientID   string
	Diagnosis   string
	Medications []MedicationInput
	Vitals      models.Vitals
	Symptoms    []string
	Advice      string
	NextVisit   *time.Time
}

// SaveResult reports a committed save. Document is nil when rendering
// failed; the save itself still succeeded.
type SaveResult struct {
	Prescription *models.Prescription
	Document     []byte
}

// PrescriptionService coordinates the prescription save workflow.
type PrescriptionService struct {
	patients PatientGetter
	visits   VisitWriter
	reader   PrescriptionReader
	renderer DocumentRenderer
	ingest   IngestionQueue
}

func NewPrescriptionService(patients PatientGetter, visits VisitWriter, reader PrescriptionReader, renderer DocumentRenderer, ingest IngestionQueue) *PrescriptionService {
	return &PrescriptionService{
		patients: patients,
		visits:   visits,
		reader:   reader,
		renderer: renderer,
		ingest:   ingest,
	}
}

// Save runs the prescription save workflow:
//
//  1. the patient must exist, or nothing is written;
//  2. medication lines are normalized, never rejected for missing
//     frequency/duration;
//  3. prescription, history mirror, and lastVisit commit atomically;
//  4. the PDF is rendered best-effort after commit;
//  5. a clinical summary is handed to the detached ingestion queue.
func (s *PrescriptionService) Save(ctx context.Context, clinician Clinician, req SaveRequest) (*SaveResult, error) {
	if clinician.Name == "" {
		return nil, fmt.Errorf("clinician identity is required")
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}

	medications := normalizeMedications(req.Medications)
	diagnosis := req.Diagnosis
	if strings.TrimSpace(diagnosis) == "" {
		diagnosis = DefaultDiagnosis
	}

	now := time.Now()
	prescription := &models.Prescription{
		ID:              uuid.New().String(),
		PatientID:       patient.ID,
		ClinicianName:   clinician.Name,
		ClinicianReg:    clinician.Registration,
		VisitDate:       now,
		Vitals:          models.DefaultVitals(req.Vitals),
		ChiefComplaints: req.Symptoms,
		Diagnosis:       diagnosis,
		Medications:     medications,
		Advice:          req.Advice,
		NextVisit:       req.NextVisit,
	}

	history := &models.MedicalHistory{
		PatientID:             patient.ID,
		ConditionName:         diagnosis,
		Type:                  "Prescription",
		DiagnosisDate:         now,
		Description:           fmt.Sprintf("OPD Visit. Prescribed: %d meds.", len(medications)),
		PrescribedMedications: mirrorMedications(medications),
	}

	if err := s.visits.SaveVisit(ctx, prescription, history, now); err != nil {
		return nil, err
	}

	// The prescription is committed; a rendering failure only costs the
	// caller the document.
	var document []byte
	document, err = s.renderer.RenderPrescription(patient, prescription)
	if err != nil {
		log.Printf("Prescription %s saved but rendering failed: %v", prescription.ID, err)
		document = nil
	}

	s.ingest.Enqueue(composeClinicalSummary(patient, prescription, req.Symptoms))

	return &SaveResult{Prescription: prescription, Document: document}, nil
}

// GetByID returns a saved prescription.
func (s *PrescriptionService) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	return s.reader.GetByID(ctx, id)
}

// GetAll returns the global prescription log.
func (s *PrescriptionService) GetAll(ctx context.Context) ([]models.Prescription, error) {
	return s.reader.GetAll(ctx)
}

// RenderByID regenerates the document for a saved prescription. Documents
// are not cached; each download renders fresh.
func (s *PrescriptionService) RenderByID(ctx context.Context, id string) ([]byte, *models.Prescription, error) {
	prescription, err := s.reader.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	document, err := s.renderer.RenderPrescription(&prescription.Patient, prescription)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render prescription %s: %w", id, err)
	}
	return document, prescription, nil
}

// normalizeMedications maps the short field names onto the canonical ones
// and fills defaults for missing frequency and duration. It never drops or
// rejects a line.
func normalizeMedications(inputs []MedicationInput) models.MedicationList {
	medications := make(models.MedicationList, 0, len(inputs))
	for _, in := range inputs {
		frequency := firstNonEmpty(in.Freq, in.Frequency, DefaultFrequency)
		duration := firstNonEmpty(in.Dur, in.Duration, DefaultDuration)
		medications = append(medications, models.Medication{
			Name:        strings.TrimSpace(in.Name),
			Dosage:      strings.TrimSpace(in.Dosage),
			Frequency:   frequency,
			Duration:    duration,
			Instruction: in.Instruction,
		})
	}
	return medications
}

func mirrorMedications(medications models.MedicationList) models.PrescribedMedicationList {
	mirror := make(models.PrescribedMedicationList, 0, len(medications))
	for _, med := range medications {
		mirror = append(mirror, models.PrescribedMedication{
			DrugName:  med.Name,
			Dosage:    med.Dosage,
			Frequency: med.Frequency,
			Duration:  med.Duration,
		})
	}
	return mirror
}

func composeClinicalSummary(patient *models.Patient, prescription *models.Prescription, symptoms []string) string {
	medsText := make([]string, 0, len(prescription.Medications))
	for _, med := range prescription.Medications {
		medsText = append(medsText, fmt.Sprintf("%s %s", med.Name, med.Dosage))
	}
	complaints := "general complaints"
	if len(symptoms) > 0 {
		complaints = strings.Join(symptoms, ", ")
	}
	vitals := fmt.Sprintf("BP:%s, Wt:%s", prescription.Vitals.BloodPressure, prescription.Vitals.Weight)

	return fmt.Sprintf(
		"CLINICAL RECORD [%s]: Patient %s %s presented with %s. Vitals: %s. Diagnosis: %s. Prescribed: %s.",
		prescription.VisitDate.Format("02/01/2006"),
		patient.FirstName, patient.LastName,
		complaints,
		vitals,
		prescription.Diagnosis,
		strings.Join(medsText, ", "),
	)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
