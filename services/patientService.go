package services

import (
	"CityHealth/aiclient"
	"CityHealth/models"
	"context"
	"sync"
)

// PatientStore is the registry's persistence surface.
type PatientStore interface {
	Create(ctx context.Context, patient *models.Patient) error
	GetByID(ctx context.Context, id string) (*models.Patient, error)
	GetRecent(ctx context.Context) ([]models.Patient, error)
	Search(ctx context.Context, query string) ([]models.Patient, error)
}

// AllergyStore persists the append-only allergy log.
type AllergyStore interface {
	CreateBatch(ctx context.Context, allergies []models.Allergy) error
	ListByPatient(ctx context.Context, patientID string) ([]models.Allergy, error)
}

// HistoryStore persists medical history entries.
type HistoryStore interface {
	CreateBatch(ctx context.Context, entries []models.MedicalHistory) error
	ListByPatient(ctx context.Context, patientID string) ([]models.MedicalHistory, error)
}

// PatientProfileView is the complete profile returned to the UI: the
// registry record plus history and allergies.
type PatientProfileView struct {
	models.Patient
	MedicalHistory []models.MedicalHistory `json:"medical_history"`
	Allergies      []models.Allergy        `json:"allergies"`
}

type PatientService struct {
	patients  PatientStore
	allergies AllergyStore
	history   HistoryStore
}

func NewPatientService(patients PatientStore, allergies AllergyStore, history HistoryStore) *PatientService {
	return &PatientService{patients: patients, allergies: allergies, history: history}
}

// Onboard registers a patient together with any known allergens and chronic
// conditions. Allergy severity defaults to Moderate until assessed.
func (s *PatientService) Onboard(ctx context.Context, patient *models.Patient, allergens []string, chronicConditions []string) error {
	if err := s.patients.Create(ctx, patient); err != nil {
		return err
	}

	if len(allergens) > 0 {
		allergies := make([]models.Allergy, 0, len(allergens))
		for _, allergen := range allergens {
			allergies = append(allergies, models.Allergy{
				PatientID: patient.ID,
				Allergen:  allergen,
				Severity:  "Moderate",
				Reaction:  "Unknown",
			})
		}
		if err := s.allergies.CreateBatch(ctx, allergies); err != nil {
			return err
		}
	}

	if len(chronicConditions) > 0 {
		entries := make([]models.MedicalHistory, 0, len(chronicConditions))
		for _, condition := range chronicConditions {
			entries = append(entries, models.MedicalHistory{
				PatientID:     patient.ID,
				ConditionName: condition,
				Type:          "Chronic",
			})
		}
		if err := s.history.CreateBatch(ctx, entries); err != nil {
			return err
		}
	}

	return nil
}

// GetProfile assembles the full patient profile. The three reads have no
// ordering dependency and run concurrently; this is an advisory-grade read,
// not a locked snapshot.
func (s *PatientService) GetProfile(ctx context.Context, patientID string) (*PatientProfileView, error) {
	patient, history, allergies, err := s.fetchProfileParts(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &PatientProfileView{
		Patient:        *patient,
		MedicalHistory: history,
		Allergies:      allergies,
	}, nil
}

// AssembleProfile builds the payload shape the advisory service expects.
func (s *PatientService) AssembleProfile(ctx context.Context, patientID string) (*aiclient.PatientProfile, error) {
	patient, history, allergies, err := s.fetchProfileParts(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &aiclient.PatientProfile{
		FirstName:      patient.FirstName,
		LastName:       patient.LastName,
		Gender:         patient.Gender,
		DateOfBirth:    patient.DateOfBirth,
		BloodGroup:     patient.BloodGroup,
		MedicalHistory: history,
		Allergies:      allergies,
	}, nil
}

func (s *PatientService) fetchProfileParts(ctx context.Context, patientID string) (*models.Patient, []models.MedicalHistory, []models.Allergy, error) {
	var (
		wg         sync.WaitGroup
		patient    *models.Patient
		history    []models.MedicalHistory
		allergies  []models.Allergy
		patientErr error
		historyErr error
		allergyErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		patient, patientErr = s.patients.GetByID(ctx, patientID)
	}()
	go func() {
		defer wg.Done()
		history, historyErr = s.history.ListByPatient(ctx, patientID)
	}()
	go func() {
		defer wg.Done()
		allergies, allergyErr = s.allergies.ListByPatient(ctx, patientID)
	}()
	wg.Wait()

	// The patient read decides existence; list errors surface after it.
	if patientErr != nil {
		return nil, nil, nil, patientErr
	}
	if historyErr != nil {
		return nil, nil, nil, historyErr
	}
	if allergyErr != nil {
		return nil, nil, nil, allergyErr
	}
	return patient, history, allergies, nil
}

// Recent returns the dashboard list.
func (s *PatientService) Recent(ctx context.Context) ([]models.Patient, error) {
	return s.patients.GetRecent(ctx)
}

// Search looks up patients by name or contact number.
func (s *PatientService) Search(ctx context.Context, query string) ([]models.Patient, error) {
	return s.patients.Search(ctx, query)
}
