package repositories

import (
	"CityHealth/cache"
	"CityHealth/database"
	"CityHealth/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PatientCacheExpiry = 24 * time.Hour

	// Dashboard shows the most recently seen patients only.
	dashboardLimit = 20
	searchLimit    = 10
)

// ErrPatientNotFound is returned when a patient id resolves to nothing.
var ErrPatientNotFound = errors.New("patient not found")

type PatientRepository struct {
	cache *cache.Cache
}

func NewPatientRepository(cache *cache.Cache) *PatientRepository {
	return &PatientRepository{cache: cache}
}

// Create registers a new patient. The contact number is the registry's
// uniqueness key; a redis lock keyed on it keeps two concurrent onboardings
// of the same person from both passing the existence check.
func (r *PatientRepository) Create(ctx context.Context, patient *models.Patient) error {
	lockKey := fmt.Sprintf("patient_lock:%s", patient.ContactNumber)
	lockValue := uuid.New().String()

	maxRetries := 3
	retryDelay := 2 * time.Second
	var locked bool
	var err error
	for i := 0; i < maxRetries; i++ {
		locked, err = database.NewLock(ctx, lockKey, lockValue, 10*time.Second)
		if err == nil && locked {
			break
		}
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if !locked {
		return fmt.Errorf("failed to acquire lock after retries: %w", err)
	}
	defer func() {
		if err := database.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			log.Printf("Failed to release lock: %v", err)
		}
	}()

	var existing models.Patient
	if err := database.DB.Where("contact_number = ?", patient.ContactNumber).First(&existing).Error; err == nil {
		return fmt.Errorf("patient with contact number %s already exists", patient.ContactNumber)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check for existing patient: %w", err)
	}

	var nextID string
	if err := database.DB.Raw("SELECT 'CH-' || LPAD(nextval('patient_id_seq')::TEXT, 6, '0')").Scan(&nextID).Error; err != nil {
		return fmt.Errorf("failed to obtain next sequence value: %w", err)
	}
	patient.ID = nextID
	if patient.LastVisit.IsZero() {
		patient.LastVisit = time.Now()
	}

	return database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(patient).Error; err != nil {
			return fmt.Errorf("failed to create patient: %w", err)
		}
		if err := r.cache.Delete(ctx, r.getPatientCacheKey(patient.ID)); err != nil {
			return fmt.Errorf("failed to delete patient cache: %w", err)
		}
		return r.cache.Delete(ctx, "patients_cache")
	})
}

// GetByID returns the patient record, or ErrPatientNotFound.
func (r *PatientRepository) GetByID(ctx context.Context, id string) (*models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getPatientCacheKey(id)
	cachedPatient, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedPatient != "" {
		var patient models.Patient
		if err := json.Unmarshal([]byte(cachedPatient), &patient); err == nil {
			return &patient, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get patient from cache: %v", err)
	}

	var patient models.Patient
	err = database.DB.First(&patient, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}

	patientJSON, err := json.Marshal(patient)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patient: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, patientJSON, PatientCacheExpiry); err != nil {
		log.Printf("Failed to set patient in cache: %v", err)
	}

	return &patient, nil
}

// GetRecent returns the dashboard list, most recently visited first.
func (r *PatientRepository) GetRecent(ctx context.Context) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := "patients_cache"
	cachedPatients, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedPatients != "" {
		var patients []models.Patient
		if err := json.Unmarshal([]byte(cachedPatients), &patients); err == nil {
			return patients, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get patients from cache: %v", err)
	}

	var patients []models.Patient
	err = database.DB.
		Order("last_visit DESC").
		Limit(dashboardLimit).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recent patients: %w", err)
	}

	patientsJSON, err := json.Marshal(patients)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal patients: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, patientsJSON, PatientCacheExpiry); err != nil {
		log.Printf("Failed to set patients in cache: %v", err)
	}

	return patients, nil
}

// Search matches names and contact numbers, case-insensitively. Results are
// not cached: queries are too varied to be worth the invalidation traffic.
func (r *PatientRepository) Search(ctx context.Context, query string) ([]models.Patient, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = ctx

	pattern := "%" + query + "%"
	var patients []models.Patient
	err := database.DB.
		Select("id, first_name, last_name, contact_number, date_of_birth, gender").
		Where("first_name ILIKE ? OR last_name ILIKE ? OR contact_number ILIKE ?", pattern, pattern, pattern).
		Limit(searchLimit).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search patients: %w", err)
	}
	return patients, nil
}

// CountAll returns the total number of registered patients.
func (r *PatientRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := database.DB.Model(&models.Patient{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count patients: %w", err)
	}
	return count, nil
}

// CountVisitedSince returns how many patients have a lastVisit at or after t.
func (r *PatientRepository) CountVisitedSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	if err := database.DB.Model(&models.Patient{}).Where("last_visit >= ?", t).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count recent visits: %w", err)
	}
	return count, nil
}

// InvalidateCache drops the cached record and the dashboard list for a
// patient whose row changed outside this repository.
func (r *PatientRepository) InvalidateCache(ctx context.Context, id string) error {
	if err := r.cache.Delete(ctx, r.getPatientCacheKey(id)); err != nil {
		return err
	}
	return r.cache.Delete(ctx, "patients_cache")
}

func (r *PatientRepository) getPatientCacheKey(patientID string) string {
	return fmt.Sprintf("patient_cache:%s", patientID)
}
