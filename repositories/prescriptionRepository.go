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
	"gorm.io/gorm"
)

const (
	PrescriptionCacheExpiry = 24 * time.Hour
)

// ErrPrescriptionNotFound is returned when a prescription id resolves to
// nothing.
var ErrPrescriptionNotFound = errors.New("prescription not found")

type PrescriptionRepository struct {
	cache *cache.Cache
}

func NewPrescriptionRepository(cache *cache.Cache) *PrescriptionRepository {
	return &PrescriptionRepository{cache: cache}
}

// SaveVisit commits one prescription visit: the prescription record, its
// denormalized history mirror, and the patient's lastVisit advance, all in
// a single database transaction so a prescription is never recorded without
// its history view or vice versa. Caches for every touched view are dropped
// after commit.
func (r *PrescriptionRepository) SaveVisit(ctx context.Context, prescription *models.Prescription, history *models.MedicalHistory, visitTime time.Time) error {
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Patient").Create(prescription).Error; err != nil {
			return fmt.Errorf("failed to create prescription: %w", err)
		}
		history.PrescriptionID = prescription.ID
		if err := tx.Omit("Patient").Create(history).Error; err != nil {
			return fmt.Errorf("failed to create history mirror: %w", err)
		}
		if err := tx.Model(&models.Patient{}).Where("id = ?", prescription.PatientID).
			Update("last_visit", visitTime).Error; err != nil {
			return fmt.Errorf("failed to advance last visit: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	r.invalidateVisitCaches(ctx, prescription.PatientID)
	return nil
}

// GetByID returns a prescription with its patient snapshot, or
// ErrPrescriptionNotFound.
func (r *PrescriptionRepository) GetByID(ctx context.Context, id string) (*models.Prescription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = ctx

	var prescription models.Prescription
	err := database.DB.
		Preload("Patient").
		First(&prescription, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}
	return &prescription, nil
}

// GetAll returns the global prescription log, newest visit first.
func (r *PrescriptionRepository) GetAll(ctx context.Context) ([]models.Prescription, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := "prescriptions_cache"
	cached, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var prescriptions []models.Prescription
		if err := json.Unmarshal([]byte(cached), &prescriptions); err == nil {
			return prescriptions, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get prescriptions from cache: %v", err)
	}

	var prescriptions []models.Prescription
	err = database.DB.
		Preload("Patient", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, first_name, last_name, gender, date_of_birth, contact_number")
		}).
		Order("visit_date DESC").
		Find(&prescriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get prescriptions: %w", err)
	}

	prescriptionsJSON, err := json.Marshal(prescriptions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prescriptions: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, prescriptionsJSON, PrescriptionCacheExpiry); err != nil {
		log.Printf("Failed to set prescriptions in cache: %v", err)
	}

	return prescriptions, nil
}

// RecentDiagnoses returns the diagnoses of the latest prescriptions, for
// trend analysis.
func (r *PrescriptionRepository) RecentDiagnoses(ctx context.Context, limit int) ([]string, error) {
	var diagnoses []string
	err := database.DB.Model(&models.Prescription{}).
		Order("visit_date DESC").
		Limit(limit).
		Pluck("diagnosis", &diagnoses).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent diagnoses: %w", err)
	}
	return diagnoses, nil
}

// CountAll returns the total number of saved prescriptions.
func (r *PrescriptionRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := database.DB.Model(&models.Prescription{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count prescriptions: %w", err)
	}
	return count, nil
}

func (r *PrescriptionRepository) invalidateVisitCaches(ctx context.Context, patientID string) {
	keys := []string{
		fmt.Sprintf("patient_cache:%s", patientID),
		"patients_cache",
		fmt.Sprintf("history_cache:%s", patientID),
		"prescriptions_cache",
	}
	if err := r.cache.DeleteBatch(ctx, keys...); err != nil {
		log.Printf("Failed to invalidate visit caches: %v", err)
	}
}
