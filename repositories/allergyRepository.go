package repositories

import (
	"CityHealth/cache"
	"CityHealth/database"
	"CityHealth/models"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	AllergyCacheExpiry = 24 * time.Hour
)

// AllergyRepository stores the append-only allergy log. There is no update
// or delete path: a wrong entry is superseded by a new one.
type AllergyRepository struct {
	cache *cache.Cache
}

func NewAllergyRepository(cache *cache.Cache) *AllergyRepository {
	return &AllergyRepository{cache: cache}
}

func (r *AllergyRepository) Create(ctx context.Context, allergy *models.Allergy) error {
	if err := database.DB.Create(allergy).Error; err != nil {
		return fmt.Errorf("failed to create allergy: %w", err)
	}
	return r.cache.Delete(ctx, r.getAllergyCacheKey(allergy.PatientID))
}

// CreateBatch records several allergies at once, as during onboarding.
func (r *AllergyRepository) CreateBatch(ctx context.Context, allergies []models.Allergy) error {
	if len(allergies) == 0 {
		return nil
	}
	if err := database.DB.Create(&allergies).Error; err != nil {
		return fmt.Errorf("failed to create allergies: %w", err)
	}
	return r.cache.Delete(ctx, r.getAllergyCacheKey(allergies[0].PatientID))
}

func (r *AllergyRepository) ListByPatient(ctx context.Context, patientID string) ([]models.Allergy, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getAllergyCacheKey(patientID)
	cached, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var allergies []models.Allergy
		if err := json.Unmarshal([]byte(cached), &allergies); err == nil {
			return allergies, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get allergies from cache: %v", err)
	}

	var allergies []models.Allergy
	err = database.DB.
		Where("patient_id = ?", patientID).
		Order("detected_date DESC").
		Find(&allergies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list allergies: %w", err)
	}

	allergiesJSON, err := json.Marshal(allergies)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal allergies: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, allergiesJSON, AllergyCacheExpiry); err != nil {
		log.Printf("Failed to set allergies in cache: %v", err)
	}

	return allergies, nil
}

func (r *AllergyRepository) getAllergyCacheKey(patientID string) string {
	return fmt.Sprintf("allergy_cache:%s", patientID)
}
