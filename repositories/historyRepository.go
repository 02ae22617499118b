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
	HistoryCacheExpiry = 24 * time.Hour
)

type HistoryRepository struct {
	cache *cache.Cache
}

func NewHistoryRepository(cache *cache.Cache) *HistoryRepository {
	return &HistoryRepository{cache: cache}
}

func (r *HistoryRepository) Create(ctx context.Context, entry *models.MedicalHistory) error {
	if entry.DiagnosisDate.IsZero() {
		entry.DiagnosisDate = time.Now()
	}
	if err := database.DB.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create medical history entry: %w", err)
	}
	return r.cache.Delete(ctx, r.getHistoryCacheKey(entry.PatientID))
}

// CreateBatch records several entries at once, as during onboarding when
// chronic conditions are captured.
func (r *HistoryRepository) CreateBatch(ctx context.Context, entries []models.MedicalHistory) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now()
	for i := range entries {
		if entries[i].DiagnosisDate.IsZero() {
			entries[i].DiagnosisDate = now
		}
	}
	if err := database.DB.Create(&entries).Error; err != nil {
		return fmt.Errorf("failed to create medical history entries: %w", err)
	}
	return r.cache.Delete(ctx, r.getHistoryCacheKey(entries[0].PatientID))
}

// ListByPatient returns the full journal, newest diagnosis first.
func (r *HistoryRepository) ListByPatient(ctx context.Context, patientID string) ([]models.MedicalHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getHistoryCacheKey(patientID)
	cached, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cached != "" {
		var entries []models.MedicalHistory
		if err := json.Unmarshal([]byte(cached), &entries); err == nil {
			return entries, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get medical history from cache: %v", err)
	}

	var entries []models.MedicalHistory
	err = database.DB.
		Where("patient_id = ?", patientID).
		Order("diagnosis_date DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list medical history: %w", err)
	}

	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal medical history: %w", err)
	}
	if err := r.cache.Set(ctx, cacheKey, entriesJSON, HistoryCacheExpiry); err != nil {
		log.Printf("Failed to set medical history in cache: %v", err)
	}

	return entries, nil
}

func (r *HistoryRepository) getHistoryCacheKey(patientID string) string {
	return fmt.Sprintf("history_cache:%s", patientID)
}
