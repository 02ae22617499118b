package repositories

import (
	"CityHealth/cache"
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
	UserCacheExpiry = 24 * time.Hour
)

// UserRepository stores clinic staff accounts.
type UserRepository interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	AuthenticateUser(ctx context.Context, email string) (*models.User, error)
	ValidateRoleID(ctx context.Context, roleID int64) error
	UpdateUserPassword(ctx context.Context, userID int64, hashedPassword string) error
	GetAllUsers(ctx context.Context) ([]models.User, error)
	DeleteUserCache(ctx context.Context, identifier string) error
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	DeleteUser(ctx context.Context, userID int64) error
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewUserRepository(db *gorm.DB, cache *cache.Cache) UserRepository {
	return &userRepository{db: db, cache: cache}
}

const userColumns = "id, username, full_name, registration, email, role_id, created_at"

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

func (r *userRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getUser(ctx, username, "username = ?", username)
}

func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, email, "email = ?", email)
}

func (r *userRepository) GetUserByID(ctx context.Context, userID int64) (*models.User, error) {
	return r.getUser(ctx, fmt.Sprintf("%d", userID), "id = ?", userID)
}

func (r *userRepository) getUser(ctx context.Context, cacheID, query string, arg interface{}) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cacheKey := r.getUserCacheKey(cacheID)
	cachedUser, err := r.cache.Get(ctx, cacheKey)
	if err == nil && cachedUser != "" {
		var user models.User
		if err := json.Unmarshal([]byte(cachedUser), &user); err == nil {
			return &user, nil
		}
	} else if err != nil && err != redis.Nil {
		log.Printf("Failed to get user from cache: %v", err)
	}

	var user models.User
	err = r.db.Select(userColumns).
		Preload("Role", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, description")
		}).
		Where(query, arg).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, cacheKey, userJSON, UserCacheExpiry); err != nil {
		log.Printf("Failed to set user in cache: %v", err)
	}

	return &user, nil
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User) error {
	return r.db.Create(&user).Error
}

// AuthenticateUser loads the stored credential row for a login attempt. The
// password hash comparison happens in the service layer.
func (r *userRepository) AuthenticateUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.Select("id, username, full_name, registration, email, password, role_id, created_at").
		Preload("Role", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, description")
		}).
		Where("email = ?", email).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("invalid email or password")
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ValidateRoleID(ctx context.Context, roleID int64) error {
	var count int64
	err := r.db.Model(&models.Role{}).Where("id = ?", roleID).Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to validate role ID: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("role %d does not exist", roleID)
	}
	return nil
}

func (r *userRepository) UpdateUserPassword(ctx context.Context, userID int64, hashedPassword string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).Update("password", hashedPassword).Error
}

func (r *userRepository) GetAllUsers(ctx context.Context) ([]models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = ctx

	var users []models.User
	err := r.db.Select(userColumns).
		Preload("Role", func(db *gorm.DB) *gorm.DB {
			return db.Select("id, name, description")
		}).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) DeleteUserCache(ctx context.Context, identifier string) error {
	return r.cache.Delete(ctx, r.getUserCacheKey(identifier))
}

func (r *userRepository) DeleteUser(ctx context.Context, userID int64) error {
	return r.db.Delete(&models.User{}, userID).Error
}

func (r *userRepository) getUserCacheKey(identifier string) string {
	return fmt.Sprintf("user_cache:%s", identifier)
}
