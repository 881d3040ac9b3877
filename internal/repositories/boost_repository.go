package repositories

import (
	"fmt"
	"time"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
	"gorm.io/gorm"
)

// BoostRepository defines the interface for boost data operations
type BoostRepository interface {
	CreateBoost(boost *models.Boost) error
	DeleteBoost(postID string, userID uint) error
	GetBoost(postID string, userID uint) (*models.Boost, error)
	GetBoostCountByPostID(postID string) (int64, error)
	HasUserBoostedPost(postID string, userID uint) (bool, error)
	CanUnboost(postID string, userID uint, now time.Time) (bool, error)
	GetBoostsByUser(userID uint) ([]models.Boost, error)
	GetBoostedPostIDs(userID uint, postIDs []string) (map[string]bool, error)
}

// PostgresBoostRepository implements BoostRepository for PostgreSQL
type PostgresBoostRepository struct {
	db *gorm.DB
}

// NewPostgresBoostRepository creates a new PostgresBoostRepository
func NewPostgresBoostRepository(db *gorm.DB) *PostgresBoostRepository {
	return &PostgresBoostRepository{db: db}
}

// CreateBoost creates a new boost in PostgreSQL
func (r *PostgresBoostRepository) CreateBoost(boost *models.Boost) error {
	return r.db.Create(boost).Error
}

// DeleteBoost deletes a boost from PostgreSQL
func (r *PostgresBoostRepository) DeleteBoost(postID string, userID uint) error {
	res := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Boost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("boost not found")
	}
	return nil
}

// GetBoost retrieves a specific boost by postID and userID
func (r *PostgresBoostRepository) GetBoost(postID string, userID uint) (*models.Boost, error) {
	var boost models.Boost
	if err := r.db.Where("post_id = ? AND user_id = ?", postID, userID).First(&boost).Error; err != nil {
		return nil, err
	}
	return &boost, nil
}

// GetBoostCountByPostID retrieves the authoritative boost count for a post
func (r *PostgresBoostRepository) GetBoostCountByPostID(postID string) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Boost{}).Where("post_id = ?", postID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// HasUserBoostedPost checks if a user has boosted a specific post
func (r *PostgresBoostRepository) HasUserBoostedPost(postID string, userID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Boost{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CanUnboost reports whether the user's boost on the post is still inside the undo window
func (r *PostgresBoostRepository) CanUnboost(postID string, userID uint, now time.Time) (bool, error) {
	boost, err := r.GetBoost(postID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return boost.WithinUnboostWindow(now), nil
}

// GetBoostsByUser retrieves all boosts cast by a user, most recent first
func (r *PostgresBoostRepository) GetBoostsByUser(userID uint) ([]models.Boost, error) {
	var boosts []models.Boost
	if err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&boosts).Error; err != nil {
		return nil, err
	}
	return boosts, nil
}

// GetBoostedPostIDs returns which of the given posts the user has boosted
func (r *PostgresBoostRepository) GetBoostedPostIDs(userID uint, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}
	var boosts []models.Boost
	if err := r.db.Where("user_id = ? AND post_id IN ?", userID, postIDs).Find(&boosts).Error; err != nil {
		return nil, err
	}
	for _, b := range boosts {
		result[b.PostID] = true
	}
	return result, nil
}
