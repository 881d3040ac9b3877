package repositories

import (
	"fmt"
	"time"

	"github.com/Sayless-Digital/Success-Family-V4-sub002/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WalletRepository defines the interface for point balance and ledger operations
type WalletRepository interface {
	GetBalance(userID uint) (wallet int64, earnings int64, err error)
	DebitBoost(viewerID uint, authorFirebaseUID string, postID string) error
	RefundBoost(viewerID uint, authorFirebaseUID string, postID string) error
	GetLedgerEntries(userID uint, limit int) ([]models.LedgerEntry, error)
}

// PostgresWalletRepository implements WalletRepository for PostgreSQL
type PostgresWalletRepository struct {
	db *gorm.DB
}

// NewPostgresWalletRepository creates a new PostgresWalletRepository
func NewPostgresWalletRepository(db *gorm.DB) *PostgresWalletRepository {
	return &PostgresWalletRepository{db: db}
}

// GetBalance returns both balance components for a user. Spendable balance is
// their sum.
func (r *PostgresWalletRepository) GetBalance(userID uint) (int64, int64, error) {
	var user models.User
	if err := r.db.First(&user, userID).Error; err != nil {
		return 0, 0, err
	}
	return user.WalletBalance, user.EarningsBalance, nil
}

// DebitBoost moves one point from the viewer to the post author inside a
// single transaction: wallet is drawn down before earnings, the author's
// earnings grow by the same amount, and both movements get ledger rows.
func (r *PostgresWalletRepository) DebitBoost(viewerID uint, authorFirebaseUID string, postID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var viewer models.User
		if err := tx.First(&viewer, viewerID).Error; err != nil {
			return err
		}
		if viewer.SpendableBalance() < models.BoostCost {
			return fmt.Errorf("insufficient balance")
		}

		if viewer.WalletBalance >= models.BoostCost {
			viewer.WalletBalance -= models.BoostCost
		} else {
			viewer.EarningsBalance -= models.BoostCost
		}
		if err := tx.Save(&viewer).Error; err != nil {
			return err
		}

		entries := []models.LedgerEntry{{
			ID:        uuid.NewString(),
			UserID:    viewerID,
			PostID:    postID,
			Amount:    -models.BoostCost,
			Kind:      models.LedgerKindBoostDebit,
			CreatedAt: time.Now(),
		}}

		// Self-authored posts are rejected upstream, but an author row may
		// legitimately be missing when the account was deleted.
		var author models.User
		err := tx.Where("firebase_uid = ?", authorFirebaseUID).First(&author).Error
		if err == nil {
			author.EarningsBalance += models.BoostCost
			if err := tx.Save(&author).Error; err != nil {
				return err
			}
			entries = append(entries, models.LedgerEntry{
				ID:        uuid.NewString(),
				UserID:    author.ID,
				PostID:    postID,
				Amount:    models.BoostCost,
				Kind:      models.LedgerKindBoostEarning,
				CreatedAt: time.Now(),
			})
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		return tx.Create(&entries).Error
	})
}

// RefundBoost reverses a boost debit after an in-window unboost: the viewer
// gets their point back into the wallet and the author's earning is clawed
// back, again with ledger rows for both movements.
func (r *PostgresWalletRepository) RefundBoost(viewerID uint, authorFirebaseUID string, postID string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var viewer models.User
		if err := tx.First(&viewer, viewerID).Error; err != nil {
			return err
		}
		viewer.WalletBalance += models.BoostCost
		if err := tx.Save(&viewer).Error; err != nil {
			return err
		}

		entries := []models.LedgerEntry{{
			ID:        uuid.NewString(),
			UserID:    viewerID,
			PostID:    postID,
			Amount:    models.BoostCost,
			Kind:      models.LedgerKindBoostRefund,
			CreatedAt: time.Now(),
		}}

		var author models.User
		err := tx.Where("firebase_uid = ?", authorFirebaseUID).First(&author).Error
		if err == nil {
			author.EarningsBalance -= models.BoostCost
			if author.EarningsBalance < 0 {
				author.EarningsBalance = 0
			}
			if err := tx.Save(&author).Error; err != nil {
				return err
			}
			entries = append(entries, models.LedgerEntry{
				ID:        uuid.NewString(),
				UserID:    author.ID,
				PostID:    postID,
				Amount:    -models.BoostCost,
				Kind:      models.LedgerKindEarningClaw,
				CreatedAt: time.Now(),
			})
		} else if err != gorm.ErrRecordNotFound {
			return err
		}

		return tx.Create(&entries).Error
	})
}

// GetLedgerEntries returns the user's most recent ledger rows
func (r *PostgresWalletRepository) GetLedgerEntries(userID uint, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []models.LedgerEntry
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
