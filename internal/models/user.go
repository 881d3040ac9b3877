package models

import (
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type User struct {
	gorm.Model      `json:"-"`
	ID              uint   `json:"id" gorm:"primaryKey"`
	Name            string `json:"name"`
	Email           string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Password        string `json:"-"`                                         // Store hashed password, ignore for JSON serialization
	FirebaseUID     string `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // Link to Firebase User UID
	WalletBalance   int64  `json:"wallet_balance"`   // Purchased points
	EarningsBalance int64  `json:"earnings_balance"` // Points earned from received boosts
}

// SpendableBalance is the sum of both balance components; a boost costs 1 unit of it.
func (u *User) SpendableBalance() int64 {
	return u.WalletBalance + u.EarningsBalance
}

// UserCompact is the author projection embedded in feed items
type UserCompact struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	FirebaseUID string `json:"firebase_uid,omitempty"`
}

// ToCompact converts a full user to its compact projection
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		ID:          u.ID,
		Name:        u.Name,
		FirebaseUID: u.FirebaseUID,
	}
}

type CreateUserRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	FirebaseUID string `json:"firebase_uid" validate:"required"` // Firebase UID will be provided by the client after Firebase Auth
}

type CreateLocalUserRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type UpdateUserRequest struct {
	Name  string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID      uint   `json:"user_id"`
	Email       string `json:"email"`
	FirebaseUID string `json:"firebase_uid,omitempty"`
	jwt.RegisteredClaims
}
