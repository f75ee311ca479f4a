package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the minimal account record the messaging core needs (PostgreSQL).
// Profile management lives in another service.
type User struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"size:120"`
	Email     string    `json:"email" gorm:"size:254;uniqueIndex"`
	Role      string    `json:"role" gorm:"size:20;index"` // tenant, landlord or admin
	CreatedAt time.Time `json:"created_at"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}
