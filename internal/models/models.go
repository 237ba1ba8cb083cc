package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role is fixed at registration. Gestori publish field listings; everyone
// else only browses and likes.
const (
	RoleUser    = "user"
	RoleGestore = "gestore"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Username     string    `gorm:"unique;not null"           json:"username"`
	Email        string    `gorm:"unique;not null"           json:"email"`
	PasswordHash string    `gorm:"not null"                  json:"-"`
	Role         string    `gorm:"not null;default:user"     json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Token     string    `gorm:"unique;not null"           json:"token"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"  json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *RefreshToken) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

type Field struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"      json:"id"`
	Name        string    `gorm:"not null"                  json:"name"`
	Description string    `gorm:"size:500"                  json:"description"`
	City        string    `gorm:"not null;index"            json:"city"`
	Address     string    `json:"address"`
	Price       float64   `gorm:"check:price >= 0"          json:"price"`
	Image       string    `json:"image"`
	GestoreID   uuid.UUID `gorm:"type:uuid;index;not null"  json:"gestore_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (f *Field) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

type FieldLike struct {
	FieldID uuid.UUID `gorm:"type:uuid;primaryKey" json:"field_id"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
}
