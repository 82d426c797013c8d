package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// User represents an account that can exchange messages and calls.
// Credentials and password recovery live in a separate auth service; this
// model only carries what the realtime core needs to address and display users.
type User struct {
	ID           string `gorm:"primaryKey" json:"id"`
	FirstName    string `gorm:"type:text;not null" json:"firstName"`
	LastName     string `gorm:"type:text;not null" json:"lastName"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	ProfileImage string `gorm:"type:text" json:"profileImage,omitempty"`
	// Contacts holds user IDs this user has saved.
	Contacts  pq.StringArray `gorm:"type:text[]" json:"contacts,omitempty"`
	IsActive  bool           `gorm:"default:true" json:"isActive"`
	LastLogin *time.Time     `json:"lastLogin,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// BeforeCreate is a GORM hook that assigns a UUID when the ID is not set.
func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return
}
