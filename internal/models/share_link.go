package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareLink is a public, optionally expiring link to one album
type ShareLink struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AlbumID   uuid.UUID  `gorm:"type:uuid;not null;index" json:"album_id"`
	Code      string     `gorm:"size:64;uniqueIndex;not null" json:"code"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Relations
	Album *Album `gorm:"foreignKey:AlbumID" json:"album,omitempty"`
}

func (s *ShareLink) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsExpired reports whether the link is past its expiry, if it has one
func (s *ShareLink) IsExpired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}
