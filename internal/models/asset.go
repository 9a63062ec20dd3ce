package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssetVisibility controls where an asset shows up.
//
// Timeline and AlbumHidden are derived with respect to album membership:
// an asset is album-hidden exactly while at least one album with
// hide_from_timeline contains it. Archived and Locked are explicit user
// states and are never written by album triggers.
type AssetVisibility string

const (
	VisibilityTimeline    AssetVisibility = "timeline"
	VisibilityAlbumHidden AssetVisibility = "album-hidden"
	VisibilityArchived    AssetVisibility = "archived"
	VisibilityLocked      AssetVisibility = "locked"
)

// Asset represents a stored photo original
type Asset struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"owner_id"`
	Key        string          `gorm:"size:512;uniqueIndex" json:"key"` // storage path
	Filename   string          `gorm:"size:255" json:"filename"`
	MimeType   string          `gorm:"size:120" json:"mime_type"`
	SizeBytes  int64           `json:"size_bytes"`
	Checksum   string          `gorm:"size:128" json:"checksum"`
	Visibility AssetVisibility `gorm:"size:16;default:timeline;index" json:"visibility"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Asset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
