package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Album groups assets and drives their derived visibility.
//
// HideFromTimeline pulls every member asset out of the main timeline
// (visibility album-hidden) for as long as at least one hiding album
// contains it. IsExclusive makes the album claim sole ownership of its
// members: adding an asset revokes its membership everywhere else.
type Album struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name             string     `gorm:"size:255;not null" json:"name"`
	Description      string     `gorm:"size:1000" json:"description"`
	ThumbnailAssetID *uuid.UUID `gorm:"type:uuid" json:"thumbnail_asset_id,omitempty"`
	HideFromTimeline bool       `gorm:"not null;default:false" json:"hide_from_timeline"`
	IsExclusive      bool       `gorm:"not null;default:false" json:"is_exclusive"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Owner  *User       `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Assets []Asset     `gorm:"many2many:album_assets" json:"assets,omitempty"`
	Users  []AlbumUser `gorm:"foreignKey:AlbumID" json:"users,omitempty"`
}

func (a *Album) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// AlbumAsset is the membership edge between one album and one asset.
// The composite primary key deduplicates edges at the schema level.
type AlbumAsset struct {
	AlbumID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"album_id"`
	AssetID   uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"asset_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (AlbumAsset) TableName() string { return "album_assets" }

type AlbumUserRole string

const (
	AlbumRoleViewer AlbumUserRole = "viewer"
	AlbumRoleEditor AlbumUserRole = "editor"
)

// AlbumUser is a user the album is shared with
type AlbumUser struct {
	AlbumID   uuid.UUID     `gorm:"type:uuid;primaryKey" json:"album_id"`
	UserID    uuid.UUID     `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      AlbumUserRole `gorm:"size:16;not null;default:viewer" json:"role"`
	CreatedAt time.Time     `json:"created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (AlbumUser) TableName() string { return "album_users" }
