package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
	"gorm.io/gorm"
)

// AssetStore is the persistence collaborator for per-asset visibility.
type AssetStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	// BulkSetVisibility sets value on every asset in the batch in one
	// all-or-nothing call. Assets whose visibility is outside the
	// timeline/album-hidden pair (archived, locked) are left untouched:
	// album triggers never override an explicit user state.
	BulkSetVisibility(ctx context.Context, assetIDs []uuid.UUID, value models.AssetVisibility) error
	// ListIDsByVisibility returns the ids of all assets currently at the
	// given visibility value.
	ListIDsByVisibility(ctx context.Context, value models.AssetVisibility) ([]uuid.UUID, error)
}

type gormAssetStore struct {
	db *gorm.DB
}

func NewAssetStore(db *gorm.DB) AssetStore {
	return &gormAssetStore{db: db}
}

func (s *gormAssetStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

func (s *gormAssetStore) BulkSetVisibility(ctx context.Context, assetIDs []uuid.UUID, value models.AssetVisibility) error {
	if len(assetIDs) == 0 {
		return nil
	}
	managed := []models.AssetVisibility{models.VisibilityTimeline, models.VisibilityAlbumHidden}
	return s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id IN ? AND visibility IN ?", assetIDs, managed).
		Update("visibility", value).Error
}

func (s *gormAssetStore) ListIDsByVisibility(ctx context.Context, value models.AssetVisibility) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("visibility = ?", value).
		Pluck("id", &ids).Error
	return ids, err
}
