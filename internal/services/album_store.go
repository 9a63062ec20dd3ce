package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AlbumStore is the persistence collaborator for albums, membership
// edges and album sharing. Membership mutation is idempotent: adding an
// existing edge or removing an absent one is a no-op, and the mutating
// calls report the actual delta so callers can trigger on it.
type AlbumStore interface {
	Create(ctx context.Context, album *models.Album, assetIDs []uuid.UUID, users []models.AlbumUser) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Album, error)
	GetWithAssets(ctx context.Context, id uuid.UUID) (*models.Album, error)
	Update(ctx context.Context, album *models.Album) error
	Delete(ctx context.Context, id uuid.UUID) error

	ListOwned(ctx context.Context, userID uuid.UUID) ([]models.Album, error)
	ListSharedWith(ctx context.Context, userID uuid.UUID) ([]models.Album, error)

	// GetAlbumsForAsset returns every album visible to userID (owned or
	// shared with them) that currently contains assetID.
	GetAlbumsForAsset(ctx context.Context, userID, assetID uuid.UUID) ([]models.Album, error)

	// AddAssets inserts the missing membership edges and returns the ids
	// that were actually added (duplicates are skipped).
	AddAssets(ctx context.Context, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error)
	// RemoveAssets deletes the existing membership edges and returns the
	// ids that were actually removed.
	RemoveAssets(ctx context.Context, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error)
	// RemoveMembership deletes a single edge; removing an edge that no
	// longer exists is success.
	RemoveMembership(ctx context.Context, albumID, assetID uuid.UUID) error

	HasAsset(ctx context.Context, albumID, assetID uuid.UUID) (bool, error)
	ListAssetIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error)
	FirstAssetID(ctx context.Context, albumID uuid.UUID) (*uuid.UUID, error)

	// ListHiddenAssetIDs returns the distinct ids of assets that belong
	// to at least one album with hide_from_timeline set.
	ListHiddenAssetIDs(ctx context.Context) ([]uuid.UUID, error)

	AddUser(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error
	RemoveUser(ctx context.Context, albumID, userID uuid.UUID) error
	UpdateUserRole(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error
	ListSharedUserIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error)
}

type gormAlbumStore struct {
	db *gorm.DB
}

func NewAlbumStore(db *gorm.DB) AlbumStore {
	return &gormAlbumStore{db: db}
}

func (s *gormAlbumStore) Create(ctx context.Context, album *models.Album, assetIDs []uuid.UUID, users []models.AlbumUser) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(album).Error; err != nil {
			return err
		}
		for _, assetID := range assetIDs {
			edge := models.AlbumAsset{AlbumID: album.ID, AssetID: assetID}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
				return err
			}
		}
		for _, u := range users {
			u.AlbumID = album.ID
			if err := tx.Create(&u).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *gormAlbumStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Album, error) {
	var album models.Album
	if err := s.db.WithContext(ctx).First(&album, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}
	return &album, nil
}

func (s *gormAlbumStore) GetWithAssets(ctx context.Context, id uuid.UUID) (*models.Album, error) {
	var album models.Album
	err := s.db.WithContext(ctx).
		Preload("Assets").
		Preload("Users").
		Preload("Users.User").
		First(&album, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}
	return &album, nil
}

func (s *gormAlbumStore) Update(ctx context.Context, album *models.Album) error {
	return s.db.WithContext(ctx).Save(album).Error
}

func (s *gormAlbumStore) Delete(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("album_id = ?", id).Delete(&models.AlbumAsset{}).Error; err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", id).Delete(&models.AlbumUser{}).Error; err != nil {
			return err
		}
		if err := tx.Where("album_id = ?", id).Delete(&models.ShareLink{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Album{}, "id = ?", id).Error
	})
}

func (s *gormAlbumStore) ListOwned(ctx context.Context, userID uuid.UUID) ([]models.Album, error) {
	var albums []models.Album
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", userID).
		Order("created_at DESC").
		Find(&albums).Error
	return albums, err
}

func (s *gormAlbumStore) ListSharedWith(ctx context.Context, userID uuid.UUID) ([]models.Album, error) {
	var albums []models.Album
	err := s.db.WithContext(ctx).
		Joins("JOIN album_users ON album_users.album_id = albums.id").
		Where("album_users.user_id = ?", userID).
		Order("albums.created_at DESC").
		Find(&albums).Error
	return albums, err
}

func (s *gormAlbumStore) GetAlbumsForAsset(ctx context.Context, userID, assetID uuid.UUID) ([]models.Album, error) {
	var albums []models.Album
	shared := s.db.Model(&models.AlbumUser{}).Select("album_id").Where("user_id = ?", userID)
	err := s.db.WithContext(ctx).
		Joins("JOIN album_assets ON album_assets.album_id = albums.id").
		Where("album_assets.asset_id = ?", assetID).
		Where("albums.owner_id = ? OR albums.id IN (?)", userID, shared).
		Find(&albums).Error
	return albums, err
}

func (s *gormAlbumStore) AddAssets(ctx context.Context, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}
	existing, err := s.memberSet(ctx, albumID, assetIDs)
	if err != nil {
		return nil, err
	}

	var added []uuid.UUID
	seen := make(map[uuid.UUID]bool, len(assetIDs))
	for _, assetID := range assetIDs {
		if existing[assetID] || seen[assetID] {
			continue
		}
		seen[assetID] = true
		edge := models.AlbumAsset{AlbumID: albumID, AssetID: assetID}
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error; err != nil {
			return added, err
		}
		added = append(added, assetID)
	}
	return added, nil
}

func (s *gormAlbumStore) RemoveAssets(ctx context.Context, albumID uuid.UUID, assetIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(assetIDs) == 0 {
		return nil, nil
	}
	existing, err := s.memberSet(ctx, albumID, assetIDs)
	if err != nil {
		return nil, err
	}

	var removed []uuid.UUID
	for assetID := range existing {
		removed = append(removed, assetID)
	}
	if len(removed) == 0 {
		return nil, nil
	}

	err = s.db.WithContext(ctx).
		Where("album_id = ? AND asset_id IN ?", albumID, removed).
		Delete(&models.AlbumAsset{}).Error
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (s *gormAlbumStore) RemoveMembership(ctx context.Context, albumID, assetID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("album_id = ? AND asset_id = ?", albumID, assetID).
		Delete(&models.AlbumAsset{}).Error
}

func (s *gormAlbumStore) HasAsset(ctx context.Context, albumID, assetID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.AlbumAsset{}).
		Where("album_id = ? AND asset_id = ?", albumID, assetID).
		Count(&count).Error
	return count > 0, err
}

func (s *gormAlbumStore) ListAssetIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.AlbumAsset{}).
		Where("album_id = ?", albumID).
		Pluck("asset_id", &ids).Error
	return ids, err
}

func (s *gormAlbumStore) FirstAssetID(ctx context.Context, albumID uuid.UUID) (*uuid.UUID, error) {
	var edge models.AlbumAsset
	err := s.db.WithContext(ctx).
		Where("album_id = ?", albumID).
		Order("created_at ASC").
		First(&edge).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &edge.AssetID, nil
}

func (s *gormAlbumStore) ListHiddenAssetIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.AlbumAsset{}).
		Distinct("album_assets.asset_id").
		Joins("JOIN albums ON albums.id = album_assets.album_id").
		Where("albums.hide_from_timeline = ?", true).
		Pluck("album_assets.asset_id", &ids).Error
	return ids, err
}

func (s *gormAlbumStore) AddUser(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error {
	edge := models.AlbumUser{AlbumID: albumID, UserID: userID, Role: role}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&edge).Error
}

func (s *gormAlbumStore) RemoveUser(ctx context.Context, albumID, userID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Where("album_id = ? AND user_id = ?", albumID, userID).
		Delete(&models.AlbumUser{}).Error
}

func (s *gormAlbumStore) UpdateUserRole(ctx context.Context, albumID, userID uuid.UUID, role models.AlbumUserRole) error {
	return s.db.WithContext(ctx).
		Model(&models.AlbumUser{}).
		Where("album_id = ? AND user_id = ?", albumID, userID).
		Update("role", role).Error
}

func (s *gormAlbumStore) ListSharedUserIDs(ctx context.Context, albumID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.AlbumUser{}).
		Where("album_id = ?", albumID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// memberSet returns which of the candidate ids are current members
func (s *gormAlbumStore) memberSet(ctx context.Context, albumID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]bool, error) {
	var present []uuid.UUID
	err := s.db.WithContext(ctx).
		Model(&models.AlbumAsset{}).
		Where("album_id = ? AND asset_id IN ?", albumID, candidates).
		Pluck("asset_id", &present).Error
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(present))
	for _, id := range present {
		set[id] = true
	}
	return set, nil
}
