package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/config"
	"github.com/photovault/backend/internal/models"
	"gorm.io/gorm"
)

// AssetService manages asset originals and their records. Archive and
// unarchive are the explicit user states; unarchiving re-derives the
// timeline/album-hidden value from current album membership instead of
// blindly restoring the timeline.
type AssetService struct {
	db      *gorm.DB
	cfg     *config.Config
	s3      *S3Service
	storage *StorageService
	albums  AlbumStore
}

func NewAssetService(db *gorm.DB, cfg *config.Config, s3Service *S3Service, storageService *StorageService, albums AlbumStore) *AssetService {
	return &AssetService{
		db:      db,
		cfg:     cfg,
		s3:      s3Service,
		storage: storageService,
		albums:  albums,
	}
}

var allowedAssetExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".heic": true,
	".mp4": true, ".mov": true,
}

// Upload stores an asset original in S3 plus the local cache and creates
// the database record
func (s *AssetService) Upload(ctx context.Context, ownerID uuid.UUID, filename string, data []byte) (*models.Asset, error) {
	mimeType := http.DetectContentType(data)
	if !strings.HasPrefix(mimeType, "image/") && !strings.HasPrefix(mimeType, "video/") {
		return nil, fmt.Errorf("%w: expected image or video, got %s", ErrInvalidRequest, mimeType)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAssetExts[ext] {
		return nil, fmt.Errorf("%w: unsupported extension %s", ErrInvalidRequest, ext)
	}

	if int64(len(data)) > s.cfg.UploadMaxAssetSize {
		return nil, fmt.Errorf("%w: asset too large: %d bytes (max %d)", ErrInvalidRequest, len(data), s.cfg.UploadMaxAssetSize)
	}

	key := s.storage.BuildObjectKey("originals", filename)

	if err := s.s3.UploadOriginal(ctx, key, bytes.NewReader(data), mimeType); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	var checksum string
	if _, _, sum, err := s.storage.SaveStream(ctx, key, bytes.NewReader(data)); err != nil {
		// S3 is the source of truth; a failed local cache is not fatal
		log.Printf("WARN: failed to cache asset locally: %v", err)
	} else {
		checksum = sum
	}

	asset := &models.Asset{
		OwnerID:    ownerID,
		Key:        key,
		Filename:   filename,
		MimeType:   mimeType,
		SizeBytes:  int64(len(data)),
		Checksum:   checksum,
		Visibility: models.VisibilityTimeline,
	}
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		_ = s.s3.DeleteOriginal(ctx, key)
		return nil, fmt.Errorf("failed to create asset record: %w", err)
	}

	return asset, nil
}

// GetByID returns one asset record
func (s *AssetService) GetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := s.db.WithContext(ctx).First(&asset, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	return &asset, nil
}

// ListByVisibility lists the user's assets at one visibility value
func (s *AssetService) ListByVisibility(ctx context.Context, ownerID uuid.UUID, visibility models.AssetVisibility, limit, offset int) ([]models.Asset, int64, error) {
	var assets []models.Asset
	var total int64

	query := s.db.WithContext(ctx).Model(&models.Asset{}).
		Where("owner_id = ? AND visibility = ?", ownerID, visibility)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&assets).Error; err != nil {
		return nil, 0, err
	}
	return assets, total, nil
}

// Delete removes the asset original, its local cache, its membership
// edges and the record. S3 first, to avoid orphaned objects.
func (s *AssetService) Delete(ctx context.Context, ownerID, assetID uuid.UUID) error {
	asset, err := s.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.OwnerID != ownerID {
		return ErrAssetNotFound
	}

	// S3 object might already be gone; keep going either way
	_ = s.s3.DeleteOriginal(ctx, asset.Key)
	_ = s.storage.Remove(asset.Key)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", assetID).Delete(&models.AlbumAsset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Asset{}, "id = ?", assetID).Error
	})
}

// Archive moves an asset into the archived state. Only timeline and
// album-hidden assets can be archived; locked stays locked.
func (s *AssetService) Archive(ctx context.Context, ownerID, assetID uuid.UUID) error {
	managed := []models.AssetVisibility{models.VisibilityTimeline, models.VisibilityAlbumHidden}
	res := s.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND owner_id = ? AND visibility IN ?", assetID, ownerID, managed).
		Update("visibility", models.VisibilityArchived)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: asset not found or not archivable", ErrInvalidRequest)
	}
	return nil
}

// Unarchive takes an asset back out of the archive. The target value is
// derived from membership: album-hidden when at least one hiding album
// still contains it, timeline otherwise.
func (s *AssetService) Unarchive(ctx context.Context, ownerID, assetID uuid.UUID) (models.AssetVisibility, error) {
	target := models.VisibilityTimeline
	containing, err := s.albums.GetAlbumsForAsset(ctx, ownerID, assetID)
	if err != nil {
		return "", err
	}
	for _, album := range containing {
		if album.HideFromTimeline {
			target = models.VisibilityAlbumHidden
			break
		}
	}

	res := s.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND owner_id = ? AND visibility = ?", assetID, ownerID, models.VisibilityArchived).
		Update("visibility", target)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", fmt.Errorf("%w: asset is not archived", ErrInvalidRequest)
	}
	return target, nil
}

// PresignDownload returns a time-limited S3 URL for the asset original,
// so clients can fetch it without proxying through this server
func (s *AssetService) PresignDownload(ctx context.Context, key string) (string, error) {
	return s.s3.PresignGet(ctx, key, s.cfg.DownloadURLTTL)
}

// LocalPath returns the local file path for an asset, downloading from
// S3 into the cache if needed
func (s *AssetService) LocalPath(ctx context.Context, key string) (string, error) {
	localPath := s.storage.LocalPath(key)
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	data, err := s.s3.DownloadOriginal(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to download from S3: %w", err)
	}

	absPath, _, _, err := s.storage.SaveStream(ctx, key, bytes.NewReader(data.Bytes()))
	if err != nil {
		return "", fmt.Errorf("failed to cache asset locally: %w", err)
	}
	return absPath, nil
}
