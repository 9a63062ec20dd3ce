package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/photovault/backend/internal/config"
	"github.com/photovault/backend/internal/models"
	"gorm.io/gorm"
)

var ErrShareLinkNotFound = errors.New("share link not found")

// ShareLinkService manages public album share links
type ShareLinkService struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewShareLinkService(db *gorm.DB, cfg *config.Config) *ShareLinkService {
	return &ShareLinkService{db: db, cfg: cfg}
}

// CreateForAlbum creates a new share link for the album
func (s *ShareLinkService) CreateForAlbum(ctx context.Context, albumID uuid.UUID) (*models.ShareLink, error) {
	var album models.Album
	if err := s.db.WithContext(ctx).First(&album, "id = ?", albumID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAlbumNotFound
		}
		return nil, err
	}

	code, err := generateLinkCode()
	if err != nil {
		return nil, err
	}

	link := &models.ShareLink{
		AlbumID: albumID,
		Code:    code,
	}
	if s.cfg.ShareLinkTTL > 0 {
		expires := time.Now().Add(s.cfg.ShareLinkTTL)
		link.ExpiresAt = &expires
	}

	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create share link: %w", err)
	}
	return link, nil
}

// GetByCode resolves a share link code, rejecting expired links
func (s *ShareLinkService) GetByCode(ctx context.Context, code string) (*models.ShareLink, error) {
	var link models.ShareLink
	err := s.db.WithContext(ctx).Preload("Album").Where("code = ?", code).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrShareLinkNotFound
		}
		return nil, err
	}
	if link.IsExpired(time.Now()) {
		return nil, ErrShareLinkNotFound
	}
	return &link, nil
}

// ListForAlbum returns all share links of an album
func (s *ShareLinkService) ListForAlbum(ctx context.Context, albumID uuid.UUID) ([]models.ShareLink, error) {
	var links []models.ShareLink
	err := s.db.WithContext(ctx).Where("album_id = ?", albumID).Order("created_at DESC").Find(&links).Error
	return links, err
}

// Revoke deletes a share link
func (s *ShareLinkService) Revoke(ctx context.Context, albumID, linkID uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ? AND album_id = ?", linkID, albumID).Delete(&models.ShareLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrShareLinkNotFound
	}
	return nil
}

// ShareURL builds the public URL for a link
func (s *ShareLinkService) ShareURL(link *models.ShareLink) string {
	return fmt.Sprintf("%s/share/%s", s.cfg.FrontendURL, link.Code)
}

func generateLinkCode() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
