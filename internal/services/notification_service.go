package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Notifier receives one event per (album, recipient) pair after a
// successful mutating operation. Delivery is fire-and-forget: it is not
// part of the consistency contract and failures must not fail the
// operation.
type Notifier interface {
	AlbumUpdated(ctx context.Context, albumID, recipientID uuid.UUID)
	AlbumInvited(ctx context.Context, albumID, userID uuid.UUID)
}

// NotificationService publishes album events to per-user redis channels
type NotificationService struct {
	redis *redis.Client
}

func NewNotificationService(redisClient *redis.Client) *NotificationService {
	return &NotificationService{redis: redisClient}
}

type albumEvent struct {
	Type        string    `json:"type"`
	AlbumID     uuid.UUID `json:"album_id"`
	RecipientID uuid.UUID `json:"recipient_id"`
	At          time.Time `json:"at"`
}

func (s *NotificationService) AlbumUpdated(ctx context.Context, albumID, recipientID uuid.UUID) {
	s.publish(ctx, albumEvent{Type: "album:update", AlbumID: albumID, RecipientID: recipientID, At: time.Now().UTC()})
}

func (s *NotificationService) AlbumInvited(ctx context.Context, albumID, userID uuid.UUID) {
	s.publish(ctx, albumEvent{Type: "album:invite", AlbumID: albumID, RecipientID: userID, At: time.Now().UTC()})
}

func (s *NotificationService) publish(ctx context.Context, ev albumEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("WARN: failed to encode %s event: %v", ev.Type, err)
		return
	}
	channel := fmt.Sprintf("notifications:%s", ev.RecipientID)
	if err := s.redis.Publish(ctx, channel, payload).Err(); err != nil {
		log.Printf("WARN: failed to publish %s event for user %s: %v", ev.Type, ev.RecipientID, err)
	}
}
