package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/isdelr/portal-be/internal/models"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100
)

// ActivityPublisher receives every activity after it is stored.
type ActivityPublisher interface {
	PublishActivity(activity models.Activity)
}

// ActivityServiceProvider defines the interface for activity services.
type ActivityServiceProvider interface {
	RecordActivity(ctx context.Context, userID, activityType, message, ip string) (models.Activity, error)
	GetRecentActivity(ctx context.Context, userID string, limit int) ([]models.Activity, error)
}

// ActivityService stores and lists account activity.
type ActivityService struct {
	db        *sql.DB
	publisher ActivityPublisher
}

// NewActivityService creates a new ActivityService. publisher may be nil.
func NewActivityService(db *sql.DB, publisher ActivityPublisher) *ActivityService {
	return &ActivityService{db: db, publisher: publisher}
}

// RecordActivity stores a new activity entry and hands it to the publisher.
func (s *ActivityService) RecordActivity(ctx context.Context, userID, activityType, message, ip string) (models.Activity, error) {
	activity := models.Activity{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      activityType,
		Message:   message,
		IPAddress: ip,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO activities (id, user_id, type, message, ip_address, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		activity.ID, activity.UserID, activity.Type, activity.Message, activity.IPAddress, activity.CreatedAt)
	if err != nil {
		return models.Activity{}, fmt.Errorf("failed to record activity: %w", err)
	}

	if s.publisher != nil {
		s.publisher.PublishActivity(activity)
	}
	return activity, nil
}

// GetRecentActivity retrieves the most recent activity of a user, newest first.
// limit is clamped to (0, MaxActivityLimit]; non-positive means the default.
func (s *ActivityService) GetRecentActivity(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, type, message, COALESCE(ip_address, ''), created_at FROM activities WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?",
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.Type, &a.Message, &a.IPAddress, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
