// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the Feedback
// model: per-user ±1 ratings on curated videos.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
)

// ErrDuplicate indicates that a feedback record already exists for the
// given (video, user) pair.
var ErrDuplicate = errors.New("duplicate")

// CreateFeedback inserts a rating and returns ErrDuplicate on unique
// violation (one rating per user per video).
func CreateFeedback(ctx context.Context, db *gorm.DB, videoRowID, userID string, value int) (*domain.Feedback, error) {
	rec := &domain.Feedback{
		ID:         uuid.NewString(),
		VideoRowID: videoRowID,
		UserID:     userID,
		Value:      value,
		CreatedAt:  time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}

// FeedbackScore returns the sum of ratings for a video (0 when unrated).
func FeedbackScore(ctx context.Context, db *gorm.DB, videoRowID string) (int64, error) {
	var row struct {
		Total int64
	}
	err := db.WithContext(ctx).
		Model(&domain.Feedback{}).
		Select("COALESCE(SUM(value), 0) AS total").
		Where("video_row_id = ?", videoRowID).
		Scan(&row).Error
	return row.Total, err
}
