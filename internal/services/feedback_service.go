// Package services – FeedbackService
//
// FeedbackService records per-user ±1 ratings on curated videos. It
// validates the rating value, verifies the target video exists, and maps
// repository duplicates to ErrDuplicateFeedback so handlers can answer 409.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tbourn/go-learnhub-backend/internal/repo"
)

// FeedbackService provides video rating operations.
type FeedbackService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(db *gorm.DB) *FeedbackService {
	return &FeedbackService{DB: db}
}

// Rate records value (-1 or 1) by userID on the video row and returns the
// video's updated aggregate score.
func (s *FeedbackService) Rate(ctx context.Context, videoRowID, userID string, value int) (int64, error) {
	if value != -1 && value != 1 {
		return 0, ErrInvalidFeedback
	}
	if _, err := repo.GetVideo(ctx, s.DB, videoRowID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrVideoNotFound
		}
		return 0, err
	}
	if _, err := repo.CreateFeedback(ctx, s.DB, videoRowID, userID, value); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return 0, ErrDuplicateFeedback
		}
		return 0, err
	}
	return repo.FeedbackScore(ctx, s.DB, videoRowID)
}

// Score returns the current aggregate rating for a video row.
func (s *FeedbackService) Score(ctx context.Context, videoRowID string) (int64, error) {
	if _, err := repo.GetVideo(ctx, s.DB, videoRowID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrVideoNotFound
		}
		return 0, err
	}
	return repo.FeedbackScore(ctx, s.DB, videoRowID)
}
