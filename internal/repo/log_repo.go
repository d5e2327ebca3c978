// Generation log persistence.
//
// The log is a write-only audit trail: one row is appended when a run
// starts and receives a single terminal update when it finishes. It backs
// the status-polling endpoint and dashboards, and is deliberately never
// consulted by the dedup logic; the lock table alone decides whether
// generation may proceed.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
)

// StartLog appends a log entry in status "started" and returns it.
func StartLog(ctx context.Context, db *gorm.DB, key normalize.TopicKey, now time.Time) (*domain.GenerationLog, error) {
	entry := &domain.GenerationLog{
		ID:           uuid.NewString(),
		SearchTerm:   key.SearchTerm,
		LearningGoal: key.LearningGoal,
		Status:       domain.GenStatusStarted,
		StartedAt:    now,
	}
	if err := db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// MarkLogRunning moves a log entry to "in_progress". Best-effort progress
// breadcrumb; a missing row is reported as ErrNotFound.
func MarkLogRunning(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.GenerationLog{}).
		Where("id = ?", id).
		Update("status", domain.GenStatusInProgress)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CompleteLog writes the single terminal update for a log entry: final
// status, completion time, result counts and (for failures) the error text.
func CompleteLog(ctx context.Context, db *gorm.DB, id, status string, videos, quizzes int, errMsg string, now time.Time) error {
	if status != domain.GenStatusSuccess && status != domain.GenStatusFailed {
		return errors.New("terminal log status must be success or failed")
	}
	res := db.WithContext(ctx).
		Model(&domain.GenerationLog{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":            status,
			"completed_at":      now,
			"videos_generated":  videos,
			"quizzes_generated": quizzes,
			"error_message":     errMsg,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// LatestLog returns the most recent log entry for key, or ErrNotFound when
// the key has never been attempted.
func LatestLog(ctx context.Context, db *gorm.DB, key normalize.TopicKey) (*domain.GenerationLog, error) {
	var entry domain.GenerationLog
	err := db.WithContext(ctx).
		Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
		Order("started_at desc").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
