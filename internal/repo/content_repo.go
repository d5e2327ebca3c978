// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for generated
// content (videos and quizzes), keyed by the canonical topic pair.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - Lookups that legitimately find nothing return an empty slice and nil
//     error: a cache miss is the expected path that triggers generation,
//     not an error.
//   - Single-row getters return ErrNotFound when the record is missing.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// FindVideos returns the curated videos for key, ordered by rank.
// Both key columns are matched (logical AND): a partial match on only one
// field is never a hit. An empty result means "no content yet", not an error.
func FindVideos(ctx context.Context, db *gorm.DB, key normalize.TopicKey) ([]domain.Video, error) {
	var out []domain.Video
	err := db.WithContext(ctx).
		Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
		Order("rank asc").
		Find(&out).Error
	return out, err
}

// FindQuizzes returns the quizzes for key, grouped per video in generation
// order.
func FindQuizzes(ctx context.Context, db *gorm.DB, key normalize.TopicKey) ([]domain.Quiz, error) {
	var out []domain.Quiz
	err := db.WithContext(ctx).
		Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
		Order("video_row_id, position asc").
		Find(&out).Error
	return out, err
}

// GetVideo fetches a single video row by its UUID primary key, or ErrNotFound.
func GetVideo(ctx context.Context, db *gorm.DB, id string) (*domain.Video, error) {
	var v domain.Video
	err := db.WithContext(ctx).Where("id = ?", id).First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// UpsertContent persists one generation result atomically.
//
// Videos are upserted on (search_term, learning_goal, video_id): re-running
// generation for the same key overwrites metadata on existing rows instead
// of duplicating them. Videos from a prior run that the new set no longer
// contains are removed, so the key never holds a mix of fresh and stale
// rows. Quizzes are replaced wholesale for the key; their VideoRowID is
// re-pointed at the surviving video rows after the upsert, since a
// conflicting insert keeps the original row's primary key.
func UpsertContent(ctx context.Context, db *gorm.DB, key normalize.TopicKey, videos []domain.Video, quizzes []domain.Quiz) error {
	if len(videos) == 0 {
		return errors.New("refusing to persist empty content set")
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "search_term"}, {Name: "learning_goal"}, {Name: "video_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"title", "channel_title", "url", "thumbnail", "description",
				"summary", "level", "rank", "score",
				"view_count", "like_count", "comment_count", "published_at",
				"updated_at",
			}),
		}).Create(&videos).Error
		if err != nil {
			return err
		}

		// Drop rows the new set no longer contains. Without this, a video
		// surviving from a prior run would keep its row but lose its quizzes
		// to the wholesale replacement below.
		keep := make([]string, 0, len(videos))
		for _, v := range videos {
			keep = append(keep, v.VideoID)
		}
		if err := tx.Unscoped().
			Where("search_term = ? AND learning_goal = ? AND video_id NOT IN ?",
				key.SearchTerm, key.LearningGoal, keep).
			Delete(&domain.Video{}).Error; err != nil {
			return err
		}

		// Map YouTube ids to surviving row ids.
		var stored []domain.Video
		if err := tx.
			Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
			Find(&stored).Error; err != nil {
			return err
		}
		rowByVideo := make(map[string]string, len(stored))
		for _, v := range stored {
			rowByVideo[v.VideoID] = v.ID
		}
		videoOf := make(map[string]string, len(videos))
		for _, v := range videos {
			videoOf[v.ID] = v.VideoID
		}

		// Replace quizzes for the key; stale rows from a prior run would
		// otherwise mix with the fresh set.
		if err := tx.Unscoped().
			Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
			Delete(&domain.Quiz{}).Error; err != nil {
			return err
		}
		if len(quizzes) == 0 {
			return nil
		}
		for i := range quizzes {
			if vid, ok := videoOf[quizzes[i].VideoRowID]; ok {
				if rowID, ok := rowByVideo[vid]; ok {
					quizzes[i].VideoRowID = rowID
				}
			}
		}
		return tx.Create(&quizzes).Error
	})
}

// ContentStats returns aggregate metadata for a key's videos: row count and
// the maximum UpdatedAt among them. Used for weak ETag generation in the
// HTTP layer. When there is no content, count is 0 and maxUpdatedAt is nil.
func ContentStats(ctx context.Context, db *gorm.DB, key normalize.TopicKey) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Video{}).
		Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
