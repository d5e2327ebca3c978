// Generation lock (lease) persistence.
//
// The lock table provides the system-wide mutual exclusion guarantee: for a
// given canonical topic pair, at most one generation run is active at any
// instant, across processes. Acquisition is a unique-constraint-backed
// insert, so a race between two callers yields exactly one winner. Leases
// carry a TTL: a row older than the TTL is treated as abandoned (crashed
// holder) and is eligible for takeover via a compare-and-swap on the stale
// row, which prevents a crash from blocking a key forever.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
)

// ErrGenerationInFlight indicates another caller currently holds the lease
// for the topic pair. It is a normal control-flow branch, not a failure:
// callers report elapsed time from the returned holder's CreatedAt.
var ErrGenerationInFlight = errors.New("generation already in flight")

// acquireRetries bounds the insert/read loop in AcquireLock against
// release/re-acquire churn by other processes on the same key.
const acquireRetries = 3

// isUniqueViolation reports whether err is a unique-constraint violation.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// AcquireLock attempts to take the generation lease for key.
//
// Outcomes:
//   - lease acquired: returns the live lock row and nil error;
//   - lease held and fresh: returns the holder row and ErrGenerationInFlight;
//   - lease held but older than ttl: takes over the stale row with a
//     compare-and-swap (UPDATE guarded by id + created_at), so concurrent
//     takeover attempts still produce exactly one winner.
//
// A ttl of zero disables staleness takeover. Whenever ErrGenerationInFlight
// is returned the holder row is non-nil, so callers can always read a
// CreatedAt; the conflicting insert and the holder read are not atomic, so
// the loop below absorbs a holder releasing (and a third caller
// re-acquiring) between the two statements.
func AcquireLock(ctx context.Context, db *gorm.DB, key normalize.TopicKey, now time.Time, ttl time.Duration) (*domain.GenerationRequest, error) {
	rec := &domain.GenerationRequest{
		ID:           uuid.NewString(),
		SearchTerm:   key.SearchTerm,
		LearningGoal: key.LearningGoal,
		CreatedAt:    now,
	}
	for attempt := 0; ; attempt++ {
		err := db.WithContext(ctx).Create(rec).Error
		if err == nil {
			return rec, nil
		}
		if !isUniqueViolation(err) {
			return nil, err
		}

		var holder domain.GenerationRequest
		err = db.WithContext(ctx).
			Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
			First(&holder).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// The holder released between our insert and this read. Retry
			// the insert; under sustained churn stop racing and report the
			// key as held, with the conflict instant as the lease age.
			if attempt < acquireRetries {
				continue
			}
			holder = *rec
			return &holder, ErrGenerationInFlight
		}
		if err != nil {
			return nil, err
		}

		if ttl > 0 && now.Sub(holder.CreatedAt) >= ttl {
			// Stale lease: CAS on (id, created_at) so only one taker wins.
			res := db.WithContext(ctx).
				Model(&domain.GenerationRequest{}).
				Where("id = ? AND created_at = ?", holder.ID, holder.CreatedAt).
				Update("created_at", now)
			if res.Error != nil {
				return nil, res.Error
			}
			if res.RowsAffected == 1 {
				holder.CreatedAt = now
				return &holder, nil
			}
			// Lost the takeover race; the new holder's lease is fresh.
		}

		return &holder, ErrGenerationInFlight
	}
}

// ReleaseLock deletes the lease row for key. Idempotent: releasing a key
// with no lock row is a no-op, not an error.
func ReleaseLock(ctx context.Context, db *gorm.DB, key normalize.TopicKey) error {
	return db.WithContext(ctx).
		Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
		Delete(&domain.GenerationRequest{}).Error
}

// LockHolder returns the live lease row for key, or ErrNotFound.
// Used by the status endpoint; never by acquisition logic.
func LockHolder(ctx context.Context, db *gorm.DB, key normalize.TopicKey) (*domain.GenerationRequest, error) {
	var holder domain.GenerationRequest
	err := db.WithContext(ctx).
		Where("search_term = ? AND learning_goal = ?", key.SearchTerm, key.LearningGoal).
		First(&holder).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &holder, nil
}
