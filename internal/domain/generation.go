// Generation bookkeeping models.
//
// GenerationRequest is the lease row that guarantees at most one generation
// run per topic pair at any instant; GenerationLog is the write-only audit
// trail behind the status endpoint. The lock is the only source of truth for
// "is generation running"; the log must never be consulted for that.
package domain

import "time"

// Generation log statuses. A log entry is appended with StatusStarted,
// may move to StatusInProgress, and receives exactly one terminal update
// (StatusSuccess or StatusFailed).
const (
	GenStatusStarted    = "started"
	GenStatusInProgress = "in_progress"
	GenStatusSuccess    = "success"
	GenStatusFailed     = "failed"
)

// GenerationRequest records an in-flight generation attempt, keyed by the
// canonical topic pair. The unique index on (search_term, learning_goal)
// backs the atomic insert-if-absent in repo.AcquireLock; CreatedAt doubles
// as the lease start for staleness takeover.
type GenerationRequest struct {
	ID           string    `gorm:"type:char(36);primaryKey"`
	SearchTerm   string    `gorm:"type:varchar(255);not null;uniqueIndex:ux_generation_topic,priority:1"`
	LearningGoal string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_generation_topic,priority:2"`
	CreatedAt    time.Time `gorm:"type:DATETIME;not null"`
}

// TableName implements the GORM tabler interface.
func (GenerationRequest) TableName() string { return "generation_requests" }

// GenerationLog is one orchestration attempt: append-on-start,
// single terminal update on completion. Used purely for status polling and
// audit, never by the dedup logic.
type GenerationLog struct {
	ID           string `gorm:"type:char(36);primaryKey" json:"id"`
	SearchTerm   string `gorm:"type:varchar(255);not null;index:idx_generation_logs_topic,priority:1" json:"search_term"`
	LearningGoal string `gorm:"type:varchar(64);not null;index:idx_generation_logs_topic,priority:2" json:"learning_goal"`

	Status           string     `gorm:"type:varchar(16);not null;check:status IN ('started','in_progress','success','failed')" json:"status"`
	StartedAt        time.Time  `gorm:"type:DATETIME;not null" json:"started_at"`
	CompletedAt      *time.Time `gorm:"type:DATETIME" json:"completed_at,omitempty"`
	VideosGenerated  int        `gorm:"not null;default:0" json:"videos_generated"`
	QuizzesGenerated int        `gorm:"not null;default:0" json:"quizzes_generated"`
	ErrorMessage     string     `gorm:"type:text" json:"error_message,omitempty"`
}

// TableName implements the GORM tabler interface.
func (GenerationLog) TableName() string { return "generation_logs" }
