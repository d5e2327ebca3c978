// Package domain defines the persistence models for generated learning
// content: curated videos, their quizzes, and per-user video feedback.
// These types are mapped with GORM and form the core data layer of the
// LearnHub backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Video is one curated YouTube video for a canonical (search_term,
// learning_goal) topic pair. Rows are written exclusively by the generation
// orchestrator; regeneration for the same pair upserts on
// (search_term, learning_goal, video_id), so it overwrites rather than
// duplicates.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - SearchTerm / LearningGoal: the canonical topic pair (always the
//     normalized form, never raw user input).
//   - VideoID: YouTube video identifier; unique within a topic pair.
//   - Summary / Level: LLM-generated study summary and difficulty estimate.
//   - Rank / Score: position and weighted relevance score at generation time.
type Video struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	SearchTerm   string `json:"search_term"   gorm:"type:varchar(255);not null;index:idx_topic_videos,priority:1;uniqueIndex:ux_topic_video,priority:1"`
	LearningGoal string `json:"learning_goal" gorm:"type:varchar(64);not null;index:idx_topic_videos,priority:2;uniqueIndex:ux_topic_video,priority:2"`
	VideoID      string `json:"video_id"      gorm:"type:varchar(32);not null;uniqueIndex:ux_topic_video,priority:3"`

	Title        string    `json:"title"         gorm:"type:varchar(255);not null"`
	ChannelTitle string    `json:"channel_title" gorm:"type:varchar(255)"`
	URL          string    `json:"url"           gorm:"type:varchar(255);not null"`
	Thumbnail    string    `json:"thumbnail"     gorm:"type:varchar(255)"`
	Description  string    `json:"description"   gorm:"type:text"`
	Summary      string    `json:"summary"       gorm:"type:text;not null"`
	Level        string    `json:"level"         gorm:"type:varchar(16)"`
	Rank         int       `json:"rank"          gorm:"not null"`
	Score        float64   `json:"score"`
	ViewCount    int64     `json:"view_count"`
	LikeCount    int64     `json:"like_count"`
	CommentCount int64     `json:"comment_count"`
	PublishedAt  time.Time `json:"published_at"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string { return "videos" }

// Quiz is a single generated question/answer pair attached to a video.
// Quizzes carry the topic pair of the video that produced them so they can
// be fetched by key without a join.
type Quiz struct {
	ID           string `json:"id"            gorm:"type:char(36);primaryKey"`
	VideoRowID   string `json:"video_row_id"  gorm:"type:char(36);not null;index"`
	SearchTerm   string `json:"search_term"   gorm:"type:varchar(255);not null;index:idx_topic_quizzes,priority:1"`
	LearningGoal string `json:"learning_goal" gorm:"type:varchar(64);not null;index:idx_topic_quizzes,priority:2"`

	Question   string `json:"question"   gorm:"type:text;not null"`
	Answer     string `json:"answer"     gorm:"type:text;not null"`
	Difficulty string `json:"difficulty" gorm:"type:varchar(16)"`
	Position   int    `json:"position"   gorm:"not null"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Video is the parent row. Quizzes are cascade-deleted when the video
	// they belong to is removed or replaced.
	Video Video `json:"-" gorm:"foreignKey:VideoRowID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Quiz.
func (Quiz) TableName() string { return "quizzes" }

// Feedback is a user-provided rating (+1/-1) on a curated video. A user can
// leave one rating per video (enforced by a unique index).
type Feedback struct {
	ID         string `json:"id"           gorm:"type:char(36);primaryKey"`
	VideoRowID string `json:"video_row_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_video_user"`
	UserID     string `json:"user_id"      gorm:"type:varchar(64);not null;index;uniqueIndex:ux_feedback_video_user"`
	Value      int    `json:"value"        gorm:"not null;check:value IN (-1,1)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Video Video `json:"-" gorm:"foreignKey:VideoRowID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "feedback" }
