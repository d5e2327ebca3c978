// Learning HTTP handlers.
//
// This file exposes the REST endpoints for topic learning requests:
//   - POST /learn         (request curated content, generating on demand)
//   - GET  /learn/status  (poll generation status for a topic)
//
// Handlers are transport-thin: they validate input, call application
// services, and translate results and service errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-learnhub-backend/internal/cache"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/services"
	"github.com/tbourn/go-learnhub-backend/internal/sysutil"
)

//
// Service contracts (context-aware)
//

// LearnService defines topic learning operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type LearnService interface {
	// Request serves existing content for a topic or coordinates generation.
	Request(ctx context.Context, searchTerm, learningGoal string) (*services.LearnResult, error)
	// Status reports the latest generation activity for a topic.
	Status(ctx context.Context, searchTerm, learningGoal string) (*services.StatusInfo, error)
	// Content returns stored content for a topic without triggering generation.
	Content(ctx context.Context, searchTerm, learningGoal string) (*cache.TopicContent, error)
}

// FeedbackService defines operations to capture user feedback on videos.
type FeedbackService interface {
	// Rate submits a rating (-1 or 1) for videoRowID by userID and returns
	// the video's updated aggregate score.
	Rate(ctx context.Context, videoRowID, userID string, value int) (int64, error)
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for learning requests, topic content, and
// feedback. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	learnSvc LearnService
	fbSvc    FeedbackService
	stats    ContentStatsFunc
}

// New constructs and returns a Handlers instance bound to the given services.
// stats feeds ETag generation for GET /topics/videos; nil disables
// conditional responses without affecting the payload.
func New(learnSvc LearnService, fbSvc FeedbackService, stats ContentStatsFunc) *Handlers {
	return &Handlers{learnSvc: learnSvc, fbSvc: fbSvc, stats: stats}
}

// userID extracts the authenticated user id from Gin context (set by upstream
// middleware). If absent, it falls back to "X-User-ID" header (tests use it),
// and finally to "demo-user". It never touches c.Request if it's nil.
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	var hdr string
	if c != nil && c.Request != nil {
		hdr = strings.TrimSpace(c.GetHeader("X-User-ID"))
	}
	return sysutil.FirstNonEmpty(hdr, "demo-user")
}

//
// DTOs
//

// LearnRequest is the JSON payload for requesting topic content.
type LearnRequest struct {
	// SearchTerm is the topic the user wants to learn, in any casing.
	SearchTerm string `json:"search_term" binding:"required" example:"React.JS"`
	// LearningGoal is the desired level, e.g. "beginner" or an alias like "basic".
	LearningGoal string `json:"learning_goal" binding:"required" example:"beginner"`
}

// LearnResponse is returned by POST /learn for all three outcomes.
type LearnResponse struct {
	// Status is one of "exists", "success", "in_progress".
	Status string `json:"status" example:"success"`
	// SearchTerm is the canonical topic the request resolved to.
	SearchTerm string `json:"search_term" example:"react"`
	// LearningGoal is the canonical level the request resolved to.
	LearningGoal string `json:"learning_goal" example:"beginner"`
	// Content is present for "exists" and "success".
	Content *cache.TopicContent `json:"content,omitempty"`
	// VideosGenerated and QuizzesGenerated report what the run produced;
	// present for "success" only.
	VideosGenerated  int `json:"videos_generated,omitempty" example:"5"`
	QuizzesGenerated int `json:"quizzes_generated,omitempty" example:"15"`
	// LogID identifies the generation log entry of the run; present for
	// "success" only.
	LogID string `json:"log_id,omitempty" example:"b7f8e3a4-0d1c-4f2e-9a6b-5c4d3e2f1a0b"`
	// MinutesElapsed is present for "in_progress": whole minutes the running
	// generation has been active. Zero is meaningful, hence the pointer.
	MinutesElapsed *int64 `json:"minutes_elapsed,omitempty" example:"3"`
}

// StatusResponse is returned by GET /learn/status.
type StatusResponse struct {
	SearchTerm       string  `json:"search_term" example:"react"`
	LearningGoal     string  `json:"learning_goal" example:"beginner"`
	State            string  `json:"state" example:"success"`
	StartedAt        string  `json:"started_at" example:"2026-01-15T10:00:00Z"`
	CompletedAt      *string `json:"completed_at,omitempty" example:"2026-01-15T10:01:30Z"`
	VideosGenerated  int     `json:"videos_generated" example:"5"`
	QuizzesGenerated int     `json:"quizzes_generated" example:"15"`
	ErrorMessage     string  `json:"error_message,omitempty"`
	ElapsedSeconds   int64   `json:"elapsed_seconds,omitempty" example:"42"`
}

//
// Handlers
//

// Learn godoc
// @ID          learn
// @Summary     Request curated content for a topic
// @Description Serves stored videos and quizzes for the topic when available; otherwise starts exactly one generation run. Concurrent duplicates receive status "in_progress".
// @Tags        Learning
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.LearnRequest  true  "Topic to learn"
//
// @Success     200  {object} handlers.LearnResponse "Content already existed"
// @Success     201  {object} handlers.LearnResponse "Content generated by this request"
// @Success     202  {object} handlers.LearnResponse "Generation already running"
// @Failure     400  {object} handlers.ErrorResponse "Invalid topic input"
// @Failure     404  {object} handlers.ErrorResponse "No videos found for topic"
// @Failure     500  {object} handlers.ErrorResponse "Generation failed"
// @Router      /learn [post]
func (h *Handlers) Learn(c *gin.Context) {
	var req LearnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "search_term and learning_goal are required")
		return
	}

	res, err := h.learnSvc.Request(c.Request.Context(), req.SearchTerm, req.LearningGoal)
	if err != nil {
		switch {
		case errors.Is(err, normalize.ErrEmptyTerm), errors.Is(err, normalize.ErrEmptyGoal):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrNoContentFound):
			fail(c, http.StatusNotFound, ErrCodeNoContentFound, "no videos found for this topic")
		case errors.Is(err, services.ErrGenerationFailed):
			fail(c, http.StatusInternalServerError, ErrCodeGenerationFailed, "content generation failed, try again later")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	resp := LearnResponse{
		Status:       res.Status,
		SearchTerm:   res.SearchTerm,
		LearningGoal: res.LearningGoal,
		Content:      res.Content,
	}
	switch res.Status {
	case services.ResultSuccess:
		resp.VideosGenerated = res.VideosGenerated
		resp.QuizzesGenerated = res.QuizzesGenerated
		resp.LogID = res.LogID
		ok(c, http.StatusCreated, resp)
	case services.ResultInProgress:
		minutes := res.MinutesElapsed
		resp.MinutesElapsed = &minutes
		ok(c, http.StatusAccepted, resp)
	default:
		ok(c, http.StatusOK, resp)
	}
}

// LearnStatus godoc
// @ID          learnStatus
// @Summary     Poll generation status for a topic
// @Description Reports the live generation run for the topic if one is active, otherwise the latest log entry.
// @Tags        Learning
// @Produce     json
//
// @Param       search_term    query  string  true  "Topic"          example(react)
// @Param       learning_goal  query  string  true  "Desired level"  example(beginner)
//
// @Success     200  {object} handlers.StatusResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid topic input"
// @Failure     404  {object} handlers.ErrorResponse "Topic never requested"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /learn/status [get]
func (h *Handlers) LearnStatus(c *gin.Context) {
	info, err := h.learnSvc.Status(c.Request.Context(), c.Query("search_term"), c.Query("learning_goal"))
	if err != nil {
		switch {
		case errors.Is(err, normalize.ErrEmptyTerm), errors.Is(err, normalize.ErrEmptyGoal):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		case errors.Is(err, services.ErrStatusUnknown):
			fail(c, http.StatusNotFound, ErrCodeStatusUnknown, "no generation activity for this topic")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	resp := StatusResponse{
		SearchTerm:       info.SearchTerm,
		LearningGoal:     info.LearningGoal,
		State:            info.State,
		StartedAt:        info.StartedAt.UTC().Format(time.RFC3339),
		VideosGenerated:  info.VideosGenerated,
		QuizzesGenerated: info.QuizzesGenerated,
		ErrorMessage:     info.ErrorMessage,
		ElapsedSeconds:   info.ElapsedSeconds,
	}
	if info.CompletedAt != nil {
		s := info.CompletedAt.UTC().Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	ok(c, http.StatusOK, resp)
}
