// Feedback HTTP handlers.
//
// This file exposes the REST endpoint for rating curated videos:
//   - POST /videos/{id}/feedback  (create rating)
//
// Handlers in this file are transport-thin: they validate input, delegate to
// application services, and translate domain/service errors into HTTP results.
// Feedback values are constrained to {-1, +1} to represent negative/positive
// reactions respectively.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-learnhub-backend/internal/services"
)

// RateVideoRequest is the JSON payload for rating a video.
//
// Value must be one of:
//   - +1 : positive feedback
//   - -1 : negative feedback
//
// The binding tag enforces the domain constraint at the transport layer.
type RateVideoRequest struct {
	// Value is the feedback signal: +1 (positive) or -1 (negative).
	Value int `json:"value" binding:"required,oneof=-1 1" example:"1"`
}

// RateVideoResponse echoes the video and its updated aggregate score.
type RateVideoResponse struct {
	VideoID string `json:"video_id" example:"141add05-4415-4938-b5a1-17e0d3171aff"`
	Score   int64  `json:"score" example:"3"`
}

// RateVideo godoc
// @ID          rateVideo
// @Summary     Rate a curated video
// @Description Records positive (+1) or negative (-1) feedback for a video. One rating per user per video.
// @Tags        Feedback
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID (demo header)"  example(user123)
// @Param       id         path    string  true  "Video row ID (UUID)"    format(uuid) example(fa4dfbe0-c3bf-47bd-b32f-d7de221cf43b)
// @Param       body       body    handlers.RateVideoRequest true "Feedback payload"
//
// @Success     200  {object} handlers.RateVideoResponse
// @Failure     400  {object} handlers.ErrorResponse "Invalid payload"
// @Failure     404  {object} handlers.ErrorResponse "Video not found"
// @Failure     409  {object} handlers.ErrorResponse "Feedback already exists"
// @Failure     500  {object} handlers.ErrorResponse "Internal server error"
// @Router      /videos/{id}/feedback [post]
func (h *Handlers) RateVideo(c *gin.Context) {
	videoID := c.Param("id")
	if _, err := uuid.Parse(videoID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "video id must be a UUID")
		return
	}

	var req RateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		return
	}

	score, err := h.fbSvc.Rate(c.Request.Context(), videoID, userID(c), req.Value)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrVideoNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "video not found")
		case errors.Is(err, services.ErrInvalidFeedback):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "value must be -1 or 1")
		case errors.Is(err, services.ErrDuplicateFeedback):
			fail(c, http.StatusConflict, ErrCodeConflict, "feedback already exists")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, RateVideoResponse{VideoID: videoID, Score: score})
}
