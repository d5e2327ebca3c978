// Topic content HTTP handlers.
//
// This file exposes the read-only endpoint for browsing stored topic content:
//   - GET /topics/videos  (curated videos + quizzes, paginated, ETag support)
//
// Reads never trigger generation; a topic without content answers 404 and
// clients use POST /learn to populate it.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-learnhub-backend/internal/domain"
	"github.com/tbourn/go-learnhub-backend/internal/normalize"
	"github.com/tbourn/go-learnhub-backend/internal/services"
	"github.com/tbourn/go-learnhub-backend/internal/utils"
)

// ContentStatsFunc reports (row count, latest update) for a topic's stored
// videos. Injected so the handler can compute ETags without reaching into a
// concrete service for its database handle.
type ContentStatsFunc func(ctx context.Context, key normalize.TopicKey) (int64, *time.Time, error)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// TopicVideosResponse wraps a page of curated videos, their quizzes, and
// pagination information.
type TopicVideosResponse struct {
	SearchTerm   string         `json:"search_term" example:"react"`
	LearningGoal string         `json:"learning_goal" example:"beginner"`
	Videos       []domain.Video `json:"videos"`
	Quizzes      []domain.Quiz  `json:"quizzes"`
	Pagination   Pagination     `json:"pagination"`
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPageSize = 20
		maxPageSize     = 100
	)
	return utils.ClampPage(c.Query("page"), c.Query("page_size"), defaultPageSize, maxPageSize)
}

// TopicVideos godoc
// @ID          topicVideos
// @Summary     Browse stored content for a topic (paginated)
// @Description Returns the curated videos and quizzes for a topic. Supports weak ETag via If-None-Match and may return 304. Never triggers generation.
// @Tags        Topics
// @Produce     json
//
// @Param       search_term    query   string  true  "Topic"                       example(react)
// @Param       learning_goal  query   string  true  "Desired level"               example(beginner)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                 minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"              minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.TopicVideosResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Invalid topic input"
// @Failure     404  {object} handlers.ErrorResponse "No content for topic"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /topics/videos [get]
func (h *Handlers) TopicVideos(c *gin.Context) {
	ctx := c.Request.Context()

	key, err := normalize.MakeKey(c.Query("search_term"), c.Query("learning_goal"))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if h.stats != nil {
		count, maxTS, err := h.stats(ctx, key)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"topic:%s:%d:%d"`, key.String(), count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	content, err := h.learnSvc.Content(ctx, key.SearchTerm, key.LearningGoal)
	if err != nil {
		if errors.Is(err, services.ErrNoContentFound) {
			fail(c, http.StatusNotFound, ErrCodeNoContentFound, "no content for this topic yet")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	total := int64(len(content.Videos))
	start := (page - 1) * pageSize
	end := start + pageSize
	var videos []domain.Video
	if start < len(content.Videos) {
		if end > len(content.Videos) {
			end = len(content.Videos)
		}
		videos = content.Videos[start:end]
	} else {
		videos = []domain.Video{}
	}

	// Only quizzes belonging to the returned page.
	onPage := make(map[string]struct{}, len(videos))
	for _, v := range videos {
		onPage[v.ID] = struct{}{}
	}
	quizzes := make([]domain.Quiz, 0, len(content.Quizzes))
	for _, q := range content.Quizzes {
		if _, ok := onPage[q.VideoRowID]; ok {
			quizzes = append(quizzes, q)
		}
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, TopicVideosResponse{
		SearchTerm:   key.SearchTerm,
		LearningGoal: key.LearningGoal,
		Videos:       videos,
		Quizzes:      quizzes,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
