// Package youtube implements the VideoSearcher and StatsProvider contracts
// on top of the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/tbourn/go-learnhub-backend/internal/providers"
)

const watchURL = "https://www.youtube.com/watch?v="

// Client talks to the YouTube Data API using an API key. It implements
// providers.VideoSearcher and providers.StatsProvider.
type Client struct {
	svc *yt.Service
}

// New builds a Client authenticated with apiKey.
func New(ctx context.Context, apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("youtube: empty API key")
	}
	svc, err := yt.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("youtube: create service: %w", err)
	}
	return &Client{svc: svc}, nil
}

// Search returns up to limit embeddable tutorial videos for the canonical
// search term, ordered by API relevance.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]providers.VideoCandidate, error) {
	call := c.svc.Search.List([]string{"id", "snippet"}).
		Q(term + " tutorial").
		Type("video").
		Order("relevance").
		SafeSearch("strict").
		RelevanceLanguage("en").
		VideoEmbeddable("true").
		MaxResults(int64(limit))

	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	out := make([]providers.VideoCandidate, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		out = append(out, providers.VideoCandidate{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			URL:          watchURL + item.Id.VideoId,
			Thumbnail:    bestThumbnail(item.Snippet.Thumbnails),
			PublishedAt:  published,
		})
	}
	return out, nil
}

// Stats fetches view/like/comment counts for the given video ids in one
// batch call. Ids the API omits (deleted or stats-hidden videos) are simply
// absent from the result.
func (c *Client) Stats(ctx context.Context, ids []string) (map[string]providers.VideoStats, error) {
	if len(ids) == 0 {
		return map[string]providers.VideoStats{}, nil
	}

	call := c.svc.Videos.List([]string{"statistics"}).Id(ids...)
	resp, err := call.Context(ctx).Do()
	if err != nil {
		return nil, classify(err)
	}

	out := make(map[string]providers.VideoStats, len(resp.Items))
	for _, item := range resp.Items {
		if item.Statistics == nil {
			continue
		}
		out[item.Id] = providers.VideoStats{
			Views:    int64(item.Statistics.ViewCount),
			Likes:    int64(item.Statistics.LikeCount),
			Comments: int64(item.Statistics.CommentCount),
		}
	}
	return out, nil
}

// classify marks rate limiting, server errors, and transport failures as
// retryable. Other API errors (bad key, invalid request) are terminal.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == 429 || gerr.Code >= 500 {
			return providers.Transient(err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// No structured API error means the request never completed.
	return providers.Transient(err)
}

func bestThumbnail(t *yt.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*yt.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
