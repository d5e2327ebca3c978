// Package gemini implements the Summarizer and QuizGenerator contracts on
// top of Google's Gemini API. Prompts ask for strict JSON; the model
// occasionally wraps its answer in a markdown code fence, which is stripped
// before decoding.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/tbourn/go-learnhub-backend/internal/providers"
)

// DefaultModel balances latency and quality for short summarization and
// quiz prompts.
const DefaultModel = "gemini-1.5-flash"

// Client wraps one generative model instance. Close releases the underlying
// connection.
type Client struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// New builds a Client for modelName (DefaultModel when empty).
func New(ctx context.Context, apiKey, modelName string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty API key")
	}
	if modelName == "" {
		modelName = DefaultModel
	}
	c, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	model := c.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	return &Client{client: c, model: model}, nil
}

func (c *Client) Close() error { return c.client.Close() }

type summaryPayload struct {
	Summary string `json:"summary"`
	Level   string `json:"level"`
}

type quizPayload struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Difficulty string `json:"difficulty"`
}

// Summarize asks the model for a learner-facing summary of the video plus a
// difficulty estimate relative to the requested goal.
func (c *Client) Summarize(ctx context.Context, v providers.VideoCandidate, goal string) (providers.Summary, error) {
	prompt := fmt.Sprintf(`You are preparing study material for a %s-level learner.
Summarize the following YouTube tutorial in 2-3 sentences and estimate its
difficulty as one of "beginner", "intermediate" or "advanced".

Title: %s
Channel: %s
Description: %s

Respond with exactly this JSON object and nothing else:
{"summary": "...", "level": "..."}`, goal, v.Title, v.ChannelTitle, v.Description)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return providers.Summary{}, err
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return providers.Summary{}, fmt.Errorf("gemini: decode summary response: %w", err)
	}
	if payload.Summary == "" {
		return providers.Summary{}, errors.New("gemini: empty summary in response")
	}
	return providers.Summary{Text: payload.Summary, Level: normalizeLevel(payload.Level, goal)}, nil
}

// Quiz asks the model for n question/answer pairs about the video.
func (c *Client) Quiz(ctx context.Context, v providers.VideoCandidate, goal string, n int) ([]providers.QuizItem, error) {
	prompt := fmt.Sprintf(`You are preparing quiz questions for a %s-level learner
who just watched the following YouTube tutorial.

Title: %s
Channel: %s
Description: %s

Write exactly %d short quiz questions with concise answers. Rate each
question's difficulty as "easy", "medium" or "hard".

Respond with exactly this JSON array and nothing else:
[{"question": "...", "answer": "...", "difficulty": "..."}]`, goal, v.Title, v.ChannelTitle, v.Description, n)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var payload []quizPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("gemini: decode quiz response: %w", err)
	}

	out := make([]providers.QuizItem, 0, len(payload))
	for _, q := range payload {
		if q.Question == "" || q.Answer == "" {
			continue
		}
		out = append(out, providers.QuizItem{
			Question:   q.Question,
			Answer:     q.Answer,
			Difficulty: normalizeDifficulty(q.Difficulty),
		})
	}
	if len(out) == 0 {
		return nil, errors.New("gemini: no usable quiz items in response")
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err)
	}
	text := stripFences(extractText(resp))
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// stripFences removes a surrounding ```json ... ``` markdown block if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func normalizeLevel(level, fallback string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "beginner", "intermediate", "advanced":
		return strings.ToLower(strings.TrimSpace(level))
	default:
		return fallback
	}
}

func normalizeDifficulty(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "easy", "medium", "hard":
		return strings.ToLower(strings.TrimSpace(d))
	default:
		return "medium"
	}
}

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
	return providers.Transient(err)
}
