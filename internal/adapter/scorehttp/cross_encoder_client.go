// Package scorehttp holds HTTP clients for remote scoring backends.
package scorehttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"note-ranker/internal/infra/httpclient"
)

const scoreCacheSize = 4096

// RerankRequest is the request payload for the rerank endpoint.
type RerankRequest struct {
	Query      string   `json:"query"`
	Candidates []string `json:"candidates"`
	Model      string   `json:"model,omitempty"`
}

// RerankResponseResult is a single result in the rerank response.
type RerankResponseResult struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// RerankResponse is the response from the rerank endpoint.
type RerankResponse struct {
	Results []RerankResponseResult `json:"results"`
	Model   string                 `json:"model"`
}

// CrossEncoderClient implements the pairwise scorer against a remote
// cross-encoder rerank endpoint. The model is deterministic for a fixed
// pair, so scores are cached per (query, text) pair, and outbound calls are
// rate limited so a wide judge stage cannot saturate the inference host.
type CrossEncoderClient struct {
	BaseURL string
	Model   string
	Client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string, float64]
	logger  *slog.Logger
}

// NewCrossEncoderClient constructs a client for the given rerank service.
// maxRPS <= 0 disables rate limiting.
func NewCrossEncoderClient(baseURL, model string, timeout time.Duration, maxRPS float64, logger *slog.Logger) (*CrossEncoderClient, error) {
	cache, err := lru.New[string, float64](scoreCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create score cache: %w", err)
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if maxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(maxRPS), 1)
	}
	return &CrossEncoderClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Model:   model,
		Client:  httpclient.NewPooledClient(timeout),
		limiter: limiter,
		cache:   cache,
		logger:  logger,
	}, nil
}

// ScorePair scores one (query, text) pair via the rerank endpoint.
func (c *CrossEncoderClient) ScorePair(ctx context.Context, query, text string) (float64, error) {
	cacheKey := query + "\x00" + text
	if score, ok := c.cache.Get(cacheKey); ok {
		return score, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	reqBody := RerankRequest{
		Query:      query,
		Candidates: []string{text},
		Model:      c.Model,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal rerank request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/rerank", c.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		c.logger.Warn("pairwise_scoring_failed",
			slog.String("error", err.Error()),
			slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
		return 0, fmt.Errorf("failed to call rerank endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		c.logger.Warn("pairwise_scoring_failed",
			slog.Int("status_code", resp.StatusCode),
			slog.String("body", truncateString(string(body), 500)))
		return 0, fmt.Errorf("rerank endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var rerankResp RerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return 0, fmt.Errorf("failed to decode rerank response: %w", err)
	}
	if len(rerankResp.Results) == 0 {
		return 0, fmt.Errorf("rerank endpoint returned no results")
	}

	score := rerankResp.Results[0].Score
	c.cache.Add(cacheKey, score)
	return score, nil
}

// ModelName returns the model identifier for logging.
func (c *CrossEncoderClient) ModelName() string {
	return c.Model
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
