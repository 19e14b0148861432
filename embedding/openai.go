package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/juju/ratelimit"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "text-embedding-3-small"
	maxErrorBody   = 4 << 10
)

var _ interfaces.EmbeddingProvider = (*OpenAIClient)(nil)

// OpenAIOptions configures an OpenAIClient
type OpenAIOptions struct {
	APIKey       string
	BaseURL      string
	Model        string
	Dimension    int
	Timeout      time.Duration
	RateLimitRPM int
}

// OpenAIClient calls the /embeddings endpoint of an OpenAI compatible API
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	model      string
	dimension  int
	httpClient *http.Client
	limiter    *ratelimit.Bucket
}

// NewOpenAIClient creates a client. The API key is required.
func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}
	if opts.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", opts.Dimension)
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	var limiter *ratelimit.Bucket
	if opts.RateLimitRPM > 0 {
		// Burst of one second's worth of requests, at least one
		burst := max(int64(opts.RateLimitRPM/60), 1)
		limiter = ratelimit.NewBucketWithRate(float64(opts.RateLimitRPM)/60, burst)
	}

	return &OpenAIClient{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		model:      model,
		dimension:  opts.Dimension,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

func (c *OpenAIClient) Name() string   { return "openai" }
func (c *OpenAIClient) Dimension() int { return c.dimension }

type embeddingRequest struct {
	Model      string `json:"model"`
	Input      string `json:"input"`
	Dimensions int    `json:"dimensions,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Embed returns the embedding of text. Transport failures, non-2xx answers,
// undecodable bodies and vectors of the wrong size are all errors.
func (c *OpenAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	payload := embeddingRequest{Model: c.model, Input: text}
	// Only the v3 models accept a requested output size
	if strings.HasPrefix(c.model, "text-embedding-3") {
		payload.Dimensions = c.dimension
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp)
	}

	var decoded embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode embedding response: %w", err)
	}
	if len(decoded.Data) == 0 {
		return nil, errors.New("embedding response has no data")
	}

	vector := decoded.Data[0].Embedding
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, c.dimension, len(vector))
	}
	return vector, nil
}

// wait blocks until the rate limiter grants a request or ctx ends
func (c *OpenAIClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	delay := c.limiter.Take(1)
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func statusError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var apiErr errorResponse
	if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
		return fmt.Errorf("embedding request failed with status %d: %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("embedding request failed with status %d", resp.StatusCode)
}
