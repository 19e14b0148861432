// Package embedding provides the text embedding providers used by the
// vector index: an OpenAI compatible HTTP client and a local hashing
// embedder that needs no network.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giygas/pharmacy-api/config"
	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/metrics"
)

var (
	// ErrEmptyText is returned for blank input
	ErrEmptyText = errors.New("embedding text is empty")

	// ErrDimensionMismatch is returned when a provider answers with a vector
	// of the wrong size
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// New builds the provider selected by cfg.EmbeddingProvider, wrapped with
// metrics. It returns nil for "none".
func New(cfg *config.Config) (interfaces.EmbeddingProvider, error) {
	var provider interfaces.EmbeddingProvider
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		client, err := NewOpenAIClient(OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.EmbeddingModel,
			Dimension:    cfg.EmbeddingDimension,
			Timeout:      cfg.EmbeddingTimeout,
			RateLimitRPM: cfg.EmbeddingRateLimitRPM,
		})
		if err != nil {
			return nil, err
		}
		provider = client
	case config.ProviderHashing:
		provider = NewHashingEmbedder(cfg.EmbeddingDimension)
	case config.ProviderNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
	return Instrument(provider), nil
}

// instrumented records call outcomes and latency for any provider
type instrumented struct {
	interfaces.EmbeddingProvider
}

// Instrument wraps a provider so every Embed call is counted in
// embedding_requests_total and embedding_request_duration_seconds
func Instrument(p interfaces.EmbeddingProvider) interfaces.EmbeddingProvider {
	if _, ok := p.(*instrumented); ok {
		return p
	}
	return &instrumented{EmbeddingProvider: p}
}

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := i.EmbeddingProvider.Embed(ctx, text)

	name := i.Name()
	metrics.EmbeddingRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeError
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(name, outcome).Inc()

	return vector, err
}
