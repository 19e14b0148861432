// Package vectorindex keeps one embedding per catalog medicine and answers
// nearest-neighbour queries over them with a brute-force L2 scan.
package vectorindex

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/giygas/pharmacy-api/interfaces"
	"github.com/giygas/pharmacy-api/logging"
	"github.com/giygas/pharmacy-api/medicinesparser/entities"
	"github.com/giygas/pharmacy-api/metrics"
	"github.com/giygas/pharmacy-api/pharmacology"
	"github.com/giygas/pharmacy-api/similarity"
	"github.com/viant/vec/search"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNotInitialized is returned by Query before Initialize has completed
	ErrNotInitialized = errors.New("vector index not initialized")

	// ErrProviderUnavailable wraps a failure to embed the query text
	ErrProviderUnavailable = errors.New("embedding provider unavailable")
)

const (
	defaultConcurrency = 4
	defaultTimeout     = 10 * time.Second
)

// Options tunes index construction
type Options struct {
	Concurrency int           // parallel provider calls during Initialize
	Timeout     time.Duration // per provider call
}

// Query describes a nearest-neighbour lookup. Exclude drops entries whose
// name overlaps it; Ingredients and TherapeuticClass, when set, are compared
// against each match to fill its match flags.
type Query struct {
	Text             string
	Exclude          string
	Ingredients      []string
	TherapeuticClass string
	K                int
}

// Match is one query result
type Match struct {
	Entry            entities.MedicineEmbedding
	Position         int
	Distance         float64
	Similarity       float64
	IngredientMatch  bool
	TherapeuticMatch bool
}

// Index is safe for concurrent use. Initialize and Reset are serialized;
// queries read a consistent set of entries.
type Index struct {
	provider    interfaces.EmbeddingProvider
	concurrency int
	timeout     time.Duration

	buildMu sync.Mutex

	mu            sync.RWMutex
	entries       []entities.MedicineEmbedding
	initialized   bool
	initializedAt time.Time
}

// New creates an empty index over provider
func New(provider interfaces.EmbeddingProvider, opts Options) *Index {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Index{
		provider:    provider,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
	}
}

// Initialize embeds every medicine and builds the index. It is a no-op when
// the index is already initialized. A medicine whose embedding fails is kept
// with a zero vector; only cancellation of ctx aborts the build.
func (ix *Index) Initialize(ctx context.Context, medicines []entities.Medicine) error {
	if ix.provider == nil {
		return ErrProviderUnavailable
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	if ix.IsInitialized() {
		return nil
	}

	start := time.Now()
	dimension := ix.provider.Dimension()
	entries := make([]entities.MedicineEmbedding, len(medicines))
	failed := make([]bool, len(medicines))

	g := new(errgroup.Group)
	g.SetLimit(ix.concurrency)
	for i, m := range medicines {
		entries[i] = newEntry(m)
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(ctx, ix.timeout)
			defer cancel()

			vector, err := ix.provider.Embed(callCtx, entries[i].CompositeText)
			if err == nil && len(vector) != dimension {
				err = fmt.Errorf("provider returned %d dimensions, expected %d", len(vector), dimension)
			}
			if err != nil {
				logging.Warn("Embedding failed, indexing medicine with a zero vector",
					"medicine", entries[i].Name,
					"id", entries[i].SourceID,
					"error", err,
				)
				vector = make([]float32, dimension)
				failed[i] = true
			}
			entries[i].Vector = vector
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("index build cancelled: %w", err)
	}

	zeroVectors := 0
	for _, f := range failed {
		if f {
			zeroVectors++
		}
	}
	metrics.EmbeddingZeroVectorsTotal.Add(float64(zeroVectors))

	ix.mu.Lock()
	ix.entries = entries
	ix.initialized = true
	ix.initializedAt = time.Now()
	ix.mu.Unlock()
	metrics.VectorIndexEntries.Set(float64(len(entries)))

	logging.Info("Vector index initialized",
		"provider", ix.provider.Name(),
		"entries", len(entries),
		"zero_vectors", zeroVectors,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// Query embeds q.Text and returns up to q.K matches ordered by ascending
// distance, ties broken by catalog position. Similarity is max(0, 1 - d/2)
// with d the squared L2 distance, which is the cosine similarity for unit
// vectors.
func (ix *Index) Query(ctx context.Context, q Query) ([]Match, error) {
	ix.mu.RLock()
	entries := ix.entries
	initialized := ix.initialized
	ix.mu.RUnlock()

	if !initialized {
		return nil, ErrNotInitialized
	}
	if q.K <= 0 || len(entries) == 0 {
		return []Match{}, nil
	}

	callCtx, cancel := context.WithTimeout(ctx, ix.timeout)
	defer cancel()

	vector, err := ix.provider.Embed(callCtx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if len(vector) != ix.provider.Dimension() {
		return nil, fmt.Errorf("%w: query vector has %d dimensions, expected %d",
			ErrProviderUnavailable, len(vector), ix.provider.Dimension())
	}

	query := search.Float32s(vector)
	ranked := make([]Match, len(entries))
	for i, entry := range entries {
		d := float64(query.EuclideanDistance(entry.Vector))
		ranked[i] = Match{Entry: entry, Position: i, Distance: d * d}
	}
	slices.SortStableFunc(ranked, func(a, b Match) int {
		return cmp.Compare(a.Distance, b.Distance)
	})

	nearest := ranked[:min(q.K, len(ranked))]
	matches := make([]Match, 0, len(nearest))
	for _, m := range nearest {
		if q.Exclude != "" && similarity.NamesOverlap(m.Entry.Name, q.Exclude) {
			continue
		}
		m.Similarity = max(0, 1-m.Distance/2)
		m.IngredientMatch = pharmacology.IngredientsMatch(q.Ingredients, m.Entry.ActiveIngredients)
		m.TherapeuticMatch = pharmacology.ClassesMatch(q.TherapeuticClass, m.Entry.TherapeuticClass)
		matches = append(matches, m)
	}
	return matches, nil
}

// Reset drops all entries so the next Initialize rebuilds from scratch
func (ix *Index) Reset() {
	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()

	ix.mu.Lock()
	ix.entries = nil
	ix.initialized = false
	ix.initializedAt = time.Time{}
	ix.mu.Unlock()
	metrics.VectorIndexEntries.Set(0)
}

// Rebuild replaces the index contents with embeddings of medicines. Queries
// keep using the old entries until the new build is complete.
func (ix *Index) Rebuild(ctx context.Context, medicines []entities.Medicine) error {
	fresh := New(ix.provider, Options{Concurrency: ix.concurrency, Timeout: ix.timeout})
	if err := fresh.Initialize(ctx, medicines); err != nil {
		return err
	}

	ix.buildMu.Lock()
	defer ix.buildMu.Unlock()
	ix.mu.Lock()
	ix.entries = fresh.entries
	ix.initialized = true
	ix.initializedAt = fresh.initializedAt
	ix.mu.Unlock()
	return nil
}

func (ix *Index) IsInitialized() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.initialized
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.entries)
}

// Entries returns a copy of the indexed entries in catalog order
func (ix *Index) Entries() []entities.MedicineEmbedding {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.entries)
}

func (ix *Index) InitializedAt() time.Time {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.initializedAt
}

// Provider returns the embedding provider, nil when none is configured
func (ix *Index) Provider() interfaces.EmbeddingProvider {
	return ix.provider
}
