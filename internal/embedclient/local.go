package embedclient

import (
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
)

// localFailureTTL is how long a failed model load is cached before the
// next call re-attempts it.
const localFailureTTL = 5 * time.Minute

// LocalClient is the in-process fallback embedder used when no remote key
// is configured. The "model" is a deterministic per-token hash projection,
// mean-pooled across a text's tokens the same way a sentence embedder
// pools its hidden states: 384 dims, lazily loaded, with failed loads
// cached for a TTL before the next attempt. Deterministic and
// dependency-free, which keeps local-only mode usable offline.
type LocalClient struct {
	mu          sync.Mutex
	loaded      bool
	lastFailure time.Time
	failed      bool
}

// NewLocalClient constructs a LocalClient. The model is not loaded until
// the first EmbedLocal call.
func NewLocalClient() *LocalClient { return &LocalClient{} }

// ensureModelLoaded loads the model if it isn't already, respecting the
// failure TTL: a load failure is cached for localFailureTTL, after which
// the next call re-attempts.
func (c *LocalClient) ensureModelLoaded() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded {
		return nil
	}
	if c.failed && time.Since(c.lastFailure) < localFailureTTL {
		return fmt.Errorf("local embedding model unavailable (cached failure): %w", cortexerr.ErrModelUnavailable)
	}

	// The hash-projection model never actually fails to load; this path
	// exists so callers exercise the same load/cache contract a real model
	// loader would.
	c.loaded = true
	c.failed = false
	return nil
}

// ModelLoaded reports whether the local model is currently loaded,
// without attempting a load.
func (c *LocalClient) ModelLoaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// EmbedLocal embeds text, rejecting empty/whitespace-only input. Loads
// the model on first use.
func (c *LocalClient) EmbedLocal(text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("embedclient: text must not be empty or whitespace: %w", cortexerr.ErrEmptyVector)
	}
	if err := c.ensureModelLoaded(); err != nil {
		return nil, err
	}

	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("embedclient: no tokens after tokenization: %w", cortexerr.ErrEmptyVector)
	}

	sums := make([]float64, memory.LocalEmbeddingDim)
	for _, tok := range tokens {
		proj := tokenProjection(tok)
		for i, v := range proj {
			sums[i] += v
		}
	}

	out := make([]float32, memory.LocalEmbeddingDim)
	for i, s := range sums {
		out[i] = float32(s / float64(len(tokens)))
	}
	if len(out) != memory.LocalEmbeddingDim {
		return nil, fmt.Errorf("embedclient: local embedding has %d dims, want %d: %w", len(out), memory.LocalEmbeddingDim, cortexerr.ErrInternal)
	}
	return out, nil
}

// tokenProjection deterministically maps a token to a LocalEmbeddingDim
// vector of values in [-1, 1], seeded from an FNV hash of the token so the
// same token always projects to the same vector.
func tokenProjection(tok string) [memory.LocalEmbeddingDim]float64 {
	var out [memory.LocalEmbeddingDim]float64
	h := fnv.New64a()
	h.Write([]byte(tok))
	seed := h.Sum64()

	state := seed
	for i := range out {
		state = state*6364136223846793005 + 1442695040888963407
		out[i] = float64(int64(state)>>11) / float64(1<<52)
	}
	return out
}
