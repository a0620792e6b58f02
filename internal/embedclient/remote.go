// Package embedclient implements the two embedding providers the engine
// can draw on — a remote HTTP API and a lazily-loaded local model — plus
// the backfill loop that fills in whichever embedding column a memory is
// still missing. The remote client is a plain net/http client: the
// embeddings endpoint has no SDK worth depending on for one POST shape.
package embedclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/cortexmemory/cortex/internal/cortexerr"
	"github.com/cortexmemory/cortex/internal/memory"
	"github.com/cortexmemory/cortex/internal/obs"
)

const (
	remoteBatchMax   = 100
	remoteMaxRetries = 3
)

// RemoteClient calls an external embeddings API (default model
// "voyage-3", see cortexconfig) over HTTP. It uses a per-item
// endpoint for single-text requests and a batch endpoint otherwise.
type RemoteClient struct {
	apiKey     string
	model      string
	itemURL    string
	batchURL   string
	httpClient *http.Client
}

// NewRemoteClient constructs a client for apiKey/model. itemURL/batchURL
// default to the Voyage AI embeddings endpoint (a single REST resource
// that accepts either shape of input) when empty.
func NewRemoteClient(apiKey, model, itemURL, batchURL string) *RemoteClient {
	const defaultURL = "https://api.voyageai.com/v1/embeddings"
	if itemURL == "" {
		itemURL = defaultURL
	}
	if batchURL == "" {
		batchURL = defaultURL
	}
	return &RemoteClient{
		apiKey:     apiKey,
		model:      model,
		itemURL:    itemURL,
		batchURL:   batchURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Available reports whether the client has a usable key — a pure
// capability probe with no network call.
func (c *RemoteClient) Available() bool { return c.apiKey != "" }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

// EmbedTexts returns one 768-dim vector per input text, preserving order.
// len(texts) must be <= remoteBatchMax; callers (the backfill loop) are
// responsible for chunking larger sets.
func (c *RemoteClient) EmbedTexts(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if len(texts) > remoteBatchMax {
		return nil, fmt.Errorf("embedclient: batch of %d exceeds max %d: %w", len(texts), remoteBatchMax, cortexerr.ErrInvalidInput)
	}

	endpoint := c.batchURL
	if len(texts) == 1 {
		endpoint = c.itemURL
	}

	vectors, err := c.callWithRetry(ctx, endpoint, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedclient: got %d vectors for %d inputs: %w", len(vectors), len(texts), cortexerr.ErrMalformedResponse)
	}
	for _, v := range vectors {
		if len(v) != memory.RemoteEmbeddingDim {
			return nil, fmt.Errorf("embedclient: vector has %d dims, want %d: %w", len(v), memory.RemoteEmbeddingDim, cortexerr.ErrMalformedResponse)
		}
	}
	return vectors, nil
}

func (c *RemoteClient) callWithRetry(ctx context.Context, endpoint string, texts []string) ([][]float64, error) {
	tracer := obs.Tracer("github.com/cortexmemory/cortex/embedclient")
	ctx, span := tracer.Start(ctx, "embedclient.embed_texts")
	defer span.End()

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 0

	var attempt int
	var result [][]float64

	op := func() error {
		attempt++
		if attempt > remoteMaxRetries+1 {
			return backoff.Permanent(fmt.Errorf("embedclient: exhausted retries: %w", cortexerr.ErrTransport))
		}
		vecs, err := c.doRequest(ctx, endpoint, texts)
		if err != nil {
			if isPermanentEmbedError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		result = vecs
		return nil
	}

	boundedBackoff := backoff.WithMaxRetries(bo, uint64(remoteMaxRetries))
	if err := backoff.Retry(op, backoff.WithContext(boundedBackoff, ctx)); err != nil {
		return nil, err
	}
	return result, nil
}

func isPermanentEmbedError(err error) bool {
	return cortexerr.Classify(err) == cortexerr.KindAuthFailed || cortexerr.Classify(err) == cortexerr.KindMalformedResponse
}

func (c *RemoteClient) doRequest(ctx context.Context, endpoint string, texts []string) ([][]float64, error) {
	body, err := json.Marshal(embedRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, fmt.Errorf("embedclient: marshal request: %w: %v", cortexerr.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedclient: build request: %w: %v", cortexerr.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedclient: request failed: %w: %v", cortexerr.ErrTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedclient: read response: %w: %v", cortexerr.ErrTransport, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("embedclient: auth failed (status %d): %w", resp.StatusCode, cortexerr.ErrAuthFailed)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("embedclient: rate limited: %w", cortexerr.ErrRateLimited)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("embedclient: transport error (status %d): %w", resp.StatusCode, cortexerr.ErrTransport)
	}

	var parsed embedResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("embedclient: parse response: %w: %v", cortexerr.ErrMalformedResponse, err)
	}

	out := make([][]float64, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}
	return out, nil
}

// embeddingText builds the stable embedding input convention: "[<memory_type>] [project:<project_name>] <summary>".
func embeddingText(memType memory.Type, projectName, summary string) string {
	return fmt.Sprintf("[%s] [project:%s] %s", memType, projectName, summary)
}

// QueryEmbeddingText builds the query-side convention so a recall query
// lives in the same embedding subspace as stored memories.
func QueryEmbeddingText(projectName, text string) string {
	return fmt.Sprintf("[query] [project:%s] %s", projectName, text)
}
