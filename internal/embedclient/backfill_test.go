package embedclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexmemory/cortex/internal/memory"
)

type fakeStore struct {
	missingRemote []*memory.Memory
	missingLocal  []*memory.Memory
	updated       map[string]bool
	failUpdateIDs map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{updated: map[string]bool{}, failUpdateIDs: map[string]bool{}}
}

func (f *fakeStore) ListMemoriesMissingEmbedding(ctx context.Context, remote bool) ([]*memory.Memory, error) {
	if remote {
		return f.missingRemote, nil
	}
	return f.missingLocal, nil
}

func (f *fakeStore) UpdateMemoryEmbedding(ctx context.Context, id string, remote []float64, local []float32) error {
	if f.failUpdateIDs[id] {
		return assert.AnError
	}
	f.updated[id] = true
	return nil
}

func memWithID(id string) *memory.Memory {
	return &memory.Memory{
		ID:         id,
		MemoryType: memory.TypeDecision,
		Summary:    "summary " + id,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

func TestRunBackfillPrefersRemoteWhenAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(vectorsResponse(1))
	}))
	defer srv.Close()

	store := newFakeStore()
	store.missingRemote = []*memory.Memory{memWithID("m1")}

	remote := NewRemoteClient("key", "voyage-3", srv.URL, srv.URL)
	local := NewLocalClient()

	report := RunBackfill(context.Background(), store, remote, local, "proj")
	assert.True(t, report.OK)
	assert.Equal(t, "remote", report.Method)
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 0, report.Failed)
	assert.True(t, store.updated["m1"])
}

func TestRunBackfillFallsBackToLocalWithoutKey(t *testing.T) {
	store := newFakeStore()
	store.missingLocal = []*memory.Memory{memWithID("m1"), memWithID("m2")}

	remote := NewRemoteClient("", "voyage-3", "", "")
	local := NewLocalClient()

	report := RunBackfill(context.Background(), store, remote, local, "proj")
	assert.True(t, report.OK)
	assert.Equal(t, "local", report.Method)
	assert.Equal(t, 2, report.Processed)
	assert.True(t, store.updated["m1"])
	assert.True(t, store.updated["m2"])
}

func TestBackfillRemoteCountsWholeBatchFailedOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := newFakeStore()
	store.missingRemote = []*memory.Memory{memWithID("m1"), memWithID("m2")}
	remote := NewRemoteClient("key", "voyage-3", srv.URL, srv.URL)

	report := backfillRemote(context.Background(), store, remote, "proj")
	assert.True(t, report.OK)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Errors, 1)
}

func TestBackfillRemoteCountsPerRowUpdateFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(vectorsResponse(2))
	}))
	defer srv.Close()

	store := newFakeStore()
	store.missingRemote = []*memory.Memory{memWithID("m1"), memWithID("m2")}
	store.failUpdateIDs["m2"] = true
	remote := NewRemoteClient("key", "voyage-3", srv.URL, srv.URL)

	report := backfillRemote(context.Background(), store, remote, "proj")
	assert.Equal(t, 1, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.True(t, store.updated["m1"])
	assert.False(t, store.updated["m2"])
}

func TestBackfillLocalMarksAllFailedWhenModelUnavailable(t *testing.T) {
	store := newFakeStore()
	store.missingLocal = []*memory.Memory{memWithID("m1")}

	local := &LocalClient{}
	local.failed = true
	local.lastFailure = time.Now()

	report := backfillLocal(context.Background(), store, local, "proj")
	assert.True(t, report.OK)
	assert.Equal(t, 0, report.Processed)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, "local", report.Method)
}
