package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/harvest-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/core/ports/driven"
	"github.com/custodia-labs/harvest-cli/internal/credentials"
	"github.com/custodia-labs/harvest-cli/internal/queue"
	"github.com/custodia-labs/harvest-cli/internal/ratelimit"
	"github.com/custodia-labs/harvest-cli/internal/vault"
)

// fakeAdapter yields a fixed set of documents, advancing its checkpoint
// as each one is consumed.
type fakeAdapter struct {
	kind       string
	config     driven.AdapterConfig
	docs       []domain.Document
	initErr    error
	fetchErr   error
	checkpoint string
	yielded    int
	closed     bool
}

func (a *fakeAdapter) Kind() string { return a.kind }

func (a *fakeAdapter) Initialize(_ context.Context) error { return a.initErr }

func (a *fakeAdapter) FetchDocuments(ctx context.Context) (<-chan domain.Document, <-chan error) {
	docs := make(chan domain.Document)
	errs := make(chan error, 1)
	go func() {
		defer close(docs)
		defer close(errs)
		for i, doc := range a.docs {
			select {
			case <-ctx.Done():
				return
			case docs <- doc:
				a.yielded = i + 1
				a.checkpoint = fmt.Sprintf("cursor-%d", a.yielded)
			}
		}
		if a.fetchErr != nil {
			errs <- a.fetchErr
		}
	}()
	return docs, errs
}

func (a *fakeAdapter) Checkpoint() string { return a.checkpoint }

func (a *fakeAdapter) SetCheckpoint(token string) { a.checkpoint = token }

func (a *fakeAdapter) Close() error { a.closed = true; return nil }

type runnerFixture struct {
	store    *memory.Store
	registry *AdapterRegistry
	runner   *RunnerService
	cipher   *credentials.Store
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	store := memory.NewStore()
	key, err := vault.GenerateKey()
	require.NoError(t, err)
	cipher := credentials.NewStore(key)
	registry := NewAdapterRegistry()
	runner := NewRunnerService(
		store.CollectionStore(),
		store.RunStore(),
		cipher,
		registry,
		queue.New(10),
		nil, // no sanitizer
		nil,
	)
	return &runnerFixture{store: store, registry: registry, runner: runner, cipher: cipher}
}

func (f *runnerFixture) addCollection(t *testing.T, c domain.Collection) domain.Collection {
	t.Helper()
	if c.ID == "" {
		c.ID = "col-1"
	}
	if c.Adapter == "" {
		c.Adapter = "fake"
	}
	if c.Status == "" {
		c.Status = domain.CollectionConfigured
	}
	require.NoError(t, f.store.CollectionStore().Save(context.Background(), c))
	return c
}

func testDocs(n int) []domain.Document {
	docs := make([]domain.Document, n)
	for i := range docs {
		docs[i] = domain.Document{
			ID:      fmt.Sprintf("doc-%d", i),
			Title:   fmt.Sprintf("Document %d", i),
			Content: "hello world",
		}
	}
	return docs
}

func TestRunnerService_Execute_Success(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	adapter := &fakeAdapter{kind: "fake", docs: testDocs(3)}
	f.registry.Register("fake", func(_ context.Context, config driven.AdapterConfig) (driven.SourceAdapter, error) {
		adapter.config = config
		return adapter, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test"})

	result, err := f.runner.Execute(ctx, collection, "run-1")

	require.NoError(t, err)
	assert.Equal(t, 3, result.DocumentsDiscovered)
	assert.Equal(t, 3, result.DocumentsExtracted)
	assert.Equal(t, 3, result.DocumentsIndexed)
	assert.Equal(t, 0, result.ErrorCount)
	assert.True(t, adapter.closed)

	run, err := f.store.RunStore().Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, run.Status)
	assert.False(t, run.CompletedAt.IsZero())
	assert.Equal(t, "cursor-3", run.Checkpoint)

	status, err := f.store.CollectionStore().Get(ctx, collection.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CollectionIdle, status.Status)

	assert.Equal(t, 3, f.runner.Queue().Size())
}

func TestRunnerService_Execute_GeneratesRunID(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	f.registry.Register("fake", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return &fakeAdapter{kind: "fake"}, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test"})

	_, err := f.runner.Execute(ctx, collection, "")
	require.NoError(t, err)

	runs, err := f.store.RunStore().ListByCollection(ctx, collection.ID, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.NotEmpty(t, runs[0].ID)
}

func TestRunnerService_Execute_UnknownAdapter(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	collection := f.addCollection(t, domain.Collection{Name: "test", Adapter: "unknown"})

	_, err := f.runner.Execute(ctx, collection, "run-1")

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)

	// No run row is created before the adapter exists
	_, err = f.store.RunStore().Get(ctx, "run-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunnerService_Execute_InitFailure(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	initErr := errors.New("missing label setting")
	f.registry.Register("fake", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return &fakeAdapter{kind: "fake", initErr: initErr}, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test"})

	result, err := f.runner.Execute(ctx, collection, "run-1")

	require.Error(t, err)
	assert.ErrorIs(t, err, initErr)
	assert.Equal(t, 1, result.ErrorCount)

	run, getErr := f.store.RunStore().Get(ctx, "run-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.RunFailed, run.Status)

	recorded, listErr := f.store.RunStore().ListErrors(ctx, "run-1")
	require.NoError(t, listErr)
	require.Len(t, recorded, 1)
	assert.Equal(t, "run_failed", recorded[0].Code)

	status, getErr := f.store.CollectionStore().Get(ctx, collection.ID)
	require.NoError(t, getErr)
	assert.Equal(t, domain.CollectionError, status.Status)
}

func TestRunnerService_Execute_FetchFailureKeepsCheckpoint(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	fetchErr := errors.New("connection reset")
	f.registry.Register("fake", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return &fakeAdapter{kind: "fake", docs: testDocs(2), fetchErr: fetchErr}, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test"})

	result, err := f.runner.Execute(ctx, collection, "run-1")

	require.Error(t, err)
	assert.Equal(t, 2, result.DocumentsDiscovered)

	// The partial progress stays durable for the next run to resume from
	run, getErr := f.store.RunStore().Get(ctx, "run-1")
	require.NoError(t, getErr)
	assert.Equal(t, domain.RunFailed, run.Status)
	assert.Equal(t, "cursor-2", run.Checkpoint)
}

func TestRunnerService_Execute_FetchFailureNeverReportsSuccess(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	fetchErr := errors.New("upstream went away")
	f.registry.Register("fake", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return &fakeAdapter{kind: "fake", fetchErr: fetchErr}, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test"})

	// The adapter parks its terminal error in a buffered channel and
	// closes both channels. Whichever close is observed first, the error
	// must still surface. Repeat to exercise both orderings.
	for i := 0; i < 200; i++ {
		runID := fmt.Sprintf("run-%d", i)
		_, err := f.runner.Execute(ctx, collection, runID)
		require.ErrorIs(t, err, fetchErr, "iteration %d", i)

		run, getErr := f.store.RunStore().Get(ctx, runID)
		require.NoError(t, getErr)
		require.Equal(t, domain.RunFailed, run.Status, "iteration %d", i)

		recorded, listErr := f.store.RunStore().ListErrors(ctx, runID)
		require.NoError(t, listErr)
		require.Len(t, recorded, 1, "iteration %d", i)
	}
}

func TestRunnerService_RateLimitFailureSurfaces(t *testing.T) {
	f := newRunnerFixture(t)

	// A cancelled context makes token acquisition fail without waiting.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	adapter := &fakeAdapter{kind: "fake"}
	limiter := ratelimit.NewLimiter("fake", 1, 1)
	run := &domain.Run{ID: "run-1", CollectionID: "col-1"}

	err := f.runner.processDocument(ctx, adapter, limiter, domain.Document{ID: "doc-1"}, run)

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, 0, run.DocumentsDiscovered)
}

func TestRunnerService_Execute_ResumesFromLatestCheckpoint(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	var adapter *fakeAdapter
	f.registry.Register("fake", func(_ context.Context, config driven.AdapterConfig) (driven.SourceAdapter, error) {
		adapter = &fakeAdapter{kind: "fake", config: config}
		return adapter, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test"})

	previous := domain.Run{
		ID:           "run-0",
		CollectionID: collection.ID,
		Status:       domain.RunFailed,
		Checkpoint:   "cursor-42",
	}
	require.NoError(t, f.store.RunStore().Save(ctx, previous))

	_, err := f.runner.Execute(ctx, collection, "run-1")
	require.NoError(t, err)

	assert.Equal(t, "cursor-42", adapter.config.Checkpoint)
	assert.Equal(t, "cursor-42", adapter.checkpoint)
}

func TestRunnerService_Execute_DecryptsCredentials(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	blob, err := f.cipher.Encrypt(map[string]any{"token": "secret"})
	require.NoError(t, err)

	var adapter *fakeAdapter
	f.registry.Register("fake", func(_ context.Context, config driven.AdapterConfig) (driven.SourceAdapter, error) {
		adapter = &fakeAdapter{kind: "fake", config: config}
		return adapter, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test", CredentialsEncrypted: blob})

	_, err = f.runner.Execute(ctx, collection, "run-1")
	require.NoError(t, err)

	require.NotNil(t, adapter.config.Credentials)
	assert.Equal(t, "secret", adapter.config.Credentials["token"])
}

func TestRunnerService_Execute_BadCredentialBlob(t *testing.T) {
	f := newRunnerFixture(t)
	ctx := context.Background()

	// Encrypted under a different key
	otherKey, err := vault.GenerateKey()
	require.NoError(t, err)
	blob, err := credentials.NewStore(otherKey).Encrypt(map[string]any{"token": "secret"})
	require.NoError(t, err)

	f.registry.Register("fake", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return &fakeAdapter{kind: "fake"}, nil
	})
	collection := f.addCollection(t, domain.Collection{Name: "test", CredentialsEncrypted: blob})

	_, err = f.runner.Execute(ctx, collection, "run-1")

	assert.ErrorIs(t, err, domain.ErrCredentialDecrypt)
}

func TestAdapterRegistry_CreateUnknownKind(t *testing.T) {
	registry := NewAdapterRegistry()

	_, err := registry.Create(context.Background(), "nope", driven.AdapterConfig{})

	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}

func TestAdapterRegistry_Kinds(t *testing.T) {
	registry := NewAdapterRegistry()
	registry.Register("gmail", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return nil, nil
	})
	registry.Register("drive", func(_ context.Context, _ driven.AdapterConfig) (driven.SourceAdapter, error) {
		return nil, nil
	})

	assert.Equal(t, []string{"drive", "gmail"}, registry.Kinds())
	assert.True(t, registry.Supported("gmail"))
	assert.False(t, registry.Supported("notion"))
}
