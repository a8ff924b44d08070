package blevestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spigell/interviewer/internal/retrieval"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewMemStore()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	chunks := []retrieval.Chunk{
		{ID: "week1_0", Source: "week1", Text: "Overfitting happens when a model memorizes the training data instead of learning general patterns."},
		{ID: "week2_0", Source: "week2", Text: "Gradient descent updates parameters in the direction of the negative gradient."},
		{ID: "week3_0", Source: "week3", Text: "Decision trees split the feature space using impurity measures such as Gini."},
	}
	if err := store.Index(ctx, chunks); err != nil {
		t.Fatalf("index: %v", err)
	}

	count, err := store.Count()
	if err != nil || count != 3 {
		t.Fatalf("expected 3 documents, got %d (%v)", count, err)
	}

	passages, err := store.Search(ctx, "why does a model overfit training data", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(passages) == 0 {
		t.Fatalf("expected passages")
	}
	if len(passages) > 2 {
		t.Fatalf("expected at most 2 passages, got %d", len(passages))
	}

	top := passages[0]
	if top.ID != "week1_0" || top.Source != "week1" || top.Text != chunks[0].Text {
		t.Fatalf("unexpected top passage: %+v", top)
	}
	if top.Distance <= 0 || top.Distance > 1 {
		t.Fatalf("distance out of range: %v", top.Distance)
	}
	for i := 1; i < len(passages); i++ {
		if passages[i].Distance < passages[i-1].Distance {
			t.Fatalf("passages are not ordered by distance: %+v", passages)
		}
	}
}

func TestStoreEmptyIndex(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Search(context.Background(), "anything", 3); !errors.Is(err, retrieval.ErrEmptyIndex) {
		t.Fatalf("expected retrieval.ErrEmptyIndex, got %v", err)
	}
}

func TestStoreClosed(t *testing.T) {
	store, err := NewMemStore()
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := store.Search(context.Background(), "anything", 3); !errors.Is(err, ErrStoreClosed) {
		t.Fatalf("expected ErrStoreClosed, got %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("second close should be a no-op, got %v", err)
	}
}

func TestOpenCreatesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledge.bleve")
	ctx := context.Background()

	store, err := Open(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Index(ctx, []retrieval.Chunk{{ID: "a_0", Source: "a", Text: "regularization reduces variance"}}); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	count, err := reopened.Count()
	if err != nil || count != 1 {
		t.Fatalf("expected persisted document, got %d (%v)", count, err)
	}
}

func TestAdapterOverBleveFallsBackOnEmptyIndex(t *testing.T) {
	adapter := retrieval.NewAdapter(newTestStore(t), retrieval.AdapterConfig{}, nil)

	if got := adapter.Retrieve(context.Background(), "overfitting", 3); !retrieval.IsFallback(got) {
		t.Fatalf("expected fallback for empty index, got %+v", got)
	}
}
