package rag

import (
	"context"
	"errors"
	"testing"
)

// stubEmbedder returns a fixed vector for every input.
type stubEmbedder struct {
	vec []float32
	err error
}

func (e *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = e.vec
	}
	return out, nil
}

func newSeededRetriever(t *testing.T) *DefaultRetriever {
	t.Helper()

	store := NewMemoryStore()
	chunks := []Chunk{
		{ID: "c1", DocumentID: "d1", Seq: 0, Content: "housing"},
		{ID: "c2", DocumentID: "d1", Seq: 1, Content: "pension"},
		{ID: "c3", DocumentID: "d2", Seq: 0, Content: "ration"},
	}
	embeddings := [][]float32{
		{1, 0, 0},
		{0.5, 0.5, 0},
		{0, 0, 1},
	}
	if err := store.Upsert(context.Background(), chunks, embeddings); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	r, err := NewRetriever(&stubEmbedder{vec: []float32{1, 0, 0}}, store, 4, 0.3)
	if err != nil {
		t.Fatalf("NewRetriever failed: %v", err)
	}
	return r
}

func Test_Retriever_FiltersBelowThreshold(t *testing.T) {
	t.Parallel()

	r := newSeededRetriever(t)

	// Query aligned with c1: c1 scores 1.0, c2 ~0.71, c3 scores 0.
	got, err := r.Retrieve(context.Background(), "housing scheme", 4, 0.3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d chunks, want 2 (c3 below threshold)", len(got))
	}
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("order = [%s %s], want [c1 c2]", got[0].ID, got[1].ID)
	}
}

func Test_Retriever_TruncatesToK(t *testing.T) {
	t.Parallel()

	r := newSeededRetriever(t)

	got, err := r.Retrieve(context.Background(), "housing scheme", 1, 0.3)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c1" {
		t.Fatalf("got %v, want exactly [c1]", got)
	}
}

func Test_Retriever_EmptyWhenNothingClearsThreshold(t *testing.T) {
	t.Parallel()

	r := newSeededRetriever(t)

	got, err := r.Retrieve(context.Background(), "anything", 4, 1.1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d chunks, want none", len(got))
	}
}

func Test_Retriever_DefaultsApplyForZeroK(t *testing.T) {
	t.Parallel()

	r := newSeededRetriever(t)

	got, err := r.Retrieve(context.Background(), "housing scheme", 0, -1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d chunks with defaults, want 2", len(got))
	}
}

func Test_Retriever_EmbedderFailure(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	r, err := NewRetriever(&stubEmbedder{err: errors.New("backend down")}, store, 4, 0.3)
	if err != nil {
		t.Fatalf("NewRetriever failed: %v", err)
	}

	if _, err := r.Retrieve(context.Background(), "q", 4, 0.3); err == nil {
		t.Fatal("expected error when embedder fails")
	}
}

func Test_NewRetriever_NilDeps(t *testing.T) {
	t.Parallel()

	if _, err := NewRetriever(nil, NewMemoryStore(), 4, 0.3); err == nil {
		t.Error("expected error for nil embedder")
	}
	if _, err := NewRetriever(&stubEmbedder{vec: []float32{1}}, nil, 4, 0.3); err == nil {
		t.Error("expected error for nil store")
	}
}
