package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"sync/atomic"
)

// MemoryStore is an in-process VectorStore using cosine similarity over
// unit-normalised vectors. Writers build a fresh snapshot under a mutex and
// publish it atomically; readers work entirely from the snapshot they loaded,
// so an in-flight search sees the index either before or after a given
// ingestion, never a partial update.
type MemoryStore struct {
	// mu serialises writers. Readers never take it.
	mu sync.Mutex

	// snap is the currently published immutable index snapshot.
	snap atomic.Pointer[indexSnapshot]
}

// indexSnapshot is an immutable view of the index. entries preserves
// insertion order, which is the documented tie-break for equal scores.
type indexSnapshot struct {
	entries []indexEntry
	byID    map[string]int
}

// indexEntry pairs a chunk with its unit-normalised embedding.
type indexEntry struct {
	chunk Chunk
	vec   []float32
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.snap.Store(&indexSnapshot{byID: map[string]int{}})
	return s
}

// Upsert stores or updates chunks with their embeddings. Existing IDs are
// replaced in place (retaining their insertion position); new IDs are
// appended. The updated snapshot is published atomically.
func (s *MemoryStore) Upsert(_ context.Context, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("rag: chunks and embeddings must be parallel slices (%d vs %d)", len(chunks), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.snap.Load()
	next := &indexSnapshot{
		entries: make([]indexEntry, len(old.entries), len(old.entries)+len(chunks)),
		byID:    make(map[string]int, len(old.byID)+len(chunks)),
	}
	copy(next.entries, old.entries)
	for id, i := range old.byID {
		next.byID[id] = i
	}

	for i, c := range chunks {
		e := indexEntry{chunk: c, vec: normalise(embeddings[i])}
		if pos, ok := next.byID[c.ID]; ok {
			next.entries[pos] = e
			continue
		}
		next.byID[c.ID] = len(next.entries)
		next.entries = append(next.entries, e)
	}

	s.snap.Store(next)
	return nil
}

// Search returns the k most similar chunks by cosine similarity, descending.
// Equal scores keep insertion order (sort is stable over the snapshot slice).
func (s *MemoryStore) Search(_ context.Context, queryEmbedding []float32, k int) ([]Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	snap := s.snap.Load()
	q := normalise(queryEmbedding)

	scored := make([]Chunk, 0, len(snap.entries))
	for _, e := range snap.entries {
		c := e.chunk
		c.Score = dot(q, e.vec)
		scored = append(scored, c)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Delete removes chunks by ID and publishes a rebuilt snapshot. Unknown IDs
// are ignored.
func (s *MemoryStore) Delete(_ context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	old := s.snap.Load()
	next := &indexSnapshot{
		entries: make([]indexEntry, 0, len(old.entries)),
		byID:    make(map[string]int, len(old.byID)),
	}
	for _, e := range old.entries {
		if drop[e.chunk.ID] {
			continue
		}
		next.byID[e.chunk.ID] = len(next.entries)
		next.entries = append(next.entries, e)
	}

	s.snap.Store(next)
	return nil
}

// Len returns the number of indexed chunks in the current snapshot.
func (s *MemoryStore) Len() int {
	return len(s.snap.Load().entries)
}

// Close releases resources. The MemoryStore holds none.
func (s *MemoryStore) Close() error { return nil }

// normalise returns a unit-length copy of v. A zero vector is returned as-is
// so it scores 0 against everything rather than dividing by zero.
func normalise(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out
}

// dot returns the dot product of two equal-length vectors. Mismatched lengths
// score 0 — the caller mixed embedding models and no meaningful comparison exists.
func dot(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
