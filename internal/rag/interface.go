// Package rag defines the interfaces for the retrieval-augmented generation
// core: vector storage, text embedding, and similarity retrieval.
// Concrete implementations (Qdrant, in-process copy-on-write) satisfy these
// interfaces so the orchestration layer never depends on a specific backend.
package rag

import (
	"context"
)

// Chunk is a bounded span of a document's text, embedded independently for
// retrieval. Chunks are created at ingestion time and never mutated; they are
// deleted only when their parent document is removed.
type Chunk struct {
	// ID is the unique identifier for this chunk (a deterministic UUID derived
	// from the parent document ID and the chunk sequence number).
	ID string

	// DocumentID identifies the parent document this chunk was split from.
	DocumentID string

	// Seq is the ordered position of this chunk within its parent document.
	Seq int

	// Content is the raw text span of the chunk.
	Content string

	// Source is the origin of the parent document (file name or upload label).
	Source string

	// Score is the similarity score assigned during retrieval (0.0–1.0 for
	// cosine similarity). Zero value means the score was not computed.
	Score float32
}

// VectorStore is the interface for persisting and searching chunk embeddings.
// Implementations must be safe to call from multiple goroutines, and must
// guarantee that concurrent readers never observe a partially-applied write:
// a search sees the index state either before or after a given Upsert/Delete,
// never in between.
type VectorStore interface {
	// Upsert stores or updates a batch of chunks with their pre-computed
	// embeddings. The embeddings slice must be parallel to chunks —
	// embeddings[i] is the vector for chunks[i].
	Upsert(ctx context.Context, chunks []Chunk, embeddings [][]float32) error

	// Search returns the k most similar chunks for the given query embedding,
	// ordered by descending similarity score. Ties are broken by insertion
	// order (earlier-indexed chunks first).
	Search(ctx context.Context, queryEmbedding []float32, k int) ([]Chunk, error)

	// Delete removes chunks by their IDs. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, ids []string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever is the high-level interface used by the orchestrator to fetch
// relevant context for a query. It combines embedding and vector search.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve embeds the query, searches the index, discards results scoring
	// below threshold, and returns at most k chunks in descending score order.
	// An empty result is a normal outcome, not an error — it signals the
	// generator to produce a refusal instead of calling the language model.
	Retrieve(ctx context.Context, query string, k int, threshold float32) ([]Chunk, error)
}
