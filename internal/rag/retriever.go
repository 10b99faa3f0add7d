package rag

import (
	"context"
	"fmt"
)

// DefaultRetriever implements the Retriever interface by combining an Embedder
// and a VectorStore. It embeds the query at retrieval time and delegates
// similarity search to the store, then applies the caller's threshold.
type DefaultRetriever struct {
	// embedder converts query text to a dense vector.
	embedder Embedder

	// store performs the vector similarity search.
	store VectorStore

	// defaultTopK is the result count used when the caller passes k=0.
	defaultTopK int

	// defaultThreshold is the minimum score used when the caller passes a
	// negative threshold. A threshold of exactly 0 is honoured as "no filter".
	defaultThreshold float32
}

// NewRetriever constructs a DefaultRetriever from the given Embedder and
// VectorStore. defaultTopK and defaultThreshold fill in when Retrieve is
// called with k=0 or threshold<0 respectively.
func NewRetriever(embedder Embedder, store VectorStore, defaultTopK int, defaultThreshold float32) (*DefaultRetriever, error) {
	if embedder == nil {
		return nil, fmt.Errorf("rag: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("rag: store must not be nil")
	}
	if defaultTopK <= 0 {
		defaultTopK = 4
	}
	if defaultThreshold < 0 {
		defaultThreshold = 0.3
	}
	return &DefaultRetriever{
		embedder:         embedder,
		store:            store,
		defaultTopK:      defaultTopK,
		defaultThreshold: defaultThreshold,
	}, nil
}

// Retrieve embeds the query and returns at most k chunks scoring at or above
// threshold, in descending score order. Returns an empty slice (not an error)
// when no chunk clears the threshold.
func (r *DefaultRetriever) Retrieve(ctx context.Context, query string, k int, threshold float32) ([]Chunk, error) {
	if k <= 0 {
		k = r.defaultTopK
	}
	if threshold < 0 {
		threshold = r.defaultThreshold
	}

	embeddings, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("rag: embedding query failed: %w", err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("rag: embedder returned empty result for query")
	}

	// Over-fetch so threshold filtering does not starve the result set when
	// low-scoring chunks sit between high-scoring ones in the store's ranking.
	found, err := r.store.Search(ctx, embeddings[0], k*2)
	if err != nil {
		return nil, fmt.Errorf("rag: vector search failed: %w", err)
	}

	results := make([]Chunk, 0, k)
	for _, c := range found {
		if c.Score < threshold {
			continue
		}
		results = append(results, c)
		if len(results) == k {
			break
		}
	}

	return results, nil
}
