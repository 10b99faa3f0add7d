// Package ingestion turns source documents into indexed, searchable chunks.
// The pipeline extracts text, splits it, embeds the chunks, records the
// document in the docstore, and upserts the vectors into the index.
// Ingestions are mutually exclusive: a pipeline-level mutex serialises them
// so the index never interleaves two documents' updates. Queries are never
// blocked — the vector stores publish updates atomically.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/AritraCh2005/SmartSeva-4/internal/docstore"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// Source is a document to ingest: a name (file name or label) and raw bytes.
type Source struct {
	// Name is the human-readable origin, also used to detect PDFs by extension.
	Name string

	// Data is the raw document bytes.
	Data []byte
}

// Result describes a completed ingestion.
type Result struct {
	// DocumentID is the UUID assigned to the document.
	DocumentID string

	// Chunks is the number of chunks indexed.
	Chunks int
}

// Pipeline coordinates document ingestion across the embedder, the document
// store, and the vector index.
type Pipeline struct {
	embedder rag.Embedder
	index    rag.VectorStore
	docs     *docstore.Store
	chunkCfg docstore.ChunkConfig

	// mu serialises ingestions and removals.
	mu chan struct{}
}

// NewPipeline constructs a Pipeline. A zero chunk config falls back to the
// defaults.
func NewPipeline(embedder rag.Embedder, index rag.VectorStore, docs *docstore.Store, chunkCfg docstore.ChunkConfig) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder is required")
	}
	if index == nil {
		return nil, fmt.Errorf("ingestion: vector store is required")
	}
	if docs == nil {
		return nil, fmt.Errorf("ingestion: document store is required")
	}
	if chunkCfg.Size == 0 {
		chunkCfg = docstore.DefaultChunkConfig()
	}

	mu := make(chan struct{}, 1)
	mu <- struct{}{}
	return &Pipeline{
		embedder: embedder,
		index:    index,
		docs:     docs,
		chunkCfg: chunkCfg,
		mu:       mu,
	}, nil
}

// acquire takes the ingestion lock, honouring context cancellation.
func (p *Pipeline) acquire(ctx context.Context) error {
	select {
	case <-p.mu:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("ingestion: waiting for ingestion lock: %w", ctx.Err())
	}
}

func (p *Pipeline) release() {
	p.mu <- struct{}{}
}

// Ingest runs the full pipeline for one source document. On success the
// document is durably recorded and all its chunks are searchable. On failure
// nothing new is searchable: the embed step happens before any write, and an
// index failure rolls the docstore rows back.
func (p *Pipeline) Ingest(ctx context.Context, src Source) (*Result, error) {
	log := logging.FromContext(ctx)

	text, err := extractText(src.Name, src.Data)
	if err != nil {
		return nil, err
	}

	pieces, err := docstore.Split(text, p.chunkCfg)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%w: %s", docstore.ErrInvalidDocument, src.Name)
	}

	embeddings, err := p.embedder.Embed(ctx, pieces)
	if err != nil {
		return nil, fmt.Errorf("ingestion: embed %d chunks: %w", len(pieces), err)
	}

	docID := uuid.New().String()
	doc := docstore.Document{
		ID:        docID,
		Source:    src.Name,
		Content:   text,
		CreatedAt: time.Now(),
	}

	chunks := make([]rag.Chunk, len(pieces))
	rows := make([]docstore.ChunkRow, len(pieces))
	for i, piece := range pieces {
		// Deterministic chunk IDs: re-ingesting the same document ID and
		// sequence produces the same point ID in the index.
		id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("%s#%d", docID, i))).String()
		chunks[i] = rag.Chunk{
			ID:         id,
			DocumentID: docID,
			Seq:        i,
			Content:    piece,
			Source:     src.Name,
		}
		rows[i] = docstore.ChunkRow{
			ID:         id,
			DocumentID: docID,
			Seq:        i,
			Content:    piece,
		}
	}

	if err := p.acquire(ctx); err != nil {
		return nil, err
	}
	defer p.release()

	if err := p.docs.Insert(ctx, doc, rows); err != nil {
		return nil, err
	}

	if err := p.index.Upsert(ctx, chunks, embeddings); err != nil {
		// Roll the docstore back so record and index stay consistent.
		if _, rmErr := p.docs.Remove(ctx, docID); rmErr != nil {
			log.Error("rollback after index failure also failed",
				slog.String("document_id", docID),
				slog.String("error", rmErr.Error()))
		}
		return nil, fmt.Errorf("ingestion: index %d chunks: %w", len(chunks), err)
	}

	log.Info("document ingested",
		slog.String("document_id", docID),
		slog.String("source", src.Name),
		slog.Int("chunks", len(chunks)))

	return &Result{DocumentID: docID, Chunks: len(chunks)}, nil
}

// Remove deletes a document's chunks from the index and its rows from the
// docstore. The index is cleared first: a chunk left in the index without a
// backing row would be unremovable later, while a row without index entries
// is merely stale.
func (p *Pipeline) Remove(ctx context.Context, docID string) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}
	defer p.release()

	chunkIDs, err := p.docs.ChunkIDs(ctx, docID)
	if err != nil {
		return err
	}

	if err := p.index.Delete(ctx, chunkIDs); err != nil {
		return fmt.Errorf("ingestion: delete %d chunks from index: %w", len(chunkIDs), err)
	}

	if _, err := p.docs.Remove(ctx, docID); err != nil {
		return err
	}

	logging.FromContext(ctx).Info("document removed",
		slog.String("document_id", docID),
		slog.Int("chunks", len(chunkIDs)))
	return nil
}
