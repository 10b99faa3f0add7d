package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/embedder"
	"github.com/AritraCh2005/SmartSeva-4/internal/ingestion"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
)

// NewIngestCmd constructs the `smartseva ingest` command, which indexes
// scheme documents into the vector store so they can ground answers.
func NewIngestCmd() *cobra.Command {
	var files []string

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest scheme documents into the knowledge base",
		Long: `Chunk, embed, and index government scheme documents.

PDF files are extracted automatically; everything else is treated as plain
text. Ingested documents become the grounding corpus for answers — a
question only gets an answer when a relevant passage exists here.

Required environment variables:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: smartseva-schemes)
  QDRANT_API_KEY       Optional API key for authenticated clusters
  MODEL_PROVIDER       Embedding backend: ollama, openai, azure (default: ollama)
  EMBEDDING_*          Provider-specific overrides (see README)

Examples:
  smartseva ingest --file pm-awas-yojana.pdf
  smartseva ingest --file ration-card-faq.txt --file pension-scheme.pdf`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			if len(files) == 0 {
				return fmt.Errorf("ingest: at least one --file is required")
			}

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			if err := embedder.Validate(ctx, emb); err != nil {
				return fmt.Errorf("ingest: embedder preflight failed: %w", err)
			}

			index, err := buildIndex(ctx, log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer index.Close()

			docs, err := openDocStore(log)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer func() { _ = docs.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, index, docs, chunkConfig())
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			for _, f := range files {
				data, err := os.ReadFile(f)
				if err != nil {
					return fmt.Errorf("ingest: reading %s: %w", f, err)
				}

				res, err := pipeline.Ingest(ctx, ingestion.Source{
					Name: filepath.Base(f),
					Data: data,
				})
				if err != nil {
					return fmt.Errorf("ingest: %s: %w", f, err)
				}

				log.Info("document ingested",
					slog.String("file", f),
					slog.String("document_id", res.DocumentID),
					slog.Int("chunks", res.Chunks),
				)
				fmt.Printf("ingested %s: %d chunks (document %s)\n", f, res.Chunks, res.DocumentID)
			}

			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "Document file to ingest (repeatable)")

	return cmd
}
