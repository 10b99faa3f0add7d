package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AritraCh2005/SmartSeva-4/internal/docstore"
	"github.com/AritraCh2005/SmartSeva-4/internal/embedder"
	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/history"
	"github.com/AritraCh2005/SmartSeva-4/internal/orchestrator"
	"github.com/AritraCh2005/SmartSeva-4/internal/provider"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// embeddingBackend resolves the embedding backend name the same way the
// embedder factory does: EMBEDDING_PROVIDER, then MODEL_PROVIDER, then ollama.
func embeddingBackend() string {
	return getEnvOrDefault("EMBEDDING_PROVIDER", getEnvOrDefault("MODEL_PROVIDER", "ollama"))
}

// buildEmbedder constructs the configured embedder wrapped with retry on
// transient backend failures.
func buildEmbedder(log *slog.Logger) (rag.Embedder, error) {
	inner, err := embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("provider", embeddingBackend()))
	return embedder.NewRetrying(inner), nil
}

// buildIndex constructs the vector store selected by VECTOR_STORE. The
// default is a Qdrant instance; "memory" selects the in-process store for
// local experiments (contents are lost when the process exits).
func buildIndex(ctx context.Context, log *slog.Logger) (rag.VectorStore, error) {
	switch kind := getEnvOrDefault("VECTOR_STORE", "qdrant"); kind {
	case "memory":
		log.Info("vector store: in-memory (non-persistent)")
		return rag.NewMemoryStore(), nil
	case "qdrant":
		host := getEnvOrDefault("QDRANT_HOST", "localhost")
		port := getEnvInt("QDRANT_PORT", 6334)
		collection := getEnvOrDefault("QDRANT_COLLECTION", "smartseva-schemes")
		vectorSize := embedder.DefaultDimensions(embeddingBackend())

		store, err := rag.NewQdrantStore(ctx, &rag.QdrantConfig{
			Host:       host,
			Port:       port,
			Collection: collection,
			VectorSize: vectorSize,
			APIKey:     os.Getenv("QDRANT_API_KEY"),
			UseTLS:     os.Getenv("QDRANT_TLS") == "true",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", host, port, err)
		}
		log.Info("qdrant store ready",
			slog.String("host", host),
			slog.Int("port", port),
			slog.String("collection", collection),
		)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_STORE %q (want qdrant or memory)", kind)
	}
}

// retrievalConfig reads the retrieval tuning knobs from the environment.
func retrievalConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()
	cfg.TopK = getEnvInt("RETRIEVAL_TOP_K", cfg.TopK)
	cfg.Threshold = getEnvFloat32("RETRIEVAL_THRESHOLD", cfg.Threshold)
	cfg.MemoryWindow = getEnvInt("MEMORY_WINDOW", cfg.MemoryWindow)
	return cfg
}

// chunkConfig reads the chunking knobs from the environment.
func chunkConfig() docstore.ChunkConfig {
	cfg := docstore.DefaultChunkConfig()
	cfg.Size = getEnvInt("CHUNK_SIZE", cfg.Size)
	cfg.Overlap = getEnvInt("CHUNK_OVERLAP", cfg.Overlap)
	return cfg
}

// openDocStore opens the document metadata database. SMARTSEVA_DB overrides
// the default path (~/.smartseva/documents.db).
func openDocStore(log *slog.Logger) (*docstore.Store, error) {
	path := os.Getenv("SMARTSEVA_DB")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not resolve home directory for document store: %w", err)
		}
		dir := filepath.Join(home, ".smartseva")
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("could not create %s: %w", dir, err)
		}
		path = filepath.Join(dir, "documents.db")
	}

	store, err := docstore.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	log.Info("document store opened", slog.String("path", path))
	return store, nil
}

// openHistory opens the conversation history store. SMARTSEVA_HISTORY_DB
// overrides the default path (~/.smartseva/history.db); set it to "disabled"
// to run without persistence. Returns nil when history is unavailable —
// sessions then live only in memory.
func openHistory(log *slog.Logger) *history.Store {
	path := os.Getenv("SMARTSEVA_HISTORY_DB")
	if path == "disabled" {
		log.Info("history: disabled via SMARTSEVA_HISTORY_DB=disabled")
		return nil
	}
	if path == "" {
		var err error
		path, err = history.DefaultDBPath()
		if err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}

	hs, err := history.Open(path)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("history: store opened", slog.String("path", path))
	return hs
}

// buildManager wires the full query pipeline: model provider, embedder,
// vector store, retriever, generator, and the session manager. The returned
// cleanup function closes the underlying stores.
func buildManager(ctx context.Context, log *slog.Logger) (*orchestrator.Manager, func(), error) {
	chatModel, err := provider.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")))

	emb, err := buildEmbedder(log)
	if err != nil {
		return nil, nil, err
	}

	index, err := buildIndex(ctx, log)
	if err != nil {
		return nil, nil, err
	}

	cfg := retrievalConfig()
	retriever, err := rag.NewRetriever(emb, index, cfg.TopK, cfg.Threshold)
	if err != nil {
		index.Close()
		return nil, nil, fmt.Errorf("failed to create retriever: %w", err)
	}

	gen, err := generator.New(chatModel)
	if err != nil {
		index.Close()
		return nil, nil, fmt.Errorf("failed to create generator: %w", err)
	}

	hist := openHistory(log)

	mgr, err := orchestrator.NewManager(retriever, gen, hist, cfg)
	if err != nil {
		index.Close()
		if hist != nil {
			_ = hist.Close()
		}
		return nil, nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	cleanup := func() {
		index.Close()
		if hist != nil {
			_ = hist.Close()
		}
	}
	return mgr, cleanup, nil
}

// getEnvOrDefault returns the value of the env var or a fallback if unset.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the env var or a fallback.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// getEnvFloat32 returns the float value of the env var or a fallback.
func getEnvFloat32(key string, fallback float32) float32 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil {
			return float32(f)
		}
	}
	return fallback
}
