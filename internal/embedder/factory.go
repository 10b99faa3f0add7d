package embedder

import (
	"fmt"
	"os"
	"strconv"

	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// DefaultDimensions returns the embedding vector length produced by the
// default model of the given provider. Used to size vector store collections
// when EMBEDDING_DIMENSIONS is not set explicitly.
func DefaultDimensions(provider string) uint64 {
	switch provider {
	case "openai", "azure":
		return 1536 // text-embedding-3-small
	default:
		return 768 // nomic-embed-text
	}
}

// NewFromEnv constructs an embedder from environment variables.
//
// EMBEDDING_PROVIDER selects the backend ("openai", "azure", "ollama");
// when unset it falls back to MODEL_PROVIDER so a single variable can
// drive both the chat model and the embedder, and defaults to "ollama".
func NewFromEnv() (rag.Embedder, error) {
	provider := os.Getenv("EMBEDDING_PROVIDER")
	if provider == "" {
		provider = os.Getenv("MODEL_PROVIDER")
	}
	if provider == "" {
		provider = "ollama"
	}

	switch provider {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("embedder: OPENAI_API_KEY is required for the openai provider")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    envOr("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			APIKey:     apiKey,
			Model:      envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: envInt("EMBEDDING_DIMENSIONS", 0),
		}), nil

	case "azure":
		apiKey := os.Getenv("AZURE_OPENAI_API_KEY")
		endpoint := os.Getenv("AZURE_OPENAI_ENDPOINT")
		if apiKey == "" || endpoint == "" {
			return nil, fmt.Errorf("embedder: AZURE_OPENAI_API_KEY and AZURE_OPENAI_ENDPOINT are required for the azure provider")
		}
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    endpoint,
			APIKey:     apiKey,
			Model:      envOr("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimensions: envInt("EMBEDDING_DIMENSIONS", 0),
			Azure:      true,
			APIVersion: envOr("AZURE_OPENAI_API_VERSION", "2024-10-21"),
		}), nil

	case "ollama":
		return NewOllamaEmbedder(&OllamaConfig{
			Host:  envOr("OLLAMA_HOST", "http://localhost:11434"),
			Model: envOr("EMBEDDING_MODEL", "nomic-embed-text"),
		}), nil

	default:
		return nil, fmt.Errorf("embedder: unknown provider %q (expected openai, azure, or ollama)", provider)
	}
}

// envOr returns the value of the environment variable key, or fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt returns the integer value of the environment variable key, or
// fallback when unset or unparseable.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
