package docstore

import (
	"fmt"
	"strings"
)

// ChunkConfig controls how document text is split.
type ChunkConfig struct {
	// Size is the maximum chunk length in runes.
	Size int

	// Overlap is how many runes consecutive chunks share.
	Overlap int
}

// DefaultChunkConfig matches the sizes used for scheme documents: small
// enough to stay within embedding model context, large enough to keep a
// benefit clause and its eligibility criteria together.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 500, Overlap: 50}
}

// Split divides text into overlapping chunks. Rune-based so Devanagari and
// other multi-byte scripts never split mid-character. Whitespace-only input
// yields no chunks.
func Split(text string, cfg ChunkConfig) ([]string, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("docstore: chunk size must be positive, got %d", cfg.Size)
	}
	if cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("docstore: chunk overlap must be in [0, size), got %d", cfg.Overlap)
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil, nil
	}

	step := cfg.Size - cfg.Overlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + cfg.Size
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
