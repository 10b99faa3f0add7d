package embedder

import (
	"context"
	"fmt"
	"time"

	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// Validate performs a preflight embedding call so misconfiguration (wrong
// host, bad key, missing model) surfaces at startup instead of on the first
// citizen query.
func Validate(ctx context.Context, e rag.Embedder) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	vecs, err := e.Embed(ctx, []string{"ping"})
	if err != nil {
		return fmt.Errorf("embedder: preflight check failed: %w", err)
	}
	if len(vecs) != 1 || len(vecs[0]) == 0 {
		return fmt.Errorf("embedder: preflight check returned an empty embedding")
	}
	return nil
}
