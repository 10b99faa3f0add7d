package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/spf13/cobra"

	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/ingestion"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
	"github.com/AritraCh2005/SmartSeva-4/internal/orchestrator"
	"github.com/AritraCh2005/SmartSeva-4/internal/provider"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
	"github.com/AritraCh2005/SmartSeva-4/internal/server"
	"github.com/AritraCh2005/SmartSeva-4/internal/tracing"
)

// NewServeCmd constructs the `smartseva serve` command, which starts the
// HTTP API for citizen queries and document management.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SmartSeva HTTP API server",
		Long: `Start the SmartSeva HTTP server on localhost.

The server exposes a REST API for asking questions, managing scheme
documents, and operational probes (/api/health, /api/ready, /metrics).

Examples:
  smartseva serve
  smartseva serve --port 9090
  MODEL_PROVIDER=azure smartseva serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Setup Langfuse tracing — opt-in, no-op if keys are absent.
			handler, flush, ok := tracing.Setup()
			if ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
				log.Info("langfuse tracing enabled")
			} else {
				log.Info("langfuse tracing disabled", slog.String("reason", "LANGFUSE_PUBLIC_KEY not set"))
			}

			chatModel, err := provider.NewFromEnv(ctx)
			if err != nil {
				return fmt.Errorf("serve: failed to initialise model provider: %w", err)
			}
			log.Info("provider initialised", slog.String("provider", getEnvOrDefault("MODEL_PROVIDER", "ollama")))

			emb, err := buildEmbedder(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			index, err := buildIndex(ctx, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer index.Close()

			docs, err := openDocStore(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = docs.Close() }()

			hist := openHistory(log)
			if hist != nil {
				defer func() { _ = hist.Close() }()
			}

			cfg := retrievalConfig()
			retriever, err := rag.NewRetriever(emb, index, cfg.TopK, cfg.Threshold)
			if err != nil {
				return fmt.Errorf("serve: failed to create retriever: %w", err)
			}

			gen, err := generator.New(chatModel)
			if err != nil {
				return fmt.Errorf("serve: failed to create generator: %w", err)
			}

			mgr, err := orchestrator.NewManager(retriever, gen, hist, cfg)
			if err != nil {
				return fmt.Errorf("serve: failed to create session manager: %w", err)
			}

			pipeline, err := ingestion.NewPipeline(emb, index, docs, chunkConfig())
			if err != nil {
				return fmt.Errorf("serve: failed to create ingestion pipeline: %w", err)
			}

			pingers := buildPingers(index, chatModel)

			srv, err := server.New(mgr, mgr, pipeline, docs, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("SMARTSEVA_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}
			defer srv.Close()

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}

// buildPingers assembles the dependency probes for GET /api/ready: the
// vector store (when backed by Qdrant) and the chat model backend.
func buildPingers(index rag.VectorStore, chatModel model.BaseChatModel) []server.Pinger {
	var pingers []server.Pinger

	if qs, ok := index.(*rag.QdrantStore); ok {
		pingers = append(pingers, server.NewQdrantPinger(qs.Client()))
	}

	pingers = append(pingers, server.NewLLMPinger(chatModel, getEnvOrDefault("MODEL_PROVIDER", "ollama")))

	return pingers
}
