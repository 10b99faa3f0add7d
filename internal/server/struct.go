package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AritraCh2005/SmartSeva-4/internal/docstore"
	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/ingestion"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// Registry receives the server's Prometheus metrics. If nil, the default
	// registry is used. Tests inject a fresh registry to stay hermetic.
	Registry *prometheus.Registry
	// MaxUploadBytes caps the size of uploaded documents. Defaults to 20 MiB.
	MaxUploadBytes int64
}

// asker answers one citizen query within a session. *orchestrator.Manager is
// adapted to it in production; tests inject a fake.
type asker interface {
	// Ask answers query within the given session, creating the session when
	// id is empty. Returns the answer and the session ID it ran under.
	Ask(ctx context.Context, sessionID, query string) (*generator.Answer, string, error)
}

// sessionDropper removes a session and its history.
type sessionDropper interface {
	Drop(ctx context.Context, sessionID string) error
}

// ingester manages the document lifecycle. *ingestion.Pipeline satisfies it;
// tests inject a fake.
type ingester interface {
	Ingest(ctx context.Context, src ingestion.Source) (*ingestion.Result, error)
	Remove(ctx context.Context, docID string) error
}

// documentLister lists stored documents. *docstore.Store satisfies it.
type documentLister interface {
	List(ctx context.Context) ([]docstore.Document, error)
}

// Server is the HTTP server exposing the SmartSeva API.
type Server struct {
	// asker answers citizen queries.
	asker asker
	// dropper deletes sessions.
	dropper sessionDropper
	// ingester manages document ingestion and removal.
	ingester ingester
	// docs lists stored documents.
	docs documentLister
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus instruments owned by this server.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// askRequest is the JSON body for POST /api/ask.
type askRequest struct {
	// Query is the citizen's question.
	Query string `json:"query"`
	// SessionID continues an existing conversation. Empty starts a new one.
	SessionID string `json:"session_id,omitempty"`
}

// askResponse is the JSON response for POST /api/ask.
type askResponse struct {
	// Answer is the generated or refusal text.
	Answer string `json:"answer"`
	// Grounded is false when Answer is the refusal message.
	Grounded bool `json:"grounded"`
	// Citations lists the chunk IDs that grounded the answer.
	Citations []string `json:"citations,omitempty"`
	// SessionID identifies the conversation for follow-up questions.
	SessionID string `json:"session_id"`
}

// documentResponse is one entry in the GET /api/documents response.
type documentResponse struct {
	// ID is the document UUID.
	ID string `json:"id"`
	// Source is the original file name or label.
	Source string `json:"source"`
	// CreatedAt is the ingestion time in RFC 3339.
	CreatedAt string `json:"created_at"`
}

// ingestResponse is the JSON response for POST /api/documents.
type ingestResponse struct {
	// DocumentID is the UUID assigned to the ingested document.
	DocumentID string `json:"document_id"`
	// Chunks is the number of chunks indexed.
	Chunks int `json:"chunks"`
}
