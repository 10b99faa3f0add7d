// Package orchestrator runs the full question-answering flow for a chat
// session: validate the query, retrieve relevant scheme chunks, generate a
// grounded answer, and record the completed turn. Memory is updated only
// when a turn completes — with a grounded answer or a refusal. A failed
// retrieval, embedding, or generation leaves the session exactly as it was.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/AritraCh2005/SmartSeva-4/internal/generator"
	"github.com/AritraCh2005/SmartSeva-4/internal/history"
	"github.com/AritraCh2005/SmartSeva-4/internal/logging"
	"github.com/AritraCh2005/SmartSeva-4/internal/memory"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// MaxQueryLength bounds query size in runes. Anything longer is not a
// question a citizen typed.
const MaxQueryLength = 2000

// ErrInvalidQuery is returned for empty or oversized queries.
var ErrInvalidQuery = errors.New("orchestrator: query is empty or too long")

// ErrSessionNotFound is returned when a session ID is unknown.
var ErrSessionNotFound = errors.New("orchestrator: session not found")

// Config holds the per-session retrieval settings.
type Config struct {
	// TopK is the number of chunks to retrieve per query.
	TopK int

	// Threshold is the minimum similarity score for a chunk to count.
	Threshold float32

	// MemoryWindow is how many turns the prompt window keeps.
	MemoryWindow int
}

// DefaultConfig returns the retrieval settings used when none are given.
func DefaultConfig() Config {
	return Config{
		TopK:         4,
		Threshold:    0.3,
		MemoryWindow: memory.DefaultCapacity,
	}
}

// Session is one citizen's conversation. Safe for concurrent use; turns
// within a session are serialised.
type Session struct {
	id        string
	retriever rag.Retriever
	gen       *generator.Generator
	mem       *memory.Buffer
	hist      *history.Store // optional persistence
	cfg       Config

	// mu serialises turns so memory ordering matches question order.
	mu sync.Mutex
}

// ID returns the session's identifier.
func (s *Session) ID() string { return s.id }

// Ask runs one turn: validate, retrieve, generate, record.
func (s *Session) Ask(ctx context.Context, query string) (*generator.Answer, error) {
	query = strings.TrimSpace(query)
	if query == "" || utf8.RuneCountInString(query) > MaxQueryLength {
		return nil, ErrInvalidQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	log := logging.FromContext(ctx)

	chunks, err := s.retriever.Retrieve(ctx, query, s.cfg.TopK, s.cfg.Threshold)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: retrieve: %w", err)
	}

	turns := s.mem.Recent(s.cfg.MemoryWindow)

	ans, err := s.gen.Generate(ctx, query, chunks, turns)
	if err != nil {
		return nil, err
	}

	turn := memory.Turn{Query: query, Answer: ans.Text, At: time.Now()}
	s.mem.Append(turn)
	if s.hist != nil {
		err := s.hist.Append(ctx, history.Turn{
			Session: s.id,
			Query:   query,
			Answer:  ans.Text,
		})
		if err != nil {
			// The answer already exists; losing one history row is not
			// worth failing the turn over.
			log.Warn("failed to persist turn",
				slog.String("session", s.id),
				slog.String("error", err.Error()))
		}
	}

	log.Info("turn completed",
		slog.String("session", s.id),
		slog.Int("chunks", len(chunks)),
		slog.Bool("grounded", ans.Grounded))

	return ans, nil
}

// ClearMemory drops the session's prompt window without touching persisted
// history.
func (s *Session) ClearMemory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem.Clear()
}

// Manager creates, resumes, and drops chat sessions.
type Manager struct {
	retriever rag.Retriever
	gen       *generator.Generator
	hist      *history.Store // optional; nil disables persistence
	cfg       Config

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager constructs a Manager. hist may be nil for ephemeral sessions.
func NewManager(retriever rag.Retriever, gen *generator.Generator, hist *history.Store, cfg Config) (*Manager, error) {
	if retriever == nil {
		return nil, fmt.Errorf("orchestrator: retriever is required")
	}
	if gen == nil {
		return nil, fmt.Errorf("orchestrator: generator is required")
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultConfig().TopK
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.MemoryWindow <= 0 {
		cfg.MemoryWindow = DefaultConfig().MemoryWindow
	}
	return &Manager{
		retriever: retriever,
		gen:       gen,
		hist:      hist,
		cfg:       cfg,
		sessions:  make(map[string]*Session),
	}, nil
}

// Session returns the session with the given ID, creating it if needed.
// An empty ID creates a fresh session with a new UUID. Sessions with
// persisted history get their prompt window replayed from the last turns.
func (m *Manager) Session(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id == "" {
		id = uuid.New().String()
	}
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	s := &Session{
		id:        id,
		retriever: m.retriever,
		gen:       m.gen,
		mem:       memory.NewBuffer(m.cfg.MemoryWindow),
		hist:      m.hist,
		cfg:       m.cfg,
	}

	if m.hist != nil {
		turns, err := m.hist.Recent(ctx, id, m.cfg.MemoryWindow)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: replay session %s: %w", id, err)
		}
		for _, t := range turns {
			s.mem.Append(memory.Turn{Query: t.Query, Answer: t.Answer, At: t.CreatedAt})
		}
	}

	m.sessions[id] = s
	return s, nil
}

// Ask answers query within the session with the given ID, creating the
// session when id is empty. Returns the answer and the session ID it ran
// under, so callers can continue the conversation.
func (m *Manager) Ask(ctx context.Context, id, query string) (*generator.Answer, string, error) {
	s, err := m.Session(ctx, id)
	if err != nil {
		return nil, "", err
	}
	ans, err := s.Ask(ctx, query)
	if err != nil {
		return nil, s.ID(), err
	}
	return ans, s.ID(), nil
}

// Drop removes a session and deletes its persisted history. Returns
// ErrSessionNotFound when neither the live session map nor the history
// store knows the ID.
func (m *Manager) Drop(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if m.hist == nil {
		if !ok {
			return ErrSessionNotFound
		}
		return nil
	}

	if !ok {
		turns, err := m.hist.Recent(ctx, id, 1)
		if err != nil {
			return fmt.Errorf("orchestrator: look up session %s: %w", id, err)
		}
		if len(turns) == 0 {
			return ErrSessionNotFound
		}
	}
	return m.hist.Delete(ctx, id)
}
