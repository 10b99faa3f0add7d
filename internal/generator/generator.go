// Package generator turns retrieved scheme chunks and conversation memory
// into a grounded answer via the configured chat model. When retrieval
// produced nothing above the relevance threshold, it refuses without
// calling the model at all: an ungrounded answer about a government
// entitlement is worse than no answer.
package generator

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/AritraCh2005/SmartSeva-4/internal/budget"
	"github.com/AritraCh2005/SmartSeva-4/internal/memory"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// systemPrompt keeps the model on government-services ground. Answers must
// come from the provided context only.
const systemPrompt = `You are SmartSeva, an assistant helping citizens of India understand government schemes and services.

Rules:
- Answer ONLY from the provided context. Never invent scheme names, eligibility criteria, amounts, or deadlines.
- If the context does not contain the answer, say so and suggest the citizen contact the relevant government helpline or visit their nearest Common Service Centre.
- Answer in simple, clear language. Avoid bureaucratic jargon.
- When the context names specific documents, forms, or offices, include them in the answer.
- Do not answer questions unrelated to Indian government schemes and services.`

// RefusalText is returned when no relevant context was found. It is a fixed
// string so callers and tests can recognise a refusal.
const RefusalText = "I could not find information about this in the scheme documents I have. " +
	"Please contact the relevant government helpline or visit your nearest Common Service Centre for help with this question."

// GenerationError wraps a chat model failure. Callers use errors.As to map
// it to a user-facing "temporarily unavailable" message without exposing the
// underlying provider error.
type GenerationError struct {
	// Err is the underlying model failure.
	Err error
}

// Error implements the error interface.
func (e *GenerationError) Error() string {
	return fmt.Sprintf("generator: model call failed: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *GenerationError) Unwrap() error {
	return e.Err
}

// Answer is a completed response to a citizen query.
type Answer struct {
	// Text is the answer body.
	Text string

	// Citations lists the IDs of the chunks that grounded the answer.
	Citations []string

	// Grounded reports whether retrieved context backed the answer.
	// False means Text is the refusal message.
	Grounded bool
}

// Generator assembles prompts and calls the chat model.
type Generator struct {
	// chat is the underlying model.
	chat model.BaseChatModel

	// maxContextTokens bounds the assembled prompt.
	maxContextTokens int
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxContextTokens overrides the prompt token budget.
func WithMaxContextTokens(n int) Option {
	return func(g *Generator) { g.maxContextTokens = n }
}

// New constructs a Generator over the given chat model.
func New(chat model.BaseChatModel, opts ...Option) (*Generator, error) {
	if chat == nil {
		return nil, fmt.Errorf("generator: chat model is required")
	}
	g := &Generator{
		chat:             chat,
		maxContextTokens: budget.DefaultMaxContextTokens,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate produces an answer for query from the retrieved chunks and recent
// turns. Empty chunks short-circuit to the refusal without touching the model.
func (g *Generator) Generate(ctx context.Context, query string, chunks []rag.Chunk, turns []memory.Turn) (*Answer, error) {
	if len(chunks) == 0 {
		return &Answer{Text: RefusalText, Grounded: false}, nil
	}

	fixed := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(buildContextMessage(query, chunks)),
	}

	history := make([]*schema.Message, 0, len(turns)*2)
	for _, t := range turns {
		history = append(history,
			schema.UserMessage(t.Query),
			schema.AssistantMessage(t.Answer, nil))
	}
	history = budget.TrimHistory(fixed, history, g.maxContextTokens)

	// System prompt, then history, then the context-bearing query last.
	msgs := make([]*schema.Message, 0, len(history)+2)
	msgs = append(msgs, fixed[0])
	msgs = append(msgs, history...)
	msgs = append(msgs, fixed[1])

	resp, err := g.chat.Generate(ctx, msgs)
	if err != nil {
		return nil, &GenerationError{Err: err}
	}

	citations := make([]string, len(chunks))
	for i, c := range chunks {
		citations[i] = c.ID
	}

	return &Answer{
		Text:      strings.TrimSpace(resp.Content),
		Citations: citations,
		Grounded:  true,
	}, nil
}

// buildContextMessage renders retrieved chunks and the query into the final
// user message. Each chunk is labelled with its position and origin so the
// model can attribute claims.
func buildContextMessage(query string, chunks []rag.Chunk) string {
	var b strings.Builder
	b.WriteString("Context from scheme documents:\n\n")
	for i, c := range chunks {
		fmt.Fprintf(&b, "Source %d (from %s):\n%s\n\n", i+1, c.Source, c.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
