package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/AritraCh2005/SmartSeva-4/internal/memory"
	"github.com/AritraCh2005/SmartSeva-4/internal/rag"
)

// fakeChatModel records the messages it was called with and returns a canned
// reply or error.
type fakeChatModel struct {
	reply string
	err   error
	calls int
	got   []*schema.Message
}

func (f *fakeChatModel) Generate(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.got = msgs
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func Test_Generator_RefusesWithoutContext(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: "should never be used"}
	g, err := New(chat)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ans, err := g.Generate(context.Background(), "what is PMAY?", nil, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if ans.Grounded {
		t.Error("Grounded = true, want false")
	}
	if ans.Text != RefusalText {
		t.Errorf("Text = %q, want refusal", ans.Text)
	}
	if chat.calls != 0 {
		t.Errorf("model called %d times, want 0", chat.calls)
	}
}

func Test_Generator_GroundedAnswer(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: "  PMAY provides housing subsidies.  "}
	g, err := New(chat)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	chunks := []rag.Chunk{
		{ID: "c1", Content: "PMAY offers credit-linked subsidies.", Source: "pmay.pdf"},
		{ID: "c2", Content: "Eligibility: annual income below 18 lakh.", Source: "pmay.pdf"},
	}

	ans, err := g.Generate(context.Background(), "what is PMAY?", chunks, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !ans.Grounded {
		t.Error("Grounded = false, want true")
	}
	if ans.Text != "PMAY provides housing subsidies." {
		t.Errorf("Text = %q, want trimmed reply", ans.Text)
	}
	if len(ans.Citations) != 2 || ans.Citations[0] != "c1" || ans.Citations[1] != "c2" {
		t.Errorf("Citations = %v, want [c1 c2]", ans.Citations)
	}

	// The final user message carries the labelled context and the question.
	last := chat.got[len(chat.got)-1]
	if !strings.Contains(last.Content, "Source 1 (from pmay.pdf):") {
		t.Errorf("context message missing source label: %q", last.Content)
	}
	if !strings.Contains(last.Content, "Question: what is PMAY?") {
		t.Errorf("context message missing question: %q", last.Content)
	}
	if chat.got[0].Role != schema.System {
		t.Errorf("first message role = %q, want system", chat.got[0].Role)
	}
}

func Test_Generator_IncludesMemoryTurns(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: "answer"}
	g, err := New(chat)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	chunks := []rag.Chunk{{ID: "c1", Content: "text", Source: "a.txt"}}
	turns := []memory.Turn{{Query: "earlier question", Answer: "earlier answer"}}

	if _, err := g.Generate(context.Background(), "follow-up", chunks, turns); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// system + 2 history + final user message
	if len(chat.got) != 4 {
		t.Fatalf("len(messages) = %d, want 4", len(chat.got))
	}
	if chat.got[1].Content != "earlier question" || chat.got[1].Role != schema.User {
		t.Errorf("history user turn = %+v", chat.got[1])
	}
	if chat.got[2].Content != "earlier answer" || chat.got[2].Role != schema.Assistant {
		t.Errorf("history assistant turn = %+v", chat.got[2])
	}
}

func Test_Generator_TrimsOldHistoryToBudget(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{reply: "answer"}
	g, err := New(chat, WithMaxContextTokens(120))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	chunks := []rag.Chunk{{ID: "c1", Content: "short", Source: "a.txt"}}
	long := strings.Repeat("x", 400)
	turns := []memory.Turn{
		{Query: long, Answer: long},
		{Query: "recent q", Answer: "recent a"},
	}

	if _, err := g.Generate(context.Background(), "q", chunks, turns); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	for _, m := range chat.got {
		if strings.Contains(m.Content, long) {
			t.Error("oversized history turn not trimmed")
		}
	}
}

func Test_Generator_WrapsModelFailure(t *testing.T) {
	t.Parallel()

	chat := &fakeChatModel{err: errors.New("upstream timeout")}
	g, err := New(chat)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	chunks := []rag.Chunk{{ID: "c1", Content: "text", Source: "a.txt"}}
	_, err = g.Generate(context.Background(), "q", chunks, nil)

	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("Generate() error = %v, want *GenerationError", err)
	}
}
