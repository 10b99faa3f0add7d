package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func Test_Store_AppendAndRecent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		err := s.Append(ctx, Turn{
			Session: "sess-1",
			Query:   fmt.Sprintf("q%d", i),
			Answer:  fmt.Sprintf("a%d", i),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	turns, err := s.Recent(ctx, "sess-1", 3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("len(turns) = %d, want 3", len(turns))
	}
	// Last three, oldest first.
	want := []string{"q3", "q4", "q5"}
	for i, w := range want {
		if turns[i].Query != w {
			t.Errorf("turns[%d].Query = %q, want %q", i, turns[i].Query, w)
		}
	}
}

func Test_Store_RecentAllWhenLimitZero(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := s.Append(ctx, Turn{Session: "s", Query: fmt.Sprintf("q%d", i), Answer: "a"}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	turns, err := s.Recent(ctx, "s", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 3 {
		t.Errorf("len(turns) = %d, want 3", len(turns))
	}
	if turns[0].Query != "q1" {
		t.Errorf("turns[0].Query = %q, want q1", turns[0].Query)
	}
}

func Test_Store_SessionsIsolatedAndDeletable(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Append(ctx, Turn{Session: "a", Query: "qa", Answer: "aa"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := s.Append(ctx, Turn{Session: "b", Query: "qb", Answer: "ab"}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	sessions, err := s.Sessions(ctx)
	if err != nil {
		t.Fatalf("Sessions() error = %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d, want 2", len(sessions))
	}
	// Most recently active first.
	if sessions[0] != "b" {
		t.Errorf("sessions[0] = %q, want b", sessions[0])
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	turns, err := s.Recent(ctx, "a", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 0 {
		t.Errorf("turns remain after delete: %v", turns)
	}

	turns, err = s.Recent(ctx, "b", 0)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(turns) != 1 || turns[0].Query != "qb" {
		t.Errorf("session b affected by delete of a: %v", turns)
	}
}
