package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// newTestStore creates an isolated in-memory journal.
func newTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	s, err := New(cfg)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func mustAppend(t *testing.T, s *Store, session, role, content string) {
	t.Helper()
	if _, err := s.Append(context.Background(), session, role, content); err != nil {
		t.Fatalf("Append(%q, %q) failed: %v", session, role, err)
	}
}

func TestNew_Defaults(t *testing.T) {
	s := newTestStore(t, Config{})
	if s.cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", s.cfg)
	}
}

func TestNew_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) { return nil, errors.New("boom") }

	if _, err := New(DefaultConfig()); err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v, want open failure", err)
	}
}

func TestStores_AreIsolated(t *testing.T) {
	a := newTestStore(t, DefaultConfig())
	b := newTestStore(t, DefaultConfig())

	mustAppend(t, a, "s1", RoleUser, "hello")

	got, err := b.History(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("second store sees %d turns from the first", len(got))
	}
}

func TestAppendAndHistory_Order(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	mustAppend(t, s, "s1", RoleUser, "I want to tile a backsplash")
	mustAppend(t, s, "s1", RoleAssistant, "What size tiles?")
	mustAppend(t, s, "s2", RoleUser, "other session")
	mustAppend(t, s, "s1", RoleUser, "3x6 subway")

	got, err := s.History(context.Background(), "s1", 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	want := []string{"I want to tile a backsplash", "What size tiles?", "3x6 subway"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, e := range got {
		if e.Content != want[i] {
			t.Errorf("turn %d = %q, want %q", i, e.Content, want[i])
		}
		if e.SessionID != "s1" || e.CreatedAt == "" {
			t.Errorf("turn %d = %+v", i, e)
		}
	}
	if got[1].Role != RoleAssistant {
		t.Errorf("role = %s, want assistant", got[1].Role)
	}
}

func TestHistory_Limit(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	for i := 1; i <= 5; i++ {
		mustAppend(t, s, "s1", RoleUser, fmt.Sprintf("msg %d", i))
	}

	got, err := s.History(context.Background(), "s1", 2)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(got) != 2 || got[0].Content != "msg 4" || got[1].Content != "msg 5" {
		t.Errorf("History(limit 2) = %+v", got)
	}
}

func TestAppend_PrunesToMaxTurns(t *testing.T) {
	s := newTestStore(t, Config{MaxTurns: 3, MaxContentLength: 100})
	for i := 1; i <= 6; i++ {
		mustAppend(t, s, "s1", RoleUser, fmt.Sprintf("msg %d", i))
	}

	sessions, err := s.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Turns != 3 {
		t.Fatalf("sessions = %+v, want one session with 3 turns", sessions)
	}

	got, _ := s.History(context.Background(), "s1", 0)
	if got[0].Content != "msg 4" {
		t.Errorf("oldest kept = %q, want msg 4", got[0].Content)
	}
}

func TestAppend_Truncates(t *testing.T) {
	s := newTestStore(t, Config{MaxTurns: 10, MaxContentLength: 10})
	mustAppend(t, s, "s1", RoleUser, strings.Repeat("a", 50))

	got, _ := s.History(context.Background(), "s1", 0)
	if got[0].Content != strings.Repeat("a", 10)+"..." {
		t.Errorf("content = %q", got[0].Content)
	}
}

func TestAppend_Invalid(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	ctx := context.Background()

	if _, err := s.Append(ctx, "  ", RoleUser, "x"); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("blank session: err = %v", err)
	}
	if _, err := s.Append(ctx, "s1", "system", "x"); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("bad role: err = %v", err)
	}
}

func TestSessions_MostRecentFirst(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	mustAppend(t, s, "old", RoleUser, "a")
	mustAppend(t, s, "new", RoleUser, "b")
	mustAppend(t, s, "new", RoleAssistant, "c")

	got, err := s.Sessions(context.Background())
	if err != nil {
		t.Fatalf("Sessions failed: %v", err)
	}
	if len(got) != 2 || got[0].ID != "new" || got[0].Turns != 2 || got[1].ID != "old" {
		t.Errorf("sessions = %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, DefaultConfig())
	mustAppend(t, s, "s1", RoleUser, "a")

	if err := s.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	got, _ := s.History(context.Background(), "s1", 0)
	if len(got) != 0 {
		t.Errorf("history after clear = %+v", got)
	}
}

func TestAppend_Concurrent(t *testing.T) {
	s := newTestStore(t, Config{MaxTurns: 1000, MaxContentLength: 100})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.Append(context.Background(), "s1", RoleUser, fmt.Sprint(i)); err != nil {
				t.Errorf("Append failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, _ := s.History(context.Background(), "s1", 0)
	if len(got) != 20 {
		t.Errorf("len = %d, want 20", len(got))
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"hello world", 5, "hello..."},
		{"héllo", 2, "h..."},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}
