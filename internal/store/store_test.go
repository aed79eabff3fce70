package store

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func makeUser(t *testing.T, s *Store, telegramID int64, username string) int64 {
	t.Helper()
	u, err := s.GetOrCreateUser(context.Background(), telegramID, username, "Test", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u.ID
}

func TestGetOrCreateUser_RefreshesProfile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.GetOrCreateUser(ctx, 100, "alice", "Alice", "")
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := s.GetOrCreateUser(ctx, 100, "alice_new", "Alice", "Smith")
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same row, got ids %d and %d", first.ID, second.ID)
	}
	if second.Username != "alice_new" || second.LastName != "Smith" {
		t.Fatalf("profile not refreshed: %+v", second)
	}
}

func TestUserByUsername_CaseAndAtInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	makeUser(t, s, 100, "Alice")

	for _, q := range []string{"alice", "ALICE", "@Alice", " @alice "} {
		u, err := s.UserByUsername(ctx, q)
		if err != nil {
			t.Fatalf("lookup %q: %v", q, err)
		}
		if u.TelegramID != 100 {
			t.Fatalf("lookup %q: wrong user %+v", q, u)
		}
	}
	if _, err := s.UserByUsername(ctx, "nobody"); err != ErrUserNotFound {
		t.Fatalf("want ErrUserNotFound, got %v", err)
	}
}
