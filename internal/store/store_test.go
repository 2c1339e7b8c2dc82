package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("failed to close store: %v", err)
		}
	})
	return s
}

func countUsers(t *testing.T, s *Store, email string) int {
	t.Helper()
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE email = ?", NormalizeEmail(email)).Scan(&count)
	if err != nil {
		t.Fatalf("failed to count users: %v", err)
	}
	return count
}

func TestCreateUserThenVerify(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if created <= 0 {
		t.Fatalf("unexpected user id: %d", created)
	}

	verified, ok, err := s.VerifyUser(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("VerifyUser returned error: %v", err)
	}
	if !ok {
		t.Fatal("VerifyUser failed for correct credentials")
	}
	if verified != created {
		t.Fatalf("VerifyUser returned id %d, want %d", verified, created)
	}
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "  A@B.com  ", "password123")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	verified, ok, err := s.VerifyUser(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("VerifyUser returned error: %v", err)
	}
	if !ok || verified != created {
		t.Fatalf("VerifyUser = (%d, %v), want (%d, true)", verified, ok, created)
	}

	user, found, err := s.GetUserByID(ctx, created)
	if err != nil || !found {
		t.Fatalf("GetUserByID = (%v, %v, %v)", user, found, err)
	}
	if user.Email != "a@b.com" {
		t.Fatalf("stored email = %q, want normalized form", user.Email)
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@b.com", "password123"); err != nil {
		t.Fatalf("first CreateUser returned error: %v", err)
	}

	// 大文字・空白違いも正規化後は同一メールアドレスとして弾かれる
	_, err := s.CreateUser(ctx, " A@B.COM ", "otherpassword")
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("second CreateUser error = %v, want ErrDuplicateEmail", err)
	}

	if n := countUsers(t, s, "a@b.com"); n != 1 {
		t.Fatalf("user rows = %d, want 1", n)
	}
}

func TestConcurrentDuplicateSignup(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.CreateUser(ctx, "race@b.com", "password123")
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrDuplicateEmail):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("successful signups = %d, want exactly 1", successes)
	}
	if n := countUsers(t, s, "race@b.com"); n != 1 {
		t.Fatalf("user rows = %d, want 1", n)
	}
}

func TestVerifyUserFailuresIndistinguishable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "a@b.com", "password123"); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	wrongID, wrongOK, wrongErr := s.VerifyUser(ctx, "a@b.com", "wrongpassword")
	missingID, missingOK, missingErr := s.VerifyUser(ctx, "nobody@b.com", "password123")

	if wrongErr != nil || missingErr != nil {
		t.Fatalf("unexpected errors: %v, %v", wrongErr, missingErr)
	}
	if wrongID != missingID || wrongOK != missingOK {
		t.Fatalf("wrong-password result (%d, %v) differs from missing-account result (%d, %v)",
			wrongID, wrongOK, missingID, missingOK)
	}
	if wrongOK {
		t.Fatal("VerifyUser succeeded for wrong password")
	}
}

func TestGetUserByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, "a@b.com", "password123")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	user, found, err := s.GetUserByID(ctx, created)
	if err != nil {
		t.Fatalf("GetUserByID returned error: %v", err)
	}
	if !found {
		t.Fatal("GetUserByID did not find created user")
	}
	if user.ID != created || user.Email != "a@b.com" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.CreatedAt == 0 {
		t.Fatal("expected CreatedAt to be set")
	}

	if _, found, err := s.GetUserByID(ctx, created+1000); err != nil || found {
		t.Fatalf("GetUserByID for missing id = (found=%v, err=%v), want (false, nil)", found, err)
	}
}

func TestSchemaInitIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.db")

	first, err := New(path)
	if err != nil {
		t.Fatalf("first New returned error: %v", err)
	}
	created, err := first.CreateUser(context.Background(), "a@b.com", "password123")
	if err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	// 既存データベースへの再オープンでスキーマ初期化が走ってもデータは残る
	second, err := New(path)
	if err != nil {
		t.Fatalf("second New returned error: %v", err)
	}
	defer second.Close()

	user, found, err := second.GetUserByID(context.Background(), created)
	if err != nil || !found {
		t.Fatalf("GetUserByID after reopen = (found=%v, err=%v)", found, err)
	}
	if user.Email != "a@b.com" {
		t.Fatalf("unexpected email after reopen: %q", user.Email)
	}
}
