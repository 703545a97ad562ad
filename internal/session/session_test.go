package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/wisekey/langcenter/internal/model"
)

func adminUser() model.UserSummary {
	return model.UserSummary{
		ID:        1,
		Username:  "admin",
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@wisekey.com",
		Role:      model.RoleAdmin,
		Roles:     []string{"ROLE_ADMIN"},
	}
}

func newTestStore(t *testing.T) (*Store, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage()
	return NewStore(storage, zerolog.Nop()), storage
}

func TestStoreSetGetClear(t *testing.T) {
	ctx := context.Background()
	store, storage := newTestStore(t)

	if store.Get() != nil {
		t.Fatal("new store should be anonymous")
	}

	sess, err := store.Set(ctx, "tok-1", adminUser())
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if sess.Token != "tok-1" || sess.User.Username != "admin" {
		t.Errorf("Set returned %+v", sess)
	}

	got := store.Get()
	if got == nil || got.Token != "tok-1" || got.Role() != model.RoleAdmin {
		t.Fatalf("Get = %+v", got)
	}

	rec, _ := storage.Load(ctx)
	if !rec.Complete() {
		t.Errorf("storage record should be complete: %+v", rec)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if store.Get() != nil || store.Token() != "" {
		t.Error("session should be cleared")
	}
	rec, _ = storage.Load(ctx)
	if !rec.Empty() {
		t.Errorf("storage should be empty: %+v", rec)
	}

	// Idempotent.
	if err := store.Clear(ctx); err != nil {
		t.Errorf("second Clear: %v", err)
	}
}

func TestStoreRejectsPartialSession(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	if _, err := store.Set(ctx, "", adminUser()); !errors.Is(err, ErrIncomplete) {
		t.Errorf("empty token: err = %v", err)
	}
	if _, err := store.Set(ctx, "tok", model.UserSummary{}); !errors.Is(err, ErrIncomplete) {
		t.Errorf("zero user: err = %v", err)
	}
	if store.Get() != nil {
		t.Error("rejected Set must not create a session")
	}
}

func TestStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if _, err := store.Set(ctx, "tok", adminUser()); err != nil {
		t.Fatal(err)
	}

	s := store.Get()
	s.Token = "mutated"
	s.User.Roles[0] = "ROLE_STUDENT"

	again := store.Get()
	if again.Token != "tok" || again.User.Roles[0] != "ROLE_ADMIN" {
		t.Errorf("store state leaked through Get: %+v", again)
	}
}

func TestStoreLoadRestoresSession(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()

	first := NewStore(storage, zerolog.Nop())
	if _, err := first.Set(ctx, "tok", adminUser()); err != nil {
		t.Fatal(err)
	}

	second := NewStore(storage, zerolog.Nop())
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := second.Get()
	if got == nil || got.Token != "tok" || got.User.Role != model.RoleAdmin {
		t.Fatalf("restored = %+v", got)
	}
	if got.IssuedAt.IsZero() {
		t.Error("IssuedAt should survive a reload")
	}
}

func TestStoreLoadPurgesPartialRecord(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{"token only", Record{AccessToken: "tok"}},
		{"user only", Record{User: []byte(`{"id":1,"username":"admin"}`)}},
		{"corrupt user", Record{AccessToken: "tok", User: []byte(`{not json`)}},
		{"empty user", Record{AccessToken: "tok", User: []byte(`{}`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			storage := NewMemoryStorage()
			_ = storage.Save(ctx, tt.rec)

			store := NewStore(storage, zerolog.Nop())
			if err := store.Load(ctx); err != nil {
				t.Fatalf("Load: %v", err)
			}
			if store.Get() != nil {
				t.Error("partial record must load as anonymous")
			}
			rec, _ := storage.Load(ctx)
			if !rec.Empty() {
				t.Errorf("partial record should be purged, got %+v", rec)
			}
		})
	}
}

type failingStorage struct {
	MemoryStorage
}

func (f *failingStorage) Save(context.Context, Record) error {
	return errors.New("disk full")
}

func TestStoreSetFailureKeepsPreviousSession(t *testing.T) {
	ctx := context.Background()
	storage := &failingStorage{}
	store := NewStore(storage, zerolog.Nop())
	store.current = &Session{Token: "old", User: adminUser()}

	other := adminUser()
	other.Username = "other"
	if _, err := store.Set(ctx, "new", other); err == nil {
		t.Fatal("expected error from storage")
	}
	if got := store.Get(); got == nil || got.Token != "old" {
		t.Errorf("previous session should remain, got %+v", got)
	}
}

func TestClearIfTokenOnlyOnce(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if _, err := store.Set(ctx, "tok", adminUser()); err != nil {
		t.Fatal(err)
	}

	const n = 32
	var cleared atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.ClearIfToken(ctx, "tok")
			if err != nil {
				t.Error(err)
			}
			if ok {
				cleared.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := cleared.Load(); got != 1 {
		t.Errorf("cleared %d times, want 1", got)
	}
	if store.Get() != nil {
		t.Error("session should be gone")
	}
}

func TestClearIfTokenIgnoresStaleToken(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)
	if _, err := store.Set(ctx, "fresh", adminUser()); err != nil {
		t.Fatal(err)
	}

	ok, err := store.ClearIfToken(ctx, "stale")
	if err != nil || ok {
		t.Fatalf("ClearIfToken(stale) = %v, %v", ok, err)
	}
	if store.Token() != "fresh" {
		t.Error("a newer session must survive a stale unauthorized response")
	}
}
