package memory

import (
	"errors"
	"sync"
	"testing"

	"studyquest-backend/internal/app"
	"studyquest-backend/internal/domain"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	if err := store.Put(app.NewBattleSession("lynn")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := store.Get("lynn"); !ok {
		t.Fatalf("expected session present")
	}
	if err := store.Put(app.NewBattleSession("lynn")); !errors.Is(err, domain.ErrBattleActive) {
		t.Fatalf("expected ErrBattleActive, got %v", err)
	}

	store.Remove("lynn")
	if _, ok := store.Get("lynn"); ok {
		t.Fatalf("expected session removed")
	}
	// Removing an absent session is a no-op.
	store.Remove("lynn")
}

func TestSessionStoreConcurrentPutSingleWinner(t *testing.T) {
	store := NewSessionStore()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.Put(app.NewBattleSession("lynn"))
		}()
	}
	wg.Wait()
	close(errs)

	wins, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrBattleActive):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != attempts-1 {
		t.Fatalf("expected exactly one winner, got wins=%d conflicts=%d", wins, conflicts)
	}
}

func TestSessionStoreUsersSnapshot(t *testing.T) {
	store := NewSessionStore()
	for _, u := range []string{"a", "b", "c"} {
		if err := store.Put(app.NewBattleSession(u)); err != nil {
			t.Fatalf("put %s: %v", u, err)
		}
	}
	if got := len(store.Users()); got != 3 {
		t.Fatalf("expected 3 users, got %d", got)
	}
}
