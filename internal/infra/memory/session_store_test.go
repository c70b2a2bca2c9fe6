package memory

import (
	"testing"
	"time"

	"quizwhiz-service/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()

	session := app.NewSession("quiz-1", nil, time.Second)
	got, loaded := store.LoadOrStore(session)
	if loaded || got != session {
		t.Fatalf("expected new session to be stored")
	}
	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session present")
	}

	again, loaded := store.LoadOrStore(app.NewSession("quiz-1", nil, time.Second))
	if !loaded || again != session {
		t.Fatalf("expected existing session to win")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", store.Len())
	}
}

func TestSessionStoreBindings(t *testing.T) {
	store := NewSessionStore()
	store.Bind("c1", "quiz-1")

	quizID, ok := store.Unbind("c1")
	if !ok || quizID != "quiz-1" {
		t.Fatalf("expected quiz-1 binding, got %q ok=%v", quizID, ok)
	}
	if _, ok := store.Unbind("c1"); ok {
		t.Fatalf("expected binding to be removed")
	}
}
