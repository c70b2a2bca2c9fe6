package redis

import (
	"context"
	"sort"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"quizwhiz-service/internal/app"
)

func TestSessionStoreMirrorsMarkersAndMembers(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	session := app.NewSession("quiz-1", nil, 15*time.Second)
	got, loaded := store.LoadOrStore(session)
	if loaded || got != session {
		t.Fatalf("expected new session to be stored")
	}
	if !mr.Exists("quiz:session:quiz-1") {
		t.Fatalf("expected redis key to be set")
	}

	again, loaded := store.LoadOrStore(app.NewSession("quiz-1", nil, 15*time.Second))
	if !loaded || again != session {
		t.Fatalf("expected existing session to win")
	}

	store.Bind("c1", "quiz-1")
	store.Bind("c2", "quiz-1")
	members, err := store.Members(context.Background(), "quiz-1")
	if err != nil {
		t.Fatalf("members: %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "c1" || members[1] != "c2" {
		t.Fatalf("unexpected members: %v", members)
	}

	quizID, ok := store.Unbind("c1")
	if !ok || quizID != "quiz-1" {
		t.Fatalf("expected c1 bound to quiz-1, got %q %v", quizID, ok)
	}
	if _, ok := store.Unbind("c1"); ok {
		t.Fatalf("expected second unbind to miss")
	}
	members, _ = store.Members(context.Background(), "quiz-1")
	if len(members) != 1 || members[0] != "c2" {
		t.Fatalf("expected only c2 left, got %v", members)
	}

	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected session to stay registered")
	}
}

func TestSessionStoreSurvivesRedisOutage(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	mr.Close()

	store := NewSessionStore(client, time.Minute)
	store.LoadOrStore(app.NewSession("quiz-1", nil, 15*time.Second))
	store.Bind("c1", "quiz-1")

	if _, ok := store.Get("quiz-1"); !ok {
		t.Fatalf("expected local map to keep the session")
	}
	if quizID, ok := store.Unbind("c1"); !ok || quizID != "quiz-1" {
		t.Fatalf("expected local binding, got %q %v", quizID, ok)
	}
}
