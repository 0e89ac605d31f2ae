package storage

import (
	"context"
	"testing"

	"github.com/meridianlabs/meridian/model"
)

func TestInMemoryStorageSaveAndLoad(t *testing.T) {
	storage := NewInMemoryStorage()
	ctx := context.Background()

	messages := []model.ChatMessage{
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
	}

	if err := storage.Save(ctx, "test-session", messages); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Errorf("expected 2 messages, got %d", len(loaded))
	}
	if loaded[0].Content != "Hello" {
		t.Errorf("expected 'Hello', got '%s'", loaded[0].Content)
	}
}

func TestInMemoryStorageLoadNonexistent(t *testing.T) {
	storage := NewInMemoryStorage()

	loaded, err := storage.Load(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty slice, got %d messages", len(loaded))
	}
}

func TestInMemoryStorageCopiesHistory(t *testing.T) {
	storage := NewInMemoryStorage()
	ctx := context.Background()

	messages := []model.ChatMessage{{Role: "user", Content: "original"}}
	if err := storage.Save(ctx, "test-session", messages); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Mutating the caller's slice must not affect stored data.
	messages[0].Content = "mutated"

	loaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded[0].Content != "original" {
		t.Errorf("expected stored copy unaffected, got %q", loaded[0].Content)
	}

	// Mutating the loaded slice must not affect stored data either.
	loaded[0].Content = "mutated again"

	reloaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded[0].Content != "original" {
		t.Errorf("expected stored copy unaffected, got %q", reloaded[0].Content)
	}
}

func TestInMemoryStorageDelete(t *testing.T) {
	storage := NewInMemoryStorage()
	ctx := context.Background()

	if err := storage.Save(ctx, "test-session", []model.ChatMessage{{Role: "user", Content: "Test"}}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	exists, err := storage.Exists(ctx, "test-session")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected session to exist")
	}

	if err := storage.Delete(ctx, "test-session"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	exists, err = storage.Exists(ctx, "test-session")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists {
		t.Error("expected session to not exist after deletion")
	}
}

func TestInMemoryStorageListSessions(t *testing.T) {
	storage := NewInMemoryStorage()
	ctx := context.Background()

	msg := []model.ChatMessage{{Role: "user", Content: "Test"}}
	if err := storage.Save(ctx, "session-1", msg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Save(ctx, "session-2", msg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	sessions, err := storage.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(sessions))
	}
}
