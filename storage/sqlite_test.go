package storage

import (
	"context"
	"testing"

	"github.com/meridianlabs/meridian/model"
)

func TestSqliteStorageSaveAndLoad(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

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
	if loaded[1].Content != "Hi there" {
		t.Errorf("expected 'Hi there', got '%s'", loaded[1].Content)
	}
}

func TestSqliteStorageLoadNonexistentSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	loaded, err := storage.Load(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 0 {
		t.Errorf("expected empty slice, got %d messages", len(loaded))
	}
}

func TestSqliteStorageOverwriteSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	messages1 := []model.ChatMessage{
		{Role: "user", Content: "First"},
	}
	messages2 := []model.ChatMessage{
		{Role: "user", Content: "Second"},
		{Role: "assistant", Content: "Response"},
	}

	if err := storage.Save(ctx, "test-session", messages1); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := storage.Save(ctx, "test-session", messages2); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := storage.Load(ctx, "test-session")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(loaded) != 2 {
		t.Errorf("expected 2 messages, got %d", len(loaded))
	}
	if loaded[0].Content != "Second" {
		t.Errorf("expected 'Second', got '%s'", loaded[0].Content)
	}
}

func TestSqliteStorageDeleteSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

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

func TestSqliteStorageListSessions(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

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

func TestSqliteStorageSaveAndLoadReports(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	result := model.AggregatedResult{
		Text: "## Data Exploration\n\nThe data looks healthy.",
		Report: map[string]model.ReportField{
			"record_count": {Value: float64(500), Agent: "explorer"},
			"trend":        {Value: "upward", Agent: "explorer"},
		},
		Suggestions: []string{"Ask about trends", "Compare quarters"},
	}

	if err := storage.SaveReport(ctx, "test-session", result); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	reports, err := storage.LoadReports(ctx, "test-session")
	if err != nil {
		t.Fatalf("LoadReports failed: %v", err)
	}

	if len(reports) != 1 {
		t.Fatalf("expected 1 report, got %d", len(reports))
	}
	loaded := reports[0]

	if loaded.Text != result.Text {
		t.Errorf("expected body round-tripped, got %q", loaded.Text)
	}
	if field := loaded.Report["trend"]; field.Value != "upward" || field.Agent != "explorer" {
		t.Errorf("expected trend field with provenance, got %+v", field)
	}
	if v, ok := loaded.Report["record_count"].Value.(float64); !ok || v != 500 {
		t.Errorf("expected record_count 500, got %v", loaded.Report["record_count"].Value)
	}
	if len(loaded.Suggestions) != 2 || loaded.Suggestions[0] != "Ask about trends" {
		t.Errorf("expected suggestions round-tripped, got %v", loaded.Suggestions)
	}
}

func TestSqliteStorageLoadReportsEmpty(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	reports, err := storage.LoadReports(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("LoadReports failed: %v", err)
	}
	if len(reports) != 0 {
		t.Errorf("expected no reports, got %d", len(reports))
	}
}

func TestSqliteStorageReportCreatesSession(t *testing.T) {
	storage, err := NewSqliteInMemory()
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer storage.Close()

	ctx := context.Background()

	// Saving a report alone upserts the session row.
	if err := storage.SaveReport(ctx, "report-only", model.AggregatedResult{Text: "body"}); err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}

	exists, err := storage.Exists(ctx, "report-only")
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !exists {
		t.Error("expected session created by SaveReport")
	}
}
