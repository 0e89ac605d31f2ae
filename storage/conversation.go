// Package storage provides conversation storage abstraction.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interface
// - Allows swapping between memory and SQLite without API changes
// - Each backend encapsulates its own data structures and protocols

package storage

import (
	"context"

	"github.com/meridianlabs/meridian/model"
)

// ConversationStorage defines the interface for storing conversation
// history. Implementations can use different backends (memory, database).
type ConversationStorage interface {
	// Save saves conversation history for a session.
	Save(ctx context.Context, sessionID string, history []model.ChatMessage) error

	// Load loads conversation history for a session.
	// Returns empty slice (not nil) if the session doesn't exist.
	// Returns error only for storage failures, not missing sessions.
	Load(ctx context.Context, sessionID string) ([]model.ChatMessage, error)

	// Delete deletes conversation history for a session.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists all session IDs.
	ListSessions(ctx context.Context) ([]string, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// ReportStorage persists aggregated analysis reports so a session's
// past reports can be reviewed later. Backends that don't persist may
// omit this.
type ReportStorage interface {
	// SaveReport stores one aggregated result for a session.
	SaveReport(ctx context.Context, sessionID string, result model.AggregatedResult) error

	// LoadReports returns a session's stored reports, oldest first.
	LoadReports(ctx context.Context, sessionID string) ([]model.AggregatedResult, error)
}
