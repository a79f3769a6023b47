package store

import (
	"context"

	"github.com/agenthands/mirror/internal/core/model"
)

// Letter is one stored insight letter row. At most one exists per
// (user, period start); the store's unique key enforces it.
type Letter struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// InsightStore is the letter cache keyed by (userID, periodStart), with
// periodStart as a YYYY-MM-DD date string. Malformed keys are rejected by
// returning zero values, not errors; errors mean the backend itself failed.
type InsightStore interface {
	GetInsight(ctx context.Context, userID, periodStart string) (*Letter, error)
	// InsertInsight returns the new row id. First writer wins: callers
	// must treat a unique-violation error as success without a row.
	InsertInsight(ctx context.Context, userID, periodStart, content string) (string, error)
	DeleteInsight(ctx context.Context, userID, periodStart string) (bool, error)
}

// EntrySource lists a user's journal entries with created_at >= sinceISO,
// most recent first. Callers narrow to a period themselves by date prefix.
type EntrySource interface {
	ListEntriesSince(ctx context.Context, userID, sinceISO string) ([]model.Entry, error)
}
