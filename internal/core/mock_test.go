package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/store"
)

// ChatStep scripts one gateway call.
type ChatStep struct {
	Text string
	Err  error
}

// MockClient replays a script of gateway responses in call order. Calls
// beyond the script return empty text.
type MockClient struct {
	Script  []ChatStep
	Calls   int
	Prompts []string
}

func (m *MockClient) Chat(ctx context.Context, prompt string, system string) (string, error) {
	m.Calls++
	m.Prompts = append(m.Prompts, prompt)
	if len(m.Script) == 0 {
		return "", nil
	}
	step := m.Script[0]
	m.Script = m.Script[1:]
	return step.Text, step.Err
}

func testPrompts() config.Prompts {
	return config.Prompts{
		Extraction: config.ExtractionPrompts{System: "extract", User: "entries:\n%s"},
		Pattern:    config.PatternPrompts{System: "pattern", User: "situations:\n%s"},
		Letter:     config.LetterPrompts{System: "letter", User: "pattern: %s\nsituations: %s\ncontext: %s"},
		Insight:    config.InsightPrompts{System: "insight", User: "summary: %s", Empty: "empty summary"},
		Moods:      config.MoodPrompts{System: "moods", User: "moods: %s"},
	}
}

// MemStore is an in-memory InsightStore and EntrySource for service tests.
type MemStore struct {
	Letters   map[string]store.Letter
	Entries   []model.Entry
	InsertErr error
	Inserts   int
	Deletes   int
}

func NewMemStore() *MemStore {
	return &MemStore{Letters: make(map[string]store.Letter)}
}

func storeKey(userID, periodStart string) string {
	return userID + "|" + periodStart
}

func (m *MemStore) GetInsight(ctx context.Context, userID, periodStart string) (*store.Letter, error) {
	if row, ok := m.Letters[storeKey(userID, periodStart)]; ok {
		return &row, nil
	}
	return nil, nil
}

func (m *MemStore) InsertInsight(ctx context.Context, userID, periodStart, content string) (string, error) {
	m.Inserts++
	if m.InsertErr != nil {
		return "", m.InsertErr
	}
	key := storeKey(userID, periodStart)
	if _, ok := m.Letters[key]; ok {
		return "", fmt.Errorf("duplicate key value violates unique constraint")
	}
	id := fmt.Sprintf("letter-%d", m.Inserts)
	m.Letters[key] = store.Letter{ID: id, Content: content}
	return id, nil
}

func (m *MemStore) DeleteInsight(ctx context.Context, userID, periodStart string) (bool, error) {
	m.Deletes++
	delete(m.Letters, storeKey(userID, periodStart))
	return true, nil
}

func (m *MemStore) ListEntriesSince(ctx context.Context, userID, sinceISO string) ([]model.Entry, error) {
	var out []model.Entry
	for _, entry := range m.Entries {
		if entry.CreatedAt >= sinceISO || strings.HasPrefix(entry.CreatedAt, sinceISO[:10]) {
			out = append(out, entry)
		}
	}
	return out, nil
}
