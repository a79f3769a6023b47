// Package integration wires the real config file, the full analysis
// pipeline, and the letter service together against scripted model output
// and an in-memory store. No network.
package integration

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core"
	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/store"
)

const configPath = "../../config/config.toml"

const (
	situationsJSON = `[
		{"situation": "put off a difficult conversation", "emotion": "dread", "behavior": "kept busy instead", "self_judgment": "I'm avoiding it"},
		{"situation": "cancelled plans at the last minute", "emotion": "relieved then guilty", "behavior": "apologized twice", "self_judgment": "I always do this"}
	]`
	patternText = "When something feels uncertain you choose avoidance first, then spend the evening judging yourself for it."
	letterText  = "You spent this period stepping around the hard things, and then quietly paying for each detour. Notice that the avoidance never actually bought you calm."
)

type scriptedClient struct {
	script []string
	calls  int
}

func (c *scriptedClient) Chat(ctx context.Context, prompt string, system string) (string, error) {
	c.calls++
	if len(c.script) == 0 {
		return "", nil
	}
	next := c.script[0]
	c.script = c.script[1:]
	return next, nil
}

type memStore struct {
	letters map[string]store.Letter
	entries []model.Entry
	inserts int
}

func newMemStore() *memStore {
	return &memStore{letters: make(map[string]store.Letter)}
}

func (m *memStore) key(userID, periodStart string) string {
	return userID + "|" + periodStart
}

func (m *memStore) GetInsight(ctx context.Context, userID, periodStart string) (*store.Letter, error) {
	if row, ok := m.letters[m.key(userID, periodStart)]; ok {
		return &row, nil
	}
	return nil, nil
}

func (m *memStore) InsertInsight(ctx context.Context, userID, periodStart, content string) (string, error) {
	m.inserts++
	m.letters[m.key(userID, periodStart)] = store.Letter{ID: "row-1", Content: content}
	return "row-1", nil
}

func (m *memStore) DeleteInsight(ctx context.Context, userID, periodStart string) (bool, error) {
	key := m.key(userID, periodStart)
	_, ok := m.letters[key]
	delete(m.letters, key)
	return ok, nil
}

func (m *memStore) ListEntriesSince(ctx context.Context, userID, sinceISO string) ([]model.Entry, error) {
	var out []model.Entry
	for _, entry := range m.entries {
		if entry.CreatedAt >= sinceISO {
			out = append(out, entry)
		}
	}
	return out, nil
}

func loadPrompts(t *testing.T) config.Prompts {
	t.Helper()
	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	return cfg.Prompts
}

func TestConfigPromptsShipComplete(t *testing.T) {
	prompts := loadPrompts(t)

	assert.NotEmpty(t, prompts.Extraction.System)
	assert.Contains(t, prompts.Extraction.User, "%s")
	assert.Contains(t, prompts.Pattern.User, "%s")
	assert.Equal(t, 3, strings.Count(prompts.Letter.User, "%s"))
	assert.Contains(t, prompts.Insight.User, "%s")
	assert.NotEmpty(t, prompts.Insight.Empty)
	assert.Contains(t, prompts.Moods.User, "%s")
}

func TestLetterFlowGenerateCacheRegenerate(t *testing.T) {
	prompts := loadPrompts(t)
	today := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	client := &scriptedClient{script: []string{situationsJSON, patternText, letterText}}
	mem := newMemStore()
	mem.entries = []model.Entry{
		{RawText: "avoided calling them back", MoodWord: "heavy", CreatedAt: "2025-03-03T09:00:00Z"},
		{RawText: "stayed late to dodge the standup talk", MoodWord: "wired", CreatedAt: "2025-03-04T21:00:00Z"},
		{RawText: "cancelled dinner, felt relief then guilt", MoodWord: "guilty", CreatedAt: "2025-03-06T19:00:00Z"},
	}

	logger := zap.NewNop()
	letters := core.NewLetters(core.NewAnalyzer(client, prompts, logger), mem, mem, logger)

	resp, err := letters.GetOrCreateLetter(context.Background(), "user-7", today)
	require.NoError(t, err)
	assert.Equal(t, letterText, resp.Content)
	require.NotNil(t, resp.CorePattern)
	assert.Equal(t, patternText, *resp.CorePattern)
	assert.Equal(t, model.DepthDeep, resp.AnalysisDepth)
	assert.Equal(t, "2025-03-02", resp.PeriodStart)
	assert.Equal(t, "2025-03-06", resp.PeriodEnd)
	assert.Equal(t, 3, client.calls)
	assert.Equal(t, 1, mem.inserts)

	cached, err := letters.GetOrCreateLetter(context.Background(), "user-7", today)
	require.NoError(t, err)
	assert.Equal(t, letterText, cached.Content)
	assert.Equal(t, 3, client.calls)

	client.script = []string{situationsJSON, patternText, letterText}
	regenerated, err := letters.ForceRegenerate(context.Background(), "user-7", today)
	require.NoError(t, err)
	assert.Equal(t, letterText, regenerated.Content)
	assert.Equal(t, 6, client.calls)
	assert.Equal(t, 2, mem.inserts)
}

func TestLetterFlowTooEarlyWithRealPrompts(t *testing.T) {
	prompts := loadPrompts(t)
	today := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)

	client := &scriptedClient{}
	mem := newMemStore()
	logger := zap.NewNop()
	letters := core.NewLetters(core.NewAnalyzer(client, prompts, logger), mem, mem, logger)

	resp, err := letters.GetOrCreateLetter(context.Background(), "user-7", today)
	require.NoError(t, err)
	assert.True(t, resp.TooEarly)
	assert.Equal(t, "2025-03-07", resp.PeriodStart)
	assert.Zero(t, client.calls)
}
