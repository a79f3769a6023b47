package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"github.com/agenthands/mirror/internal/core/common"
	"github.com/agenthands/mirror/internal/core/model"
)

// Hosted table names. weekly_insights predates the 5-day period scheme and
// keeps its historical name and week_start column.
const (
	entriesTable  = "saved_reflections"
	insightsTable = "weekly_insights"
)

const (
	maxUserIDLen  = 128
	maxContentLen = 10000
)

var periodKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidPeriodKey reports whether key is a YYYY-MM-DD date string, the only
// shape the insight store accepts.
func ValidPeriodKey(key string) bool {
	return periodKeyPattern.MatchString(key)
}

// SupabaseStore backs both the insight cache and the entry source with the
// hosted Supabase project. The underlying client manages its own HTTP
// timeouts; ctx is accepted for interface symmetry.
type SupabaseStore struct {
	client *supabase.Client
	logger *zap.Logger
}

func NewSupabaseStore(url, serviceKey string, logger *zap.Logger) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client, logger: logger}, nil
}

func (s *SupabaseStore) GetInsight(ctx context.Context, userID, periodStart string) (*Letter, error) {
	if userID == "" || !ValidPeriodKey(periodStart) {
		return nil, nil
	}

	var rows []Letter
	_, err := s.client.From(insightsTable).
		Select("id, content, created_at", "", false).
		Eq("user_id", normalizeUserID(userID)).
		Eq("week_start", periodStart).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("get insight: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (s *SupabaseStore) InsertInsight(ctx context.Context, userID, periodStart, content string) (string, error) {
	content = strings.TrimSpace(content)
	if userID == "" || content == "" || !ValidPeriodKey(periodStart) {
		return "", nil
	}

	row := map[string]string{
		"user_id":    normalizeUserID(userID),
		"week_start": periodStart,
		"content":    common.Truncate(content, maxContentLen),
	}

	var rows []Letter
	_, err := s.client.From(insightsTable).
		Insert(row, false, "", "representation", "").
		ExecuteTo(&rows)
	if err != nil {
		return "", fmt.Errorf("insert insight: %w", err)
	}
	if len(rows) > 0 {
		return rows[0].ID, nil
	}
	return "", nil
}

func (s *SupabaseStore) DeleteInsight(ctx context.Context, userID, periodStart string) (bool, error) {
	if userID == "" || !ValidPeriodKey(periodStart) {
		return false, nil
	}

	_, _, err := s.client.From(insightsTable).
		Delete("", "").
		Eq("user_id", normalizeUserID(userID)).
		Eq("week_start", periodStart).
		Execute()
	if err != nil {
		return false, fmt.Errorf("delete insight: %w", err)
	}
	return true, nil
}

func (s *SupabaseStore) ListEntriesSince(ctx context.Context, userID, sinceISO string) ([]model.Entry, error) {
	if userID == "" {
		return nil, nil
	}

	var rows []model.Entry
	_, err := s.client.From(entriesTable).
		Select("raw_text, mirror_response, mood_word, created_at", "", false).
		Eq("user_identifier", normalizeUserID(userID)).
		Gte("created_at", sinceISO).
		Order("created_at", &postgrest.OrderOpts{Ascending: false}).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return rows, nil
}

func normalizeUserID(userID string) string {
	userID = strings.TrimSpace(userID)
	if len(userID) > maxUserIDLen {
		userID = userID[:maxUserIDLen]
	}
	return userID
}
