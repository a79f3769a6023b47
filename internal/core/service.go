package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/period"
	"github.com/agenthands/mirror/internal/store"
)

const (
	// Organic generation wants a few entries before attempting depth;
	// user-initiated regeneration is more willing.
	defaultMinReflections    = 3
	regenerateMinReflections = 2
)

// lookbackDays bounds the recent-activity probe behind the too-early check.
const lookbackDays = 30

const firstLetterMessage = "Your first letter will be ready after you complete a 5-day reflection period."

// Letters generates and caches one insight letter per user per completed
// 5-day period. The store's unique (user, period start) key makes
// generation idempotent; concurrent requests may both compute, but only the
// first insert sticks and both callers get content back.
type Letters struct {
	Analyzer *Analyzer
	Insights store.InsightStore
	Entries  store.EntrySource
	Logger   *zap.Logger
}

func NewLetters(analyzer *Analyzer, insights store.InsightStore, entries store.EntrySource, logger *zap.Logger) *Letters {
	return &Letters{
		Analyzer: analyzer,
		Insights: insights,
		Entries:  entries,
		Logger:   logger,
	}
}

// LetterResponse is the HTTP-facing result of letter retrieval/generation.
type LetterResponse struct {
	Content         string            `json:"content,omitempty"`
	PeriodStart     string            `json:"period_start"`
	PeriodEnd       string            `json:"period_end"`
	ReflectionCount int               `json:"reflection_count,omitempty"`
	TooEarly        bool              `json:"too_early"`
	DaysRemaining   int               `json:"days_remaining,omitempty"`
	Message         string            `json:"message,omitempty"`
	CorePattern     *string           `json:"core_pattern"`
	Situations      []model.Situation `json:"situations,omitempty"`
	AnalysisDepth   model.Depth       `json:"analysis_depth,omitempty"`
}

// GetOrCreateLetter returns the letter for the last completed period,
// generating and caching it on first demand. The cache read comes before
// any model call. Too-early needs an empty period AND no reflections in the
// trailing 30 days; a user whose only entries sit in the current, incomplete
// period still gets (and caches) the insufficient-tier letter.
func (s *Letters) GetOrCreateLetter(ctx context.Context, userID string, today time.Time) (*LetterResponse, error) {
	current := period.Current(today)
	last := period.LastCompleted(today)

	if resp := s.cachedLetter(ctx, userID, last); resp != nil {
		return resp, nil
	}

	entries, err := s.entriesForPeriod(ctx, userID, last)
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		recent, err := s.recentEntries(ctx, userID, today)
		if err != nil {
			return nil, err
		}
		if len(recent) == 0 {
			return &LetterResponse{
				PeriodStart:   current.Start,
				PeriodEnd:     current.End,
				TooEarly:      true,
				DaysRemaining: current.DaysRemaining,
				Message:       firstLetterMessage,
			}, nil
		}
	}

	// Another request may have generated the letter while we were reading
	// entries; re-check before paying for model calls.
	if resp := s.cachedLetter(ctx, userID, last); resp != nil {
		return resp, nil
	}

	result := s.Analyzer.Analyze(ctx, entries, defaultMinReflections)

	// First writer wins. Losing the insert race is not a request failure;
	// the generated content is still this caller's response.
	if _, err := s.Insights.InsertInsight(ctx, userID, last.Start, result.Letter); err != nil {
		s.Logger.Warn("insight insert failed", zap.String("period_start", last.Start), zap.Error(err))
	}

	return letterResponse(last, len(entries), result), nil
}

// ForceRegenerate drops any stored letter for the last completed period and
// generates a fresh one, skipping the cache on the way in.
func (s *Letters) ForceRegenerate(ctx context.Context, userID string, today time.Time) (*LetterResponse, error) {
	last := period.LastCompleted(today)

	if ok, err := s.Insights.DeleteInsight(ctx, userID, last.Start); err != nil {
		return nil, fmt.Errorf("failed to clear stored letter: %w", err)
	} else if !ok {
		s.Logger.Info("no stored letter cleared", zap.String("period_start", last.Start))
	}

	entries, err := s.entriesForPeriod(ctx, userID, last)
	if err != nil {
		return nil, err
	}

	result := s.Analyzer.Analyze(ctx, entries, regenerateMinReflections)

	if _, err := s.Insights.InsertInsight(ctx, userID, last.Start, result.Letter); err != nil {
		s.Logger.Warn("insight insert failed", zap.String("period_start", last.Start), zap.Error(err))
	}

	return letterResponse(last, len(entries), result), nil
}

// cachedLetter returns the stored letter for the period, or nil on miss.
// Store failures count as misses; generation can still proceed.
func (s *Letters) cachedLetter(ctx context.Context, userID string, p period.Period) *LetterResponse {
	existing, err := s.Insights.GetInsight(ctx, userID, p.Start)
	if err != nil {
		s.Logger.Warn("insight lookup failed", zap.String("period_start", p.Start), zap.Error(err))
		return nil
	}
	if existing == nil || strings.TrimSpace(existing.Content) == "" {
		return nil
	}
	return &LetterResponse{
		Content:     strings.TrimSpace(existing.Content),
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
	}
}

// recentEntries lists everything from the trailing lookback window,
// regardless of period boundaries.
func (s *Letters) recentEntries(ctx context.Context, userID string, today time.Time) ([]model.Entry, error) {
	since := today.UTC().AddDate(0, 0, -lookbackDays).Format(period.DateLayout) + "T00:00:00Z"
	entries, err := s.Entries.ListEntriesSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// entriesForPeriod lists entries since the period start and keeps those
// whose date prefix falls on or before the period end. The comparison is
// lexicographic on YYYY-MM-DD, deliberately blind to time of day.
func (s *Letters) entriesForPeriod(ctx context.Context, userID string, p period.Period) ([]model.Entry, error) {
	since := p.Start + "T00:00:00Z"
	entries, err := s.Entries.ListEntriesSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}

	var inPeriod []model.Entry
	for _, entry := range entries {
		if len(entry.CreatedAt) >= 10 && entry.CreatedAt[:10] <= p.End {
			inPeriod = append(inPeriod, entry)
		}
	}
	return inPeriod, nil
}

func letterResponse(p period.Period, count int, result model.AnalysisResult) *LetterResponse {
	situations := result.Situations
	if len(situations) > 3 {
		situations = situations[:3]
	}
	// core_pattern serializes as null below deep depth, not as a missing
	// field; clients key on its presence.
	var corePattern *string
	if result.CorePattern != "" {
		corePattern = &result.CorePattern
	}
	return &LetterResponse{
		Content:         result.Letter,
		PeriodStart:     p.Start,
		PeriodEnd:       p.End,
		ReflectionCount: count,
		CorePattern:     corePattern,
		Situations:      situations,
		AnalysisDepth:   result.Depth,
	}
}
