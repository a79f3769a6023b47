// Package core runs the pattern-analysis pipeline: situations are extracted
// from a period's entries, a core pattern is identified across them, and a
// letter is generated from the pattern. Every stage failure is absorbed here
// and downgrades the result's depth tag; the pipeline never returns an error
// for an LLM or data condition.
package core

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/common"
	"github.com/agenthands/mirror/internal/core/extraction"
	"github.com/agenthands/mirror/internal/core/letter"
	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/core/pattern"
	"github.com/agenthands/mirror/internal/llm"
)

// Quality gates between stages. Missing a gate is a branch, not an error.
const (
	minSituations = 2
	minPatternLen = 50
	minLetterLen  = 100
)

const (
	maxSummaryEntries  = 20
	maxSummaryFieldLen = 400
)

type Analyzer struct {
	Extractor  *extraction.Extractor
	Identifier *pattern.Identifier
	Generator  *letter.Generator
	Logger     *zap.Logger
}

func NewAnalyzer(client llm.Client, prompts config.Prompts, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		Extractor:  extraction.NewExtractor(client, prompts.Extraction),
		Identifier: pattern.NewIdentifier(client, prompts.Pattern),
		Generator:  letter.NewGenerator(client, prompts.Letter, prompts.Insight),
		Logger:     logger,
	}
}

// Analyze runs the three-stage pipeline over one period's entries.
//
// Fewer than minReflections entries short-circuits to an insufficient-data
// message. A failed or thin extraction or pattern stage falls back to the
// shallow single-shot letter. A failed or thin letter stage keeps the deep
// tag but substitutes the core pattern as the letter text.
func (a *Analyzer) Analyze(ctx context.Context, entries []model.Entry, minReflections int) model.AnalysisResult {
	if len(entries) < minReflections {
		return model.AnalysisResult{
			Letter: InsufficientMessage(len(entries)),
			Depth:  model.DepthInsufficient,
		}
	}

	fullText := extraction.BuildEntriesText(entries)

	situations, err := a.Extractor.Extract(ctx, entries)
	if err != nil {
		a.Logger.Warn("situation extraction failed", zap.Error(err))
		return a.shallow(ctx, entries)
	}
	if len(situations) < minSituations {
		a.Logger.Info("not enough situations extracted", zap.Int("count", len(situations)))
		return a.shallow(ctx, entries)
	}

	corePattern, err := a.Identifier.Identify(ctx, situations)
	if err != nil {
		a.Logger.Warn("pattern identification failed", zap.Error(err))
		return a.shallow(ctx, entries)
	}
	if len(corePattern) < minPatternLen {
		a.Logger.Info("identified pattern too thin", zap.Int("length", len(corePattern)))
		return a.shallow(ctx, entries)
	}

	letterText, err := a.Generator.Generate(ctx, corePattern, situations, fullText)
	if err != nil {
		a.Logger.Warn("letter generation failed", zap.Error(err))
		letterText = corePattern
		if letterText == "" {
			letterText = InsufficientMessage(len(entries))
		}
	} else if len(letterText) < minLetterLen {
		a.Logger.Info("generated letter too short, using pattern", zap.Int("length", len(letterText)))
		letterText = corePattern
	}

	return model.AnalysisResult{
		Letter:      letterText,
		CorePattern: corePattern,
		Situations:  situations,
		Depth:       model.DepthDeep,
	}
}

// shallow builds a flat entries summary and asks for the single-shot letter.
// If even that fails, the insufficient-data message is the floor.
func (a *Analyzer) shallow(ctx context.Context, entries []model.Entry) model.AnalysisResult {
	letterText, err := a.Generator.FromSummary(ctx, BuildSummaryText(entries))
	if err != nil {
		a.Logger.Warn("shallow letter failed", zap.Error(err))
		letterText = InsufficientMessage(len(entries))
	}
	return model.AnalysisResult{
		Letter: letterText,
		Depth:  model.DepthShallow,
	}
}

// BuildSummaryText concatenates entries into plain Thought/Mirror/Mood lines
// for the shallow path. No structural extraction, just truncation.
func BuildSummaryText(entries []model.Entry) string {
	if len(entries) > maxSummaryEntries {
		entries = entries[:maxSummaryEntries]
	}

	var parts []string
	for _, entry := range entries {
		if raw := strings.TrimSpace(entry.RawText); raw != "" {
			parts = append(parts, fmt.Sprintf("Thought: %s", common.Truncate(raw, maxSummaryFieldLen)))
		}
		if mirror := strings.TrimSpace(entry.MirrorResponse); mirror != "" {
			parts = append(parts, fmt.Sprintf("Mirror: %s", common.Truncate(mirror, maxSummaryFieldLen)))
		}
		if mood := strings.TrimSpace(entry.MoodWord); mood != "" {
			parts = append(parts, fmt.Sprintf("Mood: %s", mood))
		}
	}
	return strings.Join(parts, "\n\n")
}

// InsufficientMessage tiers the not-enough-data letter by how many entries
// exist: none yet, exactly one, or a few.
func InsufficientMessage(count int) string {
	switch count {
	case 0:
		return "You haven't reflected yet this period. When you do, I'll be here, noticing what shows up."
	case 1:
		return "You reflected once recently. A few more entries will help me see what's underneath."
	default:
		return "You've started to show up. Keep reflecting, and patterns will emerge with a bit more."
	}
}
