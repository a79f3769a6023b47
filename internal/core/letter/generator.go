package letter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/common"
	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/llm"
)

const (
	maxKeySituations = 3
	maxContextLen    = 3000
	maxSummaryLen    = 2500
)

// Shallow output outside this band reads as a model failure, either
// truncated or runaway, and degrades to the fallback.
const (
	minShallowLen = 200
	maxShallowLen = 1200
)

// Fallback is returned when even the single-shot path produces nothing.
const Fallback = "These past few days you showed up to reflect. That's worth noticing."

type Generator struct {
	LLM     llm.Client
	Prompts config.LetterPrompts
	Insight config.InsightPrompts
}

func NewGenerator(client llm.Client, prompts config.LetterPrompts, insight config.InsightPrompts) *Generator {
	return &Generator{
		LLM:     client,
		Prompts: prompts,
		Insight: insight,
	}
}

// Generate writes the deep insight letter from an identified core pattern,
// the top situations, and the raw entries as context. The 100-150-word,
// no-salutation, no-advice contract lives in the prompt; Clean enforces the
// salutation part mechanically.
func (g *Generator) Generate(ctx context.Context, corePattern string, situations []model.Situation, fullContext string) (string, error) {
	key := situations
	if len(key) > maxKeySituations {
		key = key[:maxKeySituations]
	}
	data, err := json.MarshalIndent(key, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize situations: %w", err)
	}

	prompt := fmt.Sprintf(g.Prompts.User, corePattern, string(data), common.Truncate(fullContext, maxContextLen))

	response, err := g.LLM.Chat(ctx, prompt, g.Prompts.System)
	if err != nil {
		return "", fmt.Errorf("letter generation failed: %w", err)
	}

	return Clean(response), nil
}

// FromSummary writes the single-shot shallow letter from a plain entries
// summary, with no structural analysis behind it. The word-count and
// no-salutation contract is the same, applied best-effort; output outside
// the plausibility band becomes the Fallback constant.
func (g *Generator) FromSummary(ctx context.Context, summary string) (string, error) {
	var prompt string
	if strings.TrimSpace(summary) == "" {
		prompt = g.Insight.Empty
	} else {
		prompt = fmt.Sprintf(g.Insight.User, common.Truncate(summary, maxSummaryLen))
	}

	response, err := g.LLM.Chat(ctx, prompt, g.Insight.System)
	if err != nil {
		return "", fmt.Errorf("insight letter failed: %w", err)
	}

	cleaned := Clean(response)
	if len(cleaned) < minShallowLen || len(cleaned) > maxShallowLen {
		return Fallback, nil
	}
	return cleaned, nil
}

var greetings = []string{"dear", "hi ", "hello", "hey"}

// Clean strips markdown fences and an accidental salutation line. Applied
// to every generated letter regardless of which path produced it.
func Clean(text string) string {
	text = common.StripFences(text)
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	first := strings.ToLower(strings.TrimSpace(lines[0]))
	for _, greeting := range greetings {
		if strings.HasPrefix(first, greeting) {
			return strings.TrimSpace(strings.Join(lines[1:], "\n"))
		}
	}
	return text
}
