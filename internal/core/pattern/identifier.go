package pattern

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/llm"
)

type Identifier struct {
	LLM     llm.Client
	Prompts config.PatternPrompts
}

func NewIdentifier(client llm.Client, prompts config.PatternPrompts) *Identifier {
	return &Identifier{
		LLM:     client,
		Prompts: prompts,
	}
}

// Identify returns the causal statement connecting the situations: the
// recurring emotional need, self-belief, or unresolved tension underneath
// them. Output is prose, so only trimming happens here; the caller owns the
// quality gate.
func (i *Identifier) Identify(ctx context.Context, situations []model.Situation) (string, error) {
	data, err := json.MarshalIndent(situations, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to serialize situations: %w", err)
	}

	prompt := fmt.Sprintf(i.Prompts.User, string(data))

	response, err := i.LLM.Chat(ctx, prompt, i.Prompts.System)
	if err != nil {
		return "", fmt.Errorf("pattern identification failed: %w", err)
	}

	return strings.TrimSpace(response), nil
}
