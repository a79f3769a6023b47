// Package moods converts mood metaphors ("foggy morning") into the plain
// feelings someone would actually say ("a bit unclear"), one model call per
// batch of unseen moods. Results are memoized in a bounded LRU so repeat
// moods never re-hit the gateway.
package moods

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/common"
	"github.com/agenthands/mirror/internal/llm"
)

const (
	maxBatch      = 12
	maxFeelingLen = 50
	cacheSize     = 512
)

// Conversion pairs a mood metaphor with its plain-feeling rendering.
type Conversion struct {
	Original string `json:"original"`
	Feeling  string `json:"feeling"`
}

type Converter struct {
	LLM     llm.Client
	Prompts config.MoodPrompts
	Logger  *zap.Logger

	cache *lru.Cache[string, string]
}

func NewConverter(client llm.Client, prompts config.MoodPrompts, logger *zap.Logger) (*Converter, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create mood cache: %w", err)
	}
	return &Converter{
		LLM:     client,
		Prompts: prompts,
		Logger:  logger,
		cache:   cache,
	}, nil
}

// Convert maps each metaphor to a feeling. Any failure degrades to the
// metaphor itself; this never returns an error.
func (c *Converter) Convert(ctx context.Context, moods []string) []Conversion {
	unique := dedupeMoods(moods)
	if len(unique) == 0 {
		return nil
	}

	var result []Conversion
	var uncached []string
	for _, mood := range unique {
		if feeling, ok := c.cache.Get(strings.ToLower(mood)); ok {
			result = append(result, Conversion{Original: mood, Feeling: feeling})
		} else {
			uncached = append(uncached, mood)
		}
	}
	if len(uncached) == 0 {
		return result
	}

	payload, err := json.Marshal(uncached)
	if err != nil {
		return identity(unique)
	}

	raw, err := c.LLM.Chat(ctx, fmt.Sprintf(c.Prompts.User, string(payload)), c.Prompts.System)
	if err != nil {
		c.Logger.Warn("mood conversion failed", zap.Error(err))
		return identity(unique)
	}
	if strings.TrimSpace(raw) == "" {
		for _, mood := range uncached {
			c.cache.Add(strings.ToLower(mood), mood)
			result = append(result, Conversion{Original: mood, Feeling: mood})
		}
		return result
	}

	items, err := common.DecodeArray[Conversion](raw)
	if err != nil {
		c.Logger.Warn("mood conversion parse failed", zap.Error(err))
		return identity(unique)
	}

	for _, item := range items {
		original := strings.TrimSpace(item.Original)
		if original == "" {
			continue
		}
		feeling := strings.TrimSpace(item.Feeling)
		if feeling == "" {
			feeling = original
		}
		feeling = common.Truncate(feeling, maxFeelingLen)
		c.cache.Add(strings.ToLower(original), feeling)
		result = append(result, Conversion{Original: original, Feeling: feeling})
	}

	// Moods the model skipped fall back to themselves.
	for _, mood := range uncached {
		if _, ok := c.cache.Get(strings.ToLower(mood)); !ok {
			c.cache.Add(strings.ToLower(mood), mood)
			result = append(result, Conversion{Original: mood, Feeling: mood})
		}
	}

	if len(result) == 0 {
		return identity(unique)
	}
	return result
}

func dedupeMoods(moods []string) []string {
	var unique []string
	seen := make(map[string]bool)
	for _, mood := range moods {
		mood = strings.TrimSpace(mood)
		if mood == "" || seen[strings.ToLower(mood)] {
			continue
		}
		seen[strings.ToLower(mood)] = true
		unique = append(unique, mood)
		if len(unique) == maxBatch {
			break
		}
	}
	return unique
}

func identity(moods []string) []Conversion {
	out := make([]Conversion, 0, len(moods))
	for _, mood := range moods {
		out = append(out, Conversion{Original: mood, Feeling: mood})
	}
	return out
}
