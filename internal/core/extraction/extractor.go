package extraction

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/common"
	"github.com/agenthands/mirror/internal/core/model"
	"github.com/agenthands/mirror/internal/llm"
)

// Field caps applied after parsing, before anything downstream sees a
// situation.
const (
	maxSituationLen = 500
	maxEmotionLen   = 200
	maxBehaviorLen  = 300
	maxJudgmentLen  = 200
)

const (
	maxEntriesPerPrompt = 10
	maxRawTextLen       = 600
	maxMirrorLen        = 400
)

type Extractor struct {
	LLM     llm.Client
	Prompts config.ExtractionPrompts
}

func NewExtractor(client llm.Client, prompts config.ExtractionPrompts) *Extractor {
	return &Extractor{
		LLM:     client,
		Prompts: prompts,
	}
}

// rawSituation accepts the alternate field names models drift toward.
type rawSituation struct {
	Situation    string `json:"situation"`
	Emotion      string `json:"emotion"`
	Feeling      string `json:"feeling"`
	Behavior     string `json:"behavior"`
	SelfJudgment string `json:"self_judgment"`
	SelfDoubt    string `json:"self_doubt"`
}

// Extract turns a batch of entries into structured situations. Gateway
// failures surface as errors; unparsable model output yields an empty slice
// instead, so the caller can degrade without distinguishing the two.
func (e *Extractor) Extract(ctx context.Context, entries []model.Entry) ([]model.Situation, error) {
	prompt := fmt.Sprintf(e.Prompts.User, BuildEntriesText(entries))

	response, err := e.LLM.Chat(ctx, prompt, e.Prompts.System)
	if err != nil {
		return nil, fmt.Errorf("situation extraction failed: %w", err)
	}

	return ParseSituations(response), nil
}

// ParseSituations decodes the model's array output defensively. Items
// without a situation field are dropped, alternate keys are folded in, and
// every field is capped. Any parse failure returns an empty slice.
func ParseSituations(raw string) []model.Situation {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	items, err := common.DecodeArray[rawSituation](raw)
	if err != nil {
		return nil
	}

	var valid []model.Situation
	for _, item := range items {
		if strings.TrimSpace(item.Situation) == "" {
			continue
		}
		emotion := item.Emotion
		if emotion == "" {
			emotion = item.Feeling
		}
		judgment := item.SelfJudgment
		if judgment == "" {
			judgment = item.SelfDoubt
		}
		valid = append(valid, model.Situation{
			Situation:    common.Truncate(item.Situation, maxSituationLen),
			Emotion:      common.Truncate(emotion, maxEmotionLen),
			Behavior:     common.Truncate(item.Behavior, maxBehaviorLen),
			SelfJudgment: common.Truncate(judgment, maxJudgmentLen),
		})
	}
	return valid
}

// BuildEntriesText combines up to ten entries into one prompt blob, each
// contributing a truncated raw thought, mirror response, mood word, and
// date. Input order is preserved.
func BuildEntriesText(entries []model.Entry) string {
	if len(entries) > maxEntriesPerPrompt {
		entries = entries[:maxEntriesPerPrompt]
	}

	var parts []string
	for i, entry := range entries {
		raw := strings.TrimSpace(entry.RawText)
		mirror := strings.TrimSpace(entry.MirrorResponse)
		mood := strings.TrimSpace(entry.MoodWord)
		created := common.Truncate(entry.CreatedAt, 10)

		var b strings.Builder
		fmt.Fprintf(&b, "--- Entry %d", i+1)
		if created != "" {
			fmt.Fprintf(&b, " (%s)", created)
		}
		b.WriteString(" ---\n")

		if raw != "" {
			fmt.Fprintf(&b, "Their thought: %s\n", common.Truncate(raw, maxRawTextLen))
		}
		if mirror != "" {
			fmt.Fprintf(&b, "Mirror response: %s\n", common.Truncate(mirror, maxMirrorLen))
		}
		if mood != "" {
			fmt.Fprintf(&b, "Mood: %s\n", mood)
		}

		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n\n")
}
