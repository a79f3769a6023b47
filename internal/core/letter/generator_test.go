package letter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/mirror/internal/config"
	"github.com/agenthands/mirror/internal/core/model"
)

type MockClient struct {
	Response string
	Err      error
	Prompt   string
	System   string
}

func (m *MockClient) Chat(ctx context.Context, prompt string, system string) (string, error) {
	m.Prompt = prompt
	m.System = system
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

var letterPrompts = config.LetterPrompts{
	System: "write the letter",
	User:   "pattern: %s\nsituations: %s\ncontext: %s",
}

var insightPrompts = config.InsightPrompts{
	System: "write the insight",
	User:   "summary: %s",
	Empty:  "they did not reflect much",
}

// shallowLetter is long enough to clear the plausibility band.
var shallowLetter = strings.TrimSpace(strings.Repeat(
	"You kept showing up even when the week felt heavy, and you wrote it down instead of letting it blur. ", 3))

func TestGenerateCleansOutput(t *testing.T) {
	mock := &MockClient{Response: "Dear friend,\nYou keep circling back to the same deadline."}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	out, err := gen.Generate(context.Background(), "a pattern", []model.Situation{{Situation: "x"}}, "context")

	assert.NoError(t, err)
	assert.Equal(t, "You keep circling back to the same deadline.", out)
	assert.Equal(t, "write the letter", mock.System)
}

func TestGenerateUsesTopThreeSituations(t *testing.T) {
	mock := &MockClient{Response: "a letter"}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	situations := []model.Situation{
		{Situation: "first situation"},
		{Situation: "second situation"},
		{Situation: "third situation"},
		{Situation: "fourth situation"},
	}

	_, err := gen.Generate(context.Background(), "a pattern", situations, "context")

	assert.NoError(t, err)
	assert.Contains(t, mock.Prompt, "third situation")
	assert.NotContains(t, mock.Prompt, "fourth situation")
}

func TestGenerateTruncatesContext(t *testing.T) {
	mock := &MockClient{Response: "a letter"}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	_, err := gen.Generate(context.Background(), "a pattern", nil, strings.Repeat("c", 4000))

	assert.NoError(t, err)
	assert.Contains(t, mock.Prompt, strings.Repeat("c", 3000))
	assert.NotContains(t, mock.Prompt, strings.Repeat("c", 3001))
}

func TestFromSummaryEmptyUsesEmptyPrompt(t *testing.T) {
	mock := &MockClient{Response: shallowLetter}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	out, err := gen.FromSummary(context.Background(), "   ")

	assert.NoError(t, err)
	assert.Equal(t, shallowLetter, out)
	assert.Equal(t, "they did not reflect much", mock.Prompt)
}

func TestFromSummaryFallbackOnBlankOutput(t *testing.T) {
	mock := &MockClient{Response: "   "}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	out, err := gen.FromSummary(context.Background(), "Thought: a long week")

	assert.NoError(t, err)
	assert.Equal(t, Fallback, out)
}

func TestFromSummaryFallbackOutsideBand(t *testing.T) {
	tooShort := &MockClient{Response: "Too short to be a real letter."}
	gen := NewGenerator(tooShort, letterPrompts, insightPrompts)

	out, err := gen.FromSummary(context.Background(), "Thought: a long week")

	assert.NoError(t, err)
	assert.Equal(t, Fallback, out)

	tooLong := &MockClient{Response: strings.Repeat("y", 1300)}
	gen = NewGenerator(tooLong, letterPrompts, insightPrompts)

	out, err = gen.FromSummary(context.Background(), "Thought: a long week")

	assert.NoError(t, err)
	assert.Equal(t, Fallback, out)
}

func TestFromSummaryKeepsOutputInsideBand(t *testing.T) {
	mock := &MockClient{Response: shallowLetter}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	out, err := gen.FromSummary(context.Background(), "Thought: a long week")

	assert.NoError(t, err)
	assert.Equal(t, shallowLetter, out)
}

func TestFromSummaryGatewayError(t *testing.T) {
	mock := &MockClient{Err: errors.New("timeout")}
	gen := NewGenerator(mock, letterPrompts, insightPrompts)

	_, err := gen.FromSummary(context.Background(), "Thought: a long week")

	assert.Error(t, err)
}

func TestCleanStripsSalutation(t *testing.T) {
	out := Clean("Dear friend,\nYou keep circling back to the same question.")

	assert.False(t, strings.HasPrefix(out, "Dear"))
	assert.Equal(t, "You keep circling back to the same question.", out)
}

func TestCleanGreetingVariants(t *testing.T) {
	for _, greeting := range []string{"Hi there,", "Hello,", "Hey you,", "DEAR READER,"} {
		out := Clean(greeting + "\nThe rest of the letter.")
		assert.Equal(t, "The rest of the letter.", out, "greeting=%q", greeting)
	}
}

func TestCleanLeavesPlainLettersAlone(t *testing.T) {
	text := "You kept showing up this week, even when it was hard."
	assert.Equal(t, text, Clean(text))

	// "History" starts with "hi" but not the greeting token "hi ".
	assert.Equal(t, "History repeats.\nSecond line.", Clean("History repeats.\nSecond line."))
}

func TestCleanStripsFences(t *testing.T) {
	out := Clean("```\nYou noticed something this week.\n```")
	assert.Equal(t, "You noticed something this week.", out)
}
