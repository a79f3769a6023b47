package extraction

import (
	"context"
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
