package llm

import "context"

// MockClient lets tests run without a real model behind them.
type MockClient struct {
	Response string
	Err      error
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	return m.Response, m.Err
}
