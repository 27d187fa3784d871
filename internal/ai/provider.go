package ai

import "context"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Provider interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// NewProvider picks a provider from the configured engine string, e.g.
// "pollinations" or "g4f:gpt-oss-120b". Unknown engines fall back to g4f.
func NewProvider(engine string) Provider {
	switch {
	case engine == "pollinations":
		return NewPollinationsProvider()
	default:
		return NewG4FProvider(engine)
	}
}
