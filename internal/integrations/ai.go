// /internal/integrations/ai.go
package integrations

import (
	"context"
	"fmt"
	"strings"

	"astrobot/internal/ai"
	"astrobot/internal/engine"
)

// askAI handles {{ai prompt}} through the configured provider.
func (r *Registry) askAI(ctx context.Context, args string, mc *engine.MessageContext) (string, error) {
	if r.ai == nil {
		return "", fmt.Errorf("ai provider not configured")
	}
	prompt := strings.TrimSpace(args)
	if prompt == "" {
		return "", fmt.Errorf("usage: ai <prompt>")
	}

	return r.ai.Generate(ctx, []ai.Message{
		{Role: "system", Content: "You answer inside a Discord chat message. Keep replies short, plain text, no markdown headers."},
		{Role: "user", Content: fmt.Sprintf("%s (asked by %s)", prompt, mc.UserName)},
	})
}
