// /internal/integrations/facts.go
package integrations

import (
	"context"
	"fmt"

	"astrobot/internal/engine"
)

// randomFact handles {{randomfact}}.
func (r *Registry) randomFact(ctx context.Context, _ string, _ *engine.MessageContext) (string, error) {
	var fact struct {
		Text string `json:"text"`
	}
	if err := r.getJSON(ctx, "https://uselessfacts.jsph.pl/api/v2/facts/random", &fact); err != nil {
		return "", err
	}
	if fact.Text == "" {
		return "", fmt.Errorf("empty fact")
	}
	return fact.Text, nil
}
