// /internal/integrations/jokes.go
package integrations

import (
	"context"
	"fmt"

	"astrobot/internal/engine"
)

// jokes handles {{jokes}}, ignoring any argument text.
func (r *Registry) jokes(ctx context.Context, _ string, _ *engine.MessageContext) (string, error) {
	var joke struct {
		Setup     string `json:"setup"`
		Punchline string `json:"punchline"`
	}
	if err := r.getJSON(ctx, "https://official-joke-api.appspot.com/random_joke", &joke); err != nil {
		return "", err
	}
	if joke.Setup == "" {
		return "", fmt.Errorf("empty joke")
	}
	return joke.Setup + "\n" + joke.Punchline, nil
}
