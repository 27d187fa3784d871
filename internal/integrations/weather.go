// /internal/integrations/weather.go
package integrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"astrobot/internal/engine"
)

// weather handles {{weather city}} through wttr.in's one-line format.
func (r *Registry) weather(ctx context.Context, args string, _ *engine.MessageContext) (string, error) {
	city := strings.TrimSpace(args)
	if city == "" {
		return "", fmt.Errorf("usage: weather <city>")
	}

	body, err := r.getBody(ctx, "https://wttr.in/"+url.PathEscape(city)+"?format=3")
	if err != nil {
		return "", err
	}

	out := strings.TrimSpace(string(body))
	if out == "" || strings.Contains(strings.ToLower(out), "unknown location") {
		return "", fmt.Errorf("no weather for '%s'", city)
	}
	return out, nil
}
