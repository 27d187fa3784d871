// /internal/integrations/wiki.go
package integrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"astrobot/internal/engine"
)

// wiki handles {{wiki topic}} via the Wikipedia REST summary endpoint.
func (r *Registry) wiki(ctx context.Context, args string, _ *engine.MessageContext) (string, error) {
	topic := strings.TrimSpace(args)
	if topic == "" {
		return "", fmt.Errorf("usage: wiki <topic>")
	}

	var summary struct {
		Title   string `json:"title"`
		Extract string `json:"extract"`
	}
	endpoint := "https://en.wikipedia.org/api/rest_v1/page/summary/" + url.PathEscape(strings.ReplaceAll(topic, " ", "_"))
	if err := r.getJSON(ctx, endpoint, &summary); err != nil {
		return "", err
	}

	if summary.Extract == "" {
		return "", fmt.Errorf("no article found for '%s'", topic)
	}

	extract := summary.Extract
	if len(extract) > 800 {
		extract = extract[:800] + "..."
	}
	return extract, nil
}
