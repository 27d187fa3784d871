// /internal/integrations/translate.go
package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"astrobot/internal/engine"
)

// translate handles {{translate from to text}}. "auto" works as the source
// language.
func (r *Registry) translate(ctx context.Context, args string, _ *engine.MessageContext) (string, error) {
	parts := strings.SplitN(strings.TrimSpace(args), " ", 3)
	if len(parts) < 3 {
		return "", fmt.Errorf("usage: translate <from> <to> <text>")
	}
	from, to, text := parts[0], parts[1], parts[2]

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", from)
	params.Set("tl", to)
	params.Set("dt", "t")
	params.Set("q", text)

	body, err := r.getBody(ctx, "https://translate.googleapis.com/translate_a/single?"+params.Encode())
	if err != nil {
		return "", err
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("unmarshal error: %w", err)
	}

	arr, ok := raw.([]interface{})
	if !ok || len(arr) < 1 {
		return "", fmt.Errorf("unexpected top-level structure")
	}
	sentences, ok := arr[0].([]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected sentences structure")
	}

	var translated strings.Builder
	for _, part := range sentences {
		pair, ok := part.([]interface{})
		if !ok || len(pair) < 1 {
			continue
		}
		if str, ok := pair[0].(string); ok {
			translated.WriteString(str)
		}
	}

	return translated.String(), nil
}
