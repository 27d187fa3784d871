// Package integrations implements the named external data blocks templates
// can call ({{weather city}}, {{translate en ru text}}, ...). All providers
// are keyless public endpoints; outbound calls share one HTTP client and one
// adaptive rate limiter.
package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"astrobot/internal/ai"
	"astrobot/internal/engine"
	"astrobot/pkg/retrylimit"
)

type handlerFunc func(ctx context.Context, args string, mc *engine.MessageContext) (string, error)

// Registry routes integration names to their handlers. It satisfies the
// engine's resolver contract.
type Registry struct {
	client   *http.Client
	limiter  *retrylimit.AdaptiveLimiter
	ai       ai.Provider
	handlers map[string]handlerFunc
}

// New builds the registry. aiProvider may be nil, in which case the ai block
// reports an error instead of calling out.
func New(aiProvider ai.Provider) *Registry {
	r := &Registry{
		client:  &http.Client{Timeout: 15 * time.Second},
		limiter: retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5),
		ai:      aiProvider,
	}
	r.handlers = map[string]handlerFunc{
		"weather":    r.weather,
		"jokes":      r.jokes,
		"randomfact": r.randomFact,
		"translate":  r.translate,
		"define":     r.define,
		"crypto":     r.crypto,
		"wiki":       r.wiki,
		"ai":         r.askAI,
	}
	return r
}

// Known reports whether name is a registered integration.
func (r *Registry) Known(name string) bool {
	_, ok := r.handlers[name]
	return ok
}

// Resolve runs the named integration with the given argument text.
func (r *Registry) Resolve(ctx context.Context, name, args string, mc *engine.MessageContext) (string, error) {
	handler, ok := r.handlers[name]
	if !ok {
		return "", fmt.Errorf("unknown integration '%s'", name)
	}
	return handler(ctx, args, mc)
}

// getJSON fetches url and decodes the response into target, retrying through
// the shared limiter.
func (r *Registry) getJSON(ctx context.Context, url string, target any) error {
	body, err := r.getBody(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}
	return nil
}

func (r *Registry) getBody(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := retrylimit.WithRetryMax(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "Mozilla/5.0")

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 256*1024))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &retrylimit.StatusError{Code: resp.StatusCode, Body: truncate(data)}
		}
		body = data
		return nil
	}, r.limiter, 3)
	return body, err
}

func truncate(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
