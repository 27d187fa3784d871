// /internal/integrations/define.go
package integrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"astrobot/internal/engine"
)

// define handles {{define word}} via the free dictionary API.
func (r *Registry) define(ctx context.Context, args string, _ *engine.MessageContext) (string, error) {
	word := strings.TrimSpace(args)
	if word == "" {
		return "", fmt.Errorf("usage: define <word>")
	}

	var entries []struct {
		Word     string `json:"word"`
		Meanings []struct {
			PartOfSpeech string `json:"partOfSpeech"`
			Definitions  []struct {
				Definition string `json:"definition"`
			} `json:"definitions"`
		} `json:"meanings"`
	}
	if err := r.getJSON(ctx, "https://api.dictionaryapi.dev/api/v2/entries/en/"+url.PathEscape(word), &entries); err != nil {
		return "", err
	}

	for _, entry := range entries {
		for _, meaning := range entry.Meanings {
			for _, def := range meaning.Definitions {
				if def.Definition != "" {
					return fmt.Sprintf("%s (%s): %s", entry.Word, meaning.PartOfSpeech, def.Definition), nil
				}
			}
		}
	}
	return "", fmt.Errorf("no definition found for '%s'", word)
}
