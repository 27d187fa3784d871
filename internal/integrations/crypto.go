// /internal/integrations/crypto.go
package integrations

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"astrobot/internal/engine"
)

// crypto handles {{crypto coin}} with coin IDs as CoinGecko knows them
// (bitcoin, ethereum, ...).
func (r *Registry) crypto(ctx context.Context, args string, _ *engine.MessageContext) (string, error) {
	coin := strings.ToLower(strings.TrimSpace(args))
	if coin == "" {
		coin = "bitcoin"
	}

	var prices map[string]struct {
		USD float64 `json:"usd"`
	}
	endpoint := "https://api.coingecko.com/api/v3/simple/price?vs_currencies=usd&ids=" + url.QueryEscape(coin)
	if err := r.getJSON(ctx, endpoint, &prices); err != nil {
		return "", err
	}

	price, ok := prices[coin]
	if !ok {
		return "", fmt.Errorf("unknown coin '%s'", coin)
	}
	return fmt.Sprintf("%s: $%.2f", coin, price.USD), nil
}
