package ebay

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/flipflow/flipflow/internal/config"
)

// newTokenSource builds an auto-refreshing token source from the
// long-lived user refresh token. The marketplace mints short-lived
// access tokens against it; oauth2 caches each one until expiry.
func newTokenSource(ctx context.Context, cfg config.EbayConfig, baseURL string) oauth2.TokenSource {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  baseURL + "/identity/v1/oauth2/token",
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	return conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
}
