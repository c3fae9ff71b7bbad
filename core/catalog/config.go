package catalog

// Config holds configuration for the platform API connection.
type Config struct {
	// BaseURL is the root of the catalog API, e.g. https://api.example.com/v1.
	BaseURL string `mapstructure:"base_url" default:""`
	// TokenURL is the OAuth2 token endpoint. Defaults to BaseURL/oauth/token.
	TokenURL string `mapstructure:"token_url" default:""`
	// ClientID is the OAuth2 client id. When empty, requests go out
	// unauthenticated (local stubs, tests).
	ClientID string `mapstructure:"client_id" default:""`
	// ClientSecret is the OAuth2 client secret.
	ClientSecret string `mapstructure:"client_secret" default:""`
	// DealerID is sent with every request when the partner account manages
	// multiple dealers.
	DealerID string `mapstructure:"dealer_id" default:""`
	// TimeoutSeconds is the per-request timeout in seconds.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"10"`
}
