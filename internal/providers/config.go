package providers

import (
	"os"
	"time"

	"github.com/goccy/go-yaml"

	pkgerrors "github.com/parcelscope/parcelscope/pkg/errors"
	"github.com/parcelscope/parcelscope/pkg/properties"
)

// AuthType selects how a provider authenticates requests.
type AuthType string

// Supported authentication types.
const (
	AuthOAuth2 AuthType = "oauth2"  // client-credentials grant, bearer token
	AuthAPIKey AuthType = "api_key" // static key in a header
)

// Auth is a provider's authentication configuration. Secrets are referenced
// by environment variable name, never stored in the config itself.
type Auth struct {
	Type            AuthType `json:"type" yaml:"type"`
	TokenURL        string   `json:"token_url,omitempty" yaml:"token_url,omitempty"`
	ClientIDEnv     string   `json:"client_id_env,omitempty" yaml:"client_id_env,omitempty"`
	ClientSecretEnv string   `json:"client_secret_env,omitempty" yaml:"client_secret_env,omitempty"`
	Header          string   `json:"header,omitempty" yaml:"header,omitempty"`
	APIKeyEnv       string   `json:"api_key_env,omitempty" yaml:"api_key_env,omitempty"`
	Scopes          []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// RateLimit is a token-bucket limit on outgoing requests to a provider.
type RateLimit struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// Provider is one external provider's connection configuration.
type Provider struct {
	ID        properties.ProviderID `json:"id" yaml:"id"`
	Name      string                `json:"name" yaml:"name"`
	BaseURL   string                `json:"base_url" yaml:"base_url"`
	Auth      Auth                  `json:"auth" yaml:"auth"`
	RateLimit *RateLimit            `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
	Timeout   time.Duration         `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// APIKey resolves the provider's static API key from the environment.
func (p *Provider) APIKey() (string, error) {
	if p.Auth.APIKeyEnv == "" {
		return "", pkgerrors.NewConfigError(string(p.ID), "api_key_env not configured", nil)
	}
	key := os.Getenv(p.Auth.APIKeyEnv)
	if key == "" {
		return "", &pkgerrors.AuthenticationError{
			Provider: string(p.ID),
			Method:   "api_key",
			Message:  p.Auth.APIKeyEnv + " is not set",
			Err:      pkgerrors.ErrCredentialsRequired,
		}
	}
	return key, nil
}

// ClientCredentials resolves the provider's OAuth2 client credentials from
// the environment.
func (p *Provider) ClientCredentials() (id, secret string, err error) {
	id = os.Getenv(p.Auth.ClientIDEnv)
	secret = os.Getenv(p.Auth.ClientSecretEnv)
	if id == "" || secret == "" {
		return "", "", &pkgerrors.AuthenticationError{
			Provider: string(p.ID),
			Method:   "oauth2",
			Message:  "client credentials not set in environment",
			Err:      pkgerrors.ErrCredentialsRequired,
		}
	}
	return id, secret, nil
}

// Config is the full provider registry configuration.
type Config struct {
	Providers map[properties.ProviderID]*Provider `json:"providers" yaml:"providers"`
}

// Defaults returns the built-in provider registry. A YAML file can override
// any of it via Load.
func Defaults() *Config {
	return &Config{
		Providers: map[properties.ProviderID]*Provider{
			properties.ProviderLightbox: {
				ID:      properties.ProviderLightbox,
				Name:    "LightBox",
				BaseURL: "https://api.lightboxre.com/v1",
				Auth: Auth{
					Type:            AuthOAuth2,
					TokenURL:        "https://auth.lightboxre.com/oauth/token",
					ClientIDEnv:     "LIGHTBOX_CLIENT_ID",
					ClientSecretEnv: "LIGHTBOX_CLIENT_SECRET",
				},
				RateLimit: &RateLimit{RequestsPerSecond: 8, Burst: 10},
				Timeout:   10 * time.Second,
			},
			properties.ProviderRepliers: {
				ID:      properties.ProviderRepliers,
				Name:    "Repliers",
				BaseURL: "https://api.repliers.io",
				Auth: Auth{
					Type:      AuthAPIKey,
					Header:    "REPLIERS-API-KEY",
					APIKeyEnv: "REPLIERS_API_KEY",
				},
				RateLimit: &RateLimit{RequestsPerSecond: 5, Burst: 10},
				Timeout:   10 * time.Second,
			},
		},
	}
}

// Load reads a YAML registry file and merges it over the defaults. Providers
// present in the file replace the default entry wholesale.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.WrapIO("read", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return nil, pkgerrors.WrapParse("yaml", path, err)
	}

	for id, p := range overlay.Providers {
		if p.ID == "" {
			p.ID = id
		}
		cfg.Providers[id] = p
	}

	return cfg, nil
}

// Get returns a provider's configuration.
func (c *Config) Get(id properties.ProviderID) (*Provider, error) {
	p, ok := c.Providers[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("provider", string(id))
	}
	return p, nil
}
