// Package sso declares the closed set of single sign-on providers a tenant
// may configure. The provider set is small and fixed, so it is a tagged
// variant rather than a plugin interface. Federation flows themselves are
// handled outside this subsystem.
package sso

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Provider is the enumerated SSO provider kind.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
	ProviderOkta      Provider = "okta"
	ProviderAuth0     Provider = "auth0"
	ProviderSAML      Provider = "saml"
)

func (p Provider) String() string { return string(p) }

// ParseProvider maps a stored provider string to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(strings.TrimSpace(strings.ToLower(s))) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderMicrosoft:
		return ProviderMicrosoft, nil
	case ProviderOkta:
		return ProviderOkta, nil
	case ProviderAuth0:
		return ProviderAuth0, nil
	case ProviderSAML:
		return ProviderSAML, nil
	default:
		return "", fmt.Errorf("unknown sso provider: %q", s)
	}
}

// ErrNotConfigured is returned when a tenant has no sso settings block.
var ErrNotConfigured = errors.New("sso: not configured")

// FromSettings decodes the sso block of a tenant's settings document. The
// client secret is never carried here; this is the read path only.
func FromSettings(settings map[string]any) (*Config, error) {
	raw, ok := settings["sso"]
	if !ok || raw == nil {
		return nil, ErrNotConfigured
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("sso: encode settings block: %w", err)
	}
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("sso: decode settings block: %w", err)
	}
	provider, err := ParseProvider(c.Provider.String())
	if err != nil {
		return nil, err
	}
	c.Provider = provider
	return &c, nil
}

// Config is one tenant's provider configuration.
type Config struct {
	Provider     Provider `json:"provider"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"-"`
	RedirectURI  string   `json:"redirect_uri"`
	Enabled      bool     `json:"enabled"`
}

// Validate checks the fields every provider kind requires. SAML carries its
// metadata in the client id slot (entity id) and needs no client secret.
func (c Config) Validate() error {
	if _, err := ParseProvider(c.Provider.String()); err != nil {
		return err
	}
	if strings.TrimSpace(c.ClientID) == "" {
		return errors.New("sso: client id is required")
	}
	if strings.TrimSpace(c.RedirectURI) == "" {
		return errors.New("sso: redirect uri is required")
	}
	if c.Provider != ProviderSAML && strings.TrimSpace(c.ClientSecret) == "" {
		return errors.New("sso: client secret is required")
	}
	return nil
}
