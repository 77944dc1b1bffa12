package supabase

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// Config holds the backend endpoint and API keys. The service role key is
// optional; without it the elevated handle is simply absent.
type Config struct {
	// URL is the project endpoint, e.g. "https://xyzcompany.supabase.co".
	URL string

	// AnonKey authenticates the standard handle as the public role.
	AnonKey string

	// ServiceRoleKey authenticates the elevated handle. Bypasses row-level
	// policies; used only for privilege-repair writes.
	ServiceRoleKey string

	// Debug enables masked config summaries and verbose client logging.
	Debug bool
}

// FromEnv reads the configuration from the process environment. Missing
// values are not an error here; Validate reports them and construction
// degrades so calls fail at the network layer instead of at startup.
func FromEnv() Config {
	return Config{
		URL:            strings.TrimSpace(os.Getenv("SUPABASE_URL")),
		AnonKey:        strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		ServiceRoleKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
		Debug:          os.Getenv("DASHBOARD_DEBUG") == "true",
	}
}

// Validate checks the required values.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.URL, validation.Required, is.URL),
		validation.Field(&c.AnonKey, validation.Required),
	)
}

// HasElevated reports whether a service role secret is configured.
func (c Config) HasElevated() bool {
	return c.ServiceRoleKey != ""
}

// Summary returns a masked description safe to log: endpoint host plus key
// presence and prefix, never the key material.
func (c Config) Summary() string {
	host := c.URL
	if u, err := url.Parse(c.URL); err == nil && u.Host != "" {
		host = u.Host
	}
	return fmt.Sprintf("endpoint=%s anon_key=%s service_key=%s",
		orMissing(host),
		maskKey(c.AnonKey),
		maskKey(c.ServiceRoleKey),
	)
}

func orMissing(s string) string {
	if s == "" {
		return "(missing)"
	}
	return s
}

func maskKey(key string) string {
	if key == "" {
		return "(missing)"
	}
	if len(key) <= 8 {
		return "set"
	}
	return key[:8] + "..."
}
