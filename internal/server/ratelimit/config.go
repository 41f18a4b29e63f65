package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from ONEPAGE_RATE_LIMIT_* environment variables.
func LoadConfig() *Config {
	if !env("ONEPAGE_RATE_LIMIT_ENABLED", true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    env("ONEPAGE_RATE_LIMIT_DEFAULT_LIMIT", 600, strconv.Atoi),
		DefaultWindow:   env("ONEPAGE_RATE_LIMIT_DEFAULT_WINDOW", time.Minute, time.ParseDuration),
		CleanupInterval: env("ONEPAGE_RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute, time.ParseDuration),
		Whitelist:       parseIPList(env("ONEPAGE_RATE_LIMIT_WHITELIST", "", identity)),
		Blacklist:       parseIPList(env("ONEPAGE_RATE_LIMIT_BLACKLIST", "", identity)),
		EndpointConfigs: DefaultEndpointConfigs(env("ONEPAGE_RATE_LIMIT_FITS_PER_HOUR", 30, strconv.Atoi)),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. Fit submissions
// compile LaTeX several times and get the strictest limit.
func DefaultEndpointConfigs(fitsPerHour int) []EndpointConfig {
	return []EndpointConfig{
		{Path: "/fits", Method: "POST", Limit: fitsPerHour, Window: time.Hour, Burst: 5},
		{Path: "/fits/stream", Method: "POST", Limit: fitsPerHour, Window: time.Hour, Burst: 5},
		{Path: "/fits/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

// env reads key with parse, keeping def when the variable is unset or malformed.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func identity(s string) (string, error) { return s, nil }

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
