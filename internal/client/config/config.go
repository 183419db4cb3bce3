package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the cardkeeper CLI.
type Config struct {
	APIBaseURL string
	// GRPCAddress, when set, selects the gRPC transport instead of HTTP.
	GRPCAddress string
	StorePath   string

	// SigningSecret is used only when the session did not issue one.
	SigningSecret string
	// CredentialPassphrase, when set, seals the stored bearer credential.
	CredentialPassphrase string

	PageSize           int
	RequestTimeout     time.Duration
	UnreadPollInterval time.Duration
	LogLevel           string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.StorePath = "cardkeeper.db"
	c.PageSize = 10
	c.RequestTimeout = 10 * time.Second
	c.UnreadPollInterval = 30 * time.Second
	c.LogLevel = "info"
}

// LoadConfig builds a Config from defaults, the JSON file, the environment
// and the process arguments, later sources taking precedence.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], nil)
}

// Load is LoadConfig with explicit arguments. A nil environ reads the
// process environment.
func Load(args []string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
