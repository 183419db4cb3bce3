package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "CARDKEEPER_"

// envConfig lists the CARDKEEPER_* variables. Unset variables leave their
// pointer nil.
type envConfig struct {
	APIBaseURL           *string        `env:"API_URL"`
	GRPCAddress          *string        `env:"GRPC_ADDRESS"`
	StorePath            *string        `env:"STORE_PATH"`
	SigningSecret        *string        `env:"SIGNING_SECRET"`
	CredentialPassphrase *string        `env:"CREDENTIAL_PASSPHRASE"`
	PageSize             *int           `env:"PAGE_SIZE"`
	RequestTimeout       *time.Duration `env:"REQUEST_TIMEOUT"`
	UnreadPollInterval   *time.Duration `env:"UNREAD_POLL_INTERVAL"`
	LogLevel             *string        `env:"LOG_LEVEL"`
}

func parseEnv(cfg *Config, environ map[string]string) error {
	var ec envConfig
	opts := env.Options{Prefix: envPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&ec, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	setIf(&cfg.APIBaseURL, ec.APIBaseURL)
	setIf(&cfg.GRPCAddress, ec.GRPCAddress)
	setIf(&cfg.StorePath, ec.StorePath)
	setIf(&cfg.SigningSecret, ec.SigningSecret)
	setIf(&cfg.CredentialPassphrase, ec.CredentialPassphrase)
	setIf(&cfg.PageSize, ec.PageSize)
	setIf(&cfg.RequestTimeout, ec.RequestTimeout)
	setIf(&cfg.UnreadPollInterval, ec.UnreadPollInterval)
	setIf(&cfg.LogLevel, ec.LogLevel)
	return nil
}
