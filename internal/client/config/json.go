package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
	"github.com/dmitrijs2005/cardkeeper/internal/timex"
)

// jsonConfig is the on-disk shape. Pointer fields distinguish absent keys
// from zero values so a partial file only overrides what it names.
type jsonConfig struct {
	APIBaseURL           *string         `json:"api_base_url"`
	GRPCAddress          *string         `json:"grpc_address"`
	StorePath            *string         `json:"store_path"`
	SigningSecret        *string         `json:"signing_secret"`
	CredentialPassphrase *string         `json:"credential_passphrase"`
	PageSize             *int            `json:"page_size"`
	RequestTimeout       *timex.Duration `json:"request_timeout"`
	UnreadPollInterval   *timex.Duration `json:"unread_poll_interval"`
	LogLevel             *string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c/-config, if any.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setIf(&cfg.APIBaseURL, jc.APIBaseURL)
	setIf(&cfg.GRPCAddress, jc.GRPCAddress)
	setIf(&cfg.StorePath, jc.StorePath)
	setIf(&cfg.SigningSecret, jc.SigningSecret)
	setIf(&cfg.CredentialPassphrase, jc.CredentialPassphrase)
	setIf(&cfg.PageSize, jc.PageSize)
	setIf(&cfg.LogLevel, jc.LogLevel)
	if jc.RequestTimeout != nil {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.UnreadPollInterval != nil {
		cfg.UnreadPollInterval = jc.UnreadPollInterval.Duration
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
