package config

import (
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/cardkeeper/internal/flagx"
)

var knownFlags = []string{"-a", "-g", "-d", "-s", "-k", "-p", "-t", "-i", "-l"}

// parseFlags populates Config fields from command-line flags. Arguments not
// listed in knownFlags are filtered out first with flagx.FilterArgs.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("cardkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "base URL of the account API")
	fs.StringVar(&cfg.GRPCAddress, "g", cfg.GRPCAddress, "address of the gRPC account service")
	fs.StringVar(&cfg.StorePath, "d", cfg.StorePath, "path of the local store")
	fs.StringVar(&cfg.SigningSecret, "s", cfg.SigningSecret, "fallback request signing secret")
	fs.StringVar(&cfg.CredentialPassphrase, "k", cfg.CredentialPassphrase, "passphrase sealing stored credentials")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "list page size")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	pollInterval := fs.Int("i", int(cfg.UnreadPollInterval.Seconds()), "unread poll interval (in seconds)")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.UnreadPollInterval = time.Duration(*pollInterval) * time.Second
		}
	})
	if cfg.PageSize <= 0 {
		return fmt.Errorf("page size must be positive, got %d", cfg.PageSize)
	}
	return nil
}
