package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// Set at link time with -ldflags "-X ghostline/cmd/ghostctl/cmd.version=...".
var (
	version = "dev"
	commit  = "unknown"
)

const defaultServer = "http://localhost:8080"

// globals holds the persistent flags every remote command shares, after
// resolve has merged in the environment and the config file.
var globals struct {
	config   string
	server   string
	adminKey string
	timeout  time.Duration
	output   string
}

var rootCmd = &cobra.Command{
	Use:           "ghostctl",
	Short:         "Operator tool for a ghostline server",
	Version:       version + " (commit: " + commit + ")",
	SilenceUsage:  true,
	SilenceErrors: true,
	Long: `ghostctl talks to the admin API of a running ghostline server to
trigger retention sweeps, read sweep status and fetch raw message
records. "ghostctl inspect" reads a stopped database directly.

Settings resolve in order: flags, GHOSTCTL_SERVER / GHOSTCTL_ADMIN_KEY,
the config file, then built-in defaults.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return resolve(cmd)
	},
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&globals.config, "config", "c", "", "config file (default $HOME/.ghostctl.yaml)")
	pf.StringVar(&globals.server, "server", defaultServer, "ghostline base URL")
	pf.StringVar(&globals.adminKey, "admin-key", "", "admin API key")
	pf.DurationVar(&globals.timeout, "timeout", defaultTimeout, "request timeout")
	pf.StringVarP(&globals.output, "output", "o", outputText, "output format: text, json or yaml")
}

// Execute runs ghostctl and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// resolve fills every flag the user did not pass from the environment or
// the config file.
func resolve(cmd *cobra.Command) error {
	fc, err := loadFileConfig(globals.config)
	if err != nil {
		return err
	}
	changed := cmd.Flags().Changed

	if !changed("server") {
		globals.server = firstNonEmpty(os.Getenv("GHOSTCTL_SERVER"), fc.Server, defaultServer)
	}
	if !changed("admin-key") {
		globals.adminKey = firstNonEmpty(os.Getenv("GHOSTCTL_ADMIN_KEY"), fc.AdminKey)
	}
	if !changed("timeout") && fc.Timeout != "" {
		d, err := time.ParseDuration(fc.Timeout)
		if err != nil {
			return fmt.Errorf("config timeout %q: %w", fc.Timeout, err)
		}
		globals.timeout = d
	}
	if !changed("output") && fc.Output != "" {
		globals.output = fc.Output
	}
	switch globals.output {
	case outputText, outputJSON, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q", globals.output)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// clientFromFlags builds the admin client for cmd.
func clientFromFlags(cmd *cobra.Command) (*Client, error) {
	if globals.adminKey == "" {
		return nil, fmt.Errorf("%s: admin key required: pass --admin-key, set GHOSTCTL_ADMIN_KEY or admin_key in the config file", cmd.CommandPath())
	}
	return NewClient(globals.server, globals.adminKey, globals.timeout), nil
}
