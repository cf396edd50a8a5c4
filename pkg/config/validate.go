package config

import (
	"fmt"
	"os"

	"github.com/adhocore/gronx"
)

// ValidateConfig applies defaults to eff.Config and fails fast on the
// first invalid section.
func ValidateConfig(eff EffectiveConfigResult) error {
	cfg := eff.Config
	if cfg == nil {
		return fmt.Errorf("effective config is nil")
	}
	if eff.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, GHOSTLINE_DB_PATH env, or server.db_path in config")
	}
	cfg.ApplyDefaults()

	for _, check := range []func(*Config) error{
		validateTLS,
		validateKeys,
		validateRetention,
		validateSensor,
	} {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateTLS(cfg *Config) error {
	cert, key := cfg.Server.TLS.CertFile, cfg.Server.TLS.KeyFile
	if cert == "" && key == "" {
		return nil
	}
	if cert == "" || key == "" {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if _, err := os.Stat(cert); err != nil {
		return fmt.Errorf("tls cert file not accessible: %w", err)
	}
	if _, err := os.Stat(key); err != nil {
		return fmt.Errorf("tls key file not accessible: %w", err)
	}
	return nil
}

// validateKeys rejects a key listed under two roles; the gateway would
// otherwise pick one silently.
func validateKeys(cfg *Config) error {
	seen := map[string]string{}
	keys := cfg.Security.APIKeys
	for role, list := range map[string][]string{"backend": keys.Backend, "frontend": keys.Frontend, "admin": keys.Admin} {
		for _, k := range list {
			if k == "" {
				return fmt.Errorf("security.api_keys.%s contains an empty key", role)
			}
			if other, dup := seen[k]; dup && other != role {
				return fmt.Errorf("api key listed as both %s and %s", other, role)
			}
			seen[k] = role
		}
	}
	return nil
}

func validateRetention(cfg *Config) error {
	ret := cfg.Retention
	if ret.Cron != "" && !gronx.New().IsValid(ret.Cron) {
		return fmt.Errorf("invalid retention.cron %q: not a valid cron expression", ret.Cron)
	}
	if ret.Interval.Duration() < minRetentionInterval {
		return fmt.Errorf("retention.interval %s is below the minimum of %s", ret.Interval, minRetentionInterval)
	}
	if ret.GhostCountdown.Duration() < 0 {
		return fmt.Errorf("retention.ghost_countdown must be positive")
	}
	return nil
}

func validateSensor(cfg *Config) error {
	sn := cfg.Sensor
	if sn.DiskHighPct > 100 || sn.DiskLowPct >= sn.DiskHighPct {
		return fmt.Errorf("sensor thresholds invalid: need disk_low_pct < disk_high_pct <= 100 (got %d/%d)", sn.DiskLowPct, sn.DiskHighPct)
	}
	if sn.PollInterval.Duration() < 0 || sn.RecoveryWindow.Duration() < 0 {
		return fmt.Errorf("sensor durations must be positive")
	}
	return nil
}
