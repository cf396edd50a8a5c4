package config

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort = 8080

	defaultRateRPS   = 1000
	defaultRateBurst = 1000

	// Retention defaults
	defaultRetentionInterval     = 30 * time.Second
	defaultRetentionBatchSize    = 500
	defaultRetentionBatchTimeout = 10 * time.Second
	defaultRetentionWorkers      = 4
	defaultGhostCountdown        = 30 * time.Second
	minRetentionInterval         = time.Second

	defaultStoreCacheSize = 64 << 20 // 64 MiB

	defaultSensorPoll     = 15 * time.Second
	defaultDiskHighPct    = 90
	defaultDiskLowPct     = 80
	defaultSensorRecovery = time.Minute
)

var (
	runtimeMu  sync.RWMutex
	runtimeCfg *RuntimeConfig
)

// SetRuntime sets the global runtime config.
func SetRuntime(rc *RuntimeConfig) {
	runtimeMu.Lock()
	defer runtimeMu.Unlock()
	runtimeCfg = rc
}

func copyKeys(pick func(*RuntimeConfig) map[string]struct{}) map[string]struct{} {
	runtimeMu.RLock()
	defer runtimeMu.RUnlock()
	out := make(map[string]struct{})
	if runtimeCfg == nil {
		return out
	}
	for k := range pick(runtimeCfg) {
		out[k] = struct{}{}
	}
	return out
}

// GetBackendKeys returns a copy of backend API keys.
func GetBackendKeys() map[string]struct{} {
	return copyKeys(func(rc *RuntimeConfig) map[string]struct{} { return rc.BackendKeys })
}

// GetFrontendKeys returns a copy of frontend API keys.
func GetFrontendKeys() map[string]struct{} {
	return copyKeys(func(rc *RuntimeConfig) map[string]struct{} { return rc.FrontendKeys })
}

// GetAdminKeys returns a copy of admin API keys.
func GetAdminKeys() map[string]struct{} {
	return copyKeys(func(rc *RuntimeConfig) map[string]struct{} { return rc.AdminKeys })
}

// GetSigningKeys returns a copy of signing keys.
func GetSigningKeys() map[string]struct{} {
	return copyKeys(func(rc *RuntimeConfig) map[string]struct{} { return rc.SigningKeys })
}

// BuildRuntime collects the key sets of c. Backend keys double as HMAC
// signing keys.
func BuildRuntime(c *Config) *RuntimeConfig {
	set := func(keys []string) map[string]struct{} {
		m := make(map[string]struct{}, len(keys))
		for _, k := range keys {
			m[k] = struct{}{}
		}
		return m
	}
	return &RuntimeConfig{
		BackendKeys:  set(c.Security.APIKeys.Backend),
		FrontendKeys: set(c.Security.APIKeys.Frontend),
		AdminKeys:    set(c.Security.APIKeys.Admin),
		SigningKeys:  set(c.Security.APIKeys.Backend),
	}
}

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = "0.0.0.0"
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyDefaults fills every unset value.
func (c *Config) ApplyDefaults() {
	if c.Security.RateLimit.RPS <= 0 {
		c.Security.RateLimit.RPS = defaultRateRPS
	}
	if c.Security.RateLimit.Burst <= 0 {
		c.Security.RateLimit.Burst = defaultRateBurst
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}

	r := &c.Retention
	if r.Interval.Duration() == 0 {
		r.Interval = Duration(defaultRetentionInterval)
	}
	if r.BatchSize <= 0 {
		r.BatchSize = defaultRetentionBatchSize
	}
	if r.BatchTimeout.Duration() == 0 {
		r.BatchTimeout = Duration(defaultRetentionBatchTimeout)
	}
	if r.Workers <= 0 {
		r.Workers = defaultRetentionWorkers
	}
	if r.GhostCountdown.Duration() == 0 {
		r.GhostCountdown = Duration(defaultGhostCountdown)
	}

	if c.Store.CacheSize <= 0 {
		c.Store.CacheSize = SizeBytes(defaultStoreCacheSize)
	}

	sn := &c.Sensor
	if sn.PollInterval.Duration() == 0 {
		sn.PollInterval = Duration(defaultSensorPoll)
	}
	if sn.DiskHighPct <= 0 {
		sn.DiskHighPct = defaultDiskHighPct
	}
	if sn.DiskLowPct <= 0 {
		sn.DiskLowPct = defaultDiskLowPct
	}
	if sn.RecoveryWindow.Duration() == 0 {
		sn.RecoveryWindow = Duration(defaultSensorRecovery)
	}
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv("GHOSTLINE_CONFIG"); p != "" {
		return p
	}
	return flagPath
}
