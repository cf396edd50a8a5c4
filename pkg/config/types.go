package config

// RuntimeConfig holds runtime key sets for use by other packages.
type RuntimeConfig struct {
	BackendKeys  map[string]struct{}
	FrontendKeys map[string]struct{}
	AdminKeys    map[string]struct{}
	SigningKeys  map[string]struct{}
}

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Security  SecurityConfig  `yaml:"security"`
	Logging   LoggingConfig   `yaml:"logging"`
	Retention RetentionConfig `yaml:"retention"`
	Store     StoreConfig     `yaml:"store"`
	Sensor    SensorConfig    `yaml:"sensor"`
}

// ServerConfig holds http and tls settings.
type ServerConfig struct {
	Address string    `yaml:"address"`
	Port    int       `yaml:"port"`
	DBPath  string    `yaml:"db_path"`
	TLS     TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate configuration.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// SecurityConfig holds api keys and request limits.
type SecurityConfig struct {
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	APIKeys struct {
		Backend  []string `yaml:"backend"`
		Frontend []string `yaml:"frontend"`
		Admin    []string `yaml:"admin"`
	} `yaml:"api_keys"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
	// Audit writes tombstones, expirations, deletions and grant changes
	// to <db>/state/audit.
	Audit *bool `yaml:"audit"`
}

// AuditEnabled defaults to true.
func (l LoggingConfig) AuditEnabled() bool {
	return l.Audit == nil || *l.Audit
}

// RetentionConfig controls the background sweep.
type RetentionConfig struct {
	Enabled *bool `yaml:"enabled"`
	// Interval between sweeps. Ignored when Cron is set.
	Interval       Duration `yaml:"interval"`
	Cron           string   `yaml:"cron"`
	BatchSize      int      `yaml:"batch_size"`
	BatchTimeout   Duration `yaml:"batch_timeout"`
	Workers        int      `yaml:"workers"`
	GhostCountdown Duration `yaml:"ghost_countdown"`
	DryRun         bool     `yaml:"dry_run"`
	Paused         bool     `yaml:"paused"`
}

// IsEnabled defaults to true.
func (r RetentionConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// StoreConfig tunes the pebble store.
type StoreConfig struct {
	CacheSize  SizeBytes `yaml:"cache_size"`
	DisableWAL bool      `yaml:"disable_wal"`
}

// SensorConfig controls the disk pressure watchdog on the db path.
type SensorConfig struct {
	PollInterval Duration `yaml:"poll_interval"`
	// Alert above DiskHighPct used; clear once below DiskLowPct for
	// RecoveryWindow.
	DiskHighPct    int      `yaml:"disk_high_pct"`
	DiskLowPct     int      `yaml:"disk_low_pct"`
	RecoveryWindow Duration `yaml:"recovery_window"`
}
