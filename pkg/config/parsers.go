package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

const envPrefix = "GHOSTLINE_"

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the results of applying environment overrides
type EnvResult struct {
	EnvUsed bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	Source string // "flags", "config", "env" or "defaults"
}

// parses command-line flags and returns them as a Flags struct
func ParseConfigFlags() Flags {
	f, _ := parseFlags(flag.CommandLine, os.Args[1:])
	return f
}

func parseFlags(fset *flag.FlagSet, args []string) (Flags, error) {
	addrPtr := fset.String("addr", ":8080", "HTTP listen address")
	dbPtr := fset.String("db", "./.ghostline", "Pebble DB path")
	cfgPtr := fset.String("config", "./config.yaml", "Path to config file")
	if err := fset.Parse(args); err != nil {
		return Flags{}, err
	}

	// record which flags were set explicitly
	setFlags := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })
	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// loads config from file, returns config, found bool, and error
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

func parseList(v string) []string {
	if v == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func splitAddr(v string) (string, int) {
	h, p, err := net.SplitHostPort(v)
	if err != nil {
		return v, 0
	}
	pi, _ := strconv.Atoi(p)
	return h, pi
}

// loads environment variables into a new Config; unparsable values are
// ignored the same way unset ones are
func ParseConfigEnvs() (*Config, EnvResult) {
	get := func(name string) string { return os.Getenv(envPrefix + name) }
	names := []string{
		"ADDR", "SERVER_ADDRESS", "SERVER_PORT", "DB_PATH",
		"TLS_CERT", "TLS_KEY",
		"RATE_RPS", "RATE_BURST",
		"API_BACKEND_KEYS", "API_FRONTEND_KEYS", "API_ADMIN_KEYS",
		"LOG_LEVEL", "AUDIT",
		"RETENTION_ENABLED", "RETENTION_INTERVAL", "RETENTION_CRON",
		"RETENTION_BATCH_SIZE", "RETENTION_BATCH_TIMEOUT", "RETENTION_WORKERS",
		"RETENTION_GHOST_COUNTDOWN", "RETENTION_DRY_RUN", "RETENTION_PAUSED",
		"STORE_CACHE_SIZE", "STORE_DISABLE_WAL",
		"SENSOR_POLL_INTERVAL", "SENSOR_DISK_HIGH_PCT", "SENSOR_DISK_LOW_PCT", "SENSOR_RECOVERY_WINDOW",
	}
	envUsed := false
	for _, n := range names {
		if get(n) != "" {
			envUsed = true
			break
		}
	}
	envCfg := &Config{}

	if v := get("ADDR"); v != "" {
		envCfg.Server.Address, envCfg.Server.Port = splitAddr(v)
	} else {
		envCfg.Server.Address = get("SERVER_ADDRESS")
		if pi, err := strconv.Atoi(get("SERVER_PORT")); err == nil {
			envCfg.Server.Port = pi
		}
	}
	envCfg.Server.DBPath = get("DB_PATH")
	envCfg.Server.TLS.CertFile = get("TLS_CERT")
	envCfg.Server.TLS.KeyFile = get("TLS_KEY")

	if f, err := strconv.ParseFloat(strings.TrimSpace(get("RATE_RPS")), 64); err == nil {
		envCfg.Security.RateLimit.RPS = f
	}
	if n, err := strconv.Atoi(strings.TrimSpace(get("RATE_BURST"))); err == nil {
		envCfg.Security.RateLimit.Burst = n
	}
	envCfg.Security.APIKeys.Backend = parseList(get("API_BACKEND_KEYS"))
	envCfg.Security.APIKeys.Frontend = parseList(get("API_FRONTEND_KEYS"))
	envCfg.Security.APIKeys.Admin = parseList(get("API_ADMIN_KEYS"))

	envCfg.Logging.Level = strings.TrimSpace(get("LOG_LEVEL"))
	if v := get("AUDIT"); v != "" {
		b := parseBool(v)
		envCfg.Logging.Audit = &b
	}

	r := &envCfg.Retention
	if v := get("RETENTION_ENABLED"); v != "" {
		b := parseBool(v)
		r.Enabled = &b
	}
	r.Interval, _ = parseDuration(get("RETENTION_INTERVAL"))
	r.Cron = strings.TrimSpace(get("RETENTION_CRON"))
	if n, err := strconv.Atoi(strings.TrimSpace(get("RETENTION_BATCH_SIZE"))); err == nil {
		r.BatchSize = n
	}
	r.BatchTimeout, _ = parseDuration(get("RETENTION_BATCH_TIMEOUT"))
	if n, err := strconv.Atoi(strings.TrimSpace(get("RETENTION_WORKERS"))); err == nil {
		r.Workers = n
	}
	r.GhostCountdown, _ = parseDuration(get("RETENTION_GHOST_COUNTDOWN"))
	r.DryRun = parseBool(get("RETENTION_DRY_RUN"))
	r.Paused = parseBool(get("RETENTION_PAUSED"))

	envCfg.Store.CacheSize, _ = parseSize(get("STORE_CACHE_SIZE"))
	envCfg.Store.DisableWAL = parseBool(get("STORE_DISABLE_WAL"))

	sn := &envCfg.Sensor
	sn.PollInterval, _ = parseDuration(get("SENSOR_POLL_INTERVAL"))
	if n, err := strconv.Atoi(strings.TrimSpace(get("SENSOR_DISK_HIGH_PCT"))); err == nil {
		sn.DiskHighPct = n
	}
	if n, err := strconv.Atoi(strings.TrimSpace(get("SENSOR_DISK_LOW_PCT"))); err == nil {
		sn.DiskLowPct = n
	}
	sn.RecoveryWindow, _ = parseDuration(get("SENSOR_RECOVERY_WINDOW"))

	return envCfg, EnvResult{EnvUsed: envUsed}
}

// decides which single source to use (flags, config file, or env) and
// returns the effective config plus resolved addr and dbPath. If --config
// is set, only the config file is used; otherwise flags if set; else config
// file if present; else env. Flags only replace addr and db on top of the
// file or env config.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envRes EnvResult) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	if fileCfg == nil {
		fileCfg = &Config{}
	}
	if envCfg == nil {
		envCfg = &Config{}
	}

	if flags.Set["config"] {
		if !fileExists {
			return res, fmt.Errorf("config file %s not found", flags.Config)
		}
		res.Config = fileCfg
		res.Addr = fileCfg.Addr()
		res.DBPath = fileCfg.Server.DBPath
		res.Source = "config"
		return res, nil
	}

	base := envCfg
	if fileExists {
		base = fileCfg
	}

	if flags.Set["addr"] || flags.Set["db"] {
		out := *base
		addr := base.Addr()
		if flags.Set["addr"] {
			addr = flags.Addr
			out.Server.Address, out.Server.Port = splitAddr(addr)
		}
		dbPath := strings.TrimSpace(base.Server.DBPath)
		if flags.Set["db"] || dbPath == "" {
			dbPath = flags.DB
		}
		out.Server.DBPath = dbPath
		res.Config = &out
		res.Addr = addr
		res.DBPath = dbPath
		res.Source = "flags"
		return res, nil
	}

	res.Config = base
	res.Addr = base.Addr()
	res.DBPath = base.Server.DBPath
	res.Source = "config"
	if !fileExists {
		res.Source = "env"
		if !envRes.EnvUsed {
			res.Source = "defaults"
		}
	}
	if res.DBPath == "" {
		res.DBPath = flags.DB
		base.Server.DBPath = flags.DB
	}
	return res, nil
}
