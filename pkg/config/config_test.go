package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadConfigFile(t *testing.T) {
	p := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  db_path: /var/lib/ghostline
security:
  api_keys:
    backend: [sk_one]
    admin: [ak_one]
retention:
  interval: 45s
  ghost_countdown: 10
  batch_size: 100
store:
  cache_size: 128MB
`)
	cfg, err := LoadConfigFile(p)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Addr())
	assert.Equal(t, 45*time.Second, cfg.Retention.Interval.Duration())
	assert.Equal(t, 10*time.Second, cfg.Retention.GhostCountdown.Duration())
	assert.Equal(t, int64(128_000_000), cfg.Store.CacheSize.Int64())
	assert.True(t, cfg.Retention.IsEnabled())
	assert.True(t, cfg.Logging.AuditEnabled())

	rc := BuildRuntime(cfg)
	SetRuntime(rc)
	t.Cleanup(func() { SetRuntime(nil) })
	assert.Contains(t, GetBackendKeys(), "sk_one")
	assert.Contains(t, GetSigningKeys(), "sk_one")
	assert.Contains(t, GetAdminKeys(), "ak_one")
	assert.Empty(t, GetFrontendKeys())
}

func TestLoadConfigFileRejectsBadValues(t *testing.T) {
	p := writeConfig(t, "retention:\n  interval: soon\n")
	_, err := LoadConfigFile(p)
	assert.Error(t, err)
}

func TestParseConfigEnvs(t *testing.T) {
	t.Setenv("GHOSTLINE_ADDR", "0.0.0.0:7070")
	t.Setenv("GHOSTLINE_DB_PATH", "/tmp/gl")
	t.Setenv("GHOSTLINE_API_FRONTEND_KEYS", "pk_a, pk_b ,")
	t.Setenv("GHOSTLINE_RETENTION_ENABLED", "false")
	t.Setenv("GHOSTLINE_RETENTION_CRON", "*/5 * * * *")
	t.Setenv("GHOSTLINE_STORE_CACHE_SIZE", "1GiB")

	cfg, res := ParseConfigEnvs()
	assert.True(t, res.EnvUsed)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/tmp/gl", cfg.Server.DBPath)
	assert.Equal(t, []string{"pk_a", "pk_b"}, cfg.Security.APIKeys.Frontend)
	assert.False(t, cfg.Retention.IsEnabled())
	assert.Equal(t, "*/5 * * * *", cfg.Retention.Cron)
	assert.Equal(t, int64(1<<30), cfg.Store.CacheSize.Int64())
}

func TestLoadEffectiveConfigPrecedence(t *testing.T) {
	file := &Config{}
	file.Server.DBPath = "/file/db"
	file.Retention.BatchSize = 7
	env := &Config{}
	env.Server.DBPath = "/env/db"

	t.Run("config flag wins", func(t *testing.T) {
		flags := Flags{Config: "c.yaml", Set: map[string]bool{"config": true}}
		eff, err := LoadEffectiveConfig(flags, file, true, env, EnvResult{EnvUsed: true})
		require.NoError(t, err)
		assert.Equal(t, "config", eff.Source)
		assert.Equal(t, "/file/db", eff.DBPath)

		_, err = LoadEffectiveConfig(flags, nil, false, env, EnvResult{})
		assert.Error(t, err)
	})

	t.Run("flags override file", func(t *testing.T) {
		flags := Flags{Addr: "127.0.0.1:1234", DB: "/flag/db", Set: map[string]bool{"db": true}}
		eff, err := LoadEffectiveConfig(flags, file, true, env, EnvResult{})
		require.NoError(t, err)
		assert.Equal(t, "flags", eff.Source)
		assert.Equal(t, "/flag/db", eff.DBPath)
		assert.Equal(t, 7, eff.Config.Retention.BatchSize)
		assert.Equal(t, "/file/db", file.Server.DBPath, "file config is not mutated")
	})

	t.Run("env when no file", func(t *testing.T) {
		eff, err := LoadEffectiveConfig(Flags{DB: "./.ghostline"}, nil, false, env, EnvResult{EnvUsed: true})
		require.NoError(t, err)
		assert.Equal(t, "env", eff.Source)
		assert.Equal(t, "/env/db", eff.DBPath)
	})

	t.Run("defaults", func(t *testing.T) {
		eff, err := LoadEffectiveConfig(Flags{DB: "./.ghostline"}, nil, false, &Config{}, EnvResult{})
		require.NoError(t, err)
		assert.Equal(t, "defaults", eff.Source)
		assert.Equal(t, "./.ghostline", eff.DBPath)
	})
}

func TestParseFlags(t *testing.T) {
	fs := flag.NewFlagSet("ghostline", flag.ContinueOnError)
	f, err := parseFlags(fs, []string{"--db", "/x", "--addr", ":9000"})
	require.NoError(t, err)
	assert.Equal(t, "/x", f.DB)
	assert.Equal(t, ":9000", f.Addr)
	assert.True(t, f.Set["db"])
	assert.False(t, f.Set["config"])
}

func TestValidateConfig(t *testing.T) {
	valid := func() EffectiveConfigResult {
		return EffectiveConfigResult{Config: &Config{}, DBPath: "/db"}
	}

	eff := valid()
	require.NoError(t, ValidateConfig(eff))
	assert.Equal(t, 30*time.Second, eff.Config.Retention.Interval.Duration())
	assert.Equal(t, 30*time.Second, eff.Config.Retention.GhostCountdown.Duration())
	assert.Equal(t, 4, eff.Config.Retention.Workers)
	assert.Equal(t, 500, eff.Config.Retention.BatchSize)
	assert.Equal(t, 1000.0, eff.Config.Security.RateLimit.RPS)
	assert.Equal(t, 90, eff.Config.Sensor.DiskHighPct)
	assert.Equal(t, 80, eff.Config.Sensor.DiskLowPct)

	cases := map[string]func(*EffectiveConfigResult){
		"nil config":    func(e *EffectiveConfigResult) { e.Config = nil },
		"missing db":    func(e *EffectiveConfigResult) { e.DBPath = "" },
		"bad cron":      func(e *EffectiveConfigResult) { e.Config.Retention.Cron = "every tuesday" },
		"half tls":      func(e *EffectiveConfigResult) { e.Config.Server.TLS.CertFile = "cert.pem" },
		"tiny period":   func(e *EffectiveConfigResult) { e.Config.Retention.Interval = Duration(time.Millisecond) },
		"neg countdown": func(e *EffectiveConfigResult) { e.Config.Retention.GhostCountdown = Duration(-time.Second) },
		"sensor order":  func(e *EffectiveConfigResult) { e.Config.Sensor.DiskLowPct = 95 },
		"sensor range":  func(e *EffectiveConfigResult) { e.Config.Sensor.DiskHighPct = 120 },
		"shared key": func(e *EffectiveConfigResult) {
			e.Config.Security.APIKeys.Backend = []string{"k1"}
			e.Config.Security.APIKeys.Admin = []string{"k1"}
		},
		"empty key": func(e *EffectiveConfigResult) { e.Config.Security.APIKeys.Frontend = []string{""} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e := valid()
			mutate(&e)
			assert.Error(t, ValidateConfig(e))
		})
	}

	e := valid()
	e.Config.Retention.Cron = "*/5 * * * *"
	assert.NoError(t, ValidateConfig(e))
}

func TestUnitParsing(t *testing.T) {
	d, err := parseDuration("2.5")
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Millisecond, d.Duration())

	d, err = parseDuration(" 1h30m ")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d.Duration())

	_, err = parseDuration("soon")
	assert.Error(t, err)

	s, err := parseSize("1GiB")
	require.NoError(t, err)
	assert.Equal(t, int64(1<<30), s.Int64())
	assert.Equal(t, "1.0 GiB", s.String())

	s, err = parseSize("4096")
	require.NoError(t, err)
	assert.Equal(t, int64(4096), s.Int64())

	_, err = parseSize("lots")
	assert.Error(t, err)
}
