package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/valyala/fasthttp"

	"ghostline/internal/retention"
	"ghostline/pkg/api"
	"ghostline/pkg/api/auth"
	"ghostline/pkg/config"
	"ghostline/pkg/config/banner"
	"ghostline/pkg/engine"
	"ghostline/pkg/logger"
	ret "ghostline/pkg/retention"
	"ghostline/pkg/sensor"
	"ghostline/pkg/state"
	"ghostline/pkg/store"
	"ghostline/pkg/timeutil"
)

// App groups server state and components.
type App struct {
	eff     config.EffectiveConfigResult
	version string
	state   string

	store     *store.Store
	engine    *engine.Engine
	retention *retention.RetentionManager
	api       *api.API
	sensor    *sensor.Sensor
	srvFast   *fasthttp.Server
}

// New sets up resources that don't need a running context: runtime keys,
// the store, the engine and the API. It does not start the retention loop
// or the http server; call Run for that.
func New(eff config.EffectiveConfigResult, version string) (*App, error) {
	if eff.Config == nil {
		return nil, fmt.Errorf("effective config is nil")
	}
	cfg := eff.Config
	config.SetRuntime(config.BuildRuntime(cfg))

	if cfg.Store.DisableWAL {
		logger.LogConfigSummary("config_durability_summary", []string{
			"pebble_wal: disabled",
			fmt.Sprintf("cache_size: %s", humanize.IBytes(uint64(cfg.Store.CacheSize.Int64()))),
			"loss_window: writes since the last memtable flush",
		})
	}

	// open store (caller ensures directories exist)
	if state.PathsVar.Store == "" {
		return nil, fmt.Errorf("state paths not initialized")
	}
	st, err := store.Open(state.PathsVar.Store, store.Options{
		CacheSize:  cfg.Store.CacheSize.Int64(),
		DisableWAL: cfg.Store.DisableWAL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", state.PathsVar.Store, err)
	}

	clock := timeutil.Default()
	rc := cfg.Retention
	eng := engine.New(st, clock, engine.Config{
		GhostCountdown: rc.GhostCountdown.Duration(),
		Sweep: ret.Config{
			BatchSize:    rc.BatchSize,
			Workers:      rc.Workers,
			BatchTimeout: rc.BatchTimeout.Duration(),
			DryRun:       rc.DryRun,
		},
	})
	rm := retention.New(eng, clock, retention.Options{
		Enabled:  rc.IsEnabled(),
		Interval: rc.Interval.Duration(),
		Cron:     rc.Cron,
		Paused:   rc.Paused,
	})
	eng.OnStaleRead(rm.Nudge)

	sc := cfg.Sensor
	sn := sensor.New(sensor.Config{
		Path:           state.PathsVar.Store,
		PollInterval:   sc.PollInterval.Duration(),
		DiskHighPct:    sc.DiskHighPct,
		DiskLowPct:     sc.DiskLowPct,
		RecoveryWindow: sc.RecoveryWindow.Duration(),
	}, clock)

	a := &App{
		eff:       eff,
		version:   version,
		state:     "initialized",
		store:     st,
		engine:    eng,
		retention: rm,
		sensor:    sn,
	}
	a.api = api.New(api.Deps{
		Engine:   eng,
		Store:    st,
		Jobs:     rm,
		Disk:     sn,
		Security: securityConfig(cfg),
		Clock:    clock,
		Version:  version,
	})
	return a, nil
}

func securityConfig(cfg *config.Config) auth.SecConfig {
	sec := auth.SecConfig{
		RPS:          cfg.Security.RateLimit.RPS,
		Burst:        cfg.Security.RateLimit.Burst,
		BackendKeys:  map[string]struct{}{},
		FrontendKeys: map[string]struct{}{},
		AdminKeys:    map[string]struct{}{},
	}
	for _, k := range cfg.Security.APIKeys.Backend {
		sec.BackendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Frontend {
		sec.FrontendKeys[k] = struct{}{}
	}
	for _, k := range cfg.Security.APIKeys.Admin {
		sec.AdminKeys[k] = struct{}{}
	}
	return sec
}

// Run starts the retention loop and the http server, and blocks until ctx
// is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	banner.PrintWithEff(os.Stdout, a.eff, a.version)

	a.retention.Start(ctx)
	a.sensor.Start(ctx)
	a.state = "running"
	logger.Info("app_started", "addr", a.eff.Addr, "db_path", a.eff.DBPath, "retention", a.retention.Status().Schedule)

	errCh, err := a.startHTTP()
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
