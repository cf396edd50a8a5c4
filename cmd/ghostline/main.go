package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"

	"ghostline/internal/app"
	"ghostline/pkg/config"
	"ghostline/pkg/logger"
	"ghostline/pkg/state"
	"ghostline/pkg/state/shutdown"
)

// Build metadata, set with -ldflags "-X main.version=...".
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

const shutdownTimeout = 20 * time.Second

func main() {
	_ = godotenv.Load(".env")

	eff, err := loadConfig()
	if err != nil {
		// state dirs do not exist yet, so there is no crash dump to write
		fmt.Fprintln(os.Stderr, "ghostline:", err)
		os.Exit(1)
	}

	logger.Init(eff.Config.Logging.Level)
	defer logger.Sync()
	logger.Info("effective_config_loaded", "source", eff.Source, "addr", eff.Addr, "db_path", eff.DBPath)
	logger.Info("build_info", "version", version, "commit", commit, "build_date", buildDate, "logical_cores", runtime.NumCPU())

	if err := prepareState(eff); err != nil {
		logger.Error("state_dirs_setup_failed", "error", err)
		fmt.Fprintln(os.Stderr, "ghostline:", err)
		os.Exit(1)
	}

	if err := serve(eff); err != nil {
		state.Crash("ghostline stopped with an error", err)
	}
}

// loadConfig layers .env, the config file, GHOSTLINE_* variables and flags
// into one validated config.
func loadConfig() (config.EffectiveConfigResult, error) {
	flags := config.ParseConfigFlags()
	fileCfg, fileExists, err := config.ParseConfigFile(flags)
	if err != nil {
		return config.EffectiveConfigResult{}, errors.Wrap(err, "load config file")
	}
	envCfg, envRes := config.ParseConfigEnvs()
	eff, err := config.LoadEffectiveConfig(flags, fileCfg, fileExists, envCfg, envRes)
	if err != nil {
		return eff, errors.Wrap(err, "build effective config")
	}
	if err := config.ValidateConfig(eff); err != nil {
		return eff, errors.Wrap(err, "invalid configuration")
	}
	return eff, nil
}

func prepareState(eff config.EffectiveConfigResult) error {
	if err := state.Init(eff.DBPath); err != nil {
		return errors.Wrapf(err, "prepare state directories under %s", eff.DBPath)
	}
	if eff.Config.Logging.AuditEnabled() {
		if err := logger.AttachAuditFileSink(state.PathsVar.Audit); err != nil {
			logger.Warn("audit_sink_unavailable", "path", state.PathsVar.Audit, "error", err)
		}
	}
	return nil
}

// serve runs the app until a signal arrives, then shuts it down within
// shutdownTimeout. A Run failure still goes through Shutdown.
func serve(eff config.EffectiveConfigResult) error {
	a, err := app.New(eff, versionString())
	if err != nil {
		return errors.Wrap(err, "initialize app")
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()
	runErr := a.Run(ctx)
	if runErr != nil {
		logger.Error("app_run_failed", "error", runErr)
	}

	sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer scancel()
	if err := a.Shutdown(sctx); err != nil {
		logger.Error("shutdown_failed", "error", err)
		if runErr == nil {
			return errors.Wrap(err, "shutdown")
		}
	}
	return runErr
}

func versionString() string {
	v := version
	if commit != "none" {
		v += " (" + commit + ")"
	}
	if buildDate != "unknown" {
		v += " @ " + buildDate
	}
	return v
}
