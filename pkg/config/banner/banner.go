package banner

import (
	"fmt"
	"io"

	"ghostline/pkg/config"
)

const banner = `
  ________.__                    __  .__  .__               
 /  _____/|  |__   ____  _______/  |_|  | |__| ____   ____  
/   \  ___|  |  \ /  _ \/  ___/\   __\  | |  |/    \_/ __ \ 
\    \_\  \   Y  (  <_> )___ \  |  | |  |_|  |   |  \  ___/ 
 \______  /___|  /\____/____  > |__| |____/__|___|  /\___  >
        \/     \/           \/                    \/     \/ 
`

// PrintWithEff prints the banner and a readiness summary for eff.
func PrintWithEff(w io.Writer, eff config.EffectiveConfigResult, version string) {
	addr := eff.Addr
	if addr == "" && eff.Config != nil {
		addr = eff.Config.Addr()
	}
	src := eff.Source
	if src == "" {
		src = "flags"
	}

	fmt.Fprint(w, banner)
	fmt.Fprintln(w, "== Config =====================================================")
	fmt.Fprintf(w, "Listen:   %s\n", addr)
	fmt.Fprintf(w, "DB Path:  %s\n", eff.DBPath)
	if version != "" {
		fmt.Fprintf(w, "Version:  %s\n", version)
	}
	fmt.Fprintf(w, "Config:   %s\n", src)
	if eff.Config == nil {
		return
	}
	cfg := eff.Config

	fmt.Fprintln(w, "\n== Production? =================================================")
	keyLine(w, "Backend API keys", len(cfg.Security.APIKeys.Backend), "required for backend services and signing")
	keyLine(w, "Frontend API keys", len(cfg.Security.APIKeys.Frontend), "required for client access")
	keyLine(w, "Admin API keys", len(cfg.Security.APIKeys.Admin), "required for admin tooling")

	ret := cfg.Retention
	switch {
	case !ret.IsEnabled():
		fmt.Fprintln(w, "- Retention sweep: disabled")
	case ret.Cron != "":
		fmt.Fprintf(w, "- Retention sweep: cron=%s ghost=%s dry_run=%t\n", ret.Cron, ret.GhostCountdown, ret.DryRun)
	default:
		fmt.Fprintf(w, "- Retention sweep: every %s ghost=%s dry_run=%t\n", ret.Interval, ret.GhostCountdown, ret.DryRun)
	}
	fmt.Fprintf(w, "- Store cache: %s (wal disabled: %t)\n", cfg.Store.CacheSize, cfg.Store.DisableWAL)
}

func keyLine(w io.Writer, name string, n int, need string) {
	if n > 0 {
		fmt.Fprintf(w, "- %s: OK (%d)\n", name, n)
		return
	}
	fmt.Fprintf(w, "- %s: MISSING (%s)\n", name, need)
}
