package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/valyala/fasthttp"

	"ghostline/pkg/retention"
)

func init() {
	sweepCmd.Flags().Bool("dry-run", false, "report what a sweep would do without writing")
	sweepCmd.Flags().Bool("items", false, "print every changed message")
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(healthCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a retention sweep now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		items, _ := cmd.Flags().GetBool("items")

		path := "/admin/jobs/sweep"
		if dryRun {
			path += "?dry_run=true"
		}
		var res retention.Result
		if err := c.Do(fasthttp.MethodPost, path, &res); err != nil {
			return err
		}
		if globals.output != outputText {
			return printValue(cmd.OutOrStdout(), res)
		}
		printResult(cmd.OutOrStdout(), res, items)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the retention loop status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}
		var st retention.Status
		if err := c.Do(fasthttp.MethodGet, "/admin/jobs/sweep", &st); err != nil {
			return err
		}
		if globals.output != outputText {
			return printValue(cmd.OutOrStdout(), st)
		}
		printStatus(cmd.OutOrStdout(), st, time.Now())
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show server health and store usage",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := clientFromFlags(cmd)
		if err != nil {
			return err
		}
		var out map[string]interface{}
		if err := c.Do(fasthttp.MethodGet, "/admin/stats", &out); err != nil {
			return err
		}
		return printValue(cmd.OutOrStdout(), out)
	},
}

func printResult(w io.Writer, res retention.Result, items bool) {
	mode := "applied"
	if res.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Sweep %s (%s)\n", res.RunID, mode)
	fmt.Fprintf(w, "  scanned:         %s\n", humanize.Comma(int64(res.Scanned)))
	fmt.Fprintf(w, "  viewers expired: %s\n", humanize.Comma(int64(res.ViewersExpired)))
	fmt.Fprintf(w, "  tombstoned:      %s\n", humanize.Comma(int64(res.Tombstoned)))
	fmt.Fprintf(w, "  failed:          %s\n", humanize.Comma(int64(res.Failed)))
	if !items {
		return
	}
	for _, it := range res.Items {
		switch {
		case it.Error != "":
			fmt.Fprintf(w, "  ! %s: %s\n", it.MessageID, it.Error)
		case it.Tombstoned:
			fmt.Fprintf(w, "  x %s tombstoned (%s)\n", it.MessageID, it.Reason)
		default:
			fmt.Fprintf(w, "  - %s expired for %v\n", it.MessageID, it.Expired)
		}
	}
}

func printStatus(w io.Writer, st retention.Status, now time.Time) {
	state := "idle"
	switch {
	case !st.Enabled:
		state = "disabled"
	case st.Running:
		state = "running"
	case st.Paused:
		state = "paused"
	}
	fmt.Fprintf(w, "Retention: %s (%s)\n", state, st.Schedule)
	fmt.Fprintf(w, "Runs:      %d\n", st.Runs)
	if st.LastRunAt != nil {
		fmt.Fprintf(w, "Last run:  %s\n", humanize.RelTime(*st.LastRunAt, now, "ago", "from now"))
	}
	if st.NextRunAt != nil {
		fmt.Fprintf(w, "Next run:  %s\n", humanize.RelTime(*st.NextRunAt, now, "ago", "from now"))
	}
	if st.LastError != "" {
		fmt.Fprintf(w, "Error:     %s\n", st.LastError)
	}
	if st.Last != nil {
		fmt.Fprintf(w, "Last:      scanned=%d expired=%d tombstoned=%d failed=%d\n",
			st.Last.Scanned, st.Last.ViewersExpired, st.Last.Tombstoned, st.Last.Failed)
	}
}
