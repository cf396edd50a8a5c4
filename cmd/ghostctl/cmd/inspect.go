package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/pebble"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	inspectCmd.Flags().Int("samples", 3, "example keys to print per family")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect [db-path]",
	Short: "Summarize the keys of a stopped database",
	Long: `inspect opens <db-path>/store read-only and counts keys per family.
The server must not be running against the same path.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples, _ := cmd.Flags().GetInt("samples")
		return inspectDatabase(cmd.OutOrStdout(), filepath.Join(args[0], "store"), samples)
	},
}

// keyFamily names the record or index family a raw key belongs to.
func keyFamily(key string) string {
	switch {
	case strings.HasPrefix(key, "idx:s:"):
		return "scope index"
	case strings.HasPrefix(key, "idx:rt:"):
		return "retention index"
	case strings.HasPrefix(key, "idx:g:"):
		return "grant index"
	case strings.HasPrefix(key, "m:"):
		return "message"
	case strings.HasPrefix(key, "p:"):
		return "profile"
	case strings.HasPrefix(key, "s:"):
		return "scope"
	case strings.HasPrefix(key, "g:"):
		return "grant"
	case strings.HasPrefix(key, "rq:"):
		return "access request"
	default:
		return "other"
	}
}

type familyStats struct {
	keys    int
	bytes   uint64
	samples []string
}

func inspectDatabase(w io.Writer, path string, samples int) error {
	db, err := pebble.Open(path, &pebble.Options{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	iter, err := db.NewIter(nil)
	if err != nil {
		return err
	}
	defer iter.Close()

	stats := map[string]*familyStats{}
	total := 0
	for iter.First(); iter.Valid(); iter.Next() {
		key := string(iter.Key())
		fam := keyFamily(key)
		st, ok := stats[fam]
		if !ok {
			st = &familyStats{}
			stats[fam] = st
		}
		st.keys++
		st.bytes += uint64(len(iter.Key()) + len(iter.Value()))
		if len(st.samples) < samples {
			st.samples = append(st.samples, key)
		}
		total++
	}
	if err := iter.Error(); err != nil {
		return err
	}

	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(w, "Keys in %s: %s\n", path, humanize.Comma(int64(total)))
	for _, name := range names {
		st := stats[name]
		fmt.Fprintf(w, "  %-16s %8s keys  %10s\n", name, humanize.Comma(int64(st.keys)), humanize.IBytes(st.bytes))
		for _, s := range st.samples {
			fmt.Fprintf(w, "      %s\n", s)
		}
	}
	return nil
}
