package retention

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Status is a snapshot of the background sweep loop.
type Status struct {
	Enabled   bool       `json:"enabled"`
	Paused    bool       `json:"paused"`
	Running   bool       `json:"running"`
	Schedule  string     `json:"schedule"`
	Runs      int        `json:"runs"`
	LastRunAt *time.Time `json:"last_run_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
	Last      *Result    `json:"last,omitempty"`
}

// ErrSweepInProgress is returned when a sweep is requested while another
// one is still running.
var ErrSweepInProgress = errors.New("retention sweep already running")
