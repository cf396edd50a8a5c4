package models

import "time"

// VisibilityState is the evaluator output for one (subject, viewer) pair.
type VisibilityState string

const (
	StateVisible        VisibilityState = "visible"
	StateBlurred        VisibilityState = "blurred"
	StateHidden         VisibilityState = "hidden"
	StateTombstoned     VisibilityState = "tombstoned"
	StateLocallyDeleted VisibilityState = "locally_deleted"
)

// Decision is computed server-side on every read and never cached.
type Decision struct {
	State VisibilityState `json:"state"`
	// Reason qualifies LocallyDeleted and Tombstoned outcomes.
	Reason string `json:"reason,omitempty"`
	// ExpiresAt is the next instant the decision degrades: a countdown,
	// a grant lapse or a disappearing deadline.
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	// GrantID is set when the subject is visible only through a grant.
	GrantID string `json:"grant_id,omitempty"`
	// NeedsSweep marks a countdown that elapsed before the sweeper ran.
	NeedsSweep bool `json:"-"`
}

const (
	ReasonDeleted      = "deleted"
	ReasonExpired      = "expired"
	ReasonWhisper      = "whisper"
	ReasonTombstoned   = "tombstoned"
	ReasonDisappearing = "disappearing"
)
