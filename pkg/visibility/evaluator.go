// Package visibility decides what a viewer may see. Evaluation is pure:
// the same record, grants and instant always yield the same decision, and
// nothing is written.
package visibility

import (
	"time"

	"ghostline/pkg/grants"
	"ghostline/pkg/models"
)

// EvaluateMessage applies, in order: tombstone, per-viewer hide,
// whole-scope deadline, whisper allow-list, elapsed countdown, hidden,
// blurred.
// A grant lifts hidden or blurred only; it never revives a tombstoned,
// deleted or expired message.
func EvaluateMessage(msg *models.Message, viewer string, gs []models.Grant, now time.Time) models.Decision {
	if msg.Tombstoned {
		return models.Decision{State: models.StateTombstoned, Reason: models.ReasonTombstoned}
	}
	deadline, hasDeadline := msg.Deadline()
	pastDeadline := hasDeadline && !now.Before(deadline)
	if reason, ok := msg.HiddenReason(viewer); ok {
		return models.Decision{State: models.StateLocallyDeleted, Reason: string(reason), NeedsSweep: pastDeadline}
	}
	if pastDeadline {
		return models.Decision{State: models.StateTombstoned, Reason: models.ReasonDisappearing, NeedsSweep: true}
	}
	if msg.WhisperTo != "" && viewer != msg.SenderID && viewer != msg.WhisperTo {
		return models.Decision{State: models.StateLocallyDeleted, Reason: models.ReasonWhisper}
	}
	expiry, armed := msg.ExpiryFor(viewer)
	if armed && !now.Before(expiry) {
		return models.Decision{State: models.StateTombstoned, Reason: models.ReasonExpired, NeedsSweep: true}
	}

	d := obscured(msg.Obscurity, msg.SenderID, viewer, gs, now)
	if armed {
		d.ExpiresAt = earliest(d.ExpiresAt, expiry)
	}
	if hasDeadline {
		d.ExpiresAt = earliest(d.ExpiresAt, deadline)
	}
	return d
}

// EvaluateProfile applies the obscurity rules to a profile. The profile
// owner always sees their own profile.
func EvaluateProfile(p *models.Profile, viewer string, gs []models.Grant, now time.Time) models.Decision {
	return obscured(p.Obscurity, p.ID, viewer, gs, now)
}

func obscured(o models.Obscurity, owner, viewer string, gs []models.Grant, now time.Time) models.Decision {
	if (!o.Hidden && !o.Blurred) || viewer == owner {
		return models.Decision{State: models.StateVisible}
	}
	if g, ok := grants.Best(gs, viewer, now); ok {
		exp := g.ExpiresAt
		return models.Decision{State: models.StateVisible, GrantID: g.ID, ExpiresAt: &exp}
	}
	if o.Hidden {
		return models.Decision{State: models.StateHidden}
	}
	return models.Decision{State: models.StateBlurred}
}

func earliest(cur *time.Time, t time.Time) *time.Time {
	if cur != nil && !t.Before(*cur) {
		return cur
	}
	return &t
}
