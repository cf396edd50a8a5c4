// Package retention applies ephemeral-retention transitions to messages:
// arming per-viewer countdowns on first view, moving elapsed viewers into
// hiddenFor and tombstoning messages whose lifetime has ended. Every
// transition is monotonic, so applying it twice equals applying it once.
package retention

import (
	"sort"
	"time"

	"ghostline/pkg/models"
)

// DefaultGhostCountdown is the short per-viewer lifetime of ghost messages.
const DefaultGhostCountdown = 30 * time.Second

// Countdown returns the per-viewer lifetime for msg. Ghost mode overrides
// the scope policy.
func Countdown(msg *models.Message, ghost time.Duration) (time.Duration, bool) {
	if msg.GhostMode {
		if ghost <= 0 {
			ghost = DefaultGhostCountdown
		}
		return ghost, true
	}
	if msg.RetentionPolicy.Enabled() {
		return msg.RetentionPolicy.Duration(), true
	}
	return 0, false
}

// NeedsArm reports whether a render by viewer should start a countdown.
func NeedsArm(msg *models.Message, viewer string) bool {
	if msg.Tombstoned || viewer == "" || viewer == msg.SenderID {
		return false
	}
	if !msg.GhostMode && !msg.RetentionPolicy.Enabled() {
		return false
	}
	if _, armed := msg.ExpiryFor(viewer); armed {
		return false
	}
	if _, hidden := msg.HiddenReason(viewer); hidden {
		return false
	}
	return true
}

// ArmOnFirstView sets viewerExpiry[viewer] = now + countdown the first
// time viewer sees msg. It reports whether the record changed.
func ArmOnFirstView(msg *models.Message, viewer string, now time.Time, ghost time.Duration) bool {
	if !NeedsArm(msg, viewer) {
		return false
	}
	d, ok := Countdown(msg, ghost)
	if !ok {
		return false
	}
	return msg.SetExpiry(viewer, now.UTC().Add(d))
}

// Outcome describes what Apply changed on one message.
type Outcome struct {
	Expired    []string
	Tombstoned bool
	Reason     string
}

// Changed reports whether the record needs to be written back.
func (o Outcome) Changed() bool {
	return len(o.Expired) > 0 || o.Tombstoned
}

// ExpireViewers moves every viewer whose countdown elapsed into hiddenFor
// with reason expired. Viewers already hidden keep their entry.
func ExpireViewers(msg *models.Message, now time.Time) []string {
	var out []string
	for viewer, exp := range msg.ViewerExpiry {
		if now.Before(exp) {
			continue
		}
		if msg.Hide(viewer, models.HideExpired) {
			out = append(out, viewer)
		}
	}
	sort.Strings(out)
	return out
}

// RequiredParticipants lists the scope members other than the sender. An
// open scope (no member list) has no known audience, so it yields none.
func RequiredParticipants(msg *models.Message, scope *models.Scope) []string {
	if scope == nil || len(scope.Members) == 0 {
		return nil
	}
	var out []string
	for _, p := range scope.Participants() {
		if p != msg.SenderID {
			out = append(out, p)
		}
	}
	return out
}

// AllParticipantsExpired reports whether every required participant's
// countdown has elapsed. An unknown membership never qualifies.
func AllParticipantsExpired(msg *models.Message, scope *models.Scope, now time.Time) bool {
	required := RequiredParticipants(msg, scope)
	if len(required) == 0 {
		return false
	}
	for _, p := range required {
		if r, ok := msg.HiddenReason(p); ok && r == models.HideExpired {
			continue
		}
		exp, armed := msg.ExpiryFor(p)
		if !armed || now.Before(exp) {
			return false
		}
	}
	return true
}

// Apply runs every retention transition due at now. scope may be nil.
func Apply(msg *models.Message, scope *models.Scope, now time.Time) Outcome {
	var out Outcome
	if msg.Tombstoned {
		return out
	}
	out.Expired = ExpireViewers(msg, now)

	if deadline, ok := msg.Deadline(); ok && !now.Before(deadline) {
		out.Reason = models.ReasonDisappearing
	} else if AllParticipantsExpired(msg, scope, now) {
		out.Reason = models.ReasonExpired
	}
	if out.Reason != "" {
		out.Tombstoned = msg.Tombstone(now)
	}
	return out
}
