package models

import (
	"fmt"
	"strings"
	"time"
)

// RetentionPolicy is the per-scope lifetime copied onto each message at send.
type RetentionPolicy string

const (
	RetentionOff RetentionPolicy = "off"
	Retention24h RetentionPolicy = "24h"
	Retention7d  RetentionPolicy = "7d"
	Retention90d RetentionPolicy = "90d"
)

// ParseRetentionPolicy accepts the four policy names; empty means off.
func ParseRetentionPolicy(s string) (RetentionPolicy, error) {
	switch p := RetentionPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", RetentionOff:
		return RetentionOff, nil
	case Retention24h, Retention7d, Retention90d:
		return p, nil
	default:
		return "", fmt.Errorf("unknown retention policy %q", s)
	}
}

// Duration returns the countdown for the policy, zero when off.
func (p RetentionPolicy) Duration() time.Duration {
	switch p {
	case Retention24h:
		return 24 * time.Hour
	case Retention7d:
		return 7 * 24 * time.Hour
	case Retention90d:
		return 90 * 24 * time.Hour
	default:
		return 0
	}
}

// Enabled reports whether the policy schedules any expiry.
func (p RetentionPolicy) Enabled() bool { return p.Duration() > 0 }

// HideReason records why a message is hidden for one viewer.
type HideReason string

const (
	HideDeleted HideReason = "deleted"
	HideExpired HideReason = "expired"
)

// Obscurity flags. Hidden is strictly stronger than Blurred.
type Obscurity struct {
	Blurred bool `json:"blurred,omitempty"`
	Hidden  bool `json:"hidden,omitempty"`
}

// Hop is one entry of a forwarding chain.
type Hop struct {
	OriginLabel  string    `json:"origin_label"`
	ViaLabel     string    `json:"via_label,omitempty"`
	SenderLabel  string    `json:"sender_label"`
	ChannelLabel string    `json:"channel_label"`
	Timestamp    time.Time `json:"timestamp"`
	IsInitial    bool      `json:"is_initial,omitempty"`
}

type Message struct {
	ID       string    `json:"id"`
	ScopeRef string    `json:"scope"`
	SenderID string    `json:"sender"`
	Content  string    `json:"content,omitempty"`
	SentAt   time.Time `json:"sent_at"`

	// ForwardingChain only ever grows; a forward copies it and appends.
	ForwardingChain []Hop  `json:"forwarding_chain,omitempty"`
	ForwardedFrom   string `json:"forwarded_from,omitempty"`

	// HiddenFor and ViewerExpiry are set-valued: entries are added once
	// and never removed or overwritten.
	HiddenFor    map[string]HideReason `json:"hidden_for,omitempty"`
	ViewerExpiry map[string]time.Time  `json:"viewer_expiry,omitempty"`

	Tombstoned   bool       `json:"tombstoned,omitempty"`
	TombstonedAt *time.Time `json:"tombstoned_at,omitempty"`

	RetentionPolicy RetentionPolicy `json:"retention_policy"`
	Disappearing    bool            `json:"disappearing,omitempty"`
	GhostMode       bool            `json:"ghost_mode,omitempty"`
	WhisperTo       string          `json:"whisper_to,omitempty"`
	Obscurity       Obscurity       `json:"obscurity"`
}

// Clone returns a deep copy so callers can evaluate hypothetical
// transitions without touching the stored record.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	out := *m
	if m.ForwardingChain != nil {
		out.ForwardingChain = append([]Hop(nil), m.ForwardingChain...)
	}
	if m.HiddenFor != nil {
		out.HiddenFor = make(map[string]HideReason, len(m.HiddenFor))
		for k, v := range m.HiddenFor {
			out.HiddenFor[k] = v
		}
	}
	if m.ViewerExpiry != nil {
		out.ViewerExpiry = make(map[string]time.Time, len(m.ViewerExpiry))
		for k, v := range m.ViewerExpiry {
			out.ViewerExpiry[k] = v
		}
	}
	if m.TombstonedAt != nil {
		ts := *m.TombstonedAt
		out.TombstonedAt = &ts
	}
	return &out
}

// HiddenReason reports whether viewer has a hiddenFor entry.
func (m *Message) HiddenReason(viewer string) (HideReason, bool) {
	r, ok := m.HiddenFor[viewer]
	return r, ok
}

// Hide adds viewer to hiddenFor. An existing entry is kept as is.
func (m *Message) Hide(viewer string, reason HideReason) bool {
	if _, ok := m.HiddenFor[viewer]; ok {
		return false
	}
	if m.HiddenFor == nil {
		m.HiddenFor = make(map[string]HideReason)
	}
	m.HiddenFor[viewer] = reason
	return true
}

// ExpiryFor returns the armed countdown deadline for viewer.
func (m *Message) ExpiryFor(viewer string) (time.Time, bool) {
	t, ok := m.ViewerExpiry[viewer]
	return t, ok
}

// SetExpiry arms viewer's countdown once. Later calls are no-ops.
func (m *Message) SetExpiry(viewer string, at time.Time) bool {
	if _, ok := m.ViewerExpiry[viewer]; ok {
		return false
	}
	if m.ViewerExpiry == nil {
		m.ViewerExpiry = make(map[string]time.Time)
	}
	m.ViewerExpiry[viewer] = at
	return true
}

// Deadline is the whole-scope disappearing instant, sentAt + policy.
func (m *Message) Deadline() (time.Time, bool) {
	if !m.Disappearing || !m.RetentionPolicy.Enabled() {
		return time.Time{}, false
	}
	return m.SentAt.Add(m.RetentionPolicy.Duration()), true
}

// Tombstone makes the message permanently unreadable and releases its
// content. It reports false when the message was already tombstoned.
func (m *Message) Tombstone(now time.Time) bool {
	if m.Tombstoned {
		return false
	}
	m.Tombstoned = true
	ts := now.UTC()
	m.TombstonedAt = &ts
	m.Content = ""
	return true
}

// RetentionTracked reports whether the sweeper must look at the message.
func (m *Message) RetentionTracked() bool {
	if m.Tombstoned {
		return false
	}
	return m.GhostMode || m.RetentionPolicy.Enabled()
}
