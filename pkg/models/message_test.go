package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRetentionPolicy(t *testing.T) {
	cases := []struct {
		in   string
		want RetentionPolicy
		dur  time.Duration
		err  bool
	}{
		{"", RetentionOff, 0, false},
		{"off", RetentionOff, 0, false},
		{"24h", Retention24h, 24 * time.Hour, false},
		{" 7D ", Retention7d, 7 * 24 * time.Hour, false},
		{"90d", Retention90d, 90 * 24 * time.Hour, false},
		{"30d", "", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseRetentionPolicy(tc.in)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.dur, got.Duration())
		})
	}
}

func TestSetValuedFieldsAreSetOnce(t *testing.T) {
	m := &Message{ID: "m1"}
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, m.SetExpiry("bob", t0))
	assert.False(t, m.SetExpiry("bob", t0.Add(time.Hour)))
	got, ok := m.ExpiryFor("bob")
	require.True(t, ok)
	assert.Equal(t, t0, got)

	assert.True(t, m.Hide("bob", HideDeleted))
	assert.False(t, m.Hide("bob", HideExpired))
	r, ok := m.HiddenReason("bob")
	require.True(t, ok)
	assert.Equal(t, HideDeleted, r)
}

func TestTombstoneIsTerminal(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &Message{ID: "m1", Content: "hello"}

	require.True(t, m.Tombstone(t0))
	assert.Empty(t, m.Content)
	require.NotNil(t, m.TombstonedAt)

	assert.False(t, m.Tombstone(t0.Add(time.Hour)))
	assert.Equal(t, t0, *m.TombstonedAt)
	assert.False(t, m.RetentionTracked())
}

func TestCloneIsDeep(t *testing.T) {
	m := &Message{ID: "m1", ForwardingChain: []Hop{{OriginLabel: "a"}}}
	m.SetExpiry("bob", time.Now())
	m.Hide("carol", HideDeleted)

	c := m.Clone()
	c.SetExpiry("dave", time.Now())
	c.Hide("erin", HideDeleted)
	c.ForwardingChain[0].OriginLabel = "changed"

	assert.Len(t, m.ViewerExpiry, 1)
	assert.Len(t, m.HiddenFor, 1)
	assert.Equal(t, "a", m.ForwardingChain[0].OriginLabel)
}

func TestScopeAuthority(t *testing.T) {
	s := &Scope{Ref: "g1", OwnerID: "owner", Moderators: []string{"mod"}, Members: []string{"alice", "bob"}}
	assert.True(t, s.IsModerator("owner"))
	assert.True(t, s.IsModerator("mod"))
	assert.False(t, s.IsModerator("alice"))
	assert.True(t, s.IsMember("alice"))
	assert.True(t, s.IsMember("mod"))
	assert.False(t, s.IsMember("mallory"))
	assert.ElementsMatch(t, []string{"owner", "alice", "bob"}, s.Participants())

	open := &Scope{Ref: "lobby"}
	assert.True(t, open.IsMember("anyone"))
	assert.Equal(t, "lobby", open.DisplayLabel())
}

func TestPaginationEffectiveLimit(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, PaginationRequest{}.EffectiveLimit())
	assert.Equal(t, 7, PaginationRequest{Limit: 7}.EffectiveLimit())
	assert.Equal(t, MaxPageLimit, PaginationRequest{Limit: 10_000}.EffectiveLimit())
}
