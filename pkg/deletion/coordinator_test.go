package deletion

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostline/pkg/models"
	"ghostline/pkg/visibility"
)

var t0 = time.Date(2025, 3, 3, 3, 0, 0, 0, time.UTC)

func group() *models.Scope {
	return &models.Scope{Ref: "g1", OwnerID: "owner", Moderators: []string{"mod"}, Members: []string{"alice", "bob"}}
}

func TestDeleteForMeHidesOnlyForActor(t *testing.T) {
	m := &models.Message{ID: "m1", ScopeRef: "g1", SenderID: "alice", Content: "x"}

	require.True(t, DeleteForMe(m, "bob", t0))
	assert.False(t, DeleteForMe(m, "bob", t0), "second delete is a no-op")

	assert.Equal(t, models.StateLocallyDeleted, visibility.EvaluateMessage(m, "bob", nil, t0).State)
	assert.Equal(t, models.StateVisible, visibility.EvaluateMessage(m, "alice", nil, t0).State)
	assert.Equal(t, "x", m.Content)
}

func TestDeleteForEveryoneAuthority(t *testing.T) {
	cases := []struct {
		actor   string
		allowed bool
	}{
		{"alice", true},
		{"owner", true},
		{"mod", true},
		{"bob", false},
		{"", false},
	}
	for _, tc := range cases {
		t.Run(tc.actor, func(t *testing.T) {
			m := &models.Message{ID: "m1", ScopeRef: "g1", SenderID: "alice", Content: "x"}
			changed, err := DeleteForEveryone(m, tc.actor, group(), t0)
			if !tc.allowed {
				require.Error(t, err)
				assert.True(t, errors.Is(err, models.ErrForbidden))
				assert.False(t, m.Tombstoned)
				return
			}
			require.NoError(t, err)
			assert.True(t, changed)
			assert.True(t, m.Tombstoned)
		})
	}
}

func TestTombstoneTerminality(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", Content: "x", RetentionPolicy: models.Retention24h}
	_, err := DeleteForEveryone(m, "alice", nil, t0)
	require.NoError(t, err)

	changed, err := DeleteForEveryone(m, "alice", nil, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, DeleteForMe(m, "bob", t0))

	viewers := []string{"alice", "bob", "carol", ""}
	grants := []models.Grant{{ID: "g", Global: true, ExpiresAt: t0.Add(time.Hour)}}
	for _, v := range viewers {
		for _, at := range []time.Time{t0, t0.Add(time.Hour), t0.Add(1000 * time.Hour)} {
			assert.Equal(t, models.StateTombstoned, visibility.EvaluateMessage(m, v, grants, at).State)
		}
	}
}

func TestDeleteForMeAfterExpiryIsNoop(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", RetentionPolicy: models.Retention24h}
	m.SetExpiry("bob", t0)
	assert.False(t, DeleteForMe(m, "bob", t0.Add(time.Second)))
	_, hidden := m.HiddenReason("bob")
	assert.False(t, hidden)
}
