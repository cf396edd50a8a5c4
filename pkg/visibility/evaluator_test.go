package visibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostline/pkg/models"
)

var t0 = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func grantFor(viewer string, exp time.Time) models.Grant {
	return models.Grant{ID: "g-" + viewer, GranteeID: viewer, IssuedBy: "alice", ExpiresAt: exp}
}

func TestEvaluatorPriority(t *testing.T) {
	active := []models.Grant{grantFor("bob", t0.Add(time.Hour))}

	cases := []struct {
		name   string
		mutate func(m *models.Message)
		grants []models.Grant
		want   models.VisibilityState
		reason string
	}{
		{"plain", func(m *models.Message) {}, nil, models.StateVisible, ""},
		{"tombstone beats everything", func(m *models.Message) {
			m.Tombstone(t0)
			m.Hide("bob", models.HideDeleted)
			m.Obscurity.Hidden = true
		}, active, models.StateTombstoned, models.ReasonTombstoned},
		{"hiddenFor beats expiry", func(m *models.Message) {
			m.Hide("bob", models.HideDeleted)
			m.SetExpiry("bob", t0.Add(-time.Second))
		}, nil, models.StateLocallyDeleted, models.ReasonDeleted},
		{"elapsed expiry beats grant", func(m *models.Message) {
			m.SetExpiry("bob", t0)
			m.Obscurity.Hidden = true
		}, active, models.StateTombstoned, models.ReasonExpired},
		{"hidden without grant", func(m *models.Message) {
			m.Obscurity = models.Obscurity{Hidden: true, Blurred: true}
		}, nil, models.StateHidden, ""},
		{"blurred without grant", func(m *models.Message) {
			m.Obscurity.Blurred = true
		}, nil, models.StateBlurred, ""},
		{"hidden with grant", func(m *models.Message) {
			m.Obscurity.Hidden = true
		}, active, models.StateVisible, ""},
		{"hiddenFor beats passed deadline", func(m *models.Message) {
			m.RetentionPolicy = models.Retention24h
			m.Disappearing = true
			m.SentAt = t0.Add(-25 * time.Hour)
			m.Hide("bob", models.HideDeleted)
		}, nil, models.StateLocallyDeleted, models.ReasonDeleted},
		{"whisper excludes bystander", func(m *models.Message) {
			m.WhisperTo = "carol"
		}, active, models.StateLocallyDeleted, models.ReasonWhisper},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := &models.Message{ID: "m1", SenderID: "alice", Content: "x", SentAt: t0.Add(-time.Hour)}
			tc.mutate(m)
			d := EvaluateMessage(m, "bob", tc.grants, t0)
			assert.Equal(t, tc.want, d.State)
			assert.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestSenderAlwaysSeesOwnObscuredMessage(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", Obscurity: models.Obscurity{Hidden: true}}
	assert.Equal(t, models.StateVisible, EvaluateMessage(m, "alice", nil, t0).State)
}

func TestWhisperRecipientSees(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", WhisperTo: "carol"}
	assert.Equal(t, models.StateVisible, EvaluateMessage(m, "carol", nil, t0).State)
	assert.Equal(t, models.StateVisible, EvaluateMessage(m, "alice", nil, t0).State)
}

func TestArmedCountdownReportsExpiry(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", RetentionPolicy: models.Retention24h, SentAt: t0}
	m.SetExpiry("bob", t0.Add(24*time.Hour))

	d := EvaluateMessage(m, "bob", nil, t0.Add(time.Hour))
	require.Equal(t, models.StateVisible, d.State)
	require.NotNil(t, d.ExpiresAt)
	assert.Equal(t, t0.Add(24*time.Hour), *d.ExpiresAt)

	d = EvaluateMessage(m, "bob", nil, t0.Add(24*time.Hour))
	assert.Equal(t, models.StateTombstoned, d.State)
	assert.True(t, d.NeedsSweep)
}

func TestDisappearingDeadline(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", RetentionPolicy: models.Retention24h, Disappearing: true, SentAt: t0}

	d := EvaluateMessage(m, "alice", nil, t0.Add(23*time.Hour))
	require.Equal(t, models.StateVisible, d.State)
	require.NotNil(t, d.ExpiresAt)
	assert.Equal(t, t0.Add(24*time.Hour), *d.ExpiresAt)

	d = EvaluateMessage(m, "alice", nil, t0.Add(24*time.Hour))
	assert.Equal(t, models.StateTombstoned, d.State)
	assert.Equal(t, models.ReasonDisappearing, d.Reason)
}

// Alice hides her profile, grants Bob one hour, Carol has nothing.
func TestProfileGrantLifecycle(t *testing.T) {
	p := &models.Profile{ID: "alice", Obscurity: models.Obscurity{Hidden: true}}
	gs := []models.Grant{grantFor("bob", t0.Add(time.Hour))}

	d := EvaluateProfile(p, "bob", gs, t0)
	require.Equal(t, models.StateVisible, d.State)
	assert.Equal(t, "g-bob", d.GrantID)
	assert.Equal(t, models.StateHidden, EvaluateProfile(p, "carol", gs, t0).State)
	assert.Equal(t, models.StateHidden, EvaluateProfile(p, "bob", gs, t0.Add(61*time.Minute)).State)
	assert.Equal(t, models.StateVisible, EvaluateProfile(p, "alice", nil, t0).State)
}

func TestGrantDisjunction(t *testing.T) {
	p := &models.Profile{ID: "alice", Obscurity: models.Obscurity{Blurred: true}}
	revokedAt := t0.Add(-time.Minute)
	revoked := grantFor("bob", t0.Add(time.Hour))
	revoked.RevokedAt = &revokedAt
	lapsed := grantFor("bob", t0.Add(-time.Second))
	global := models.Grant{ID: "g-all", Global: true, ExpiresAt: t0.Add(time.Minute)}

	assert.Equal(t, models.StateBlurred, EvaluateProfile(p, "bob", []models.Grant{revoked, lapsed}, t0).State)
	assert.Equal(t, models.StateVisible, EvaluateProfile(p, "bob", []models.Grant{revoked, lapsed, global}, t0).State)
}

func TestEvaluateIsPure(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", RetentionPolicy: models.Retention7d, SentAt: t0}
	before := m.Clone()
	for i := 0; i < 3; i++ {
		EvaluateMessage(m, "bob", nil, t0)
	}
	assert.Equal(t, before, m)
}

func TestDeletedViewerPastDeadlineStillFlagsSweep(t *testing.T) {
	m := &models.Message{ID: "m1", SenderID: "alice", RetentionPolicy: models.Retention24h, Disappearing: true, SentAt: t0}
	m.Hide("bob", models.HideDeleted)

	d := EvaluateMessage(m, "bob", nil, t0.Add(time.Hour))
	assert.Equal(t, models.StateLocallyDeleted, d.State)
	assert.False(t, d.NeedsSweep)

	d = EvaluateMessage(m, "bob", nil, t0.Add(25*time.Hour))
	assert.Equal(t, models.StateLocallyDeleted, d.State)
	assert.True(t, d.NeedsSweep)
}
