package grants

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ghostline/pkg/models"
)

var (
	t0      = time.Date(2025, 2, 10, 10, 0, 0, 0, time.UTC)
	profile = Subject{Ref: models.SubjectRef{Kind: models.SubjectProfile, ID: "alice"}, OwnerID: "alice"}
)

func TestIssueRequiresOwner(t *testing.T) {
	_, err := Issue(IssueRequest{Subject: profile, Actor: "bob", GranteeID: "bob", Duration: time.Hour}, t0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	g, err := Issue(IssueRequest{Subject: profile, Actor: "alice", GranteeID: "bob", Duration: time.Hour}, t0)
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, "bob", g.GranteeID)
	assert.Equal(t, t0.Add(time.Hour), g.ExpiresAt)
}

func TestIssueValidation(t *testing.T) {
	cases := []struct {
		name string
		req  IssueRequest
	}{
		{"zero duration", IssueRequest{Subject: profile, Actor: "alice", GranteeID: "bob"}},
		{"negative duration", IssueRequest{Subject: profile, Actor: "alice", GranteeID: "bob", Duration: -time.Second}},
		{"no grantee", IssueRequest{Subject: profile, Actor: "alice", Duration: time.Hour}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Issue(tc.req, t0)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidArgument))
		})
	}
}

func TestIsActiveBoundary(t *testing.T) {
	g, err := Issue(IssueRequest{Subject: profile, Actor: "alice", GranteeID: "bob", Duration: time.Hour}, t0)
	require.NoError(t, err)

	assert.True(t, IsActive(g, t0))
	assert.True(t, IsActive(g, t0.Add(time.Hour-time.Nanosecond)))
	assert.False(t, IsActive(g, t0.Add(time.Hour)), "expiry instant is exclusive")
}

func TestRevoke(t *testing.T) {
	g, err := Issue(IssueRequest{Subject: profile, Actor: "alice", Global: true, Duration: time.Hour}, t0)
	require.NoError(t, err)

	_, err = Revoke(g, "bob", t0)
	assert.True(t, errors.Is(err, models.ErrForbidden))

	r, err := Revoke(g, "alice", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, IsActive(r, t0.Add(2*time.Minute)))

	again, err := Revoke(r, "alice", t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, *r.RevokedAt, *again.RevokedAt)
}

func TestAnyActiveIsDisjunction(t *testing.T) {
	expired := models.Grant{ID: "g1", GranteeID: "bob", ExpiresAt: t0.Add(-time.Minute)}
	revoked := models.Grant{ID: "g2", GranteeID: "bob", ExpiresAt: t0.Add(time.Hour), RevokedAt: &t0}
	other := models.Grant{ID: "g3", GranteeID: "carol", ExpiresAt: t0.Add(time.Hour)}
	short := models.Grant{ID: "g4", GranteeID: "bob", ExpiresAt: t0.Add(time.Minute)}
	global := models.Grant{ID: "g5", Global: true, ExpiresAt: t0.Add(2 * time.Hour)}

	assert.False(t, AnyActive(nil, "bob", t0))
	assert.False(t, AnyActive([]models.Grant{expired, revoked, other}, "bob", t0))
	assert.True(t, AnyActive([]models.Grant{expired, revoked, other, short}, "bob", t0))
	assert.True(t, AnyActive([]models.Grant{global}, "dave", t0))

	best, ok := Best([]models.Grant{short, global}, "bob", t0)
	require.True(t, ok)
	assert.Equal(t, "g5", best.ID)
}

func TestNewRequest(t *testing.T) {
	r, err := NewRequest(profile, "bob", t0)
	require.NoError(t, err)
	assert.Equal(t, "bob", r.ViewerID)
	assert.Equal(t, profile.Ref, r.Subject)

	_, err = NewRequest(profile, "alice", t0)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}
