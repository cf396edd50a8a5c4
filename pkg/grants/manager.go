// Package grants issues, revokes and evaluates time-boxed visibility
// grants. Only the owner of a subject may grant or revoke access to it;
// a message is owned by its sender and a profile by itself.
package grants

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"ghostline/pkg/models"
)

// Subject identifies what a grant covers together with its owner.
type Subject struct {
	Ref     models.SubjectRef
	OwnerID string
}

// IssueRequest describes a grant the owner wants to create.
type IssueRequest struct {
	Subject   Subject
	Actor     string
	GranteeID string
	Global    bool
	Duration  time.Duration
}

// Issue creates a grant valid from now until now+Duration.
func Issue(req IssueRequest, now time.Time) (models.Grant, error) {
	if req.Actor == "" || req.Actor != req.Subject.OwnerID {
		return models.Grant{}, errors.Wrapf(models.ErrForbidden, "only the owner of %s may grant access", req.Subject.Ref)
	}
	if req.Duration <= 0 {
		return models.Grant{}, errors.Wrapf(models.ErrInvalidArgument, "grant duration must be positive, got %s", req.Duration)
	}
	if !req.Global && req.GranteeID == "" {
		return models.Grant{}, errors.Wrap(models.ErrInvalidArgument, "grant needs a grantee or global scope")
	}
	g := models.Grant{
		ID:        uuid.NewString(),
		Subject:   req.Subject.Ref,
		Global:    req.Global,
		IssuedBy:  req.Actor,
		IssuedAt:  now.UTC(),
		ExpiresAt: now.UTC().Add(req.Duration),
	}
	if !req.Global {
		g.GranteeID = req.GranteeID
	}
	return g, nil
}

// Revoke marks g revoked. Revoking an already revoked grant returns it
// unchanged.
func Revoke(g models.Grant, actor string, now time.Time) (models.Grant, error) {
	if actor == "" || actor != g.IssuedBy {
		return g, errors.Wrapf(models.ErrForbidden, "only the owner may revoke grant %s", g.ID)
	}
	if g.RevokedAt != nil {
		return g, nil
	}
	ts := now.UTC()
	g.RevokedAt = &ts
	return g, nil
}

// IsActive reports whether g is unrevoked and now < expiresAt.
func IsActive(g models.Grant, now time.Time) bool {
	return g.RevokedAt == nil && now.Before(g.ExpiresAt)
}

// Covers reports whether g applies to viewer, ignoring time.
func Covers(g models.Grant, viewer string) bool {
	return g.Global || (viewer != "" && g.GranteeID == viewer)
}

// AnyActive reports whether at least one grant in gs currently covers
// viewer. Grants combine by disjunction.
func AnyActive(gs []models.Grant, viewer string, now time.Time) bool {
	_, ok := Best(gs, viewer, now)
	return ok
}

// Best returns the active grant covering viewer that lasts longest.
func Best(gs []models.Grant, viewer string, now time.Time) (models.Grant, bool) {
	var (
		best  models.Grant
		found bool
	)
	for _, g := range gs {
		if !Covers(g, viewer) || !IsActive(g, now) {
			continue
		}
		if !found || g.ExpiresAt.After(best.ExpiresAt) {
			best, found = g, true
		}
	}
	return best, found
}

// NewRequest records viewer's advisory ask for access to subject.
func NewRequest(subject Subject, viewer string, now time.Time) (models.AccessRequest, error) {
	if viewer == "" {
		return models.AccessRequest{}, errors.Wrap(models.ErrInvalidArgument, "viewer required")
	}
	if viewer == subject.OwnerID {
		return models.AccessRequest{}, errors.Wrapf(models.ErrInvalidArgument, "owner cannot request access to %s", subject.Ref)
	}
	return models.AccessRequest{Subject: subject.Ref, ViewerID: viewer, RequestedAt: now.UTC()}, nil
}
