package engine

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/grants"
	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// GrantRequest is an owner's request to open a subject to a viewer or to
// everyone for a while.
type GrantRequest struct {
	Subject   models.SubjectRef `json:"subject"`
	Actor     string            `json:"-"`
	GranteeID string            `json:"grantee,omitempty"`
	Global    bool              `json:"global,omitempty"`
	Duration  time.Duration     `json:"-"`
}

// subject resolves the owner of ref: a message's sender or the profile
// itself.
func (e *Engine) subject(ctx context.Context, ref models.SubjectRef) (grants.Subject, error) {
	switch ref.Kind {
	case models.SubjectMessage:
		m, err := e.store.GetMessage(ctx, ref.ID)
		if err != nil {
			return grants.Subject{}, err
		}
		return grants.Subject{Ref: ref, OwnerID: m.SenderID}, nil
	case models.SubjectProfile:
		p, err := e.store.GetProfile(ctx, ref.ID)
		if err != nil {
			return grants.Subject{}, err
		}
		return grants.Subject{Ref: ref, OwnerID: p.ID}, nil
	default:
		return grants.Subject{}, errors.Wrapf(models.ErrInvalidArgument, "unknown subject kind %q", ref.Kind)
	}
}

func (e *Engine) ownedSubject(ctx context.Context, ref models.SubjectRef, actor string) (grants.Subject, error) {
	sub, err := e.subject(ctx, ref)
	if err != nil {
		return sub, err
	}
	if actor == "" || actor != sub.OwnerID {
		return sub, errors.Wrapf(models.ErrForbidden, "%s does not own %s", actor, ref)
	}
	return sub, nil
}

// RequestAccess records that viewer would like to see ref. Repeating the
// request keeps the first timestamp. It reports whether a new request
// was stored.
func (e *Engine) RequestAccess(ctx context.Context, ref models.SubjectRef, viewer string) (bool, error) {
	sub, err := e.subject(ctx, ref)
	if err != nil {
		return false, err
	}
	req, err := grants.NewRequest(sub, viewer, e.now())
	if err != nil {
		return false, err
	}
	added, err := e.store.AddAccessRequest(ctx, &req)
	if err != nil {
		return false, err
	}
	if added {
		logger.Info("access_requested", "subject", ref.String(), "viewer", viewer)
	}
	return added, nil
}

// ListAccessRequests returns the pending requests for ref. Owner only.
func (e *Engine) ListAccessRequests(ctx context.Context, ref models.SubjectRef, actor string) ([]models.AccessRequest, error) {
	if _, err := e.ownedSubject(ctx, ref, actor); err != nil {
		return nil, err
	}
	return e.store.ListAccessRequests(ctx, ref)
}

// ListGrants returns every grant ever issued for ref. Owner only.
func (e *Engine) ListGrants(ctx context.Context, ref models.SubjectRef, actor string) ([]models.Grant, error) {
	if _, err := e.ownedSubject(ctx, ref, actor); err != nil {
		return nil, err
	}
	return e.store.ListGrants(ctx, ref)
}

// GrantAccess issues a time-boxed grant. A pending request by the grantee
// is settled by the grant.
func (e *Engine) GrantAccess(ctx context.Context, req GrantRequest) (models.Grant, error) {
	sub, err := e.subject(ctx, req.Subject)
	if err != nil {
		return models.Grant{}, err
	}
	g, err := grants.Issue(grants.IssueRequest{
		Subject:   sub,
		Actor:     req.Actor,
		GranteeID: req.GranteeID,
		Global:    req.Global,
		Duration:  req.Duration,
	}, e.now())
	if err != nil {
		return models.Grant{}, err
	}
	if err := e.store.PutGrant(ctx, &g); err != nil {
		return models.Grant{}, err
	}
	if g.GranteeID != "" {
		if err := e.store.DeleteAccessRequest(ctx, g.Subject, g.GranteeID); err != nil {
			logger.Warn("access_request_cleanup_failed", "subject", g.Subject.String(), "viewer", g.GranteeID, "error", err)
		}
	}
	grantsTotal.WithLabelValues("issued").Inc()
	logger.AuditEvent("grant_issued", "grant_id", g.ID, "subject", g.Subject.String(), "grantee", g.GranteeID, "global", g.Global, "expires_at", g.ExpiresAt)
	return g, nil
}

// RevokeAccess revokes a grant immediately. Revoking twice is a no-op.
func (e *Engine) RevokeAccess(ctx context.Context, grantID, actor string) (models.Grant, error) {
	now := e.now()
	var changed bool
	g, err := e.store.UpdateGrant(ctx, grantID, func(g *models.Grant) (bool, error) {
		revoked, err := grants.Revoke(*g, actor, now)
		if err != nil {
			return false, err
		}
		changed = g.RevokedAt == nil && revoked.RevokedAt != nil
		*g = revoked
		return changed, nil
	})
	if err != nil {
		return models.Grant{}, err
	}
	if changed {
		grantsTotal.WithLabelValues("revoked").Inc()
		logger.AuditEvent("grant_revoked", "grant_id", g.ID, "subject", g.Subject.String(), "actor", actor)
	}
	return *g, nil
}
