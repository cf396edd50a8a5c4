// Package deletion implements delete-for-me (a per-viewer hide) and
// delete-for-everyone (a terminal tombstone). Both are idempotent.
package deletion

import (
	"time"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/models"
	"ghostline/pkg/visibility"
)

// DeleteForMe hides msg for actor only. It reports false when the message
// was already gone for actor, which callers treat as success.
func DeleteForMe(msg *models.Message, actor string, now time.Time) bool {
	if actor == "" {
		return false
	}
	switch visibility.EvaluateMessage(msg, actor, nil, now).State {
	case models.StateTombstoned, models.StateLocallyDeleted:
		return false
	}
	return msg.Hide(actor, models.HideDeleted)
}

// CanDeleteForEveryone reports sender, scope owner or moderator authority.
func CanDeleteForEveryone(msg *models.Message, actor string, scope *models.Scope) bool {
	if actor == "" {
		return false
	}
	return actor == msg.SenderID || scope.IsModerator(actor)
}

// DeleteForEveryone tombstones msg. Copies forwarded elsewhere are
// independent records and stay untouched.
func DeleteForEveryone(msg *models.Message, actor string, scope *models.Scope, now time.Time) (bool, error) {
	if !CanDeleteForEveryone(msg, actor, scope) {
		return false, errors.Wrapf(models.ErrForbidden, "%s may not delete message %s for everyone", actor, msg.ID)
	}
	return msg.Tombstone(now), nil
}
