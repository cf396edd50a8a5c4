package engine

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// SetProfileObscurity changes a profile's blur/hide flags. Only the
// profile's owner may change them.
func (e *Engine) SetProfileObscurity(ctx context.Context, profileID, actor string, o models.Obscurity) (*models.Profile, error) {
	if actor == "" || actor != profileID {
		return nil, errors.Wrapf(models.ErrForbidden, "%s may not change profile %s", actor, profileID)
	}
	now := e.now()
	p, err := e.store.UpdateProfile(ctx, profileID, func(p *models.Profile) (bool, error) {
		if p.Obscurity == o {
			return false, nil
		}
		p.Obscurity = o
		p.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("profile_obscurity_set", "profile_id", profileID, "blurred", o.Blurred, "hidden", o.Hidden)
	return p, nil
}

// SetMessageObscurity changes a message's blur/hide flags. Only the
// sender may change them, and tombstoned messages are left alone.
func (e *Engine) SetMessageObscurity(ctx context.Context, messageID, actor string, o models.Obscurity) (*models.Message, error) {
	m, err := e.store.UpdateMessage(ctx, messageID, func(m *models.Message) (bool, error) {
		if actor == "" || actor != m.SenderID {
			return false, errors.Wrapf(models.ErrForbidden, "%s may not change message %s", actor, m.ID)
		}
		if m.Tombstoned || m.Obscurity == o {
			return false, nil
		}
		m.Obscurity = o
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("message_obscurity_set", "message_id", messageID, "blurred", o.Blurred, "hidden", o.Hidden)
	return m, nil
}
