package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/models"
	"ghostline/pkg/store/keys"
)

// PutProfile creates or replaces a profile record.
func (s *Store) PutProfile(ctx context.Context, p *models.Profile) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := keys.ValidateID("profile", p.ID); err != nil {
		return errors.Mark(err, models.ErrInvalidArgument)
	}
	key := keys.GenProfileKey(p.ID)
	unlock := s.locks.lock(key)
	defer unlock()
	return s.putRecord(key, p)
}

func (s *Store) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var p models.Profile
	if err := s.getRecord(keys.GenProfileKey(id), &p); err != nil {
		return nil, errors.Wrapf(err, "profile %s", id)
	}
	return &p, nil
}

// UpdateProfile is the profile counterpart of UpdateMessage.
func (s *Store) UpdateProfile(ctx context.Context, id string, fn func(*models.Profile) (bool, error)) (*models.Profile, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	key := keys.GenProfileKey(id)
	unlock := s.locks.lock(key)
	defer unlock()

	var p models.Profile
	if err := s.getRecord(key, &p); err != nil {
		return nil, errors.Wrapf(err, "profile %s", id)
	}
	changed, err := fn(&p)
	if err != nil || !changed {
		return &p, err
	}
	if err := s.putRecord(key, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
