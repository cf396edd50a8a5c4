package store

import (
	"context"

	"github.com/cockroachdb/errors"

	"ghostline/pkg/models"
	"ghostline/pkg/store/keys"
)

// PutScope creates or replaces a scope record.
func (s *Store) PutScope(ctx context.Context, sc *models.Scope) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if err := keys.ValidateID("scope", sc.Ref); err != nil {
		return errors.Mark(err, models.ErrInvalidArgument)
	}
	key := keys.GenScopeKey(sc.Ref)
	unlock := s.locks.lock(key)
	defer unlock()
	return s.putRecord(key, sc)
}

func (s *Store) GetScope(ctx context.Context, ref string) (*models.Scope, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	var sc models.Scope
	if err := s.getRecord(keys.GenScopeKey(ref), &sc); err != nil {
		return nil, errors.Wrapf(err, "scope %s", ref)
	}
	return &sc, nil
}
