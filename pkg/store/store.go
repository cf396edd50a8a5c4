// Package store persists engine records in pebble. Each record lives under
// its own key and is rewritten whole; read-modify-write runs under a
// per-record lock so concurrent transitions merge instead of racing.
package store

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"

	"ghostline/pkg/codec"
	"ghostline/pkg/logger"
	"ghostline/pkg/models"
	"ghostline/pkg/store/keys"
)

// Options tune the pebble instance.
type Options struct {
	// CacheSize is the block cache size in bytes; zero keeps pebble's default.
	CacheSize int64
	// DisableWAL trades durability of the last writes for speed.
	DisableWAL bool
	// FS overrides the filesystem, e.g. vfs.NewMem() in tests.
	FS vfs.FS
}

type Store struct {
	db          *pebble.DB
	path        string
	walDisabled bool
	locks       *keyLocks
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*Store, error) {
	po := &pebble.Options{DisableWAL: opts.DisableWAL}
	if opts.FS != nil {
		po.FS = opts.FS
	}
	if opts.CacheSize > 0 {
		cache := pebble.NewCache(opts.CacheSize)
		defer cache.Unref()
		po.Cache = cache
	}
	if opts.DisableWAL {
		logger.Warn("durability_disabled", "durability", "pebble WAL disabled")
	}
	db, err := pebble.Open(path, po)
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return nil, errors.Wrapf(err, "open pebble at %s", path)
	}
	return &Store{db: db, path: path, walDisabled: opts.DisableWAL, locks: newKeyLocks()}, nil
}

// OpenInMemory opens a store on an in-memory filesystem.
func OpenInMemory() (*Store, error) {
	return Open("ghostline", Options{FS: vfs.NewMem()})
}

// Close flushes memtables and closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	if err := s.db.Flush(); err != nil {
		logger.Error("pebble_flush_failed", "error", err)
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ready reports whether the database is open.
func (s *Store) Ready() bool {
	return s != nil && s.db != nil
}

// DiskUsage returns the bytes pebble occupies on disk.
func (s *Store) DiskUsage() uint64 {
	if !s.Ready() {
		return 0
	}
	return s.db.Metrics().DiskSpaceUsage()
}

func (s *Store) writeOpt() *pebble.WriteOptions {
	if s.walDisabled {
		return pebble.NoSync
	}
	return pebble.Sync
}

func (s *Store) check(ctx context.Context) error {
	if !s.Ready() {
		return errors.New("pebble not opened")
	}
	return ctx.Err()
}

// getRecord decodes the value at key into v. A missing key is marked as
// models.ErrNotFound.
func (s *Store) getRecord(key string, v any) error {
	b, closer, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			logger.Debug("get_key_missing", "key", key)
			return errors.Wrapf(errors.Mark(err, models.ErrNotFound), "get %s", key)
		}
		logger.Error("get_key_failed", "key", key, "error", err)
		return errors.Wrapf(err, "get %s", key)
	}
	defer closer.Close()
	if err := codec.Unmarshal(b, v); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}

func (s *Store) exists(key string) (bool, error) {
	_, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "get %s", key)
	}
	closer.Close()
	return true, nil
}

func setRecord(b *pebble.Batch, key string, v any) error {
	data, err := codec.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return b.Set([]byte(key), data, nil)
}

func (s *Store) putRecord(key string, v any) error {
	b := s.db.NewBatch()
	defer b.Close()
	if err := setRecord(b, key, v); err != nil {
		return err
	}
	return s.commit(b)
}

func (s *Store) commit(b *pebble.Batch) error {
	if err := b.Commit(s.writeOpt()); err != nil {
		logger.Error("pebble_apply_batch_failed", "error", err)
		return errors.Wrap(err, "commit batch")
	}
	return nil
}

// scanKeys returns up to limit keys under prefix that sort after
// prefix+after. limit <= 0 means no limit.
func (s *Store) scanKeys(prefix, after string, limit int) ([]string, error) {
	lower := []byte(prefix)
	if after != "" {
		lower = append([]byte(prefix+after), 0)
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: lower,
		UpperBound: keys.PrefixEnd([]byte(prefix)),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "iterate %s", prefix)
	}
	defer iter.Close()

	var out []string
	for iter.First(); iter.Valid(); iter.Next() {
		out = append(out, string(iter.Key()))
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, iter.Error()
}
