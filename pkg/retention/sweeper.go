package retention

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"ghostline/pkg/logger"
	"ghostline/pkg/models"
)

// Store is the persistence the sweeper needs. UpdateMessage must run fn
// under the record's lock and persist only when fn reports a change.
type Store interface {
	RetentionCandidates(ctx context.Context, after string, limit int) ([]string, error)
	UpdateMessage(ctx context.Context, id string, fn func(*models.Message) (bool, error)) (*models.Message, error)
	GetScope(ctx context.Context, ref string) (*models.Scope, error)
}

// Config bounds a sweep.
type Config struct {
	GhostCountdown time.Duration
	BatchSize      int
	Workers        int
	BatchTimeout   time.Duration
	DryRun         bool
}

func (c Config) withDefaults() Config {
	if c.GhostCountdown <= 0 {
		c.GhostCountdown = DefaultGhostCountdown
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 500
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.BatchTimeout <= 0 {
		c.BatchTimeout = 10 * time.Second
	}
	return c
}

// Item records what a sweep did to one message.
type Item struct {
	MessageID  string   `json:"message_id"`
	Expired    []string `json:"expired,omitempty"`
	Tombstoned bool     `json:"tombstoned,omitempty"`
	Reason     string   `json:"reason,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Result summarizes one sweep run.
type Result struct {
	RunID          string    `json:"run_id"`
	StartedAt      time.Time `json:"started_at"`
	DryRun         bool      `json:"dry_run"`
	Scanned        int       `json:"scanned"`
	ViewersExpired int       `json:"viewers_expired"`
	Tombstoned     int       `json:"tombstoned"`
	Failed         int       `json:"failed"`
	// Items holds only messages that changed or failed.
	Items []Item `json:"items,omitempty"`
}

func (r *Result) add(it Item) {
	r.Scanned++
	r.ViewersExpired += len(it.Expired)
	if it.Tombstoned {
		r.Tombstoned++
	}
	if it.Error != "" {
		r.Failed++
	}
	if it.Error != "" || it.Tombstoned || len(it.Expired) > 0 {
		r.Items = append(r.Items, it)
	}
}

type Sweeper struct {
	store Store
	cfg   Config
}

func NewSweeper(store Store, cfg Config) *Sweeper {
	return &Sweeper{store: store, cfg: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (s *Sweeper) Config() Config { return s.cfg }

// Sweep walks every retention candidate in pages of BatchSize. Each page
// is processed by at most Workers goroutines and bounded by BatchTimeout.
// A failed message is reported in the result and retried by the next run.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (Result, error) {
	return s.sweep(ctx, now, s.cfg.DryRun)
}

// Preview runs a sweep that reports what would change without writing.
func (s *Sweeper) Preview(ctx context.Context, now time.Time) (Result, error) {
	return s.sweep(ctx, now, true)
}

func (s *Sweeper) sweep(ctx context.Context, now time.Time, dryRun bool) (Result, error) {
	res := Result{RunID: uuid.NewString(), StartedAt: now.UTC(), DryRun: dryRun}
	scopes := newScopeCache(s.store)

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		ids, err := s.store.RetentionCandidates(ctx, after, s.cfg.BatchSize)
		if err != nil {
			return res, errors.Wrap(err, "list retention candidates")
		}
		if len(ids) == 0 {
			break
		}
		for _, it := range s.sweepBatch(ctx, ids, now, dryRun, scopes) {
			res.add(it)
		}
		after = ids[len(ids)-1]
		if len(ids) < s.cfg.BatchSize {
			break
		}
	}
	logger.Debug("retention_sweep_done", "run_id", res.RunID, "scanned", res.Scanned, "expired", res.ViewersExpired, "tombstoned", res.Tombstoned, "failed", res.Failed)
	return res, nil
}

func (s *Sweeper) sweepBatch(ctx context.Context, ids []string, now time.Time, dryRun bool, scopes *scopeCache) []Item {
	bctx, cancel := context.WithTimeout(ctx, s.cfg.BatchTimeout)
	defer cancel()

	items := make([]Item, len(ids))
	g, gctx := errgroup.WithContext(bctx)
	g.SetLimit(s.cfg.Workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			it, err := s.sweepOne(gctx, id, now, dryRun, scopes)
			if err != nil {
				logger.Warn("retention_sweep_item_failed", "message_id", id, "error", err)
				it.Error = err.Error()
			}
			items[i] = it
			return nil
		})
	}
	_ = g.Wait()
	return items
}

// SweepMessage applies due transitions to a single message immediately.
func (s *Sweeper) SweepMessage(ctx context.Context, id string, now time.Time) (Item, error) {
	return s.sweepOne(ctx, id, now, s.cfg.DryRun, newScopeCache(s.store))
}

func (s *Sweeper) sweepOne(ctx context.Context, id string, now time.Time, dryRun bool, scopes *scopeCache) (Item, error) {
	it := Item{MessageID: id}
	_, err := s.store.UpdateMessage(ctx, id, func(m *models.Message) (bool, error) {
		scope, err := scopes.get(ctx, m.ScopeRef)
		if err != nil {
			return false, err
		}
		target := m
		if dryRun {
			target = m.Clone()
		}
		out := Apply(target, scope, now)
		it.Expired, it.Tombstoned, it.Reason = out.Expired, out.Tombstoned, out.Reason
		return out.Changed() && !dryRun, nil
	})
	if errors.Is(err, models.ErrNotFound) {
		return it, nil
	}
	return it, err
}

type scopeCache struct {
	store Store
	mu    sync.Mutex
	m     map[string]*models.Scope
}

func newScopeCache(store Store) *scopeCache {
	return &scopeCache{store: store, m: make(map[string]*models.Scope)}
}

func (c *scopeCache) get(ctx context.Context, ref string) (*models.Scope, error) {
	c.mu.Lock()
	sc, ok := c.m[ref]
	c.mu.Unlock()
	if ok {
		return sc, nil
	}
	sc, err := c.store.GetScope(ctx, ref)
	if errors.Is(err, models.ErrNotFound) {
		sc, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.m[ref] = sc
	c.mu.Unlock()
	return sc, nil
}
