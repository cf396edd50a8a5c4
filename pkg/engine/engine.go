// Package engine is the facade the transport layer calls. It loads records
// from the Store, asks the evaluator for decisions, applies transitions
// under per-record locks and keeps every timestamp on one Clock.
package engine

import (
	"context"
	"sync"
	"time"

	"ghostline/pkg/models"
	"ghostline/pkg/retention"
	"ghostline/pkg/timeutil"
)

// Store is the persistence the engine consumes.
type Store interface {
	retention.Store

	CreateMessage(ctx context.Context, m *models.Message) error
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	ListScopeMessages(ctx context.Context, scopeRef string, page models.PaginationRequest) ([]*models.Message, models.PaginationResponse, error)

	PutScope(ctx context.Context, sc *models.Scope) error

	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	PutProfile(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, id string, fn func(*models.Profile) (bool, error)) (*models.Profile, error)

	PutGrant(ctx context.Context, g *models.Grant) error
	GetGrant(ctx context.Context, id string) (*models.Grant, error)
	UpdateGrant(ctx context.Context, id string, fn func(*models.Grant) (bool, error)) (*models.Grant, error)
	ListGrants(ctx context.Context, ref models.SubjectRef) ([]models.Grant, error)

	AddAccessRequest(ctx context.Context, r *models.AccessRequest) (bool, error)
	ListAccessRequests(ctx context.Context, ref models.SubjectRef) ([]models.AccessRequest, error)
	DeleteAccessRequest(ctx context.Context, ref models.SubjectRef, viewer string) error
}

// Config holds engine tunables.
type Config struct {
	GhostCountdown time.Duration
	Sweep          retention.Config
}

type Engine struct {
	store   Store
	clock   timeutil.Clock
	cfg     Config
	sweeper *retention.Sweeper

	mu        sync.RWMutex
	staleRead func(messageID string)
}

// New builds an engine. A nil clock means the process clock.
func New(store Store, clock timeutil.Clock, cfg Config) *Engine {
	if clock == nil {
		clock = timeutil.Default()
	}
	if cfg.GhostCountdown <= 0 {
		cfg.GhostCountdown = retention.DefaultGhostCountdown
	}
	cfg.Sweep.GhostCountdown = cfg.GhostCountdown
	return &Engine{
		store:   store,
		clock:   clock,
		cfg:     cfg,
		sweeper: retention.NewSweeper(store, cfg.Sweep),
	}
}

// Clock returns the engine's authoritative clock.
func (e *Engine) Clock() timeutil.Clock { return e.clock }

// OnStaleRead registers fn to be told about messages whose countdown
// elapsed before the sweeper processed them.
func (e *Engine) OnStaleRead(fn func(messageID string)) {
	e.mu.Lock()
	e.staleRead = fn
	e.mu.Unlock()
}

func (e *Engine) notifyStale(id string) {
	e.mu.RLock()
	fn := e.staleRead
	e.mu.RUnlock()
	if fn != nil {
		fn(id)
	}
}

func (e *Engine) now() time.Time {
	return e.clock.Now().UTC()
}
