// Package retention runs the background sweep loop: on an interval or a
// cron schedule, on demand from the admin API, and for single messages a
// read found past their deadline.
package retention

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/adhocore/gronx"
	"github.com/cockroachdb/errors"

	"ghostline/pkg/logger"
	ret "ghostline/pkg/retention"
	"ghostline/pkg/timeutil"
)

const (
	defaultInterval    = 30 * time.Second
	defaultNudgeBuffer = 256
	cronRetryDelay     = 30 * time.Second
)

// Sweeper is the engine surface the loop drives.
type Sweeper interface {
	RunRetentionSweep(ctx context.Context, now time.Time) (ret.Result, error)
	PreviewRetentionSweep(ctx context.Context, now time.Time) (ret.Result, error)
	SweepMessage(ctx context.Context, messageID string) (ret.Item, error)
}

// Options configure the loop. A non-empty Cron takes precedence over
// Interval.
type Options struct {
	Enabled     bool
	Interval    time.Duration
	Cron        string
	Paused      bool
	NudgeBuffer int
}

type RetentionManager struct {
	sw    Sweeper
	clock timeutil.Clock
	opts  Options

	nudges chan string
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mutex   sync.Mutex
	running bool
	status  ret.Status
}

func New(sw Sweeper, clock timeutil.Clock, opts Options) *RetentionManager {
	if clock == nil {
		clock = timeutil.Default()
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultInterval
	}
	if opts.NudgeBuffer <= 0 {
		opts.NudgeBuffer = defaultNudgeBuffer
	}
	rm := &RetentionManager{
		sw:     sw,
		clock:  clock,
		opts:   opts,
		nudges: make(chan string, opts.NudgeBuffer),
	}
	rm.status = ret.Status{Enabled: opts.Enabled, Paused: opts.Paused, Schedule: rm.schedule()}
	return rm
}

func (rm *RetentionManager) schedule() string {
	if rm.opts.Cron != "" {
		return "cron " + rm.opts.Cron
	}
	return fmt.Sprintf("every %s", rm.opts.Interval)
}

// Start launches the schedule and nudge loops. A disabled manager starts
// nothing; RunImmediate still works.
func (rm *RetentionManager) Start(ctx context.Context) {
	if !rm.opts.Enabled {
		logger.Info("retention_disabled")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	rm.cancel = cancel

	rm.wg.Add(2)
	go rm.scheduleLoop(ctx)
	go rm.nudgeLoop(ctx)
	logger.Info("retention_enabled", "schedule", rm.schedule(), "paused", rm.opts.Paused)
}

// Stop cancels the loops and waits for an in-flight sweep to return.
func (rm *RetentionManager) Stop() {
	if rm.cancel != nil {
		rm.cancel()
	}
	rm.wg.Wait()
}

// Nudge asks for messageID to be settled soon. It never blocks; when the
// queue is full the next scheduled sweep picks the message up.
func (rm *RetentionManager) Nudge(messageID string) {
	select {
	case rm.nudges <- messageID:
	default:
		nudgesTotal.WithLabelValues("dropped").Inc()
		logger.Debug("retention_nudge_dropped", "message_id", messageID)
	}
}

// RunImmediate runs one sweep now, regardless of schedule or pause.
func (rm *RetentionManager) RunImmediate(ctx context.Context, dryRun bool) (ret.Result, error) {
	return rm.runJob(ctx, dryRun, "manual")
}

// Status returns a snapshot of the loop.
func (rm *RetentionManager) Status() ret.Status {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	st := rm.status
	st.Running = rm.running
	return st
}

func (rm *RetentionManager) setNext(t time.Time) {
	rm.mutex.Lock()
	next := t.UTC()
	rm.status.NextRunAt = &next
	rm.mutex.Unlock()
}

func (rm *RetentionManager) scheduleLoop(ctx context.Context) {
	defer rm.wg.Done()
	if rm.opts.Cron != "" {
		rm.cronLoop(ctx)
		return
	}

	ticker := rm.clock.NewTicker(rm.opts.Interval)
	defer ticker.Stop()
	rm.setNext(rm.clock.Now().Add(rm.opts.Interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rm.scheduled(ctx)
			rm.setNext(rm.clock.Now().Add(rm.opts.Interval))
		}
	}
}

func (rm *RetentionManager) cronLoop(ctx context.Context) {
	for {
		now := rm.clock.Now()
		next, err := gronx.NextTickAfter(rm.opts.Cron, now, false)
		if err != nil {
			logger.Error("retention_nexttick_failed", "cron", rm.opts.Cron, "error", err)
			select {
			case <-rm.clock.After(cronRetryDelay):
			case <-ctx.Done():
				return
			}
			continue
		}
		rm.setNext(next)

		select {
		case <-rm.clock.After(next.Sub(now)):
			rm.scheduled(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (rm *RetentionManager) scheduled(ctx context.Context) {
	if rm.opts.Paused {
		runsTotal.WithLabelValues("schedule", "paused").Inc()
		logger.Debug("retention_run_paused")
		return
	}
	if _, err := rm.runJob(ctx, false, "schedule"); err != nil {
		if errors.Is(err, ret.ErrSweepInProgress) {
			runsTotal.WithLabelValues("schedule", "skipped").Inc()
			logger.Info("retention_run_skipped", "reason", "already_running")
			return
		}
		logger.Error("retention_run_error", "error", err)
	}
}

func (rm *RetentionManager) nudgeLoop(ctx context.Context) {
	defer rm.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-rm.nudges:
			if rm.opts.Paused {
				nudgesTotal.WithLabelValues("paused").Inc()
				continue
			}
			it, err := rm.sw.SweepMessage(ctx, id)
			if err != nil {
				nudgesTotal.WithLabelValues("error").Inc()
				logger.Warn("retention_nudge_failed", "message_id", id, "error", err)
				continue
			}
			nudgesTotal.WithLabelValues("settled").Inc()
			viewersExpired.Add(float64(len(it.Expired)))
			if it.Tombstoned {
				tombstoned.Inc()
			}
		}
	}
}

func (rm *RetentionManager) runJob(ctx context.Context, dryRun bool, trigger string) (ret.Result, error) {
	rm.mutex.Lock()
	if rm.running {
		rm.mutex.Unlock()
		return ret.Result{}, ret.ErrSweepInProgress
	}
	rm.running = true
	rm.mutex.Unlock()

	defer func() {
		rm.mutex.Lock()
		rm.running = false
		rm.mutex.Unlock()
	}()

	now := rm.clock.Now().UTC()
	logger.Info("retention_run_start", "trigger", trigger, "dry_run", dryRun)
	logger.AuditEvent("retention_audit_header", "trigger", trigger, "started_at", now.Format(time.RFC3339), "dry_run", dryRun)

	start := time.Now()
	var (
		res ret.Result
		err error
	)
	if dryRun {
		res, err = rm.sw.PreviewRetentionSweep(ctx, now)
	} else {
		res, err = rm.sw.RunRetentionSweep(ctx, now)
	}
	runDuration.Observe(time.Since(start).Seconds())

	errText := ""
	if err != nil {
		errText = err.Error()
	}
	logger.AuditEvent("retention_audit_footer", "run_id", res.RunID, "scanned", res.Scanned, "expired", res.ViewersExpired,
		"tombstoned", res.Tombstoned, "failed", res.Failed, "dry_run", dryRun, "error", errText)

	rm.record(res, err, now, trigger)
	if err != nil {
		return res, err
	}
	logger.Info("retention_run_complete", "run_id", res.RunID, "scanned", res.Scanned, "expired", res.ViewersExpired, "tombstoned", res.Tombstoned, "failed", res.Failed)
	return res, nil
}

func (rm *RetentionManager) record(res ret.Result, err error, at time.Time, trigger string) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	runsTotal.WithLabelValues(trigger, outcome).Inc()
	if !res.DryRun {
		viewersExpired.Add(float64(res.ViewersExpired))
		tombstoned.Add(float64(res.Tombstoned))
	}
	lastRun.Set(float64(at.Unix()))

	summary := res
	summary.Items = nil

	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.status.Runs++
	rm.status.LastRunAt = &at
	rm.status.Last = &summary
	rm.status.LastError = ""
	if err != nil {
		rm.status.LastError = err.Error()
	}
}
