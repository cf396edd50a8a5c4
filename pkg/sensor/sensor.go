// Package sensor watches the filesystem holding the database and raises a
// disk pressure alert with hysteresis.
package sensor

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sys/unix"

	"ghostline/pkg/logger"
	"ghostline/pkg/timeutil"
)

var (
	diskUsedRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ghostline",
		Subsystem: "sensor",
		Name:      "disk_used_ratio",
		Help:      "Fraction of the db filesystem in use.",
	})
	diskFreeBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ghostline",
		Subsystem: "sensor",
		Name:      "disk_free_bytes",
		Help:      "Bytes available to the server on the db filesystem.",
	})
	diskAlertGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ghostline",
		Subsystem: "sensor",
		Name:      "disk_alert",
		Help:      "1 while the disk pressure alert is raised.",
	})
)

func init() {
	prometheus.MustRegister(diskUsedRatio, diskFreeBytes, diskAlertGauge)
}

// Config for the watchdog.
type Config struct {
	Path           string
	PollInterval   time.Duration
	DiskHighPct    int
	DiskLowPct     int
	RecoveryWindow time.Duration
}

// Usage is one filesystem reading.
type Usage struct {
	TotalBytes uint64
	FreeBytes  uint64
}

// UsedPct is the used share of the filesystem in percent.
func (u Usage) UsedPct() float64 {
	if u.TotalBytes == 0 {
		return 0
	}
	return float64(u.TotalBytes-u.FreeBytes) / float64(u.TotalBytes) * 100
}

// Snapshot is what the admin API reports.
type Snapshot struct {
	DiskAlert  bool       `json:"disk_alert"`
	UsedPct    float64    `json:"disk_used_pct"`
	FreeBytes  uint64     `json:"disk_free_bytes"`
	TotalBytes uint64     `json:"disk_total_bytes"`
	HeapInuse  uint64     `json:"heap_inuse_bytes"`
	CheckedAt  *time.Time `json:"checked_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

type Sensor struct {
	cfg   Config
	clock timeutil.Clock
	stat  func(path string) (Usage, error)

	mu         sync.Mutex
	diskAlert  bool
	belowSince time.Time
	last       Snapshot

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(cfg Config, clock timeutil.Clock) *Sensor {
	if clock == nil {
		clock = timeutil.Default()
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 15 * time.Second
	}
	if cfg.Path == "" {
		cfg.Path = "/"
	}
	return &Sensor{cfg: cfg, clock: clock, stat: statfs}
}

func statfs(path string) (Usage, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return Usage{}, err
	}
	return Usage{
		TotalBytes: st.Blocks * uint64(st.Bsize),
		FreeBytes:  st.Bavail * uint64(st.Bsize),
	}, nil
}

// Start polls until ctx is done or Stop is called.
func (s *Sensor) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.Check()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := s.clock.NewTicker(s.cfg.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Check()
			}
		}
	}()
}

func (s *Sensor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

// Check takes one reading and updates the alert state.
func (s *Sensor) Check() Snapshot {
	now := s.clock.Now()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	u, err := s.stat(s.cfg.Path)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.last.CheckedAt = &now
	s.last.HeapInuse = m.HeapInuse
	if err != nil {
		logger.Warn("disk_stat_failed", "path", s.cfg.Path, "error", err)
		s.last.Error = err.Error()
		return s.last
	}
	s.last.Error = ""

	used := u.UsedPct()
	switch {
	case used > float64(s.cfg.DiskHighPct):
		s.belowSince = time.Time{}
		if !s.diskAlert {
			logger.Warn("disk_usage_high", "path", s.cfg.Path, "used_pct", used, "threshold", s.cfg.DiskHighPct)
			s.diskAlert = true
		}
	case used < float64(s.cfg.DiskLowPct) && s.diskAlert:
		if s.belowSince.IsZero() {
			s.belowSince = now
		}
		if now.Sub(s.belowSince) >= s.cfg.RecoveryWindow {
			logger.Info("disk_usage_recovered", "path", s.cfg.Path, "used_pct", used, "below", s.cfg.DiskLowPct, "for", s.cfg.RecoveryWindow)
			s.diskAlert = false
			s.belowSince = time.Time{}
		}
	default:
		s.belowSince = time.Time{}
	}

	s.last.DiskAlert = s.diskAlert
	s.last.UsedPct = used
	s.last.FreeBytes = u.FreeBytes
	s.last.TotalBytes = u.TotalBytes

	diskUsedRatio.Set(used / 100)
	diskFreeBytes.Set(float64(u.FreeBytes))
	if s.diskAlert {
		diskAlertGauge.Set(1)
	} else {
		diskAlertGauge.Set(0)
	}
	return s.last
}

// Snapshot returns the most recent reading.
func (s *Sensor) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
