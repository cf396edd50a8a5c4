package admin

import (
	"context"

	"ghostline/pkg/models"
	"ghostline/pkg/retention"
	"ghostline/pkg/sensor"
)

// StoreStats is the slice of the store the admin routes report on.
type StoreStats interface {
	Ready() bool
	DiskUsage() uint64
	GetMessage(ctx context.Context, id string) (*models.Message, error)
}

// Jobs controls the background retention loop.
type Jobs interface {
	RunImmediate(ctx context.Context, dryRun bool) (retention.Result, error)
	Status() retention.Status
}

// Sweeper settles a single message on demand.
type Sweeper interface {
	SweepMessage(ctx context.Context, messageID string) (retention.Item, error)
}

// DiskSensor reports disk pressure on the db filesystem.
type DiskSensor interface {
	Snapshot() sensor.Snapshot
}

type StatsResult struct {
	Ready         bool             `json:"ready"`
	DiskUsage     uint64           `json:"disk_usage_bytes"`
	DiskUsageText string           `json:"disk_usage"`
	Retention     retention.Status `json:"retention"`
	Disk          *sensor.Snapshot `json:"disk,omitempty"`
	Version       string           `json:"version,omitempty"`
}
