package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for electricity snapshots, qualification
// records, and service configuration.
type Storage interface {
	// Electricity snapshots, keyed by state+county.
	GetSnapshot(ctx context.Context, stateCode, county string) (*ElectricitySnapshot, error)
	SaveSnapshot(ctx context.Context, snap ElectricitySnapshot) error
	ListSnapshots(ctx context.Context) ([]ElectricitySnapshot, error)

	// Qualification records (audit of rendered verdicts).
	SaveQualification(ctx context.Context, rec QualificationRecord) error
	ListQualifications(ctx context.Context, limit int) ([]QualificationRecord, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Email config
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, config EmailConfig) error

	// Scheduled jobs & locking
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)

	// Ping reports backend health for readiness checks.
	Ping(ctx context.Context) error

	// Close releases any resources (no-op for in-memory).
	Close() error
}
