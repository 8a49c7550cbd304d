package storage

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStorage is an in-memory Storage used for tests and dev runs.
type MemoryStorage struct {
	mu             sync.RWMutex
	snapshots      map[string][]ElectricitySnapshot // keyed by state|county
	qualifications []QualificationRecord
	settings       map[string]string
	emailConfig    *EmailConfig
	jobs           map[string]ScheduledJob
	nextID         uint
}

// NewMemory returns an empty in-memory backend.
func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[string][]ElectricitySnapshot),
		settings:  make(map[string]string),
		jobs:      make(map[string]ScheduledJob),
	}
}

func snapKey(stateCode, county string) string {
	return stateCode + "|" + county
}

func (m *MemoryStorage) GetSnapshot(ctx context.Context, stateCode, county string) (*ElectricitySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.snapshots[snapKey(stateCode, county)]
	if len(list) == 0 {
		return nil, nil
	}
	snap := list[len(list)-1]
	return &snap, nil
}

func (m *MemoryStorage) SaveSnapshot(ctx context.Context, snap ElectricitySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}
	m.nextID++
	snap.ID = m.nextID
	key := snapKey(snap.StateCode, snap.County)
	m.snapshots[key] = append(m.snapshots[key], snap)
	return nil
}

func (m *MemoryStorage) ListSnapshots(ctx context.Context) ([]ElectricitySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ElectricitySnapshot, 0, len(m.snapshots))
	for _, list := range m.snapshots {
		out = append(out, list[len(list)-1])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StateCode != out[j].StateCode {
			return out[i].StateCode < out[j].StateCode
		}
		return out[i].County < out[j].County
	})
	return out, nil
}

func (m *MemoryStorage) SaveQualification(ctx context.Context, rec QualificationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.qualifications = append(m.qualifications, rec)
	return nil
}

func (m *MemoryStorage) ListQualifications(ctx context.Context, limit int) ([]QualificationRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	n := len(m.qualifications)
	if limit > n {
		limit = n
	}
	out := make([]QualificationRecord, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.qualifications[i])
	}
	return out, nil
}

func (m *MemoryStorage) GetSetting(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings[key], nil
}

func (m *MemoryStorage) SetSetting(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[key] = value
	return nil
}

func (m *MemoryStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.emailConfig == nil {
		return nil, nil
	}
	cfg := *m.emailConfig
	return &cfg, nil
}

func (m *MemoryStorage) SaveEmailConfig(ctx context.Context, config EmailConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if config.ID == "" {
		config.ID = "default"
	}
	m.emailConfig = &config
	return nil
}

func (m *MemoryStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	status := 0
	if success {
		status = 1
	}
	m.jobs[name] = ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    status,
		LastError:      errMsg,
	}
	return nil
}

func (m *MemoryStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error { return nil }

func (m *MemoryStorage) Close() error { return nil }
