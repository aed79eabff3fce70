package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// MaintenanceRepo is the storage surface the daily jobs need.
type MaintenanceRepo interface {
	ExpireOldRequests(ctx context.Context) (int64, error)
	CleanupSentNotifications(ctx context.Context, olderThan time.Time) (int64, error)
}

// historyRetention is how long sent coach notifications are kept.
const historyRetention = 90 * 24 * time.Hour

// Maintenance runs daily housekeeping: expiring stale coach requests and
// pruning old coach notification history.
type Maintenance struct {
	repo MaintenanceRepo
	log  *zap.Logger
	cron *cron.Cron
}

// NewMaintenance registers the jobs on a cron instance in the given location.
func NewMaintenance(repo MaintenanceRepo, log *zap.Logger, loc *time.Location) (*Maintenance, error) {
	if loc == nil {
		loc = time.UTC
	}
	m := &Maintenance{
		repo: repo,
		log:  log,
		cron: cron.New(cron.WithLocation(loc)),
	}
	if _, err := m.cron.AddFunc("0 3 * * *", m.expireRequests); err != nil {
		return nil, err
	}
	if _, err := m.cron.AddFunc("30 3 * * *", m.cleanupHistory); err != nil {
		return nil, err
	}
	return m, nil
}

// Start begins the cron loop.
func (m *Maintenance) Start() {
	m.cron.Start()
	m.log.Info("maintenance jobs scheduled")
}

// Stop halts the cron loop, waiting for a running job to finish.
func (m *Maintenance) Stop() {
	<-m.cron.Stop().Done()
	m.log.Info("maintenance jobs stopped")
}

func (m *Maintenance) expireRequests() {
	n, err := m.repo.ExpireOldRequests(context.Background())
	if err != nil {
		m.log.Error("expire coach requests failed", zap.Error(err))
		return
	}
	if n > 0 {
		m.log.Info("expired coach requests", zap.Int64("count", n))
	}
}

func (m *Maintenance) cleanupHistory() {
	cutoff := time.Now().Add(-historyRetention)
	n, err := m.repo.CleanupSentNotifications(context.Background(), cutoff)
	if err != nil {
		m.log.Error("cleanup coach notifications failed", zap.Error(err))
		return
	}
	if n > 0 {
		m.log.Info("pruned coach notification history", zap.Int64("count", n))
	}
}
