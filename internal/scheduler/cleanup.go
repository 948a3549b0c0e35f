package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultCleanupInterval  = time.Hour
	DefaultUnverifiedMaxAge = 48 * time.Hour
)

type State int32

const (
	StateIdle State = iota
	StateScanning
	StateDeleting
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateDeleting:
		return "deleting"
	default:
		return "idle"
	}
}

// Store is the part of the user repository the cleanup job needs.
type Store interface {
	FindUnverifiedBefore(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
	DeleteUnverified(ctx context.Context, ids []uuid.UUID, cutoff time.Time) (int64, error)
}

type Result struct {
	Cutoff  time.Time
	Matched int
	Deleted int64
}

// CleanupJob removes accounts that stayed unverified longer than MaxAge.
type CleanupJob struct {
	store    Store
	interval time.Duration
	maxAge   time.Duration
	now      func() time.Time
	logger   logrus.FieldLogger

	state   atomic.Int32
	running atomic.Bool
}

func NewCleanupJob(store Store, interval, maxAge time.Duration, logger logrus.FieldLogger) *CleanupJob {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if maxAge <= 0 {
		maxAge = DefaultUnverifiedMaxAge
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CleanupJob{
		store:    store,
		interval: interval,
		maxAge:   maxAge,
		now:      time.Now,
		logger:   logger.WithField("job", "unverified_cleanup"),
	}
}

func (j *CleanupJob) State() State {
	return State(j.state.Load())
}

// RunOnce performs a single scan and delete pass. Running it twice with no
// new expired accounts deletes nothing the second time.
func (j *CleanupJob) RunOnce(ctx context.Context) (Result, error) {
	defer j.state.Store(int32(StateIdle))

	result := Result{Cutoff: j.now().UTC().Add(-j.maxAge)}

	j.state.Store(int32(StateScanning))
	ids, err := j.store.FindUnverifiedBefore(ctx, result.Cutoff)
	if err != nil {
		return result, err
	}
	result.Matched = len(ids)
	if len(ids) == 0 {
		return result, nil
	}

	j.state.Store(int32(StateDeleting))
	deleted, err := j.store.DeleteUnverified(ctx, ids, result.Cutoff)
	if err != nil {
		return result, err
	}
	result.Deleted = deleted
	return result, nil
}

// Start runs the job immediately and then on every tick until ctx is done.
// A failed run is logged and retried on the next tick.
func (j *CleanupJob) Start(ctx context.Context) {
	if !j.running.CompareAndSwap(false, true) {
		return
	}
	defer j.running.Store(false)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.run(ctx)
		}
	}
}

func (j *CleanupJob) run(ctx context.Context) {
	result, err := j.RunOnce(ctx)
	if err != nil {
		j.logger.WithError(err).Error("cleanup run failed")
		return
	}
	j.logger.WithFields(logrus.Fields{
		"cutoff":  result.Cutoff,
		"matched": result.Matched,
		"deleted": result.Deleted,
	}).Info("cleanup run finished")
}
