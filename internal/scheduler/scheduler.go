package scheduler

import (
	"context"
	"time"

	"overlaykit/internal/logger"

	"github.com/go-co-op/gocron/v2"
)

// Expirer flips subscriptions past their expiry to expired.
type Expirer interface {
	ExpireDue(ctx context.Context) (int64, error)
}

// QueueMonitor reports the receipt backlog.
type QueueMonitor interface {
	QueueLength(ctx context.Context) int64
}

type Scheduler struct {
	sched gocron.Scheduler
}

// New registers the background sweeps. queue may be nil.
func New(interval time.Duration, expirer Expirer, queue QueueMonitor) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() { expire(context.Background(), expirer) }),
		gocron.WithName("expire_subscriptions"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, err
	}

	if queue != nil {
		_, err = sched.NewJob(
			gocron.DurationJob(30*time.Second),
			gocron.NewTask(func() { queue.QueueLength(context.Background()) }),
			gocron.WithName("notification_queue_length"),
		)
		if err != nil {
			return nil, err
		}
	}

	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	logger.Info("scheduler started", "jobs", len(s.sched.Jobs()))
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}

func expire(ctx context.Context, expirer Expirer) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	n, err := expirer.ExpireDue(ctx)
	if err != nil {
		logger.Error("subscription sweep failed", "error", err)
		return
	}
	if n > 0 {
		logger.Info("subscriptions expired", "count", n)
	}
}
