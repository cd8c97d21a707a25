package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Scheduler enqueues the periodic tasks. Every replica may run one; duplicate ticks are
// collapsed by the tasks' uniqueness window.
type Scheduler interface {
	RegisterTasks(catalogRefreshSchedule string) error
	Run() error
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	if log == nil {
		log = slog.Default()
	}

	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
			Logger: newAsynqLogger(log),
			PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
				if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
					log.Warn("scheduler: enqueue failed", slog.Any("error", err))
				}
			},
		}),
		log: log,
	}
}

// RegisterTasks schedules the periodic catalog refresh. The schedule is cron syntax or "@every <duration>".
func (s *scheduler) RegisterTasks(catalogRefreshSchedule string) error {
	task, err := NewCatalogRefreshTask("scheduled")
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(catalogRefreshSchedule, task); err != nil {
		return err
	}

	s.log.InfoContext(context.Background(), "scheduler: registered catalog refresh task", slog.String("schedule", catalogRefreshSchedule))

	return nil
}

// Run starts the scheduler in the background and returns once it is running.
func (s *scheduler) Run() error {
	s.log.InfoContext(context.Background(), "scheduler: starting")

	if err := s.asynqScheduler.Start(); err != nil {
		s.log.ErrorContext(context.Background(), "scheduler: start failed", slog.Any("error", err))
		return err
	}
	return nil
}

func (s *scheduler) Shutdown() {
	s.log.InfoContext(context.Background(), "scheduler: shutting down")

	s.asynqScheduler.Shutdown()
}
