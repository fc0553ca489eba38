// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// # Worker

// Worker wraps the asynq server and the cron scheduler that feeds it.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// Registration binds a task type to its handler.
type Registration struct {
	Type    string
	Handler asynq.HandlerFunc
}

// Schedule wires a cron expression to a prepared task.
type Schedule struct {
	Spec    string
	Task    *asynq.Task
	Options []asynq.Option
}

// WorkerConfig collects everything needed to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts asynq.RedisConnOpt
	Logger    *slog.Logger
	Handlers  []Registration
	Schedules []Schedule
}

/*
NewWorker constructs the worker and registers its handlers and schedules.

Parameters:
  - cfg: WorkerConfig

Returns:
  - *Worker: Ready to Run
  - error: Schedule registration failures
*/
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	server := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 2,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})

	mux := asynq.NewServeMux()
	for _, registration := range cfg.Handlers {
		mux.HandleFunc(registration.Type, registration.Handler)
	}

	var scheduler *asynq.Scheduler
	if len(cfg.Schedules) > 0 {
		scheduler = asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
		for _, schedule := range cfg.Schedules {
			if _, err := scheduler.Register(schedule.Spec, schedule.Task, schedule.Options...); err != nil {
				return nil, err
			}
		}
	}

	return &Worker{
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		logger:    cfg.Logger,
	}, nil
}

// Run starts the scheduler and the task server, blocking until the context
// is cancelled or the server fails.
func (worker *Worker) Run(context context.Context) error {
	if worker.scheduler != nil {
		if err := worker.scheduler.Start(); err != nil {
			return err
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- worker.server.Run(worker.mux)
	}()

	select {
	case <-context.Done():
		worker.logger.Info("worker_stopping")
		if worker.scheduler != nil {
			worker.scheduler.Shutdown()
		}
		worker.server.Shutdown()
		return context.Err()
	case err := <-errs:
		if worker.scheduler != nil {
			worker.scheduler.Shutdown()
		}
		return err
	}
}
