// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command worker runs the background task processor.
//
// It shares the database, Redis, and configuration with cmd/api but owns no
// HTTP surface. Scheduling and execution both live in this process; run one
// instance per deployment.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/access/rbac"
	"github.com/taibuivan/yomira-identity/internal/jobs"
	"github.com/taibuivan/yomira-identity/internal/platform/cache"
	"github.com/taibuivan/yomira-identity/internal/platform/config"
	pgstore "github.com/taibuivan/yomira-identity/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-identity/internal/platform/redis"
	"github.com/taibuivan/yomira-identity/internal/platform/sec"
	"github.com/taibuivan/yomira-identity/internal/users/app"
	"github.com/taibuivan/yomira-identity/internal/users/auth"
	"github.com/taibuivan/yomira-identity/internal/users/user"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})).With(slog.String("app", "yomira-identity-worker"))
	slog.SetDefault(log)

	log.Info("[Yomira] worker_initializing")

	cfg, err := config.Load()
	must(log, err, "load configuration")

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	startupCtx, startupCancel := context.WithTimeout(runCtx, 30*time.Second)
	defer startupCancel()

	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer pool.Close()

	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	redisOpts, err := asynq.ParseRedisURI(cfg.RedisURL)
	must(log, err, "parse redis url for asynq")

	// The worker rebuilds cache entries exactly the way the API server
	// writes them, so it wires the same domain services.
	authCache := authcache.NewWriter(cache.New(rdb))
	tokenService := sec.NewTokenService(cfg.AppSecretKey)

	rbacStore := rbac.NewPostgresStore(pool)
	rbacResolver := rbac.NewResolver(rbacStore)

	userStore := user.NewPostgresStore(pool)
	userService := user.NewService(userStore, rbacStore, rbacResolver, authCache)

	appStore := app.NewPostgresStore(pool)
	appService := app.NewService(appStore, rbacStore, rbacResolver, authCache, tokenService)

	sessionStore := auth.NewPostgresSessionStore(pool)

	reconcileJob := jobs.NewCacheReconcileJob(sessionStore, userService, appService, appStore, authCache, log)
	sweepJob := jobs.NewSessionSweepJob(sessionStore, log)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    log,
		Handlers: []jobs.Registration{
			{Type: jobs.TaskCacheReconcile, Handler: reconcileJob.Handle},
			{Type: jobs.TaskSessionSweep, Handler: sweepJob.Handle},
		},
		Schedules: []jobs.Schedule{
			{Spec: "*/5 * * * *", Task: jobs.NewCacheReconcileTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
			{Spec: "0 * * * *", Task: jobs.NewSessionSweepTask(), Options: []asynq.Option{asynq.MaxRetry(2)}},
		},
	})
	must(log, err, "initialize worker")

	if err := worker.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("worker run error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("worker stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
