// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/taibuivan/yomira-identity/internal/access/authcache"
	"github.com/taibuivan/yomira-identity/internal/users/app"
	"github.com/taibuivan/yomira-identity/internal/users/auth"
	"github.com/taibuivan/yomira-identity/internal/users/user"
)

// CacheReconcileJob restores authorization cache entries that should exist
// but do not.
//
// Sibling services authorize requests from the cache alone, so a flushed or
// restarted Redis silently locks out every logged-in user and every
// application until each one re-authenticates. The reconciler closes that
// window: users holding a non-expired session and all registered
// applications get their entries rewritten from the database.
type CacheReconcileJob struct {
	sessions auth.SessionStore
	users    *user.Service
	apps     *app.Service
	appStore app.Store
	cache    *authcache.Writer
	logger   *slog.Logger
}

// NewCacheReconcileJob wires the reconciliation handler.
func NewCacheReconcileJob(
	sessions auth.SessionStore,
	users *user.Service,
	apps *app.Service,
	appStore app.Store,
	cache *authcache.Writer,
	logger *slog.Logger,
) *CacheReconcileJob {
	return &CacheReconcileJob{
		sessions: sessions,
		users:    users,
		apps:     apps,
		appStore: appStore,
		cache:    cache,
		logger:   logger,
	}
}

/*
Handle processes one reconciliation run.

Description: Missing entries are rewritten; present entries are left alone so
the reconciler never undoes a more recent write from the API server. A
principal that fails to rebuild is logged and skipped rather than aborting
the run.

Parameters:
  - context: context.Context
  - task: *asynq.Task (payload ignored)

Returns:
  - error: Only when the work set itself cannot be loaded
*/
func (job *CacheReconcileJob) Handle(context context.Context, task *asynq.Task) error {
	logger := job.logger.With(slog.String("job", TaskCacheReconcile))
	started := time.Now()

	restoredUsers, err := job.reconcileUsers(context, logger)
	if err != nil {
		return err
	}

	restoredApps, err := job.reconcileApps(context, logger)
	if err != nil {
		return err
	}

	logger.Info("cache_reconcile_completed",
		slog.Int("restored_users", restoredUsers),
		slog.Int("restored_apps", restoredApps),
		slog.Duration("duration", time.Since(started)),
	)

	return nil
}

func (job *CacheReconcileJob) reconcileUsers(context context.Context, logger *slog.Logger) (int, error) {
	ids, err := job.sessions.ActiveUserIDs(context)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, id := range ids {
		exists, err := job.cache.Exists(context, id)
		if err != nil {
			return restored, err
		}
		if exists {
			continue
		}

		account, err := job.users.Get(context, id, user.ScopeActive)
		if err != nil {
			// The account may have been removed after its session was
			// recorded. Nothing to restore.
			logger.Warn("cache_reconcile_user_skipped",
				slog.String("user_id", id),
				slog.Any("error", err),
			)
			continue
		}

		if err := job.users.WriteCache(context, account, true); err != nil {
			logger.Warn("cache_reconcile_user_failed",
				slog.String("user_id", id),
				slog.Any("error", err),
			)
			continue
		}
		restored++
	}

	return restored, nil
}

func (job *CacheReconcileJob) reconcileApps(context context.Context, logger *slog.Logger) (int, error) {
	applications, err := job.appStore.ListAll(context)
	if err != nil {
		return 0, err
	}

	restored := 0
	for index := range applications {
		application := &applications[index]

		exists, err := job.cache.Exists(context, application.ID)
		if err != nil {
			return restored, err
		}
		if exists {
			continue
		}

		if err := job.apps.WriteCache(context, application); err != nil {
			logger.Warn("cache_reconcile_app_failed",
				slog.String("app_id", application.ID),
				slog.Any("error", err),
			)
			continue
		}
		restored++
	}

	return restored, nil
}
