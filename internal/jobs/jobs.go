// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package jobs contains the background task handlers and the asynq worker
that runs them.

Two periodic tasks keep the shared state tidy:

  - cache:reconcile repairs the authorization cache after Redis data loss
    by rewriting the entry of every principal that should have one.
  - session:sweep removes expired rows from the session ledger.

Both tasks are idempotent and safe to run concurrently with the API
server; they only ever rewrite state the domain services would produce
themselves.
*/
package jobs

import "github.com/hibiken/asynq"

const (
	// QueueDefault is the single queue this service uses.
	QueueDefault = "default"

	// TaskCacheReconcile rebuilds missing authorization cache entries.
	TaskCacheReconcile = "cache:reconcile"

	// TaskSessionSweep purges expired session ledger rows.
	TaskSessionSweep = "session:sweep"
)

// NewCacheReconcileTask builds the reconciliation task. It carries no
// payload; the handler derives its work set from the database.
func NewCacheReconcileTask() *asynq.Task {
	return asynq.NewTask(TaskCacheReconcile, nil)
}

// NewSessionSweepTask builds the ledger sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskSessionSweep, nil)
}
