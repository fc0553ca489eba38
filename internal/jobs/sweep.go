// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/taibuivan/yomira-identity/internal/users/auth"
)

// SessionSweepJob deletes expired rows from the session ledger.
//
// Expiry is already enforced at query time, so the sweep is purely about
// keeping the table small. Sweeping never touches the cache: a user whose
// last session expired keeps their entry until an explicit logout or
// account removal deletes it, matching how the API server behaves.
type SessionSweepJob struct {
	sessions auth.SessionStore
	logger   *slog.Logger
}

// NewSessionSweepJob wires the sweep handler.
func NewSessionSweepJob(sessions auth.SessionStore, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{sessions: sessions, logger: logger}
}

// Handle removes every expired ledger row and logs the count.
func (job *SessionSweepJob) Handle(context context.Context, task *asynq.Task) error {
	deleted, err := job.sessions.DeleteExpired(context)
	if err != nil {
		return err
	}

	if deleted > 0 {
		job.logger.Info("session_sweep_completed",
			slog.String("job", TaskSessionSweep),
			slog.Int("deleted", deleted),
		)
	}

	return nil
}
