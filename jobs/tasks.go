package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeResetEmail delivers a password-reset token to an account holder.
	TaskTypeResetEmail = "auth:reset_email"
	// TaskTypeSessionSweep evicts expired sessions from the authority.
	TaskTypeSessionSweep = "session:sweep"
)

// ResetEmailPayload describes the information required to deliver a reset
// token. The token is a secret; payloads must never be logged verbatim.
type ResetEmailPayload struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

// NewResetEmailTask constructs an Asynq task.
func NewResetEmailTask(payload ResetEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeResetEmail, data), nil
}

// NewResetEmailHandler returns the handler for TaskTypeResetEmail.
func NewResetEmailHandler(logger *slog.Logger) asynq.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ResetEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		// TODO: hand off to an SMTP sender once one is provisioned.
		logger.Info("deliver reset token", slog.String("email", payload.Email))
		return nil
	}
}

// NewSessionSweepTask constructs the periodic sweep task.
func NewSessionSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeSessionSweep, nil)
}

// Sweeper evicts expired sessions. session.Authority satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context) int
}

// NewSessionSweepHandler returns the handler for TaskTypeSessionSweep.
func NewSessionSweepHandler(sweeper Sweeper) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		if sweeper == nil {
			return nil
		}
		_ = sweeper.Sweep(ctx)
		return nil
	}
}
