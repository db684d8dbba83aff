package jobs

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
)

// ResetNotifier enqueues reset-email tasks. It implements
// auth.ResetNotifier.
type ResetNotifier struct {
	client *asynq.Client
}

// NewResetNotifier constructs a ResetNotifier.
func NewResetNotifier(client *asynq.Client) *ResetNotifier {
	return &ResetNotifier{client: client}
}

// NotifyReset enqueues delivery of a reset token.
func (n *ResetNotifier) NotifyReset(ctx context.Context, email, token string) error {
	if n == nil || n.client == nil {
		return nil
	}
	task, err := NewResetEmailTask(ResetEmailPayload{Email: email, ResetToken: token})
	if err != nil {
		return fmt.Errorf("jobs: build reset task: %w", err)
	}
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(QueueDefault)); err != nil {
		return fmt.Errorf("jobs: enqueue reset task: %w", err)
	}
	return nil
}
