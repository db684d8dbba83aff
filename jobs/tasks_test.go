package jobs_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/gatehouse/gatehouse/jobs"
	_ "github.com/gatehouse/gatehouse/testing"
)

type countingSweeper struct {
	calls int
}

func (s *countingSweeper) Sweep(ctx context.Context) int {
	s.calls++
	return 2
}

func TestSessionSweepHandler(t *testing.T) {
	sweeper := &countingSweeper{}
	handler := jobs.NewSessionSweepHandler(sweeper)

	require.NoError(t, handler(context.Background(), jobs.NewSessionSweepTask()))
	require.Equal(t, 1, sweeper.calls)

	// a nil sweeper degrades to a no-op rather than panicking
	require.NoError(t, jobs.NewSessionSweepHandler(nil)(context.Background(), jobs.NewSessionSweepTask()))
}

func TestResetEmailTaskRoundTrip(t *testing.T) {
	task, err := jobs.NewResetEmailTask(jobs.ResetEmailPayload{Email: "a@x.com", ResetToken: "tok"})
	require.NoError(t, err)
	require.Equal(t, jobs.TaskTypeResetEmail, task.Type())

	var payload jobs.ResetEmailPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.Equal(t, "a@x.com", payload.Email)
	require.Equal(t, "tok", payload.ResetToken)
}

func TestResetEmailHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := jobs.NewResetEmailHandler(logger)

	task, err := jobs.NewResetEmailTask(jobs.ResetEmailPayload{Email: "a@x.com", ResetToken: "tok"})
	require.NoError(t, err)
	require.NoError(t, handler(context.Background(), task))

	err = handler(context.Background(), asynq.NewTask(jobs.TaskTypeResetEmail, []byte("not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
