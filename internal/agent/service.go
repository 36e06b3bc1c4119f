package agent

import (
	"context"
	"log/slog"
)

// RunRecorder persists finished runs.
type RunRecorder interface {
	SaveRun(ctx context.Context, r RunResult) error
}

// Service runs tasks on a Loop and records each result. It is the entry point
// shared by the CLI and the scheduler.
type Service struct {
	loop     *Loop
	recorder RunRecorder
}

// NewService wires a loop to an optional recorder.
func NewService(loop *Loop, recorder RunRecorder) *Service {
	return &Service{loop: loop, recorder: recorder}
}

// Execute runs task and records the result. Recording failures are logged and
// do not change the result.
func (s *Service) Execute(ctx context.Context, task string) RunResult {
	res := s.loop.Run(ctx, task)
	if s.recorder != nil {
		// The run may have ended because ctx was cancelled; record it anyway.
		if err := s.recorder.SaveRun(context.WithoutCancel(ctx), res); err != nil {
			slog.Warn("Record run failed", "run", res.ID, "err", err)
		}
	}
	return res
}
