package agent

import (
	"context"
	"errors"
	"time"

	"github.com/crystaldolphin/gitcourier/internal/schema"
)

type generation struct {
	text string
	err  error
}

// generate runs one model request as its own task bounded by timeout. The
// request's context is cancelled on expiry and ErrModelTimeout is returned.
// A zero timeout leaves the request bounded only by ctx.
func generate(ctx context.Context, model schema.Model, prompt string, opts schema.GenerateOptions, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	done := make(chan generation, 1)
	go func() {
		text, err := model.Generate(ctx, prompt, opts)
		done <- generation{text: text, err: err}
	}()

	select {
	case g := <-done:
		if g.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrModelTimeout
		}
		return g.text, g.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", ErrModelTimeout
		}
		return "", ctx.Err()
	}
}
