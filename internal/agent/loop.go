// Package agent runs the orchestration loop: prompt the model, parse one
// directive, invoke one tool, fold the result into history, repeat.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/crystaldolphin/gitcourier/internal/directive"
	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/shared/llmutils"
	"github.com/crystaldolphin/gitcourier/internal/tools"
)

// Loop drives runs against one model, one registry and one tool host.
// A Loop holds no per-run state; concurrent runs are independent.
type Loop struct {
	model    schema.Model
	registry *tools.Registry
	host     schema.ToolHost
	settings schema.AgentSettings
	prompts  *PromptBuilder
	now      func() time.Time
}

// NewLoop creates a Loop. instructions may be empty for the default system
// prompt.
func NewLoop(model schema.Model, registry *tools.Registry, host schema.ToolHost, settings schema.AgentSettings, instructions string) *Loop {
	return &Loop{
		model:    model,
		registry: registry,
		host:     host,
		settings: settings,
		prompts:  NewPromptBuilder(registry, instructions),
		now:      time.Now,
	}
}

// Run executes task until a terminal answer, a fatal error or the iteration
// budget. It never panics on model or tool failures; they end the run with
// OutcomeAborted and Err set.
func (l *Loop) Run(ctx context.Context, task string) RunResult {
	res := RunResult{ID: uuid.NewString(), Task: task, Started: l.now()}
	history := NewHistory()

	finish := func(o Outcome, err error) RunResult {
		res.Outcome = o
		res.Err = err
		res.History = history.Records()
		res.Finished = l.now()
		if err != nil {
			slog.Error("Run aborted", "run", res.ID, "turns", history.Len(), "err", err)
		} else {
			slog.Info("Run finished", "run", res.ID, "outcome", o.String(), "turns", history.Len())
		}
		return res
	}

	opts := schema.NewGenerateOptions(
		llmutils.StringOrDefault(l.settings.Model, l.model.DefaultModel()),
		l.settings.MaxTokens,
		l.settings.Temperature,
	)

	for iteration := 1; iteration < l.settings.MaxIterations; {
		if err := ctx.Err(); err != nil {
			return finish(OutcomeAborted, err)
		}
		slog.Debug("Turn", "run", res.ID, "iteration", iteration)

		raw, err := generate(ctx, l.model, l.prompts.Build(task, history), opts, l.settings.ModelTimeout)
		if err != nil {
			return finish(OutcomeAborted, fmt.Errorf("iteration %d: %w", iteration, err))
		}

		d := directive.Parse(llmutils.StripThink(raw))
		slog.Info("Model response", "run", res.ID, "kind", d.Kind.String(), "text", llmutils.Truncate(raw, 200))

		switch d.Kind {
		case schema.DirectiveTerminal:
			res.Status = d.Status
			return finish(OutcomeTerminal, nil)
		case schema.DirectiveUnrecognized:
			return finish(OutcomeAborted, fmt.Errorf("%w: %q", ErrParse, llmutils.Truncate(d.RawLine, 120)))
		}

		inv, err := l.execute(ctx, d)
		if err != nil {
			history.Append(schema.TurnRecord{Iteration: iteration, ToolName: d.ToolName, Err: err.Error()})
			return finish(OutcomeAborted, err)
		}
		history.Append(schema.TurnRecord{
			Iteration: iteration,
			ToolName:  inv.ToolName,
			Arguments: inv.Arguments,
			Result:    inv.Text,
		})
		iteration++
	}

	return finish(OutcomeInconclusive, nil)
}

// execute resolves, coerces and invokes one call directive.
func (l *Loop) execute(ctx context.Context, d schema.Directive) (schema.InvocationResult, error) {
	desc, ok := l.registry.Get(d.ToolName)
	if !ok {
		return schema.InvocationResult{}, fmt.Errorf("%w: %s", ErrUnknownTool, d.ToolName)
	}

	args, err := directive.Coerce(desc, d.RawArgs)
	if err != nil {
		return schema.InvocationResult{}, err
	}

	slog.Info("Tool call", "name", desc.Name, "args", llmutils.Truncate(schema.FormatArgs(args), 200))

	// A started call always completes; cancellation is seen at the next turn.
	text, err := l.host.CallTool(context.WithoutCancel(ctx), desc.Name, args)
	if err != nil {
		return schema.InvocationResult{}, fmt.Errorf("%w: %s: %w", ErrInvocation, desc.Name, err)
	}
	return schema.InvocationResult{ToolName: desc.Name, Arguments: args, Text: text}, nil
}
