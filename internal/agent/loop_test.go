package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/crystaldolphin/gitcourier/internal/directive"
	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/tools"
)

// scriptedModel replays responses in order, repeating the last one.
type scriptedModel struct {
	mu        sync.Mutex
	responses []string
	prompts   []string
}

func (m *scriptedModel) Generate(_ context.Context, prompt string, _ schema.GenerateOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	i := len(m.prompts) - 1
	if i >= len(m.responses) {
		i = len(m.responses) - 1
	}
	return m.responses[i], nil
}

func (m *scriptedModel) DefaultModel() string { return "scripted" }

// blockingModel never answers before its context ends.
type blockingModel struct{}

func (blockingModel) Generate(ctx context.Context, _ string, _ schema.GenerateOptions) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (blockingModel) DefaultModel() string { return "blocking" }

type call struct {
	name string
	args map[string]any
}

type fakeHost struct {
	calls   []call
	results map[string]*string
	err     error
}

func (h *fakeHost) ListTools(context.Context) ([]schema.ToolDescriptor, error) { return nil, nil }

func (h *fakeHost) CallTool(_ context.Context, name string, args map[string]any) (*string, error) {
	h.calls = append(h.calls, call{name: name, args: args})
	if h.err != nil {
		return nil, h.err
	}
	return h.results[name], nil
}

func strptr(s string) *string { return &s }

func testRegistry() *tools.Registry {
	return tools.NewRegistryBuilder().
		WithTool(schema.ToolDescriptor{
			Name:        "clone_repo",
			Params:      []schema.Param{{Name: "repo_url", Kind: schema.KindString}},
			Description: "Clone a repository",
		}).
		WithTool(schema.ToolDescriptor{
			Name:        "add",
			Params:      []schema.Param{{Name: "a", Kind: schema.KindInteger}, {Name: "b", Kind: schema.KindInteger}},
			Description: "Add two numbers",
		}).
		Build()
}

func testSettings(maxIter int) schema.AgentSettings {
	return schema.NewAgentSettings("", maxIter, 0, 256, time.Second)
}

func TestLoop_CloneThenFinalAnswer(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"[Reasoning: Lookup] clone first\nFUNCTION_CALL: clone_repo|https://example.com/r.git",
		"FINAL_ANSWER: [Success]",
	}}
	host := &fakeHost{results: map[string]*string{"clone_repo": strptr("/work/repository")}}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(context.Background(), "clone it")

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeTerminal, res.Outcome)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "[Success]", res.Status)
	assert.NotEmpty(t, res.ID)

	require.Len(t, host.calls, 1)
	assert.Equal(t, "clone_repo", host.calls[0].name)
	assert.Equal(t, map[string]any{"repo_url": "https://example.com/r.git"}, host.calls[0].args)

	require.Len(t, res.History, 1)
	assert.Equal(t, `Iteration 1: Called clone_repo with {"repo_url": "https://example.com/r.git"}, result: /work/repository.`, res.History[0].String())
}

func TestLoop_ExecuteBuildsInvocationResult(t *testing.T) {
	host := &fakeHost{results: map[string]*string{"clone_repo": strptr("/work/repository")}}
	l := NewLoop(&scriptedModel{responses: []string{""}}, testRegistry(), host, testSettings(8), "")

	inv, err := l.execute(context.Background(), directive.Parse("FUNCTION_CALL: clone_repo|https://example.com/r.git"))

	require.NoError(t, err)
	assert.Equal(t, "clone_repo", inv.ToolName)
	assert.Equal(t, map[string]any{"repo_url": "https://example.com/r.git"}, inv.Arguments)
	require.NotNil(t, inv.Text)
	assert.Equal(t, "/work/repository", *inv.Text)
}

func TestLoop_UnrecognizedAbortsWithoutToolCall(t *testing.T) {
	model := &scriptedModel{responses: []string{"I think we should clone the repo.\nThen pull it."}}
	host := &fakeHost{}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(context.Background(), "task")

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrParse))
	assert.Empty(t, host.calls)
	assert.Empty(t, res.History)
}

func TestLoop_BudgetExhaustedIsInconclusive(t *testing.T) {
	model := &scriptedModel{responses: []string{"FUNCTION_CALL: clone_repo|https://example.com/r.git"}}
	host := &fakeHost{results: map[string]*string{"clone_repo": strptr("/work/repository")}}

	res := NewLoop(model, testRegistry(), host, testSettings(5), "").Run(context.Background(), "task")

	require.NoError(t, res.Err)
	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	require.Len(t, res.History, 4)
	for i, r := range res.History {
		assert.Equal(t, i+1, r.Iteration)
	}
	assert.Len(t, host.calls, 4)
}

func TestLoop_BudgetOfOneRunsNoTurns(t *testing.T) {
	model := &scriptedModel{responses: []string{"FINAL_ANSWER: [x]"}}

	res := NewLoop(model, testRegistry(), &fakeHost{}, testSettings(1), "").Run(context.Background(), "task")

	assert.Equal(t, OutcomeInconclusive, res.Outcome)
	assert.Empty(t, model.prompts)
}

func TestLoop_PromptCarriesHistory(t *testing.T) {
	model := &scriptedModel{responses: []string{
		"FUNCTION_CALL: add|2|3",
		"FINAL_ANSWER: [5]",
	}}
	host := &fakeHost{results: map[string]*string{"add": strptr("5")}}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(context.Background(), "add 2 and 3")
	require.NoError(t, res.Err)
	require.Len(t, model.prompts, 2)

	first, second := model.prompts[0], model.prompts[1]
	assert.Contains(t, first, "1. clone_repo(repo_url: string) - Clone a repository")
	assert.Contains(t, first, "2. add(a: integer, b: integer) - Add two numbers")
	assert.True(t, strings.HasSuffix(first, "Query: add 2 and 3"))
	assert.NotContains(t, first, "What should I do next?")

	assert.Contains(t, second, `Iteration 1: Called add with {"a": 2, "b": 3}, result: 5.`)
	assert.True(t, strings.HasSuffix(second, "What should I do next?"))
	assert.Equal(t, map[string]any{"a": int64(2), "b": int64(3)}, host.calls[0].args)
}

func TestLoop_NilResultRendersNone(t *testing.T) {
	model := &scriptedModel{responses: []string{"FUNCTION_CALL|clone_repo|u", "FINAL_ANSWER: [ok]"}}

	res := NewLoop(model, testRegistry(), &fakeHost{}, testSettings(8), "").Run(context.Background(), "task")

	require.Len(t, res.History, 1)
	assert.Nil(t, res.History[0].Result)
	assert.Contains(t, res.History[0].String(), "result: None.")
}

func TestLoop_InvocationErrorIsRecorded(t *testing.T) {
	model := &scriptedModel{responses: []string{"FUNCTION_CALL: clone_repo|u"}}
	host := &fakeHost{err: errors.New("exit status 128")}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(context.Background(), "task")

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrInvocation))
	require.Len(t, res.History, 1)
	assert.True(t, res.History[0].Failed())
	assert.Equal(t, "Error in iteration 1: tool invocation failed: clone_repo: exit status 128", res.History[0].String())
}

func TestLoop_UnknownToolAborts(t *testing.T) {
	model := &scriptedModel{responses: []string{"FUNCTION_CALL: add|1|2", "FUNCTION_CALL: rm_rf|/"}}
	host := &fakeHost{results: map[string]*string{"add": strptr("3")}}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(context.Background(), "task")

	assert.True(t, errors.Is(res.Err, ErrUnknownTool))
	require.Len(t, res.History, 2)
	assert.Equal(t, 2, res.History[1].Iteration)
	assert.True(t, res.History[1].Failed())
	assert.Len(t, host.calls, 1)
}

func TestLoop_ArgumentErrorAborts(t *testing.T) {
	model := &scriptedModel{responses: []string{"FUNCTION_CALL: add|1"}}
	host := &fakeHost{}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(context.Background(), "task")

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrArgument))
	var argErr *directive.ArgumentError
	assert.True(t, errors.As(res.Err, &argErr))
	assert.Empty(t, host.calls)
	require.Len(t, res.History, 1)
	assert.Equal(t, "Error in iteration 1: insufficient arguments for tool add", res.History[0].String())
}

func TestLoop_ModelTimeout(t *testing.T) {
	defer goleak.VerifyNone(t)

	settings := schema.NewAgentSettings("", 8, 0, 256, 20*time.Millisecond)
	res := NewLoop(blockingModel{}, testRegistry(), &fakeHost{}, settings, "").Run(context.Background(), "task")

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.True(t, errors.Is(res.Err, ErrModelTimeout))
	assert.Empty(t, res.History)
}

func TestLoop_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := &scriptedModel{responses: []string{"FINAL_ANSWER: [x]"}}

	res := NewLoop(model, testRegistry(), &fakeHost{}, testSettings(8), "").Run(ctx, "task")

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.Empty(t, model.prompts)
}

// slowHost holds each call for delay, returning early only if its context ends.
type slowHost struct {
	delay   time.Duration
	started chan struct{}
}

func (h *slowHost) ListTools(context.Context) ([]schema.ToolDescriptor, error) { return nil, nil }

func (h *slowHost) CallTool(ctx context.Context, _ string, _ map[string]any) (*string, error) {
	close(h.started)
	select {
	case <-time.After(h.delay):
		return strptr("/work/repository"), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestLoop_CancelDuringToolCallFinishesTheCall(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	host := &slowHost{delay: 200 * time.Millisecond, started: make(chan struct{})}
	go func() {
		<-host.started
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	model := &scriptedModel{responses: []string{"FUNCTION_CALL: clone_repo|https://example.com/r.git"}}

	res := NewLoop(model, testRegistry(), host, testSettings(8), "").Run(ctx, "task")

	assert.Equal(t, OutcomeAborted, res.Outcome)
	assert.True(t, errors.Is(res.Err, context.Canceled))
	assert.False(t, errors.Is(res.Err, ErrInvocation))
	require.Len(t, res.History, 1)
	assert.False(t, res.History[0].Failed())
	require.NotNil(t, res.History[0].Result)
	assert.Equal(t, "/work/repository", *res.History[0].Result)
	assert.Len(t, model.prompts, 1, "no further prompt after cancellation")
}

func TestLoop_ThinkBlocksAreIgnored(t *testing.T) {
	model := &scriptedModel{responses: []string{"<think>FUNCTION_CALL: rm_rf|/</think>\nFINAL_ANSWER: [done]"}}

	res := NewLoop(model, testRegistry(), &fakeHost{}, testSettings(8), "").Run(context.Background(), "task")

	assert.Equal(t, OutcomeTerminal, res.Outcome)
	assert.Equal(t, "[done]", res.Status)
}

type memRecorder struct {
	saved []RunResult
	err   error
}

func (r *memRecorder) SaveRun(_ context.Context, res RunResult) error {
	r.saved = append(r.saved, res)
	return r.err
}

func TestService_RecordsRuns(t *testing.T) {
	model := &scriptedModel{responses: []string{"FINAL_ANSWER: [ok]"}}
	rec := &memRecorder{err: errors.New("disk full")}

	res := NewService(NewLoop(model, testRegistry(), &fakeHost{}, testSettings(8), ""), rec).Execute(context.Background(), "task")

	assert.True(t, res.Succeeded())
	require.Len(t, rec.saved, 1)
	assert.Equal(t, res.ID, rec.saved[0].ID)
}
