package host

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/gitcourier/internal/schema"
	"github.com/crystaldolphin/gitcourier/internal/verify"
)

type fakeRepo struct {
	cloned   []string
	pulled   []string
	changed  bool
	cloneErr error
}

func (r *fakeRepo) Clone(_ context.Context, url, _ string) (bool, error) {
	r.cloned = append(r.cloned, url)
	return r.cloneErr == nil, r.cloneErr
}

func (r *fakeRepo) Pull(_ context.Context, dir string) (bool, error) {
	r.pulled = append(r.pulled, dir)
	return r.changed, nil
}

type fakeMailer struct {
	bodies []string
	err    error
}

func (m *fakeMailer) Send(_ context.Context, body string) (string, error) {
	m.bodies = append(m.bodies, body)
	if m.err != nil {
		return "", m.err
	}
	return "<id-1@gitcourier>", nil
}

func (m *fakeMailer) Recipient() string { return "ops@example.com" }

type recordingVerifier struct {
	subjects []verify.Subject
}

func (v *recordingVerifier) Verify(_ context.Context, s verify.Subject) verify.Verdict {
	v.subjects = append(v.subjects, s)
	return verify.Verdict{Passed: true, Message: verify.PassedBanner}
}

func newTestHost() (*Host, *fakeRepo, *fakeMailer, *recordingVerifier) {
	repo := &fakeRepo{}
	mailer := &fakeMailer{}
	v := &recordingVerifier{}
	h := New(Deps{Repo: repo, Mailer: mailer, Verifier: v, RepoDir: "/work/repository", LedgerSize: 8})
	return h, repo, mailer, v
}

func TestHost_ShowReasoning(t *testing.T) {
	h, _, _, _ := newTestHost()

	text, err := h.Call(context.Background(), ToolShowReasoning, map[string]any{"steps": []any{"clone", "pull"}})

	require.NoError(t, err)
	assert.Equal(t, ReasoningShown, text)
	kind, ok := h.Ledger().Lookup(ReasoningShown)
	assert.True(t, ok)
	assert.Equal(t, schema.VerifyNone, kind)
}

func TestHost_CloneReturnsRepoDir(t *testing.T) {
	h, repo, _, _ := newTestHost()

	text, err := h.Call(context.Background(), ToolCloneRepo, map[string]any{"repo_url": "https://example.com/r.git"})

	require.NoError(t, err)
	assert.Equal(t, "/work/repository", text)
	assert.Equal(t, []string{"https://example.com/r.git"}, repo.cloned)
}

func TestHost_CloneFailureIsError(t *testing.T) {
	h, repo, _, _ := newTestHost()
	repo.cloneErr = errors.New("auth required")

	_, err := h.Call(context.Background(), ToolCloneRepo, map[string]any{"repo_url": "x"})

	require.Error(t, err)
	assert.Equal(t, 0, h.Ledger().Len())
}

func TestHost_PullSentinels(t *testing.T) {
	h, repo, _, _ := newTestHost()

	text, err := h.Call(context.Background(), ToolPullRepo, map[string]any{"repo_dir": "/work/repository"})
	require.NoError(t, err)
	assert.Equal(t, verify.PullNoChanges, text)

	repo.changed = true
	text, err = h.Call(context.Background(), ToolPullRepo, map[string]any{"repo_dir": "/work/repository"})
	require.NoError(t, err)
	assert.Equal(t, verify.PullChanged, text)
}

func TestHost_SendEmail(t *testing.T) {
	h, _, mailer, _ := newTestHost()

	text, err := h.Call(context.Background(), ToolSendEmail, map[string]any{"message": "repo updated"})

	require.NoError(t, err)
	assert.Equal(t, "✅ Email sent successfully to ops@example.com! Message ID: <id-1@gitcourier>", text)
	assert.Equal(t, []string{"repo updated"}, mailer.bodies)
}

func TestHost_SendEmailFailureIsText(t *testing.T) {
	h, _, mailer, _ := newTestHost()
	mailer.err = errors.New("535 bad credentials")

	text, err := h.Call(context.Background(), ToolSendEmail, map[string]any{"message": "hi"})

	require.NoError(t, err)
	assert.Equal(t, "❌ Error sending email: 535 bad credentials", text)
}

func TestHost_VerifyUsesLedgerKind(t *testing.T) {
	h, _, _, v := newTestHost()
	ctx := context.Background()

	sent, err := h.Call(ctx, ToolSendEmail, map[string]any{"message": "hi"})
	require.NoError(t, err)

	banner, err := h.Call(ctx, ToolVerify, map[string]any{"result": sent})
	require.NoError(t, err)
	assert.Equal(t, verify.PassedBanner, banner)

	require.Len(t, v.subjects, 1)
	assert.Equal(t, verify.Subject{Kind: schema.VerifyEmail, Text: sent}, v.subjects[0])
}

func TestHost_VerifyUnknownTextFallsBackToShape(t *testing.T) {
	h, _, _, v := newTestHost()

	_, err := h.Call(context.Background(), ToolVerify, map[string]any{"result": "/somewhere/else"})
	require.NoError(t, err)

	require.Len(t, v.subjects, 1)
	assert.Equal(t, schema.VerifyUnknown, v.subjects[0].Kind)
	// Verdicts themselves are never recorded.
	_, ok := h.Ledger().Lookup(verify.PassedBanner)
	assert.False(t, ok)
}

func TestHost_UnknownToolAndMissingArgument(t *testing.T) {
	h, _, _, _ := newTestHost()

	_, err := h.Call(context.Background(), "rm_rf", nil)
	assert.Error(t, err)

	_, err = h.Call(context.Background(), ToolCloneRepo, map[string]any{})
	assert.ErrorContains(t, err, `missing required argument "repo_url"`)
}

func TestLocal_ListTools(t *testing.T) {
	h, _, _, _ := newTestHost()

	descs, err := NewLocal(h).ListTools(context.Background())
	require.NoError(t, err)

	names := make([]string, 0, len(descs))
	for _, d := range descs {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{ToolShowReasoning, ToolCloneRepo, ToolPullRepo, ToolSendEmail, ToolVerify}, names)
	assert.Equal(t, []schema.Param{{Name: "steps", Kind: schema.KindStringArray}}, descs[0].Params)
	assert.Equal(t, []schema.Param{{Name: "result", Kind: schema.KindString}}, descs[4].Params)
}

func TestLocal_CallTool(t *testing.T) {
	h, _, _, _ := newTestHost()

	text, err := NewLocal(h).CallTool(context.Background(), ToolPullRepo, map[string]any{"repo_dir": "/work/repository"})
	require.NoError(t, err)
	require.NotNil(t, text)
	assert.Equal(t, verify.PullNoChanges, *text)
}

func TestRouter_Healthz(t *testing.T) {
	h, _, _, _ := newTestHost()

	rr := httptest.NewRecorder()
	Router(h.NewServer("test")).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}
