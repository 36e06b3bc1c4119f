package dependency

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/gitcourier/internal/config"
	"github.com/crystaldolphin/gitcourier/internal/host"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	dir := t.TempDir()
	cfg.Agent.Workspace = filepath.Join(dir, "workspace")
	cfg.Agent.Provider = "ollama"
	cfg.Agent.Model = "llama3.2"
	cfg.Store.Path = filepath.Join(dir, "gitcourier.db")
	cfg.Mail.Recipient = "ops@example.com"
	return &cfg
}

func TestContainer_InProcessService(t *testing.T) {
	c, err := New(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	th, closer, err := c.ToolHost(context.Background(), true)
	require.NoError(t, err)
	defer closer.Close()
	assert.IsType(t, &host.Local{}, th)

	svc, err := c.Service(context.Background(), th)
	require.NoError(t, err)
	assert.NotNil(t, svc)

	db, err := c.Store()
	require.NoError(t, err)
	assert.NotNil(t, db)
}

func TestContainer_HostIsSingleton(t *testing.T) {
	c, err := New(testConfig(t))
	require.NoError(t, err)
	defer c.Close()

	a, err := c.Host()
	require.NoError(t, err)
	b, err := c.Host()
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestContainer_StoreDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Enabled = false
	cfg.Mail.SentCheck = "imap"

	c, err := New(cfg)
	require.NoError(t, err)

	db, err := c.Store()
	require.NoError(t, err)
	assert.Nil(t, db)

	_, err = c.Host()
	require.NoError(t, err)
	assert.NoError(t, c.Close())
}

func TestContainer_OutboxCheckNeedsStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.Enabled = false

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Host()
	assert.ErrorContains(t, err, "needs store.enabled")
}

func TestContainer_UnknownSentCheck(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mail.SentCheck = "pigeon"

	c, err := New(cfg)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Host()
	assert.ErrorContains(t, err, "unknown mail.sentCheck")
}

func TestContainer_ModelNeedsKey(t *testing.T) {
	cfg := testConfig(t)
	cfg.Agent.Provider = ""
	cfg.Agent.Model = "gemini-2.0-flash"
	cfg.Providers.Gemini.APIKey = ""
	t.Setenv(config.EnvGeminiKey, "")

	c, err := New(cfg)
	require.NoError(t, err)

	_, err = c.Model()
	assert.ErrorContains(t, err, "no API key")
}
