package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"./docs"}, cfg.Docs.Roots)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 70, cfg.Lint.MaxTitleLength)
	assert.Equal(t, 160, cfg.Lint.MaxDescriptionLength)
	assert.True(t, cfg.Links.External)
	assert.Equal(t, 8, cfg.Links.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Links.Timeout)
	assert.Equal(t, 2, cfg.Links.Retries)
	assert.True(t, cfg.Development.HotReload)
}

func TestLoad_OverridesFromViper(t *testing.T) {
	resetViper(t)
	viper.Set("docs.roots", []string{"./site/content"})
	viper.Set("server.port", 9999)
	viper.Set("links.external", false)
	viper.Set("development.hot_reload", false)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"./site/content"}, cfg.Docs.Roots)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.False(t, cfg.Links.External)
	assert.False(t, cfg.Development.HotReload)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetViper(t)
	viper.Set("server.port", 70000)

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

func TestLoad_DangerousHostRejected(t *testing.T) {
	resetViper(t)
	viper.Set("server.host", "localhost;rm -rf /")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dangerous character")
}

func TestLoad_TraversalRootRejected(t *testing.T) {
	resetViper(t)
	viper.Set("docs.roots", []string{"../../etc"})

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "traversal")
}

func TestLoad_ConcurrencyBounds(t *testing.T) {
	resetViper(t)
	viper.Set("links.concurrency", 500)

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency")
}

func TestValidatePath(t *testing.T) {
	assert.Error(t, validatePath(""))
	assert.Error(t, validatePath("../escape"))
	assert.Error(t, validatePath("docs;evil"))
	assert.NoError(t, validatePath("./docs"))
	assert.NoError(t, validatePath("site/content"))
}
