// File: internal/config/config_test.go
package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, 8, cfg.Engine().TotalTurns)
	assert.Equal(t, 4, cfg.Engine().MenuSize)
	assert.Equal(t, "fallback", cfg.Oracle().Provider)
	assert.Equal(t, 10, cfg.Explorer().DefaultRuns)
	assert.False(t, cfg.Archive().Enabled)
}

func TestLoadAppliesViperOverrides(t *testing.T) {
	v := viper.New()
	v.Set("logger.level", "debug")
	v.Set("engine.total_turns", 12)
	v.Set("oracle.provider", "genai")
	v.Set("oracle.api_key", "test-key")
	v.Set("oracle.timeout", "10s")
	v.Set("explorer.concurrency", 2)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, 12, cfg.Engine().TotalTurns)
	assert.Equal(t, "genai", cfg.Oracle().Provider)
	assert.Equal(t, 10*time.Second, cfg.Oracle().Timeout)
	assert.Equal(t, 2, cfg.Explorer().Concurrency)

	// Untouched keys keep their defaults.
	assert.Equal(t, 4, cfg.Engine().MenuSize)
	assert.Equal(t, 32, cfg.Journal().SnapshotCacheSize)
}

func TestLoadExpandsJournalDir(t *testing.T) {
	v := viper.New()
	v.Set("journal.dir", "~/scenarios")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.NotContains(t, cfg.Journal().Dir, "~")
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  any
	}{
		{"zero turns", "engine.total_turns", 0},
		{"menu too small for do-nothing", "engine.menu_size", 1},
		{"zero explorer runs", "explorer.default_runs", 0},
		{"zero concurrency", "explorer.concurrency", 0},
		{"non-positive oracle timeout", "oracle.timeout", "0s"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tc.key, tc.val)
			_, err := Load(v)
			require.Error(t, err)
		})
	}
}

func TestGenAIProviderRequiresAPIKey(t *testing.T) {
	v := viper.New()
	v.Set("oracle.provider", "genai")
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api_key")
}

func TestArchiveRequiresDSNWhenEnabled(t *testing.T) {
	v := viper.New()
	v.Set("archive.enabled", true)
	_, err := Load(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn")

	v.Set("archive.dsn", "postgres://localhost/stratagem")
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.True(t, cfg.Archive().Enabled)
}

func TestSettersOverrideLoadedValues(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SetJournalDir("/tmp/j")
	cfg.SetExplorerRuns(25)
	cfg.SetEngineTotalTurns(3)

	assert.Equal(t, "/tmp/j", cfg.Journal().Dir)
	assert.Equal(t, 25, cfg.Explorer().DefaultRuns)
	assert.Equal(t, 3, cfg.Engine().TotalTurns)
}
