package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ot-job-monitor/internal/config"
	"ot-job-monitor/internal/monitor"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	for _, key := range []string{config.PathEnv, "TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "SEEN_JOBS_PATH", "LOG_LEVEL", "PORT", "CHECK_INTERVAL_MINUTES"} {
		t.Setenv(key, "")
	}
	cfg, err := config.Load("")
	require.NoError(t, err)
	dir := t.TempDir()
	cfg.SeenPath = filepath.Join(dir, "seen.json")
	cfg.DebugDir = filepath.Join(dir, "debug")
	cfg.LogFile = filepath.Join(dir, "monitor.log")
	return cfg
}

func TestNeedsTelegram(t *testing.T) {
	assert.True(t, NeedsTelegram(monitor.ModeCheck))
	assert.True(t, NeedsTelegram(monitor.ModeTest))
	assert.False(t, NeedsTelegram(monitor.ModeShow))
}

func TestNewNotifier_MissingCredentials(t *testing.T) {
	cfg := testConfig(t)
	_, err := NewNotifier(cfg, zap.NewNop())
	assert.ErrorIs(t, err, config.ErrMissingToken)
}

func TestBuild_DebugCreatesOutputDir(t *testing.T) {
	cfg := testConfig(t)
	var out bytes.Buffer

	m, err := Build(cfg, nil, Options{Mode: monitor.ModeShow, Debug: true, Out: &out}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, m)

	info, err := os.Stat(cfg.DebugDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestNewLogger_WritesLogFile(t *testing.T) {
	cfg := testConfig(t)

	log, err := NewLogger(cfg, false)
	require.NoError(t, err)
	log.Info("hello")
	_ = log.Sync()

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}
