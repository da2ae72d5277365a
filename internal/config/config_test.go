package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  base_url: http://interview.example:9000
audio:
  sample_rate: 48000
  playback: false
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://interview.example:9000", cfg.Server.BaseURL)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.False(t, cfg.Audio.Playback)
	// Untouched fields keep their defaults.
	assert.Equal(t, 60, cfg.Server.TimeoutSeconds)
	assert.Equal(t, 1, cfg.Audio.Channels)
	assert.True(t, cfg.Output.SaveRecords)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: ["), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadValidation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{"empty base url", "server:\n  base_url: \"\"\n", "server.base_url"},
		{"zero timeout", "server:\n  timeout_seconds: -1\n", "server.timeout_seconds"},
		{"bad sample rate", "audio:\n  sample_rate: -8000\n", "audio.sample_rate"},
		{"bad channels", "audio:\n  channels: 3\n", "audio.channels"},
		{"bad capture limit", "audio:\n  max_capture_seconds: -1\n", "audio.max_capture_seconds"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := Load(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestMergeOverridesSetFields(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Merge(Config{
		Server: ServerConfig{BaseURL: "http://flag.example:7000"},
	}))

	assert.Equal(t, "http://flag.example:7000", cfg.Server.BaseURL)
	assert.Equal(t, 60, cfg.Server.TimeoutSeconds)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("INTERVIEW_SERVER_URL", "http://env.example:8080")

	cfg.ApplyEnv()
	assert.Equal(t, "http://env.example:8080", cfg.Server.BaseURL)
}

func TestApplyEnvIgnoresEmpty(t *testing.T) {
	cfg := Default()
	t.Setenv("INTERVIEW_SERVER_URL", "")

	cfg.ApplyEnv()
	assert.Equal(t, Default().Server.BaseURL, cfg.Server.BaseURL)
}

func TestTimeout(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 60*time.Second, cfg.Timeout())
}
