// Package config_test tests the configuration for the kokoro-tts tool.
package config_test

import (
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kokoro-tts/internal/config"
)

func TestUnmarshalConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[paths]
model_dir = "/opt/kokoro/models"
logs_dir = "/opt/kokoro/logs"

[assets]
model_url = "https://example.com/model.onnx"
voice_url_pattern = "https://example.com/voices/%s.pt"
download_timeout_seconds = 120

[engine]
binary = "kokoro-runner"
timeout_seconds = 60

[defaults]
speaker = "af_sarah"
language = "Spanish"
speed = 1.5
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "/opt/kokoro/models", cfg.Paths.ModelDir)
	assert.Equal(t, "/opt/kokoro/logs", cfg.Paths.LogsDir)
	assert.Equal(t, "https://example.com/model.onnx", cfg.Assets.ModelURL)
	assert.Equal(t, "https://example.com/voices/%s.pt", cfg.Assets.VoiceURLPattern)
	assert.Equal(t, 120, cfg.Assets.DownloadTimeoutSeconds)
	assert.Equal(t, "kokoro-runner", cfg.Engine.Binary)
	assert.Equal(t, 60, cfg.Engine.TimeoutSeconds)
	assert.Equal(t, "af_sarah", cfg.Defaults.Speaker)
	assert.Equal(t, "Spanish", cfg.Defaults.Language)
	assert.InEpsilon(t, 1.5, cfg.Defaults.Speed, 0.001)
}

func TestDefaultConfigIsComplete(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	assert.NotEmpty(t, cfg.Paths.ModelDir)
	assert.NotEmpty(t, cfg.Paths.LogsDir)
	assert.NotEmpty(t, cfg.Assets.ModelURL)
	assert.Contains(t, cfg.Assets.VoiceURLPattern, "%s")
	assert.Positive(t, cfg.Assets.DownloadTimeoutSeconds)
	assert.NotEmpty(t, cfg.Engine.Binary)
	assert.Positive(t, cfg.Engine.TimeoutSeconds)
	assert.Equal(t, "am_liam", cfg.Defaults.Speaker)
	assert.Equal(t, "English", cfg.Defaults.Language)
	assert.InEpsilon(t, 1.0, cfg.Defaults.Speed, 0.001)
}

func TestHomeDirHonorsOverride(t *testing.T) {
	override := filepath.Join(t.TempDir(), "custom-home")
	t.Setenv("KOKORO_TTS_HOME", override)

	assert.Equal(t, override, config.HomeDir())
}

func TestFixedPathsLiveInModelDir(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Paths.ModelDir = "/data/models"

	assert.Equal(t, "/data/models/kokoro_v1.onnx", cfg.ModelPath())
	assert.Equal(t, "/data/models/voices_v1.bin", cfg.VoicesPath())
	assert.Equal(t, "/data/models/settings.json", cfg.SettingsPath())
}

func TestEnsureDirectoriesCreatesBoth(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ModelDir = filepath.Join(base, "models")
	cfg.Paths.LogsDir = filepath.Join(base, "logs")

	err := cfg.EnsureDirectories()
	require.NoError(t, err)

	assert.DirExists(t, cfg.Paths.ModelDir)
	assert.DirExists(t, cfg.Paths.LogsDir)
}
