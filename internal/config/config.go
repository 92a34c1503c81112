// Package config provides the immutable application configuration for the
// kokoro-tts tool: asset locations, remote endpoints, engine settings, and
// default user selections. The configuration is built once at process start
// and passed explicitly to the components that need it.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Environment variable overriding the application home directory.
const envHomeDir = "KOKORO_TTS_HOME"

// Fixed filenames inside the model directory.
const (
	modelFilename    = "kokoro_v1.onnx"
	voicesFilename   = "voices_v1.bin"
	settingsFilename = "settings.json"
)

// Compiled-in defaults used when no TOML configuration is available.
const (
	defaultModelURL        = "https://github.com/taylorchu/kokoro-onnx/releases/download/v0.2.0/kokoro.onnx"
	defaultVoiceURLPattern = "https://huggingface.co/onnx-community/Kokoro-82M-v1.0-ONNX/resolve/main/voices/%s.bin"
	defaultEngineBinary    = "kokoro-runner"
	defaultSpeaker         = "am_liam"
	defaultLanguage        = "English"
	defaultSpeed           = 1.0

	defaultDownloadTimeoutSeconds = 600
	defaultEngineTimeoutSeconds   = 120

	dirPermissions = 0o750
)

// PathsConfig holds the configuration for local directories.
type PathsConfig struct {
	ModelDir string `toml:"model_dir"`
	LogsDir  string `toml:"logs_dir"`
}

// AssetsConfig holds the remote endpoints for model assets.
type AssetsConfig struct {
	ModelURL               string `toml:"model_url"`
	VoiceURLPattern        string `toml:"voice_url_pattern"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
}

// EngineConfig holds the configuration for the inference engine subprocess.
type EngineConfig struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// DefaultsConfig holds the fallback user selections used when no settings
// file has been persisted yet.
type DefaultsConfig struct {
	Speaker  string  `toml:"speaker"`
	Language string  `toml:"language"`
	Speed    float64 `toml:"speed"`
}

// Config is the root configuration structure.
type Config struct {
	Paths    PathsConfig    `toml:"paths"`
	Assets   AssetsConfig   `toml:"assets"`
	Engine   EngineConfig   `toml:"engine"`
	Defaults DefaultsConfig `toml:"defaults"`
}

// HomeDir returns the application home directory, honoring the environment
// override and falling back to a dot directory in the user's home.
func HomeDir() string {
	if home := os.Getenv(envHomeDir); home != "" {
		return home
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "kokoro-tts")
	}

	return filepath.Join(userHome, ".kokoro-tts")
}

// Default returns the compiled-in configuration.
func Default() *Config {
	home := HomeDir()

	return &Config{
		Paths: PathsConfig{
			ModelDir: filepath.Join(home, "models"),
			LogsDir:  filepath.Join(home, "logs"),
		},
		Assets: AssetsConfig{
			ModelURL:               defaultModelURL,
			VoiceURLPattern:        defaultVoiceURLPattern,
			DownloadTimeoutSeconds: defaultDownloadTimeoutSeconds,
		},
		Engine: EngineConfig{
			Binary:         defaultEngineBinary,
			TimeoutSeconds: defaultEngineTimeoutSeconds,
		},
		Defaults: DefaultsConfig{
			Speaker:  defaultSpeaker,
			Language: defaultLanguage,
			Speed:    defaultSpeed,
		},
	}
}

// Load builds the configuration for this run. A project TOML, when present,
// overrides the compiled-in defaults; a desktop install has none, so a failed
// configurator lookup downgrades to the defaults rather than aborting.
func Load(log *logger.Logger) *Config {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		log.Info("No TOML configuration found, using built-in defaults: %v", err)

		return Default()
	}

	cfg.normalize()

	return &cfg
}

// normalize fills any field left empty by a partial TOML document with its
// compiled-in default, keeping the value object complete.
func (c *Config) normalize() {
	def := Default()

	if c.Paths.ModelDir == "" {
		c.Paths.ModelDir = def.Paths.ModelDir
	}

	if c.Paths.LogsDir == "" {
		c.Paths.LogsDir = def.Paths.LogsDir
	}

	if c.Assets.ModelURL == "" {
		c.Assets.ModelURL = def.Assets.ModelURL
	}

	if c.Assets.VoiceURLPattern == "" {
		c.Assets.VoiceURLPattern = def.Assets.VoiceURLPattern
	}

	if c.Assets.DownloadTimeoutSeconds <= 0 {
		c.Assets.DownloadTimeoutSeconds = def.Assets.DownloadTimeoutSeconds
	}

	if c.Engine.Binary == "" {
		c.Engine.Binary = def.Engine.Binary
	}

	if c.Engine.TimeoutSeconds <= 0 {
		c.Engine.TimeoutSeconds = def.Engine.TimeoutSeconds
	}

	if c.Defaults.Speaker == "" {
		c.Defaults.Speaker = def.Defaults.Speaker
	}

	if c.Defaults.Language == "" {
		c.Defaults.Language = def.Defaults.Language
	}

	if c.Defaults.Speed <= 0 {
		c.Defaults.Speed = def.Defaults.Speed
	}
}

// ModelPath returns the local path of the neural model file.
func (c *Config) ModelPath() string {
	return filepath.Join(c.Paths.ModelDir, modelFilename)
}

// VoicesPath returns the local path of the merged voice archive.
func (c *Config) VoicesPath() string {
	return filepath.Join(c.Paths.ModelDir, voicesFilename)
}

// SettingsPath returns the local path of the persisted user settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Paths.ModelDir, settingsFilename)
}

// EnsureDirectories creates the model and log directories if missing.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ModelDir, c.Paths.LogsDir} {
		err := os.MkdirAll(dir, dirPermissions)
		if err != nil {
			return fmt.Errorf("failed to create directory '%s': %w", dir, err)
		}
	}

	return nil
}
