package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kokoro-tts/internal/config"
	"kokoro-tts/internal/core"
	"kokoro-tts/internal/engine"
)

// okRunnerScript emulates the runner protocol: one JSON line in, one out.
// The style payload decodes to [1.0]; the audio payload to [1.0, 1.0].
const okRunnerScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    *'"op":"init"'*) echo '{"ok":true}' ;;
    *'"op":"style"'*) echo '{"ok":true,"style_base64":"AACAPw=="}' ;;
    *'"op":"speak"'*) echo '{"ok":true,"audio_base64":"AACAPwAAgD8=","sample_rate":24000}' ;;
    *) echo '{"ok":false,"error":"unknown op"}' ;;
  esac
done
`

const initFailureScript = `#!/bin/sh
read -r line
echo '{"ok":false,"error":"model file unreadable"}'
`

const hangingSpeakScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    *'"op":"init"'*) echo '{"ok":true}' ;;
    *) sleep 60 ;;
  esac
done
`

const styleFailureScript = `#!/bin/sh
while IFS= read -r line; do
  case "$line" in
    *'"op":"init"'*) echo '{"ok":true}' ;;
    *) echo '{"ok":false,"error":"no such speaker"}' ;;
  esac
done
`

func writeRunnerScript(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-runner")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o700))

	return path
}

func newTestConfig(t *testing.T, script string) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.ModelDir = t.TempDir()
	cfg.Engine.Binary = script

	return cfg
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Logf("failed to close logger: %v", closeErr)
		}
	})

	return log
}

func newTestRunner(t *testing.T, script string) *engine.Runner {
	t.Helper()

	cfg := newTestConfig(t, script)

	runner, err := engine.New(cfg, newTestLogger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := runner.Close()
		if closeErr != nil {
			t.Logf("failed to close runner: %v", closeErr)
		}
	})

	return runner
}

func TestNewFailsWhenBinaryMissing(t *testing.T) {
	t.Parallel()

	cfg := newTestConfig(t, "definitely-not-installed-runner")

	_, err := engine.New(cfg, newTestLogger(t))
	require.ErrorIs(t, err, engine.ErrBinaryNotFound)
}

func TestNewFailsOnInitFailure(t *testing.T) {
	t.Parallel()

	script := writeRunnerScript(t, initFailureScript)
	cfg := newTestConfig(t, script)

	_, err := engine.New(cfg, newTestLogger(t))
	require.ErrorIs(t, err, engine.ErrEngineFailure)
	assert.ErrorContains(t, err, "model file unreadable")
}

func TestVoiceStyleRoundTrip(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, writeRunnerScript(t, okRunnerScript))

	style, err := runner.VoiceStyle("am_liam")
	require.NoError(t, err)
	require.Len(t, style, 1)
	assert.InEpsilon(t, 1.0, style[0], 0.0001)
}

func TestVoiceStylePropagatesEngineError(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, writeRunnerScript(t, styleFailureScript))

	_, err := runner.VoiceStyle("am_liam")
	require.ErrorIs(t, err, engine.ErrEngineFailure)
	assert.ErrorContains(t, err, "no such speaker")
}

func TestSynthesizeRoundTrip(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, writeRunnerScript(t, okRunnerScript))

	result, err := runner.Synthesize(context.Background(), core.Request{
		Text:  "hello",
		Style: []float32{1.0},
		Speed: 1.0,
		Lang:  "en-us",
	})
	require.NoError(t, err)

	assert.Equal(t, 24000, result.SampleRate)
	assert.Equal(t, []float32{1.0, 1.0}, result.Samples)
}

func TestSynthesizeRespectsCanceledContext(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, writeRunnerScript(t, okRunnerScript))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runner.Synthesize(ctx, core.Request{
		Text:  "hello",
		Style: []float32{1.0},
		Speed: 1.0,
		Lang:  "en-us",
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestSynthesizeTimesOutOnHungEngine(t *testing.T) {
	t.Parallel()

	runner := newTestRunner(t, writeRunnerScript(t, hangingSpeakScript))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	started := time.Now()

	_, err := runner.Synthesize(ctx, core.Request{
		Text:  "hello",
		Style: []float32{1.0},
		Speed: 1.0,
		Lang:  "en-us",
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(started), 5*time.Second)

	// The handle is dead after a mid-call abort.
	_, err = runner.VoiceStyle("am_liam")
	require.ErrorIs(t, err, engine.ErrEngineClosed)
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()

	script := writeRunnerScript(t, okRunnerScript)
	cfg := newTestConfig(t, script)

	runner, err := engine.New(cfg, newTestLogger(t))
	require.NoError(t, err)

	require.NoError(t, runner.Close())
	require.NoError(t, runner.Close())

	_, err = runner.VoiceStyle("am_liam")
	require.ErrorIs(t, err, engine.ErrEngineClosed)
}
