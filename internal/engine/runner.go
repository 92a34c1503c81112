// Package engine manages the handle to the external Kokoro inference engine.
// The engine is a standalone runner binary driven over a line-delimited JSON
// protocol on stdin/stdout; this package owns its process lifecycle.
package engine

import (
	"bufio"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/bytedance/sonic"

	"kokoro-tts/internal/config"
	"kokoro-tts/internal/core"
)

// Static errors.
var (
	ErrEngineClosed   = errors.New("engine is closed")
	ErrEngineFailure  = errors.New("engine reported failure")
	ErrNoAudio        = errors.New("engine returned no audio")
	ErrEmptyStyle     = errors.New("engine returned an empty style vector")
	ErrBinaryNotFound = errors.New("engine binary not found")
)

// Protocol operations.
const (
	opInit  = "init"
	opStyle = "style"
	opSpeak = "speak"
)

const (
	shutdownGrace = 2 * time.Second

	// Synthesized audio crosses the pipe base64-encoded; allow for long
	// passages when sizing the response scanner.
	maxResponseBytes = 256 * 1024 * 1024

	stderrTailBytes = 16 * 1024
)

// request is one line sent to the runner.
type request struct {
	Op         string  `json:"op"`
	ModelPath  string  `json:"model_path,omitempty"`
	VoicesPath string  `json:"voices_path,omitempty"`
	Speaker    string  `json:"speaker,omitempty"`
	Text       string  `json:"text,omitempty"`
	Style      string  `json:"style_base64,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
	Lang       string  `json:"lang,omitempty"`
}

// response is one line read back from the runner.
type response struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
	Style      string `json:"style_base64,omitempty"`
	Audio      string `json:"audio_base64,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
}

// Runner is a ready engine handle backed by a long-lived subprocess. The
// constructor performs the full initialization handshake, so a Runner is
// either ready or never built; there is no lazy re-initialization path.
type Runner struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	scanner *bufio.Scanner
	tail    *tailBuffer
	log     *logger.Logger
	closed  bool
}

// New launches the runner binary and initializes it with the local asset
// paths. Both assets must already be present on disk.
func New(cfg *config.Config, log *logger.Logger) (*Runner, error) {
	binaryPath, err := exec.LookPath(cfg.Engine.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBinaryNotFound, cfg.Engine.Binary)
	}

	tail := newTailBuffer(stderrTailBytes)

	cmd := exec.Command(binaryPath)
	cmd.Stderr = tail

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdin: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open engine stdout: %w", err)
	}

	err = cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start engine binary: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), maxResponseBytes)

	runner := &Runner{
		mu:      sync.Mutex{},
		cmd:     cmd,
		stdin:   stdin,
		scanner: scanner,
		tail:    tail,
		log:     log,
		closed:  false,
	}

	_, err = runner.roundTrip(context.Background(), request{
		Op:         opInit,
		ModelPath:  cfg.ModelPath(),
		VoicesPath: cfg.VoicesPath(),
	})
	if err != nil {
		runner.kill()

		return nil, fmt.Errorf("engine initialization failed: %w", err)
	}

	log.Info("Engine initialized (%s)", binaryPath)

	return runner, nil
}

// VoiceStyle returns the embedding vector for a speaker identifier, failing
// when the engine does not recognize the name.
func (r *Runner) VoiceStyle(name string) ([]float32, error) {
	resp, err := r.roundTrip(context.Background(), request{Op: opStyle, Speaker: name})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch style for '%s': %w", name, err)
	}

	vector, err := decodeVector(resp.Style)
	if err != nil {
		return nil, fmt.Errorf("invalid style payload for '%s': %w", name, err)
	}

	if len(vector) == 0 {
		return nil, ErrEmptyStyle
	}

	return vector, nil
}

// Synthesize runs one synthesis call and returns the sample buffer with its
// native rate.
func (r *Runner) Synthesize(ctx context.Context, req core.Request) (core.Result, error) {
	if ctx.Err() != nil {
		return core.Result{}, fmt.Errorf("synthesis aborted: %w", ctx.Err())
	}

	resp, err := r.roundTrip(ctx, request{
		Op:    opSpeak,
		Text:  req.Text,
		Style: base64.StdEncoding.EncodeToString(core.EncodeFloats32(req.Style)),
		Speed: req.Speed,
		Lang:  req.Lang,
	})
	if err != nil {
		return core.Result{}, fmt.Errorf("synthesis failed: %w", err)
	}

	samples, err := decodeVector(resp.Audio)
	if err != nil {
		return core.Result{}, fmt.Errorf("invalid audio payload: %w", err)
	}

	if len(samples) == 0 || resp.SampleRate <= 0 {
		return core.Result{}, ErrNoAudio
	}

	return core.Result{Samples: samples, SampleRate: resp.SampleRate}, nil
}

// Close shuts the runner down, giving the process a grace period before it
// is killed.
func (r *Runner) Close() error {
	r.mu.Lock()

	if r.closed {
		r.mu.Unlock()

		return nil
	}

	r.closed = true
	stdin := r.stdin
	cmd := r.cmd
	r.mu.Unlock()

	if stdin != nil {
		closeErr := stdin.Close()
		if closeErr != nil {
			r.log.Warn("Failed to close engine stdin: %v", closeErr)
		}
	}

	if cmd == nil || cmd.Process == nil {
		return nil
	}

	_ = cmd.Process.Signal(os.Interrupt)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-time.After(shutdownGrace):
		_ = cmd.Process.Kill()
		<-done
	case <-done:
	}

	return nil
}

// roundTrip writes one request line and reads exactly one response line.
// Requests are single-flight; the engine processes one call at a time. A
// canceled or expired context kills the process, so a hung engine cannot
// block past the caller's deadline.
func (r *Runner) roundTrip(ctx context.Context, req request) (response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return response{}, ErrEngineClosed
	}

	line, err := sonic.Marshal(req)
	if err != nil {
		return response{}, fmt.Errorf("failed to encode request: %w", err)
	}

	line = append(line, '\n')

	_, err = r.stdin.Write(line)
	if err != nil {
		return response{}, r.failWithTail(fmt.Errorf("failed to write to engine: %w", err))
	}

	raw, err := r.readLine(ctx)
	if err != nil {
		return response{}, err
	}

	var resp response

	err = sonic.Unmarshal(raw, &resp)
	if err != nil {
		return response{}, fmt.Errorf("failed to decode engine response: %w", err)
	}

	if !resp.OK {
		detail := strings.TrimSpace(resp.Error)
		if detail == "" {
			detail = "unknown engine error"
		}

		return response{}, fmt.Errorf("%w: %s", ErrEngineFailure, detail)
	}

	return resp, nil
}

// readLine blocks for the engine's next response line or the context,
// whichever comes first. Expiry kills the process to unblock the read; the
// handle is unusable afterwards and is marked closed.
func (r *Runner) readLine(ctx context.Context) ([]byte, error) {
	scanned := make(chan error, 1)

	go func() {
		if r.scanner.Scan() {
			scanned <- nil

			return
		}

		scanErr := r.scanner.Err()
		if scanErr == nil {
			scanErr = io.ErrUnexpectedEOF
		}

		scanned <- scanErr
	}()

	select {
	case <-ctx.Done():
		r.closed = true

		if r.cmd.Process != nil {
			_ = r.cmd.Process.Kill()
		}

		<-scanned
		_ = r.cmd.Wait()

		return nil, fmt.Errorf("engine call aborted: %w", ctx.Err())
	case scanErr := <-scanned:
		if scanErr != nil {
			return nil, r.failWithTail(fmt.Errorf("failed to read from engine: %w", scanErr))
		}

		return r.scanner.Bytes(), nil
	}
}

// failWithTail augments a pipe error with the tail of the engine's stderr,
// which usually carries the actual diagnostic.
func (r *Runner) failWithTail(err error) error {
	detail := r.tail.String()
	if detail == "" {
		return err
	}

	return fmt.Errorf("%w (engine stderr: %s)", err, detail)
}

// kill tears the process down during a failed construction.
func (r *Runner) kill() {
	if r.stdin != nil {
		_ = r.stdin.Close()
	}

	if r.cmd != nil && r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
		_ = r.cmd.Wait()
	}
}

// decodeVector decodes a base64 little-endian float32 payload. An empty
// string decodes to an empty vector.
func decodeVector(encoded string) ([]float32, error) {
	if encoded == "" {
		return nil, nil
	}

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 payload: %w", err)
	}

	vector, err := core.DecodeFloats32(raw)
	if err != nil {
		return nil, err
	}

	return vector, nil
}
