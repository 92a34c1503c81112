package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"kokoro-tts/internal/config"
	"kokoro-tts/internal/voices"
)

// Static errors.
var (
	ErrNoVoices       = errors.New("no voices downloaded")
	ErrUnexpectedCode = errors.New("unexpected HTTP status")
)

const (
	filePermissions   = 0o600
	dirPermissions    = 0o750
	downloadBlockSize = 32 * 1024

	// maxEmbeddingBytes bounds a single speaker artifact read. Embedding
	// tensors are well under this; anything larger is a broken response.
	maxEmbeddingBytes = 16 * megabyte
)

// Log formats.
const (
	logFmtAssetPresent   = "'%s' already exists, skipping download"
	logFmtDownloading    = "Downloading %s from %s"
	logFmtDownloaded     = "Downloaded '%s' (%s)"
	logFmtVoiceFailed    = "Failed to fetch voice '%s' from %s: %v"
	logFmtVoicesMerged   = "Merged %d of %d voices into '%s'"
	errFmtModelTransfer  = "failed to download model file: %w"
	errFmtVoicesArchive  = "failed to write voice archive: %w"
	errFmtVoicesAborted  = "voice downloads aborted: %w"
	errFmtCreateModelDir = "failed to create model directory: %w"
)

// Store ensures the model file and the voice archive exist on local disk,
// fetching each from its remote endpoint when absent. Both operations are
// idempotent: a present file is never re-fetched.
type Store struct {
	cfg      *config.Config
	client   *http.Client
	log      *logger.Logger
	progress ProgressFunc
}

// New creates an asset store using an HTTP client with the configured
// download timeout.
func New(cfg *config.Config, log *logger.Logger) *Store {
	client := &http.Client{
		Timeout: time.Duration(cfg.Assets.DownloadTimeoutSeconds) * time.Second,
	}

	return NewWithClient(cfg, log, client)
}

// NewWithClient creates an asset store with a custom HTTP client. This
// constructor is primarily for testing.
func NewWithClient(cfg *config.Config, log *logger.Logger, client *http.Client) *Store {
	return &Store{
		cfg:      cfg,
		client:   client,
		log:      log,
		progress: nil,
	}
}

// OnProgress installs a progress callback for streamed downloads.
func (s *Store) OnProgress(fn ProgressFunc) {
	s.progress = fn
}

// EnsureAll ensures both assets, model first. A missing model is fatal to
// startup, so its error propagates before any voice work begins.
func (s *Store) EnsureAll(ctx context.Context) error {
	err := s.EnsureModel(ctx)
	if err != nil {
		return err
	}

	return s.EnsureVoices(ctx)
}

// EnsureModel checks the fixed model path and streams the remote model file
// to it when absent. The transfer lands in a temp file that is renamed into
// place only after full receipt, so a failed download never registers a
// truncated model as present.
func (s *Store) EnsureModel(ctx context.Context) error {
	path := s.cfg.ModelPath()

	if fileExists(path) {
		s.log.Info(logFmtAssetPresent, filepath.Base(path))

		return nil
	}

	err := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if err != nil {
		return fmt.Errorf(errFmtCreateModelDir, err)
	}

	s.log.Info(logFmtDownloading, filepath.Base(path), s.cfg.Assets.ModelURL)

	err = s.downloadToFile(ctx, s.cfg.Assets.ModelURL, path)
	if err != nil {
		return fmt.Errorf(errFmtModelTransfer, err)
	}

	return nil
}

// EnsureVoices checks the fixed archive path and builds the merged voice
// archive when absent: every enumerated speaker artifact is fetched and
// decoded, per-speaker failures are logged and skipped, and the accumulated
// map is written in one move. Zero successes is fatal and writes nothing.
func (s *Store) EnsureVoices(ctx context.Context) error {
	path := s.cfg.VoicesPath()

	if fileExists(path) {
		s.log.Info(logFmtAssetPresent, filepath.Base(path))

		return nil
	}

	err := os.MkdirAll(filepath.Dir(path), dirPermissions)
	if err != nil {
		return fmt.Errorf(errFmtCreateModelDir, err)
	}

	names := voices.Speakers()
	archive := make(Archive, len(names))

	for _, name := range names {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return fmt.Errorf(errFmtVoicesAborted, ctxErr)
		}

		url := fmt.Sprintf(s.cfg.Assets.VoiceURLPattern, name)

		vector, fetchErr := s.fetchEmbedding(ctx, url)
		if fetchErr != nil {
			// A canceled context fails every remaining fetch; writing the
			// speakers gathered so far would register a permanently
			// truncated archive, so abort without writing instead of
			// treating this as a per-speaker failure.
			if errors.Is(fetchErr, context.Canceled) ||
				errors.Is(fetchErr, context.DeadlineExceeded) {
				return fmt.Errorf(errFmtVoicesAborted, fetchErr)
			}

			s.log.Warn(logFmtVoiceFailed, name, url, fetchErr)

			continue
		}

		archive[name] = vector
	}

	if len(archive) == 0 {
		return ErrNoVoices
	}

	encoded, err := EncodeArchive(archive)
	if err != nil {
		return fmt.Errorf(errFmtVoicesArchive, err)
	}

	err = writeFileAtomic(path, encoded)
	if err != nil {
		return fmt.Errorf(errFmtVoicesArchive, err)
	}

	s.log.Info(logFmtVoicesMerged, len(archive), len(names), filepath.Base(path))

	return nil
}

// fetchEmbedding retrieves one speaker artifact and decodes it into a vector.
func (s *Store) fetchEmbedding(ctx context.Context, url string) ([]float32, error) {
	resp, err := s.get(ctx, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxEmbeddingBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact body: %w", err)
	}

	return decodeEmbedding(data)
}

// downloadToFile streams url into path via a uuid-suffixed temp file in the
// same directory, reporting incremental progress, and renames on success.
func (s *Store) downloadToFile(ctx context.Context, url, path string) error {
	resp, err := s.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	tmpPath := path + "." + uuid.NewString() + ".tmp"

	out, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	written, copyErr := s.copyWithProgress(out, resp.Body, resp.ContentLength)
	closeErr := out.Close()

	if copyErr != nil {
		removeQuiet(tmpPath)

		return fmt.Errorf("transfer failed: %w", copyErr)
	}

	if closeErr != nil {
		removeQuiet(tmpPath)

		return fmt.Errorf("failed to close temp file: %w", closeErr)
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		removeQuiet(tmpPath)

		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.log.Info(logFmtDownloaded, filepath.Base(path), FormatFileSize(written))

	return nil
}

// get issues a GET request and validates the status code.
func (s *Store) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}

	if resp.StatusCode != http.StatusOK {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			s.log.Warn("Failed to close response body: %v", closeErr)
		}

		return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedCode, resp.Status, url)
	}

	return resp, nil
}

// copyWithProgress copies src to dst in fixed blocks, invoking the progress
// callback after each block.
func (s *Store) copyWithProgress(dst io.Writer, src io.Reader, total int64) (int64, error) {
	var written int64

	buf := make([]byte, downloadBlockSize)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			_, writeErr := dst.Write(buf[:n])
			if writeErr != nil {
				return written, writeErr
			}

			written += int64(n)

			if s.progress != nil {
				s.progress(written, total)
			}
		}

		if errors.Is(readErr, io.EOF) {
			return written, nil
		}

		if readErr != nil {
			return written, readErr
		}
	}
}

// writeFileAtomic writes data to path through a temp file plus rename.
func writeFileAtomic(path string, data []byte) error {
	tmpPath := path + "." + uuid.NewString() + ".tmp"

	err := os.WriteFile(tmpPath, data, filePermissions)
	if err != nil {
		return err
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		removeQuiet(tmpPath)

		return err
	}

	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}

func removeQuiet(path string) {
	_ = os.Remove(path)
}
