// Package assets acquires and stores the local model assets: the neural
// model file and the merged voice-embedding archive. Existence on disk is the
// sole freshness signal; a present file is never re-fetched.
package assets

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"

	"kokoro-tts/internal/core"
)

// Static errors.
var (
	// ErrEmptyArchive is returned when an archive holds no speakers.
	ErrEmptyArchive = errors.New("voice archive contains no speakers")
	// ErrNotRawFloats is returned when a speaker artifact is a container
	// format rather than raw float32 data.
	ErrNotRawFloats = errors.New("embedding payload is not raw float32 data")
)

// zipMagic is the leading signature of zip containers, which is also how
// torch checkpoint files begin. Such a payload can be 4-byte aligned and
// would otherwise decode silently into garbage floats.
var zipMagic = []byte{'P', 'K', 0x03, 0x04}

// Archive is the merged voice archive: speaker identifier to embedding vector.
type Archive map[string][]float32

// EncodeArchive serializes an archive as a gzip-compressed msgpack document.
func EncodeArchive(archive Archive) ([]byte, error) {
	if len(archive) == 0 {
		return nil, ErrEmptyArchive
	}

	packed, err := marshalArchive(archive)
	if err != nil {
		return nil, fmt.Errorf("failed to encode voice archive: %w", err)
	}

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)

	_, err = gz.Write(packed)
	if err != nil {
		return nil, fmt.Errorf("failed to compress voice archive: %w", err)
	}

	err = gz.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to finalize voice archive: %w", err)
	}

	return buf.Bytes(), nil
}

// DecodeArchive parses a gzip-compressed msgpack voice archive.
func DecodeArchive(data []byte) (Archive, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open voice archive: %w", err)
	}

	packed, readErr := io.ReadAll(gz)
	closeErr := gz.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to decompress voice archive: %w", readErr)
	}

	if closeErr != nil {
		return nil, fmt.Errorf("failed to close voice archive reader: %w", closeErr)
	}

	archive, err := unmarshalArchive(packed)
	if err != nil {
		return nil, fmt.Errorf("failed to decode voice archive: %w", err)
	}

	if len(archive) == 0 {
		return nil, ErrEmptyArchive
	}

	return archive, nil
}

// ReadArchive loads and decodes the archive at path.
func ReadArchive(path string) (Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read voice archive: %w", err)
	}

	return DecodeArchive(data)
}

// decodeEmbedding converts a raw little-endian float32 payload, as served for
// an individual speaker artifact, into an embedding vector.
func decodeEmbedding(data []byte) ([]float32, error) {
	if bytes.HasPrefix(data, zipMagic) {
		return nil, ErrNotRawFloats
	}

	vector, err := core.DecodeFloats32(data)
	if err != nil {
		return nil, fmt.Errorf("invalid embedding payload: %w", err)
	}

	return vector, nil
}
