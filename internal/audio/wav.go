// Package audio converts synthesized sample buffers into playable artifacts:
// 16-bit PCM WAV encoding, file output, and fire-and-forget playback through
// a system player.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
)

// Static errors.
var (
	ErrNoSamples         = errors.New("no samples to encode")
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// WAV layout constants for mono 16-bit PCM.
const (
	wavHeaderSize    = 44
	wavFormatPCM     = 1
	wavChannelsMono  = 1
	wavBitsPerSample = 16
	wavBytesPerSamp  = wavBitsPerSample / 8

	filePermissions = 0o600
)

// EncodeWAV renders a float32 sample buffer as a mono 16-bit PCM WAV
// document. Samples are clamped to [-1, 1] before quantization.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	dataSize := len(samples) * wavBytesPerSamp
	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize+dataSize))

	writeWAVHeader(buf, sampleRate, dataSize)

	for _, sample := range samples {
		buf.Write(quantizeSample(sample))
	}

	return buf.Bytes(), nil
}

// WriteWAVFile encodes samples and writes the result to path.
func WriteWAVFile(path string, samples []float32, sampleRate int) error {
	data, err := EncodeWAV(samples, sampleRate)
	if err != nil {
		return fmt.Errorf("failed to encode WAV data: %w", err)
	}

	err = os.WriteFile(path, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write WAV file: %w", err)
	}

	return nil
}

// writeWAVHeader emits the RIFF/fmt/data chunk headers.
func writeWAVHeader(buf *bytes.Buffer, sampleRate, dataSize int) {
	byteRate := sampleRate * wavChannelsMono * wavBytesPerSamp
	blockAlign := wavChannelsMono * wavBytesPerSamp

	buf.WriteString("RIFF")
	writeUint32(buf, uint32(wavHeaderSize-8+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	writeUint32(buf, 16)
	writeUint16(buf, wavFormatPCM)
	writeUint16(buf, wavChannelsMono)
	writeUint32(buf, uint32(sampleRate))
	writeUint32(buf, uint32(byteRate))
	writeUint16(buf, uint16(blockAlign))
	writeUint16(buf, wavBitsPerSample)

	buf.WriteString("data")
	writeUint32(buf, uint32(dataSize))
}

// quantizeSample converts one float sample into little-endian int16 bytes.
func quantizeSample(sample float32) []byte {
	clamped := float64(sample)
	if clamped > 1.0 {
		clamped = 1.0
	}

	if clamped < -1.0 {
		clamped = -1.0
	}

	value := int16(math.Round(clamped * math.MaxInt16))

	out := make([]byte, wavBytesPerSamp)
	binary.LittleEndian.PutUint16(out, uint16(value))

	return out
}

func writeUint32(buf *bytes.Buffer, value uint32) {
	var scratch [4]byte

	binary.LittleEndian.PutUint32(scratch[:], value)
	buf.Write(scratch[:])
}

func writeUint16(buf *bytes.Buffer, value uint16) {
	var scratch [2]byte

	binary.LittleEndian.PutUint16(scratch[:], value)
	buf.Write(scratch[:])
}
