// Package core defines the shared value types and the inference engine
// contract used by the synthesis facade.
package core

import (
	"context"
	"time"
)

// Request describes a single synthesis call.
type Request struct {
	// Text is the input to synthesize. Must be non-empty.
	Text string
	// Style is the speaker embedding vector obtained from the voice archive.
	Style []float32
	// Speed is the playback speed multiplier.
	Speed float64
	// Lang is the engine language code (e.g. "en-us"), not the display name.
	Lang string
}

// Result holds the audio produced by one synthesis call. It is session
// scoped: the caller keeps at most the last result for replay and save.
type Result struct {
	// Samples is the mono PCM sample buffer, one float per sample.
	Samples []float32
	// SampleRate is the native rate of Samples in Hz.
	SampleRate int
}

// Duration returns the playback length of the sample buffer. A zero or
// negative sample rate yields zero.
func (r Result) Duration() time.Duration {
	if r.SampleRate <= 0 {
		return 0
	}

	seconds := float64(len(r.Samples)) / float64(r.SampleRate)

	return time.Duration(seconds * float64(time.Second))
}

// Engine is the facade's view of the external inference engine. An Engine is
// constructed ready; construction fails if the engine cannot initialize.
type Engine interface {
	// VoiceStyle returns the embedding vector for a speaker identifier.
	VoiceStyle(name string) ([]float32, error)
	// Synthesize runs one synthesis call.
	Synthesize(ctx context.Context, req Request) (Result, error)
	// Close releases the engine handle.
	Close() error
}
