// Package tts is the synthesis facade: it validates speaker and language
// selections against the static catalog, normalizes input text, and drives
// the underlying engine.
package tts

import (
	"context"
	"errors"
	"fmt"

	"github.com/book-expert/logger"

	"kokoro-tts/internal/core"
	"kokoro-tts/internal/text"
	"kokoro-tts/internal/voices"
)

// Static errors.
var (
	ErrEmptyText      = errors.New("text is empty")
	ErrUnknownSpeaker = errors.New("unknown speaker")
	ErrEmptyEmbedding = errors.New("speaker embedding is empty")
	ErrNoAudio        = errors.New("synthesis produced no audio")
)

// Error format strings.
const (
	errFmtStyleLookup = "failed to resolve speaker '%s': %w"
	errFmtSynthesis   = "failed to synthesize text: %w"
)

// Synthesizer turns validated synthesis parameters into audio.
type Synthesizer struct {
	engine     core.Engine
	normalizer *text.Normalizer
	log        *logger.Logger
}

// New creates a synthesizer over a ready engine.
func New(engine core.Engine, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		engine:     engine,
		normalizer: text.NewNormalizer(),
		log:        log,
	}
}

// SpeakerEmbedding resolves a speaker identifier to its style vector. The
// name must be a catalog member and the engine must return a non-empty
// vector.
func (s *Synthesizer) SpeakerEmbedding(name string) ([]float32, error) {
	if !voices.IsSpeaker(name) {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownSpeaker, name)
	}

	vector, err := s.engine.VoiceStyle(name)
	if err != nil {
		return nil, fmt.Errorf(errFmtStyleLookup, name, err)
	}

	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrEmptyEmbedding, name)
	}

	return vector, nil
}

// Generate synthesizes normalized text with the given style vector, speed,
// and display language. An unrecognized language falls back to the default
// engine code rather than failing; empty audio from the engine is an error.
func (s *Synthesizer) Generate(
	ctx context.Context,
	input string,
	style []float32,
	speed float64,
	language string,
) (core.Result, error) {
	normalized := s.normalizer.Normalize(input)
	if normalized == "" {
		return core.Result{}, ErrEmptyText
	}

	langCode, known := voices.LanguageCode(language)
	if !known {
		s.log.Warn(
			"Unknown language '%s', falling back to '%s'",
			language,
			voices.DefaultLanguageCode,
		)

		langCode = voices.DefaultLanguageCode
	}

	result, err := s.engine.Synthesize(ctx, core.Request{
		Text:  normalized,
		Style: style,
		Speed: speed,
		Lang:  langCode,
	})
	if err != nil {
		return core.Result{}, fmt.Errorf(errFmtSynthesis, err)
	}

	if len(result.Samples) == 0 {
		return core.Result{}, ErrNoAudio
	}

	return result, nil
}
