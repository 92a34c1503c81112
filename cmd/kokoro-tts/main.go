// main package for the kokoro-tts command line tool.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/book-expert/logger"

	"kokoro-tts/internal/assets"
	"kokoro-tts/internal/audio"
	"kokoro-tts/internal/config"
	"kokoro-tts/internal/core"
	"kokoro-tts/internal/engine"
	"kokoro-tts/internal/settings"
	"kokoro-tts/internal/tts"
	"kokoro-tts/internal/voices"
)

// Speed bounds accepted at the boundary. Both ends are inclusive.
const (
	minSpeed = 0.1
	maxSpeed = 4.0
)

// Static errors.
var (
	ErrTextRequired    = errors.New("no text provided")
	ErrSpeedOutOfRange = errors.New("speed out of range")
	ErrUnknownSpeaker  = errors.New("unknown speaker")
	ErrUnknownLanguage = errors.New("unknown language")
)

// options holds the parsed command line flags.
type options struct {
	text         string
	speaker      string
	language     string
	output       string
	speed        float64
	speedSet     bool
	play         bool
	downloadOnly bool
	listVoices   bool
	listLangs    bool
}

func parseFlags(args []string) (*options, error) {
	opts := &options{
		text:         "",
		speaker:      "",
		language:     "",
		output:       "",
		speed:        0,
		speedSet:     false,
		play:         false,
		downloadOnly: false,
		listVoices:   false,
		listLangs:    false,
	}

	flags := flag.NewFlagSet("kokoro-tts", flag.ContinueOnError)
	flags.StringVar(&opts.text, "text", "", "text to synthesize")
	flags.StringVar(&opts.speaker, "speaker", "", "speaker identifier (see -list-voices)")
	flags.StringVar(&opts.language, "language", "", "display language (see -list-languages)")
	flags.StringVar(&opts.output, "output", "", "output WAV path (default: timestamped file)")
	flags.Float64Var(&opts.speed, "speed", 0, "speech speed multiplier")
	flags.BoolVar(&opts.play, "play", false, "play the result through a system player")
	flags.BoolVar(&opts.downloadOnly, "download-only", false, "ensure model assets and exit")
	flags.BoolVar(&opts.listVoices, "list-voices", false, "print available speakers and exit")
	flags.BoolVar(&opts.listLangs, "list-languages", false, "print available languages and exit")

	err := flags.Parse(args)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	// The zero value doubles as "not provided", so an explicit -speed must
	// be tracked separately to be validated unconditionally.
	flags.Visit(func(f *flag.Flag) {
		if f.Name == "speed" {
			opts.speedSet = true
		}
	})

	if opts.text == "" {
		opts.text = strings.Join(flags.Args(), " ")
	}

	return opts, nil
}

// validate checks flag values against the catalog and the accepted speed
// range. Zero values mean "not provided" and pass through; the persisted
// settings fill them in later.
func (o *options) validate() error {
	if o.speedSet && (o.speed < minSpeed || o.speed > maxSpeed) {
		return fmt.Errorf(
			"%w: %.4g (must be between %.1f and %.1f)",
			ErrSpeedOutOfRange, o.speed, minSpeed, maxSpeed,
		)
	}

	if o.speaker != "" && !voices.IsSpeaker(o.speaker) {
		return fmt.Errorf("%w: '%s'", ErrUnknownSpeaker, o.speaker)
	}

	if o.language != "" && !voices.IsLanguage(o.language) {
		return fmt.Errorf("%w: '%s'", ErrUnknownLanguage, o.language)
	}

	return nil
}

// resolveRecord merges flag overrides onto the persisted settings record.
func resolveRecord(opts *options, stored settings.Record) settings.Record {
	record := stored

	if opts.speaker != "" {
		record.Speaker = opts.speaker
	}

	if opts.language != "" {
		record.Language = opts.language
	}

	if opts.speedSet {
		record.Speed = opts.speed
	}

	return record
}

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "kokoro-tts.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func printVoices() {
	for _, name := range voices.Speakers() {
		fmt.Println(name)
	}
}

func printLanguages() {
	for _, name := range voices.Languages() {
		fmt.Println(name)
	}
}

// ensureAssets downloads the model and voice archive when missing, with a
// console progress bar on the model transfer.
func ensureAssets(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store := assets.New(cfg, log)
	store.OnProgress(assets.ConsoleProgress(os.Stderr, filepath.Base(cfg.ModelPath())))

	err := store.EnsureAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to ensure model assets: %w", err)
	}

	return nil
}

// synthesize runs the full pipeline: resolve the speaker embedding, generate
// audio, write the WAV file, and optionally play it.
func synthesize(
	ctx context.Context,
	cfg *config.Config,
	log *logger.Logger,
	opts *options,
	record settings.Record,
) error {
	runner, err := engine.New(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to start engine: %w", err)
	}

	defer func() {
		closeErr := runner.Close()
		if closeErr != nil {
			log.Warn("Failed to close engine: %v", closeErr)
		}
	}()

	synth := tts.New(runner, log)

	style, err := synth.SpeakerEmbedding(record.Speaker)
	if err != nil {
		return fmt.Errorf("failed to resolve speaker: %w", err)
	}

	started := time.Now()

	genCtx, cancel := context.WithTimeout(
		ctx, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second,
	)
	defer cancel()

	result, err := synth.Generate(genCtx, opts.text, style, record.Speed, record.Language)
	if err != nil {
		return fmt.Errorf("failed to generate audio: %w", err)
	}

	log.Info(
		"Generated %d samples at %d Hz in %.1fs",
		len(result.Samples), result.SampleRate, time.Since(started).Seconds(),
	)

	outputPath := opts.output
	if outputPath == "" {
		outputPath = audio.TimestampFilename(record.Speaker, time.Now())
	}

	err = audio.WriteWAVFile(outputPath, result.Samples, result.SampleRate)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	fmt.Println(outputPath)

	if opts.play {
		playErr := playAndWait(ctx, log, outputPath, result)
		if playErr != nil {
			// The WAV is already on disk; a broken player is not fatal.
			log.Warn("Playback failed: %v", playErr)
			fmt.Fprintf(os.Stderr, "playback failed: %v\n", playErr)
		}
	}

	return nil
}

// playAndWait plays the file and blocks for its approximate duration, so the
// process does not exit and kill the player mid-sentence.
func playAndWait(
	ctx context.Context,
	log *logger.Logger,
	path string,
	result core.Result,
) error {
	player := audio.NewPlayer(log)

	err := player.Play(path)
	if err != nil {
		return fmt.Errorf("failed to play audio: %w", err)
	}

	select {
	case <-time.After(result.Duration()):
	case <-ctx.Done():
		player.Stop()
	}

	return nil
}

func run() error {
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		return err
	}

	if opts.listVoices {
		printVoices()

		return nil
	}

	if opts.listLangs {
		printLanguages()

		return nil
	}

	err = opts.validate()
	if err != nil {
		return err
	}

	cfg := config.Load(bootstrapLog)

	err = cfg.EnsureDirectories()
	if err != nil {
		return fmt.Errorf("failed to prepare directories: %w", err)
	}

	finalLog, err := setupLogger(cfg.Paths.LogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = ensureAssets(ctx, cfg, finalLog)
	if err != nil {
		return err
	}

	if opts.downloadOnly {
		finalLog.System("Assets present under %s", filepath.Dir(cfg.ModelPath()))

		return nil
	}

	if opts.text == "" {
		return ErrTextRequired
	}

	store := settings.New(cfg, finalLog)
	stored, _ := store.Load()
	record := resolveRecord(opts, stored)

	err = synthesize(ctx, cfg, finalLog, opts, record)
	if err != nil {
		return err
	}

	err = store.Save(record)
	if err != nil {
		finalLog.Warn("Failed to persist settings: %v", err)
	}

	return nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "kokoro-tts: %v\n", err)
		os.Exit(1)
	}
}
