// Package settings persists the user's last-used synthesis selections as a
// flat JSON document. A missing or corrupt file is downgraded to the default
// record; the load result reports which of the two happened so callers can
// tell "used default" apart from a genuine read.
package settings

import (
	"fmt"
	"os"

	"github.com/book-expert/logger"
	"github.com/bytedance/sonic"

	"kokoro-tts/internal/config"
)

const (
	filePermissions = 0o600
	jsonIndent      = "    "
)

// Source reports where a loaded record came from.
type Source int

const (
	// SourceDefault means the settings file was missing or unparsable and
	// the defaults were substituted.
	SourceDefault Source = iota
	// SourceFile means the record was read from the settings file.
	SourceFile
)

// Record is the persisted configuration record.
type Record struct {
	Speed    float64 `json:"speed"`
	Language string  `json:"language"`
	Speaker  string  `json:"speaker"`
}

// Store reads and writes the settings file at a fixed path. Last writer
// wins; the tool is a single desktop process and concurrent writers are not
// a supported scenario.
type Store struct {
	path     string
	defaults Record
	log      *logger.Logger
}

// New creates a settings store bound to the configured path and defaults.
func New(cfg *config.Config, log *logger.Logger) *Store {
	return &Store{
		path: cfg.SettingsPath(),
		defaults: Record{
			Speed:    cfg.Defaults.Speed,
			Language: cfg.Defaults.Language,
			Speaker:  cfg.Defaults.Speaker,
		},
		log: log,
	}
}

// Defaults returns the record used when nothing has been persisted.
func (s *Store) Defaults() Record {
	return s.defaults
}

// Load returns the persisted record, or the defaults when the file is
// missing or does not parse. Corruption is logged and swallowed, never
// propagated; the returned Source tells the caller which case occurred.
func (s *Store) Load() (Record, Source) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("Failed to read settings file '%s': %v", s.path, err)
		}

		return s.defaults, SourceDefault
	}

	var record Record

	err = sonic.Unmarshal(data, &record)
	if err != nil {
		s.log.Warn("Settings file '%s' is corrupt, using defaults: %v", s.path, err)

		return s.defaults, SourceDefault
	}

	return record, SourceFile
}

// Save overwrites the settings file with the given record as indented JSON.
func (s *Store) Save(record Record) error {
	data, err := sonic.MarshalIndent(record, "", jsonIndent)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	err = os.WriteFile(s.path, data, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
