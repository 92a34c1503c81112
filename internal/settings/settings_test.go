package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kokoro-tts/internal/config"
	"kokoro-tts/internal/settings"
)

func newTestStore(t *testing.T) (*settings.Store, *config.Config) {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.ModelDir = t.TempDir()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		closeErr := log.Close()
		if closeErr != nil {
			t.Logf("failed to close logger: %v", closeErr)
		}
	})

	return settings.New(cfg, log), cfg
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	store, cfg := newTestStore(t)

	record, source := store.Load()
	assert.Equal(t, settings.SourceDefault, source)
	assert.Equal(t, cfg.Defaults.Speaker, record.Speaker)
	assert.Equal(t, cfg.Defaults.Language, record.Language)
	assert.InEpsilon(t, cfg.Defaults.Speed, record.Speed, 0.001)
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	saved := settings.Record{
		Speed:    1.75,
		Language: "Japanese",
		Speaker:  "jf_alpha",
	}

	require.NoError(t, store.Save(saved))

	loaded, source := store.Load()
	assert.Equal(t, settings.SourceFile, source)
	assert.Equal(t, saved, loaded)
}

func TestLoadCorruptFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	store, cfg := newTestStore(t)

	path := filepath.Join(cfg.Paths.ModelDir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	record, source := store.Load()
	assert.Equal(t, settings.SourceDefault, source)
	assert.Equal(t, store.Defaults(), record)
}

func TestSaveLoadSaveLeavesFileUnchanged(t *testing.T) {
	t.Parallel()

	store, cfg := newTestStore(t)
	path := filepath.Join(cfg.Paths.ModelDir, "settings.json")

	saved := settings.Record{Speed: 0.8, Language: "French", Speaker: "ff_siwis"}
	require.NoError(t, store.Save(saved))

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	loaded, _ := store.Load()
	require.NoError(t, store.Save(loaded))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSaveOverwritesPreviousRecord(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)

	first := settings.Record{Speed: 1.0, Language: "English", Speaker: "am_liam"}
	require.NoError(t, store.Save(first))

	second := settings.Record{Speed: 2.0, Language: "Spanish", Speaker: "ef_dora"}
	require.NoError(t, store.Save(second))

	loaded, source := store.Load()
	assert.Equal(t, settings.SourceFile, source)
	assert.Equal(t, second, loaded)
}
