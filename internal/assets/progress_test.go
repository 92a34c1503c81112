package assets_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"kokoro-tts/internal/assets"
)

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{name: "bytes", bytes: 512, expected: "512 B"},
		{name: "kilobytes", bytes: 2048, expected: "2.0 KB"},
		{name: "megabytes", bytes: 5 * 1024 * 1024, expected: "5.0 MB"},
		{name: "gigabytes", bytes: 3 * 1024 * 1024 * 1024, expected: "3.0 GB"},
		{name: "zero", bytes: 0, expected: "0 B"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, assets.FormatFileSize(testCase.bytes))
		})
	}
}

func TestConsoleProgressRedrawsOnPercentChange(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	progress := assets.ConsoleProgress(&out, "model.onnx")

	progress(50, 100)
	first := out.Len()
	assert.Positive(t, first)

	// Same percentage: no redraw.
	progress(50, 100)
	assert.Equal(t, first, out.Len())

	progress(100, 100)
	assert.Greater(t, out.Len(), first)
	assert.Contains(t, out.String(), "100%")
}

func TestConsoleProgressIgnoresUnknownTotal(t *testing.T) {
	t.Parallel()

	var out strings.Builder

	progress := assets.ConsoleProgress(&out, "model.onnx")
	progress(1024, -1)

	assert.Empty(t, out.String())
}
