package assets

import (
	"fmt"
	"io"
	"strings"
)

// ProgressFunc receives incremental download progress. total is -1 when the
// remote did not report a content length.
type ProgressFunc func(downloaded, total int64)

// Data size constants.
const (
	kilobyte = 1024
	megabyte = kilobyte * 1024
	gigabyte = megabyte * 1024
)

// Size formatting formats.
const (
	formatGB    = "%.1f GB"
	formatMB    = "%.1f MB"
	formatKB    = "%.1f KB"
	formatBytes = "%d B"
)

const progressBarWidth = 40

// FormatFileSize formats a byte count in a human-readable string
// (e.g. "1.2 GB", "500.5 MB").
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= gigabyte:
		return fmt.Sprintf(formatGB, float64(bytes)/gigabyte)
	case bytes >= megabyte:
		return fmt.Sprintf(formatMB, float64(bytes)/megabyte)
	case bytes >= kilobyte:
		return fmt.Sprintf(formatKB, float64(bytes)/kilobyte)
	default:
		return fmt.Sprintf(formatBytes, bytes)
	}
}

// ConsoleProgress returns a ProgressFunc that renders a single-line progress
// bar for the named asset on writer, redrawing only when the percentage
// changes.
func ConsoleProgress(writer io.Writer, name string) ProgressFunc {
	var lastPercent int64 = -1

	return func(downloaded, total int64) {
		if total <= 0 {
			return
		}

		percent := downloaded * 100 / total
		if percent == lastPercent {
			return
		}

		lastPercent = percent

		filled := int(percent) * progressBarWidth / 100
		bar := strings.Repeat("=", filled) + strings.Repeat("-", progressBarWidth-filled)

		fmt.Fprintf(writer, "\r%s [%s] %3d%% (%s / %s)",
			name, bar, percent,
			FormatFileSize(downloaded), FormatFileSize(total))

		if percent >= 100 {
			fmt.Fprintln(writer)
		}
	}
}
