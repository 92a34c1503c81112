package audio

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "20060102_150405"

// filenameReplacer maps filesystem-hostile characters to underscores.
var filenameReplacer = strings.NewReplacer(
	"<", "_",
	">", "_",
	":", "_",
	"\"", "_",
	"/", "_",
	"\\", "_",
	"|", "_",
	"?", "_",
	"*", "_",
	" ", "_",
)

// TimestampFilename builds a sanitized, timestamped WAV filename for a
// speaker, e.g. "am_liam_20260825_143000.wav".
func TimestampFilename(speaker string, now time.Time) string {
	return fmt.Sprintf(
		"%s_%s.wav",
		SanitizeFilename(speaker),
		now.Format(timestampLayout),
	)
}

// SanitizeFilename replaces characters that are unsafe in filenames.
func SanitizeFilename(name string) string {
	return filenameReplacer.Replace(name)
}
