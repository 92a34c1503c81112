package audio_test

import (
	"testing"
	"time"

	"kokoro-tts/internal/audio"
)

func TestTimestampFilename(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 25, 14, 30, 0, 0, time.UTC)

	got := audio.TimestampFilename("am_liam", now)
	want := "am_liam_20260825_143000.wav"

	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "clean", input: "am_liam", want: "am_liam"},
		{name: "separators", input: "a/b\\c", want: "a_b_c"},
		{name: "reserved", input: `a<b>c:d"e|f?g*h`, want: "a_b_c_d_e_f_g_h"},
		{name: "spaces", input: "my voice", want: "my_voice"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := audio.SanitizeFilename(testCase.input)
			if got != testCase.want {
				t.Errorf("Expected %q, got %q", testCase.want, got)
			}
		})
	}
}
