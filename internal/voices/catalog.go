// Package voices holds the static reference data for the Kokoro voice model:
// the enumerated speaker identifiers and the display-language to engine
// language-code mapping. The data is fixed by the model release, not computed.
package voices

// DefaultLanguageCode is used when a display name has no known mapping.
const DefaultLanguageCode = "en-us"

// languageDisplayOrder preserves the order languages are presented to users.
var languageDisplayOrder = []string{
	"English",
	"English (British)",
	"French",
	"Japanese",
	"Hindi",
	"Mandarin Chinese",
	"Spanish",
	"Brazilian Portuguese",
	"Italian",
}

// languageCodes maps a display name to the engine language code.
var languageCodes = map[string]string{
	"English":              "en-us",
	"English (British)":    "en-gb",
	"French":               "fr-fr",
	"Japanese":             "ja",
	"Hindi":                "hi",
	"Mandarin Chinese":     "cmn",
	"Spanish":              "es",
	"Brazilian Portuguese": "pt-br",
	"Italian":              "it",
}

// speakers lists every speaker identifier bundled with the model,
// grouped by locale and gender.
var speakers = []string{
	// American female
	"af_heart", "af_alloy", "af_aoede", "af_bella", "af_jessica", "af_kore",
	"af_nicole", "af_nova", "af_river", "af_sarah", "af_sky",
	// American male
	"am_adam", "am_echo", "am_eric", "am_fenrir", "am_liam", "am_michael",
	"am_onyx", "am_puck", "am_santa",
	// British female
	"bf_alice", "bf_emma", "bf_isabella", "bf_lily",
	// British male
	"bm_daniel", "bm_fable", "bm_george", "bm_lewis",
	// Japanese
	"jf_alpha", "jf_gongitsune", "jf_nezumi", "jf_tebukuro", "jm_kumo",
	// Mandarin
	"zf_xiaobei", "zf_xiaoni", "zf_xiaoxiao", "zf_xiaoyi",
	"zm_yunjian", "zm_yunxi", "zm_yunxia", "zm_yunyang",
	// Spanish
	"ef_dora", "em_alex", "em_santa",
	// French
	"ff_siwis",
	// Hindi
	"hf_alpha", "hf_beta", "hm_omega", "hm_psi",
	// Italian
	"if_sara", "im_nicola",
	// Brazilian Portuguese
	"pf_dora", "pm_alex", "pm_santa",
}

var speakerSet = buildSpeakerSet()

func buildSpeakerSet() map[string]struct{} {
	set := make(map[string]struct{}, len(speakers))
	for _, name := range speakers {
		set[name] = struct{}{}
	}

	return set
}

// Speakers returns the full enumerated speaker list. The returned slice is a
// copy; callers may not mutate the catalog.
func Speakers() []string {
	out := make([]string, len(speakers))
	copy(out, speakers)

	return out
}

// Languages returns the supported display language names in presentation order.
func Languages() []string {
	out := make([]string, len(languageDisplayOrder))
	copy(out, languageDisplayOrder)

	return out
}

// LanguageCode resolves a display language name to the engine language code.
// The second return value reports whether the display name was recognized.
func LanguageCode(display string) (string, bool) {
	code, ok := languageCodes[display]

	return code, ok
}

// IsSpeaker reports whether name is one of the enumerated speaker identifiers.
func IsSpeaker(name string) bool {
	_, ok := speakerSet[name]

	return ok
}

// IsLanguage reports whether display is one of the supported display names.
func IsLanguage(display string) bool {
	_, ok := languageCodes[display]

	return ok
}
