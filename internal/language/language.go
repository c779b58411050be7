package language

import (
	"strings"

	xlang "golang.org/x/text/language"
)

// Auto is the sentinel meaning "keep whatever language was spoken".
const Auto = "auto"

// known lists the languages with ISO 639-1 and 639-2 codes plus English names.
// Bibliographic 639-2 variants ("fre", "ger") follow the terminology code.
var known = []struct {
	iso1, iso2, name string
	bibliographic    string
}{
	{"en", "eng", "English", ""},
	{"es", "spa", "Spanish", ""},
	{"fr", "fra", "French", "fre"},
	{"de", "deu", "German", "ger"},
	{"it", "ita", "Italian", ""},
	{"pt", "por", "Portuguese", ""},
	{"ja", "jpn", "Japanese", ""},
	{"ko", "kor", "Korean", ""},
	{"zh", "zho", "Chinese", "chi"},
	{"ru", "rus", "Russian", ""},
	{"ar", "ara", "Arabic", ""},
	{"hi", "hin", "Hindi", ""},
	{"nl", "nld", "Dutch", "dut"},
	{"pl", "pol", "Polish", ""},
	{"sv", "swe", "Swedish", ""},
	{"da", "dan", "Danish", ""},
	{"no", "nor", "Norwegian", ""},
	{"fi", "fin", "Finnish", ""},
}

type record struct {
	iso1 string
	name string
}

// index resolves every accepted spelling (both codes and the lower-case
// name) to its record.
var index = func() map[string]record {
	m := make(map[string]record, len(known)*4)
	for _, k := range known {
		r := record{iso1: k.iso1, name: k.name}
		for _, key := range []string{k.iso1, k.iso2, k.bibliographic, strings.ToLower(k.name)} {
			if key != "" {
				m[key] = r
			}
		}
	}
	return m
}()

func lookup(code string) (record, bool) {
	r, ok := index[strings.ToLower(strings.TrimSpace(code))]
	return r, ok
}

// ToISO2 converts any recognized language code or word to ISO 639-1 (2-letter).
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if r, ok := lookup(code); ok {
		return r.iso1
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable language name for any recognized code.
// Returns "Unknown" for empty input, or the uppercased code for unrecognized input.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if r, ok := lookup(code); ok {
		return r.name
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsAuto reports whether code requests no translation.
func IsAuto(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == "" || code == Auto
}

// Canonical normalizes a target language to a BCP-47 tag ("fr", "pt-BR").
// Word forms and ISO 639-2 codes map through the local table first. Auto and
// empty input return "" with ok true; unparseable input returns ok false.
func Canonical(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if IsAuto(code) {
		return "", true
	}
	if r, ok := lookup(code); ok {
		return r.iso1, true
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return "", false
	}
	return tag.String(), true
}

// SameBase reports whether two codes name the same base language, so "en-GB"
// matches an "en" source.
func SameBase(a, b string) bool {
	ca, okA := Canonical(a)
	cb, okB := Canonical(b)
	if !okA || !okB || ca == "" || cb == "" {
		return false
	}
	baseA, _ := xlang.Make(ca).Base()
	baseB, _ := xlang.Make(cb).Base()
	return baseA == baseB
}
