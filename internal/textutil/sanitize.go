package textutil

import "strings"

// SanitizeFileName strips characters that are unsafe in a file name.
// Path separators, colons, and asterisks become dashes; quotes, angle
// brackets, pipes, and question marks are dropped. A result of "." or ".."
// is rejected as empty.
func SanitizeFileName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*':
			return '-'
		case '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "." || cleaned == ".." {
		return ""
	}
	return cleaned
}

// SanitizeToken lowercases value and keeps only ASCII letters, digits,
// dashes, and underscores; every other rune becomes an underscore. Leading
// and trailing separators are trimmed and an empty result is "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
