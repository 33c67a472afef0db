package extractor

import (
	"strings"
)

// collapseBlankLines trims every line and drops the empties, so extracted
// text carries no leading indentation or blank runs.
func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// cutAfter returns text truncated at the first occurrence of marker.
// The marker itself is removed. Unmatched markers leave text unchanged.
func cutAfter(text, marker string) string {
	if marker == "" {
		return text
	}
	if idx := strings.Index(text, marker); idx >= 0 {
		return text[:idx]
	}
	return text
}

// cutBefore returns text starting just after the first occurrence of
// marker. Unmatched markers leave text unchanged.
func cutBefore(text, marker string) string {
	if marker == "" {
		return text
	}
	if idx := strings.Index(text, marker); idx >= 0 {
		return text[idx+len(marker):]
	}
	return text
}

// sliceBetween combines cutBefore and cutAfter: text between the first
// start marker and the first end marker following it.
func sliceBetween(text, start, end string) string {
	return cutAfter(cutBefore(text, start), end)
}
