package extraction

import (
	"regexp"
	"strings"
)

// noisePhrases marks receipt boilerplate lines that never carry a
// merchant name or other useful field content.
var noisePhrases = []string{
	"duplicate", "copy", "merchant copy", "customer copy",
	"thank you", "tax invoice", "invoice", "receipt",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// cleanLine trims a line and collapses internal whitespace runs to
// single spaces.
func cleanLine(s string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// splitLines returns the cleaned, non-blank lines of raw OCR text.
// Noise lines are kept in place; callers that care use isNoiseLine.
func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) == "" {
			continue
		}
		lines = append(lines, cleanLine(l))
	}
	return lines
}

// isNoiseLine reports whether a line is boilerplate rather than
// content. Very short lines count as noise too.
func isNoiseLine(line string) bool {
	low := strings.ToLower(line)
	if len(low) < 3 {
		return true
	}
	for _, p := range noisePhrases {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}
