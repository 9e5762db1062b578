package extraction

import "regexp"

var (
	// "2013 - 11 - 03": OCR often splits the separators off with spaces.
	dateSpacedRe = regexp.MustCompile(`\b\d{4}\s*[./-]\s*\d{2}\s*[./-]\s*\d{2}\b`)
	// "2013-11-03"
	dateYMDRe = regexp.MustCompile(`\b\d{4}[./-]\d{2}[./-]\d{2}\b`)
	// "11/03/2013" or "11-03-13"
	dateDMYRe = regexp.MustCompile(`\b\d{2}[./-]\d{2}[./-]\d{2,4}\b`)
)

// findDate locates a transaction date in the raw text, trying the
// year-first spaced form before the compact patterns. The first match
// wins; a spaced match is de-spaced before returning.
func findDate(text string) (string, float64) {
	if m := dateSpacedRe.FindString(text); m != "" {
		return whitespaceRe.ReplaceAllString(m, ""), 0.8
	}
	if m := dateYMDRe.FindString(text); m != "" {
		return m, 0.75
	}
	if m := dateDMYRe.FindString(text); m != "" {
		return m, 0.75
	}
	return "", 0.3
}
