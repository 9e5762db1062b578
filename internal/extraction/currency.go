package extraction

import "regexp"

var currencyRe = regexp.MustCompile(`EUR|€|USD|\$|GBP|£|INR|₹`)

// findCurrency returns the first currency token found in the text.
// When no token is present it falls back to EUR at reduced confidence:
// an assumption, not a detection.
func findCurrency(text string) (string, float64) {
	if m := currencyRe.FindString(text); m != "" {
		return m, 0.9
	}
	return "EUR", 0.6
}
