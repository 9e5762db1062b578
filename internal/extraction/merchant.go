package extraction

import (
	"math"
	"regexp"
	"strings"
)

var (
	digitRe         = regexp.MustCompile(`[0-9]`)
	letterRe        = regexp.MustCompile(`[A-Za-z]`)
	leadingNonAlpha = regexp.MustCompile(`^[^A-Za-z]+`)
)

// findMerchant picks the merchant name from the top of the receipt.
// Boilerplate lines and address-looking lines (mostly digits: street
// numbers, phone numbers, VAT ids) are skipped; the first surviving
// line with letters in it wins.
func findMerchant(lines []string, words []Word) (string, float64) {
	top := lines
	if len(top) > 12 {
		top = top[:12]
	}

	var candidates []string
	for _, line := range top {
		l := cleanLine(line)
		if l == "" || isNoiseLine(l) {
			continue
		}
		if len(digitRe.FindAllString(l, -1)) >= 6 && len(l) > 8 {
			continue
		}
		if letterRe.MatchString(l) {
			candidates = append(candidates, l)
		}
	}

	if len(candidates) == 0 {
		if len(lines) > 0 {
			return lines[0], 0.4
		}
		return "", 0.4
	}

	merchant := strings.TrimSpace(leadingNonAlpha.ReplaceAllString(candidates[0], ""))

	tokens := strings.Fields(merchant)
	if len(tokens) > 4 {
		tokens = tokens[:4]
	}
	conf := phraseConfidence(words, tokens)
	conf = math.Max(0.4, math.Min(conf, 0.95))
	return merchant, round2(conf)
}
