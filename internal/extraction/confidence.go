package extraction

import "strings"

// phraseConfidence approximates the OCR confidence of a phrase by
// averaging the confidences of the recognized words that appear in it.
// Matching is case-insensitive; unscored words (negative confidence)
// are ignored.
func phraseConfidence(words []Word, tokens []string) float64 {
	if len(tokens) == 0 {
		return 0.0
	}

	tokenSet := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if t != "" {
			tokenSet[strings.ToLower(t)] = struct{}{}
		}
	}

	var sum float64
	var matched int
	for _, w := range words {
		if w.Confidence < 0 {
			continue
		}
		if _, ok := tokenSet[strings.ToLower(w.Text)]; ok {
			sum += w.Confidence
			matched++
		}
	}

	if matched == 0 {
		// The phrase exists in the transcription but none of its tokens
		// matched the word list. Stay neutral rather than punishing
		// short merchant names.
		return 0.5
	}
	return sum / float64(matched)
}
