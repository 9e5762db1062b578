package extraction

// Word is a single OCR-recognized token with a confidence in [0,1].
// A negative confidence is a sentinel meaning the engine could not
// score the word; the confidence estimator filters those out.
type Word struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Document is the raw output of an OCR engine: the full transcription
// plus the recognized words in reading order.
type Document struct {
	Text  string `json:"text"`
	Words []Word `json:"words"`
}
