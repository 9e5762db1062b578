package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/receiptwise/expense-audit/internal/extraction"
)

// Tesseract implements Engine by shelling out to the tesseract binary.
// Each image is read in two page segmentation modes and the better
// transcription kept; every pass runs plain text for the transcription
// and TSV for the per-word confidences.
type Tesseract struct {
	binary   string
	language string
	timeout  time.Duration
}

// NewTesseract creates a Tesseract engine. It verifies the binary is
// on the PATH before returning.
func NewTesseract(binary, language string) (*Tesseract, error) {
	if binary == "" {
		binary = "tesseract"
	}
	if language == "" {
		language = "eng"
	}

	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("locating tesseract binary: %w", err)
	}

	return &Tesseract{
		binary:   binary,
		language: language,
		timeout:  60 * time.Second,
	}, nil
}

// Recognize runs OCR over a receipt image and returns the
// transcription plus the scored word list. Two layout passes run per
// image: PSM 6 (single uniform block) and PSM 4 (column-aware), and
// the transcription scoring better for receipt content wins.
func (t *Tesseract) Recognize(imageData []byte, contentType string) (*extraction.Document, error) {
	pngData, err := preparePNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	block, err := t.recognizePass(pngData, "6")
	if err != nil {
		return nil, err
	}
	column, err := t.recognizePass(pngData, "4")
	if err != nil {
		return nil, err
	}

	if scoreText(column.Text) > scoreText(block.Text) {
		return column, nil
	}
	return block, nil
}

// recognizePass runs one full OCR pass at the given page segmentation
// mode: plain text for the transcription and TSV for the per-word
// confidences.
func (t *Tesseract) recognizePass(pngData []byte, psm string) (*extraction.Document, error) {
	text, err := t.run(pngData, psm, "txt")
	if err != nil {
		return nil, fmt.Errorf("recognizing text (psm %s): %w", psm, err)
	}

	tsv, err := t.run(pngData, psm, "tsv")
	if err != nil {
		return nil, fmt.Errorf("recognizing word confidences (psm %s): %w", psm, err)
	}

	return &extraction.Document{
		Text:  text,
		Words: parseTSVWords(tsv),
	}, nil
}

var moneyScoreRe = regexp.MustCompile(`\d+[.,]\d{2}`)

// scoreText grades a transcription for receipt content: more digits,
// more non-blank lines and more money-like amounts usually mean the
// layout mode read the receipt better.
func scoreText(text string) int {
	digits := 0
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits++
		}
	}

	lines := 0
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			lines++
		}
	}

	money := len(moneyScoreRe.FindAllString(text, -1))
	return digits + 2*lines + 3*money
}

// Close is a no-op; each run starts a fresh process.
func (t *Tesseract) Close() error {
	return nil
}

// run executes one tesseract invocation over stdin, producing the
// given output format on stdout.
func (t *Tesseract) run(image []byte, psm, format string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, t.binary,
		"stdin", "stdout", "-l", t.language, "--oem", "3", "--psm", psm, format)
	cmd.Stdin = bytes.NewReader(image)

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("running tesseract: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}

// parseTSVWords extracts word rows from tesseract TSV output. The conf
// column is a percentage; -1 marks structural rows and unscored words.
// Unscored words keep a negative sentinel confidence so the estimator
// can skip them.
func parseTSVWords(tsv string) []extraction.Word {
	var words []extraction.Word
	for i, line := range strings.Split(tsv, "\n") {
		if i == 0 {
			continue // header row
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 12 {
			continue
		}
		text := strings.TrimSpace(cols[11])
		if text == "" {
			continue
		}
		conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
		if err != nil {
			continue
		}
		if conf < 0 {
			words = append(words, extraction.Word{Text: text, Confidence: -1})
			continue
		}
		words = append(words, extraction.Word{Text: text, Confidence: conf / 100})
	}
	return words
}
