// Package ocr wraps the external OCR collaborators. An Engine is a
// black box that turns a receipt image into best-effort text plus a
// word list with confidences in [0,1]; everything downstream works on
// that output alone.
package ocr

import "github.com/receiptwise/expense-audit/internal/extraction"

// Engine defines the interface for OCR backends.
type Engine interface {
	// Recognize runs OCR over an image or PDF and returns the
	// transcription with per-word confidence where the backend
	// provides it.
	Recognize(imageData []byte, contentType string) (*extraction.Document, error)
	// Close releases engine resources.
	Close() error
}
