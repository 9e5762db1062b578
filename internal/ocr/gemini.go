package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/receiptwise/expense-audit/internal/extraction"
)

// transcriptionPrompt asks for a verbatim transcription rather than an
// interpretation, so the deterministic extractors downstream stay in
// charge of finding the fields.
const transcriptionPrompt = `Transcribe all text visible on this receipt exactly as it appears, line by line, top to bottom.

Rules:
- Preserve line breaks: one receipt line per output line
- Do not summarize, translate, or reformat numbers and dates
- Do not add commentary, labels, or markdown code blocks
- Output only the transcription`

// Gemini implements Engine using Google Gemini vision transcription.
// The model returns text only, so the word list is empty: per-word
// confidence is unavailable and downstream confidence estimation falls
// back to its neutral default.
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a Gemini-backed OCR engine.
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Recognize transcribes a receipt image.
func (g *Gemini) Recognize(imageData []byte, contentType string) (*extraction.Document, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pngData, err := preparePNG(imageData, contentType)
	if err != nil {
		return nil, err
	}

	// preparePNG normalizes everything to PNG, so the format suffix is
	// always "png" here.
	resp, err := g.model.GenerateContent(ctx,
		genai.ImageData("png", pngData),
		genai.Text(transcriptionPrompt),
	)
	if err != nil {
		return nil, fmt.Errorf("generating transcription: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no response from gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(b.String())
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	return &extraction.Document{Text: strings.TrimSpace(text)}, nil
}

// Close closes the Gemini client.
func (g *Gemini) Close() error {
	return g.client.Close()
}
