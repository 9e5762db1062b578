package expense

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/receiptwise/expense-audit/internal/explain"
	"github.com/receiptwise/expense-audit/internal/extraction"
	"github.com/receiptwise/expense-audit/internal/ocr"
	"github.com/receiptwise/expense-audit/internal/policy"
)

// ErrConfirmationRequired blocks submissions the user has not
// explicitly confirmed.
var ErrConfirmationRequired = errors.New("user confirmation required")

// IDGenerator generates unique IDs for submissions and audit events.
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ReceiptExtraction is the extraction pipeline output returned to the
// client: the assembled fields plus a short preview of the raw text
// for the review panel.
type ReceiptExtraction struct {
	ReceiptID      string              `json:"receipt_id"`
	Fields         extraction.FieldMap `json:"fields"`
	RawTextPreview string              `json:"raw_text_preview"`
	Filename       string              `json:"filename,omitempty"`
}

// SubmissionRequest carries a user-confirmed expense for persistence.
type SubmissionRequest struct {
	ReceiptID     string              `json:"receipt_id"`
	FinalFields   extraction.FieldMap `json:"final_fields"`
	UserConfirmed bool                `json:"user_confirmed"`
	PolicyRuleIDs []string            `json:"policy_rule_ids"`
	Issues        []policy.Issue      `json:"issues"`
	ReviewState   string              `json:"review_state"`
	Edits         []map[string]any    `json:"edits"`
}

// Service orchestrates extraction, policy validation, explanation and
// the submission audit trail.
type Service struct {
	db          DB
	engine      ocr.Engine
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a Service with default ID generator and time
// source.
func NewService(db DB, engine ocr.Engine, storage Storage) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		idGenerator: &defaultIDGenerator{},
		timeSource:  &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a Service with custom dependencies for
// testing.
func NewServiceWithDeps(db DB, engine ocr.Engine, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		engine:      engine,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameRe = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	multiSpaceRe     = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up phone-generated filenames before they hit
// the filesystem.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameRe.ReplaceAllString(base, "")
	base = strings.TrimSpace(multiSpaceRe.ReplaceAllString(base, " "))

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}
	return base + ext
}

// rawTextPreviewLen caps the transcription excerpt sent to the UI.
const rawTextPreviewLen = 800

// ExtractReceipt runs OCR over an uploaded receipt, extracts the
// confidence-scored fields, and keeps the original image for the audit
// trail. Extraction itself never fails; an error here means the OCR
// collaborator or storage failed.
func (s *Service) ExtractReceipt(filename string, data []byte, contentType string) (*ReceiptExtraction, error) {
	doc, err := s.engine.Recognize(data, contentType)
	if err != nil {
		slog.Error("OCR failed",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return nil, fmt.Errorf("recognizing receipt: %w", err)
	}

	result := extraction.Parse(doc.Text, doc.Words)

	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", result.ReceiptID, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving receipt image: %w", err)
	}

	preview := doc.Text
	if len(preview) > rawTextPreviewLen {
		preview = preview[:rawTextPreviewLen]
	}

	return &ReceiptExtraction{
		ReceiptID:      result.ReceiptID,
		Fields:         result.Fields,
		RawTextPreview: preview,
		Filename:       savedPath,
	}, nil
}

// ValidatePolicy evaluates the deterministic policy rules over a field
// map. Pure; safe to call any number of times.
func (s *Service) ValidatePolicy(receiptID string, fields extraction.FieldMap, userContext map[string]any) policy.Result {
	return policy.Validate(receiptID, fields, userContext)
}

// Explain generates templated guidance from a policy verdict.
func (s *Service) Explain(fields extraction.FieldMap, issues []policy.Issue, summaries []policy.RuleSummary, userQuestion string) explain.Response {
	return explain.Generate(fields, issues, summaries, userQuestion)
}

// CreateSubmission persists a user-confirmed expense together with a
// SUBMITTED audit event. Unconfirmed requests are rejected with
// ErrConfirmationRequired.
func (s *Service) CreateSubmission(req SubmissionRequest) (*Submission, error) {
	if !req.UserConfirmed {
		return nil, ErrConfirmationRequired
	}

	now := s.timeSource.Now()
	sub := &Submission{
		ID:            s.idGenerator.Generate(),
		ReceiptID:     req.ReceiptID,
		ReviewState:   req.ReviewState,
		FinalFields:   req.FinalFields,
		PolicyRuleIDs: req.PolicyRuleIDs,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.SaveSubmission(sub); err != nil {
		return nil, fmt.Errorf("saving submission: %w", err)
	}

	event := &AuditEvent{
		ID:           s.idGenerator.Generate(),
		SubmissionID: sub.ID,
		EventType:    "SUBMITTED",
		Payload: map[string]any{
			"issues":          req.Issues,
			"edits":           req.Edits,
			"policy_rule_ids": req.PolicyRuleIDs,
			"review_state":    req.ReviewState,
		},
		CreatedAt: now,
	}
	if err := s.db.SaveAuditEvent(event); err != nil {
		return nil, fmt.Errorf("recording audit event: %w", err)
	}

	return sub, nil
}

// GetSubmission retrieves a submission by ID.
func (s *Service) GetSubmission(id string) (*Submission, error) {
	sub, err := s.db.GetSubmission(id)
	if err != nil {
		return nil, fmt.Errorf("getting submission: %w", err)
	}
	return sub, nil
}

// ListSubmissions returns all submissions.
func (s *Service) ListSubmissions() ([]*Submission, error) {
	subs, err := s.db.ListSubmissions()
	if err != nil {
		return nil, fmt.Errorf("listing submissions: %w", err)
	}
	return subs, nil
}

// ListAuditEvents returns the audit trail for a submission.
func (s *Service) ListAuditEvents(submissionID string) ([]*AuditEvent, error) {
	events, err := s.db.ListAuditEvents(submissionID)
	if err != nil {
		return nil, fmt.Errorf("listing audit events: %w", err)
	}
	return events, nil
}
