package expense

import (
	"time"

	"github.com/receiptwise/expense-audit/internal/extraction"
)

// Review states assigned by the frontend traffic-light flow.
const (
	ReviewGreen  = "GREEN"
	ReviewYellow = "YELLOW"
	ReviewRed    = "RED"
)

// Submission is a user-confirmed expense kept as the audit trail. The
// final fields are the extracted fields after any manual edits.
type Submission struct {
	ID            string              `json:"id"`
	ReceiptID     string              `json:"receipt_id"`
	ReviewState   string              `json:"review_state"`
	FinalFields   extraction.FieldMap `json:"final_fields"`
	PolicyRuleIDs []string            `json:"policy_rule_ids"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// AuditEvent records one action taken on a submission.
type AuditEvent struct {
	ID           string         `json:"id"`
	SubmissionID string         `json:"submission_id"`
	EventType    string         `json:"event_type"`
	Payload      map[string]any `json:"payload"`
	CreatedAt    time.Time      `json:"created_at"`
}
