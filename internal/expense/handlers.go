package expense

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/receiptwise/expense-audit/internal/extraction"
	"github.com/receiptwise/expense-audit/internal/policy"
)

// maxUploadSize caps receipt uploads; high-resolution phone photos fit
// comfortably under 50MB.
const maxUploadSize = int64(50 << 20)

// acceptedContentTypes are the upload formats the OCR boundary takes.
var acceptedContentTypes = map[string]struct{}{
	"image/png":       {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/gif":       {},
	"image/heic":      {},
	"image/heif":      {},
	"application/pdf": {},
}

// setCORSHeaders sets CORS headers on a response.
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON encodes a JSON response with CORS headers set.
func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError sends a JSON error body.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// handleHealth reports service liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Backend running.",
	})
}

// contentTypeFor falls back to the filename extension when the upload
// arrives without a Content-Type.
func contentTypeFor(header string, filename string) string {
	if header != "" {
		return header
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic", ".heif":
		return "image/heic"
	default:
		return ""
	}
}

// handleExtract accepts a multipart receipt upload, runs OCR and field
// extraction, and returns the confidence-scored field map.
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		msg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			msg = "File is too large. Maximum size is 50MB."
		}
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	f, header, err := r.FormFile("receipt")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeError(w, http.StatusBadRequest, "No receipt file provided.")
		return
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB.")
		return
	}

	contentType := contentTypeFor(header.Header.Get("Content-Type"), header.Filename)
	if _, ok := acceptedContentTypes[strings.ToLower(contentType)]; !ok {
		writeError(w, http.StatusBadRequest, "Upload a PNG, JPEG, GIF, HEIC or PDF receipt.")
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return
	}

	result, err := s.service.ExtractReceipt(header.Filename, data, contentType)
	if err != nil {
		slog.Error("Error extracting receipt", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Could not process the receipt.")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// policyRequest is the body of POST /api/policy/validate.
type policyRequest struct {
	ReceiptID   string              `json:"receipt_id"`
	Fields      extraction.FieldMap `json:"fields"`
	UserContext map[string]any      `json:"user_context"`
}

// handleValidatePolicy evaluates the policy rules over submitted
// fields.
func (s *Server) handleValidatePolicy(w http.ResponseWriter, r *http.Request) {
	var req policyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if req.Fields == nil {
		req.Fields = extraction.FieldMap{}
	}

	writeJSON(w, http.StatusOK, s.service.ValidatePolicy(req.ReceiptID, req.Fields, req.UserContext))
}

// explainRequest is the body of POST /api/explain.
type explainRequest struct {
	Fields        extraction.FieldMap  `json:"fields"`
	Issues        []policy.Issue       `json:"issues"`
	RuleSummaries []policy.RuleSummary `json:"rule_summaries"`
	UserQuestion  string               `json:"user_question"`
}

// handleExplain returns templated guidance for a policy verdict.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	writeJSON(w, http.StatusOK, s.service.Explain(req.Fields, req.Issues, req.RuleSummaries, req.UserQuestion))
}

// handleCreateSubmission persists a confirmed expense with its audit
// event. Unconfirmed requests are blocked, not erred: the response
// tells the frontend to ask for confirmation.
func (s *Server) handleCreateSubmission(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	sub, err := s.service.CreateSubmission(req)
	if err != nil {
		if errors.Is(err, ErrConfirmationRequired) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status": "BLOCKED",
				"reason": "User confirmation required.",
			})
			return
		}
		slog.Error("Error creating submission", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "SUBMITTED",
		"submission_id": sub.ID,
	})
}

// handleGetSubmission returns a single submission.
func (s *Server) handleGetSubmission(w http.ResponseWriter, r *http.Request) {
	sub, err := s.service.GetSubmission(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Submission not found")
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// handleListSubmissions returns all submissions.
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.service.ListSubmissions()
	if err != nil {
		slog.Error("Error listing submissions", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

// handleListAuditEvents returns the audit trail for a submission.
func (s *Server) handleListAuditEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.service.ListAuditEvents(r.PathValue("id"))
	if err != nil {
		slog.Error("Error listing audit events", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}
