package expense

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/receiptwise/expense-audit/internal/extraction"
)

var _ = Describe("BoltDB", func() {
	var (
		tempDir string
		db      *BoltDB
		err     error
	)

	BeforeEach(func() {
		tempDir, err = os.MkdirTemp("", "expense-audit-test-*")
		Expect(err).NotTo(HaveOccurred())

		db, err = NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	Describe("submissions", func() {
		var sub *Submission

		BeforeEach(func() {
			sub = &Submission{
				ID:          "sub-1",
				ReceiptID:   "r_abc12345",
				ReviewState: ReviewYellow,
				FinalFields: extraction.FieldMap{
					extraction.FieldMerchant: {Value: "ACME", Confidence: 0.92},
				},
				PolicyRuleIDs: []string{"POL-CONF-100"},
				CreatedAt:     time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC),
				UpdatedAt:     time.Date(2024, 5, 14, 10, 30, 0, 0, time.UTC),
			}
		})

		It("round-trips a submission", func() {
			Expect(db.SaveSubmission(sub)).To(Succeed())

			got, err := db.GetSubmission("sub-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(sub))
		})

		It("returns an error for a missing submission", func() {
			_, err := db.GetSubmission("missing")
			Expect(err).To(MatchError(ContainSubstring("submission not found")))
		})

		It("lists all submissions", func() {
			Expect(db.SaveSubmission(sub)).To(Succeed())
			other := *sub
			other.ID = "sub-2"
			Expect(db.SaveSubmission(&other)).To(Succeed())

			subs, err := db.ListSubmissions()
			Expect(err).NotTo(HaveOccurred())
			Expect(subs).To(HaveLen(2))
		})
	})

	Describe("audit events", func() {
		It("lists events for one submission only", func() {
			events := []*AuditEvent{
				{ID: "evt-1", SubmissionID: "sub-1", EventType: "SUBMITTED", CreatedAt: time.Now().UTC()},
				{ID: "evt-2", SubmissionID: "sub-1", EventType: "EDITED", CreatedAt: time.Now().UTC()},
				{ID: "evt-3", SubmissionID: "sub-2", EventType: "SUBMITTED", CreatedAt: time.Now().UTC()},
			}
			for _, e := range events {
				Expect(db.SaveAuditEvent(e)).To(Succeed())
			}

			got, err := db.ListAuditEvents("sub-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			for _, e := range got {
				Expect(e.SubmissionID).To(Equal("sub-1"))
			}
		})

		It("preserves the event payload", func() {
			event := &AuditEvent{
				ID:           "evt-1",
				SubmissionID: "sub-1",
				EventType:    "SUBMITTED",
				Payload:      map[string]any{"review_state": ReviewGreen},
				CreatedAt:    time.Now().UTC(),
			}
			Expect(db.SaveAuditEvent(event)).To(Succeed())

			got, err := db.ListAuditEvents("sub-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Payload).To(HaveKeyWithValue("review_state", ReviewGreen))
		})

		It("returns an empty list for an unknown submission", func() {
			got, err := db.ListAuditEvents("nope")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})
})

var _ = Describe("LocalStorage", func() {
	var (
		tempDir string
		store   *LocalStorage
		err     error
	)

	BeforeEach(func() {
		tempDir, err = os.MkdirTemp("", "expense-audit-storage-*")
		Expect(err).NotTo(HaveOccurred())

		store, err = NewLocalStorage(filepath.Join(tempDir, "receipts"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(tempDir)).To(Succeed())
	})

	It("round-trips a file", func() {
		path, err := store.Save("r_abc_receipt.jpg", []byte("image-bytes"))
		Expect(err).NotTo(HaveOccurred())

		data, err := store.Get(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(Equal([]byte("image-bytes")))
	})

	It("deletes a file", func() {
		path, err := store.Save("r_abc_receipt.jpg", []byte("image-bytes"))
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Delete(path)).To(Succeed())

		_, err = store.Get(path)
		Expect(err).To(HaveOccurred())
	})

	It("errors on a missing file", func() {
		_, err := store.Get("missing.jpg")
		Expect(err).To(MatchError(ContainSubstring("reading file")))
	})
})
