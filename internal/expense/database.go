package expense

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	submissionBucket = "submissions"
	auditBucket      = "audit_events"
)

// DB defines the interface for the audit-trail store.
type DB interface {
	// SaveSubmission persists a submission.
	SaveSubmission(sub *Submission) error

	// GetSubmission retrieves a submission by ID.
	GetSubmission(id string) (*Submission, error)

	// ListSubmissions returns all submissions.
	ListSubmissions() ([]*Submission, error)

	// SaveAuditEvent persists an audit event.
	SaveAuditEvent(event *AuditEvent) error

	// ListAuditEvents returns all audit events for a submission in
	// insertion order.
	ListAuditEvents(submissionID string) ([]*AuditEvent, error)

	// Close closes the database connection.
	Close() error
}

// BoltDB implements the DB interface using BoltDB.
type BoltDB struct {
	db *bbolt.DB
}

// NewBoltDB opens (or creates) the audit database at path.
func NewBoltDB(path string) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(submissionBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(auditBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltDB{db: db}, nil
}

// SaveSubmission persists a submission.
func (b *BoltDB) SaveSubmission(sub *Submission) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		data, err := json.Marshal(sub)
		if err != nil {
			return fmt.Errorf("marshaling submission: %w", err)
		}
		return bucket.Put([]byte(sub.ID), data)
	})
}

// GetSubmission retrieves a submission by ID.
func (b *BoltDB) GetSubmission(id string) (*Submission, error) {
	var sub *Submission
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		data := bucket.Get([]byte(id))
		if data == nil {
			return fmt.Errorf("submission not found: %s", id)
		}
		return json.Unmarshal(data, &sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// ListSubmissions returns all submissions.
func (b *BoltDB) ListSubmissions() ([]*Submission, error) {
	subs := make([]*Submission, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		return bucket.ForEach(func(k, v []byte) error {
			var sub Submission
			if err := json.Unmarshal(v, &sub); err != nil {
				return fmt.Errorf("unmarshaling submission: %w", err)
			}
			subs = append(subs, &sub)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// auditKey namespaces events under their submission so a prefix scan
// returns one submission's trail in insertion order.
func auditKey(submissionID, eventID string) []byte {
	return []byte(submissionID + "/" + eventID)
}

// SaveAuditEvent persists an audit event.
func (b *BoltDB) SaveAuditEvent(event *AuditEvent) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(auditBucket))
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshaling audit event: %w", err)
		}
		return bucket.Put(auditKey(event.SubmissionID, event.ID), data)
	})
}

// ListAuditEvents returns all audit events for a submission.
func (b *BoltDB) ListAuditEvents(submissionID string) ([]*AuditEvent, error) {
	events := make([]*AuditEvent, 0)
	prefix := []byte(submissionID + "/")
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(auditBucket)).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var event AuditEvent
			if err := json.Unmarshal(v, &event); err != nil {
				return fmt.Errorf("unmarshaling audit event: %w", err)
			}
			events = append(events, &event)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// Close closes the database connection.
func (b *BoltDB) Close() error {
	return b.db.Close()
}
