// Package model defines the core data types shared by the booking job lifecycle.
package model

import (
	"encoding/base32"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

const (
	// MaxMessageRunes bounds a single thread message.
	MaxMessageRunes = 5000
	// CreatedMessage is the system message appended when a job is created.
	CreatedMessage = "Booking request created"
	// JobNumberPrefix starts every human-facing job code.
	JobNumberPrefix = "JOB-"
	jobNumberChars  = 8
)

// JobNumber derives the short human code for a job from random seed bytes,
// usually the job's UUID.
func JobNumber(seed []byte) string {
	enc := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(seed)
	if len(enc) > jobNumberChars {
		enc = enc[:jobNumberChars]
	}
	return JobNumberPrefix + enc
}

// JobStatus represents a position in the booking lifecycle.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusReviewing  JobStatus = "reviewing"
	JobStatusQuoted     JobStatus = "quoted"
	JobStatusAccepted   JobStatus = "accepted"
	JobStatusConfirmed  JobStatus = "confirmed"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusDelivered  JobStatus = "delivered"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusDisputed   JobStatus = "disputed"
	JobStatusClosed     JobStatus = "closed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// AllStatuses lists the canonical vocabulary in happy-path order.
var AllStatuses = []JobStatus{
	JobStatusPending,
	JobStatusReviewing,
	JobStatusQuoted,
	JobStatusAccepted,
	JobStatusConfirmed,
	JobStatusInProgress,
	JobStatusDelivered,
	JobStatusCompleted,
	JobStatusDisputed,
	JobStatusClosed,
	JobStatusCancelled,
}

// Valid returns true if the JobStatus belongs to the canonical vocabulary.
func (s JobStatus) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// UnmarshalText implements encoding.TextUnmarshaler so statuses can be decoded from query strings and flags.
func (s *JobStatus) UnmarshalText(text []byte) error {
	v := JobStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid JobStatus: %q", string(text))
	}
	*s = v
	return nil
}

// Role identifies which side of a booking an actor is acting for.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleVendor   Role = "vendor"
)

// Valid reports whether the role is one of the two participant roles.
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleVendor
}

// ParseRole normalizes a role string and reports whether it is supported.
func ParseRole(value string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(value)))
	return r, r.Valid()
}

// MessageKind distinguishes participant messages from generated ones.
type MessageKind string

const (
	MessageKindRegular      MessageKind = "regular"
	MessageKindStatusUpdate MessageKind = "status_update"
	MessageKindSystem       MessageKind = "system"
)

// StatusEntry is one record of the append-only status history.
type StatusEntry struct {
	Status    JobStatus `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   string    `json:"actor_id"`
	Reason    string    `json:"reason,omitempty"`
}

// Message is one entry of a job's conversation thread.
type Message struct {
	SenderID  string      `json:"sender_id"`
	Message   string      `json:"message"`
	Kind      MessageKind `json:"kind"`
	Timestamp time.Time   `json:"timestamp"`
}

// Attachment describes a file uploaded to a job. The bytes live in the blob store.
type Attachment struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Job is a booking tying one customer to one vendor for one service.
type Job struct {
	ID                    string          `json:"id"                               db:"id"`
	JobNumber             string          `json:"job_number"                       db:"job_number"`
	CustomerID            string          `json:"customer_id"                      db:"customer_id"`
	VendorID              string          `json:"vendor_id"                        db:"vendor_id"`
	ServiceID             string          `json:"service_id"                       db:"service_id"`
	Status                JobStatus       `json:"status"                           db:"status"`
	Details               json.RawMessage `json:"details,omitempty"                db:"details"`
	Pricing               json.RawMessage `json:"pricing,omitempty"                db:"pricing"`
	Scheduling            json.RawMessage `json:"scheduling,omitempty"             db:"scheduling"`
	Deliverables          json.RawMessage `json:"deliverables,omitempty"           db:"deliverables"`
	CompletedDeliverables json.RawMessage `json:"completed_deliverables,omitempty" db:"completed_deliverables"`
	StatusHistory         []StatusEntry   `json:"status_history"`
	Messages              []Message       `json:"messages"`
	Attachments           []Attachment    `json:"attachments"`
	CreatedAt             time.Time       `json:"created_at"                       db:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"                       db:"updated_at"`
}

// Clone returns a deep copy so callers can mutate the result without aliasing stored state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	c := *j
	c.Details = cloneRaw(j.Details)
	c.Pricing = cloneRaw(j.Pricing)
	c.Scheduling = cloneRaw(j.Scheduling)
	c.Deliverables = cloneRaw(j.Deliverables)
	c.CompletedDeliverables = cloneRaw(j.CompletedDeliverables)
	c.StatusHistory = append([]StatusEntry(nil), j.StatusHistory...)
	c.Messages = append([]Message(nil), j.Messages...)
	c.Attachments = append([]Attachment(nil), j.Attachments...)
	return &c
}

func cloneRaw(r json.RawMessage) json.RawMessage {
	if r == nil {
		return nil
	}
	return append(json.RawMessage(nil), r...)
}

// CreateJobRequest represents a request to open a new booking.
type CreateJobRequest struct {
	CustomerID   string          `json:"customer_id"`
	VendorID     string          `json:"vendor_id"`
	ServiceID    string          `json:"service_id"`
	Details      json.RawMessage `json:"details,omitempty"`
	Pricing      json.RawMessage `json:"pricing,omitempty"`
	Scheduling   json.RawMessage `json:"scheduling,omitempty"`
	Deliverables json.RawMessage `json:"deliverables,omitempty"`
}

// Normalize trims identifier fields in place.
func (r *CreateJobRequest) Normalize() {
	r.CustomerID = strings.TrimSpace(r.CustomerID)
	r.VendorID = strings.TrimSpace(r.VendorID)
	r.ServiceID = strings.TrimSpace(r.ServiceID)
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if r.CustomerID == "" {
		return apperrors.ValidationField("customer_id", "customer_id is required")
	}
	if r.VendorID == "" {
		return apperrors.ValidationField("vendor_id", "vendor_id is required")
	}
	if r.CustomerID == r.VendorID {
		return apperrors.ValidationField("vendor_id", "customer and vendor must be different parties")
	}
	if r.ServiceID == "" {
		return apperrors.ValidationField("service_id", "service_id is required")
	}
	for field, raw := range map[string]json.RawMessage{
		"details":      r.Details,
		"pricing":      r.Pricing,
		"scheduling":   r.Scheduling,
		"deliverables": r.Deliverables,
	} {
		if len(raw) > 0 && !json.Valid(raw) {
			return apperrors.ValidationField(field, field+" must be valid JSON")
		}
	}
	return nil
}

// ValidateMessageText trims text and enforces the thread message bounds.
func ValidateMessageText(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", apperrors.ValidationField("message", "message text is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageRunes {
		return "", apperrors.ValidationField("message", fmt.Sprintf("message exceeds %d characters", MaxMessageRunes))
	}
	return trimmed, nil
}

// JobListOptions controls filtering and paging for listing jobs.
// Notes:
// - ParticipantID with Role restricts to jobs where that party is the customer or vendor.
// - ParticipantID without Role matches either side.
// - Statuses matches any of the listed statuses; empty means all.
type JobListOptions struct {
	ParticipantID string
	Role          Role
	Statuses      []JobStatus
	Limit         int
	Offset        int
}

// JobPatch carries replacement values for the side-payload columns. Nil fields are left unchanged.
type JobPatch struct {
	Pricing               json.RawMessage
	Scheduling            json.RawMessage
	Deliverables          json.RawMessage
	CompletedDeliverables json.RawMessage
}

// IsZero reports whether the patch changes nothing.
func (p JobPatch) IsZero() bool {
	return p.Pricing == nil && p.Scheduling == nil && p.Deliverables == nil && p.CompletedDeliverables == nil
}

// ApplyTo writes the non-nil patch fields onto j.
func (p JobPatch) ApplyTo(j *Job) {
	if p.Pricing != nil {
		j.Pricing = cloneRaw(p.Pricing)
	}
	if p.Scheduling != nil {
		j.Scheduling = cloneRaw(p.Scheduling)
	}
	if p.Deliverables != nil {
		j.Deliverables = cloneRaw(p.Deliverables)
	}
	if p.CompletedDeliverables != nil {
		j.CompletedDeliverables = cloneRaw(p.CompletedDeliverables)
	}
}
