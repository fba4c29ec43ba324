// Package timeline derives a job's activity feed from the job document alone.
package timeline

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
)

// Kind is the source of a timeline event.
type Kind string

const (
	KindStatusChange Kind = "status_change"
	KindMessage      Kind = "message"
	KindFileUpload   Kind = "file_upload"
)

type style struct {
	icon  string
	color string
}

var styles = map[Kind]style{
	KindStatusChange: {icon: "flag", color: "blue"},
	KindMessage:      {icon: "chat", color: "gray"},
	KindFileUpload:   {icon: "paperclip", color: "teal"},
}

// Event is one entry of the merged timeline.
type Event struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	Timestamp   time.Time         `json:"timestamp"`
	ActorID     string            `json:"actor_id"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
	Icon        string            `json:"icon"`
	Color       string            `json:"color"`
	Status      model.JobStatus   `json:"status,omitempty"`
	MessageKind model.MessageKind `json:"message_kind,omitempty"`
	Attachment  *model.Attachment `json:"attachment,omitempty"`
}

// Build returns the job's events newest first. Events sharing a timestamp keep
// source order: history, then messages, then attachments, each in array order.
func Build(job *model.Job) []Event {
	if job == nil {
		return []Event{}
	}
	events := make([]Event, 0, Count(job))

	for i, e := range job.StatusHistory {
		ev := newEvent(KindStatusChange, i, e.Timestamp, e.ActorID)
		ev.Status = e.Status
		ev.Title = workflow.StatusLabel(e.Status)
		ev.Description = e.Reason
		events = append(events, ev)
	}
	for i, m := range job.Messages {
		ev := newEvent(KindMessage, i, m.Timestamp, m.SenderID)
		ev.MessageKind = m.Kind
		ev.Title = messageTitle(m.Kind)
		ev.Description = m.Message
		events = append(events, ev)
	}
	for i := range job.Attachments {
		a := job.Attachments[i]
		ev := newEvent(KindFileUpload, i, a.UploadedAt, a.UploadedBy)
		ev.Title = a.Name
		ev.Description = fmt.Sprintf("%s (%d bytes)", a.Type, a.Size)
		ev.Attachment = &a
		events = append(events, ev)
	}

	slices.SortStableFunc(events, func(a, b Event) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return events
}

// Count is the number of events Build produces for job.
func Count(job *model.Job) int {
	if job == nil {
		return 0
	}
	return len(job.StatusHistory) + len(job.Messages) + len(job.Attachments)
}

func newEvent(kind Kind, index int, ts time.Time, actor string) Event {
	s := styles[kind]
	return Event{
		ID:        string(kind) + "-" + strconv.Itoa(index),
		Kind:      kind,
		Timestamp: ts,
		ActorID:   actor,
		Icon:      s.icon,
		Color:     s.color,
	}
}

func messageTitle(kind model.MessageKind) string {
	switch kind {
	case model.MessageKindStatusUpdate:
		return "Status update"
	case model.MessageKindSystem:
		return "System"
	default:
		return "Message"
	}
}
