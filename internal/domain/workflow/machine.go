package workflow

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// TransitionRequest asks the state machine to move a job to Target.
type TransitionRequest struct {
	Target model.JobStatus
	Actor  Actor
	Reason string
	Extra  json.RawMessage
}

// Plan is a validated transition ready to be stored atomically.
// Expected is the status the store must still hold for the write to land.
type Plan struct {
	JobID    string
	Expected model.JobStatus
	Edge     Edge
	Entry    model.StatusEntry
	Message  model.Message
	Patch    model.JobPatch
}

// StateMachine validates transitions against the graph. It performs no I/O.
type StateMachine struct {
	now func() time.Time
}

// NewStateMachine creates a StateMachine. A nil clock uses time.Now.
func NewStateMachine(now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{now: now}
}

// Plan checks req against job and returns the writes that carry it out.
// Checks run in order: edge exists for the actor's role, reason present when required,
// actor holds that role on the job, side-payload fields well formed.
func (m *StateMachine) Plan(job *model.Job, req TransitionRequest) (*Plan, error) {
	if job == nil {
		return nil, apperrors.NotFound("job not found")
	}
	if err := req.Actor.Validate(); err != nil {
		return nil, err
	}
	if !req.Target.Valid() {
		return nil, apperrors.ValidationField("status", fmt.Sprintf("unknown status %q", req.Target))
	}

	edge, ok := Lookup(job.Status, req.Target, req.Actor.Role)
	if !ok {
		return nil, apperrors.InvalidTransitionf("%s cannot move job from %s to %s", req.Actor.Role, job.Status, req.Target)
	}

	reason := strings.TrimSpace(req.Reason)
	if edge.RequiresReason && reason == "" {
		return nil, apperrors.ValidationField("reason", "reason required")
	}

	if !req.Actor.Holds(job, edge.Role) {
		return nil, apperrors.Forbiddenf("actor is not the %s of this job", edge.Role)
	}

	now := m.now().UTC()
	patch, err := sidePayload(job, req.Target, req.Extra, now)
	if err != nil {
		return nil, err
	}

	return &Plan{
		JobID:    job.ID,
		Expected: job.Status,
		Edge:     edge,
		Entry: model.StatusEntry{
			Status:    req.Target,
			Timestamp: now,
			ActorID:   req.Actor.ID,
			Reason:    reason,
		},
		Message: model.Message{
			SenderID:  req.Actor.ID,
			Message:   StatusChangeMessage(job.Status, req.Target, reason),
			Kind:      model.MessageKindStatusUpdate,
			Timestamp: now,
		},
		Patch: patch,
	}, nil
}

// Apply returns a copy of job with the plan's writes applied. Stores that hold
// whole documents use it after checking the precondition.
func (p *Plan) Apply(job *model.Job) *model.Job {
	out := job.Clone()
	out.Status = p.Entry.Status
	out.StatusHistory = append(out.StatusHistory, p.Entry)
	out.Messages = append(out.Messages, p.Message)
	p.Patch.ApplyTo(out)
	out.UpdatedAt = p.Entry.Timestamp
	return out
}

// StatusChangeMessage renders the thread entry recorded for a status change.
func StatusChangeMessage(from, to model.JobStatus, reason string) string {
	msg := fmt.Sprintf("Status changed from %s to %s", StatusLabel(from), StatusLabel(to))
	if reason != "" {
		msg += ": " + reason
	}
	return msg
}
