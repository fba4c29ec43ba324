package workflow

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

var fixedNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

func newMachine() *StateMachine {
	return NewStateMachine(func() time.Time { return fixedNow })
}

func jobAt(status model.JobStatus) *model.Job {
	return &model.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		VendorID:   "vend-1",
		Status:     status,
		StatusHistory: []model.StatusEntry{
			{Status: model.JobStatusPending, Timestamp: fixedNow.Add(-time.Hour), ActorID: "cust-1"},
		},
	}
}

func actorFor(role model.Role) Actor {
	if role == model.RoleCustomer {
		return Actor{ID: "cust-1", Role: role}
	}
	return Actor{ID: "vend-1", Role: role}
}

func TestPlan_AbsentEdgesAreInvalid(t *testing.T) {
	m := newMachine()
	for _, from := range model.AllStatuses {
		for _, to := range model.AllStatuses {
			for _, r := range roles {
				if _, ok := Lookup(from, to, r); ok {
					continue
				}
				job := jobAt(from)
				before := len(job.StatusHistory)
				_, err := m.Plan(job, TransitionRequest{Target: to, Actor: actorFor(r), Reason: "because"})
				assert.True(t, apperrors.IsInvalidTransition(err), "%s -> %s as %s: %v", from, to, r, err)
				assert.Equal(t, from, job.Status)
				assert.Len(t, job.StatusHistory, before)
			}
		}
	}
}

func TestPlan_ReasonRequired(t *testing.T) {
	m := newMachine()
	for _, e := range Edges() {
		if !e.RequiresReason {
			continue
		}
		for _, reason := range []string{"", "   \t"} {
			_, err := m.Plan(jobAt(e.From), TransitionRequest{Target: e.To, Actor: actorFor(e.Role), Reason: reason})
			assert.True(t, apperrors.IsValidation(err), "%s -> %s as %s", e.From, e.To, e.Role)
			assert.Equal(t, "reason", apperrors.GetField(err))
		}
	}
}

func TestPlan_EveryEdgeSucceedsForRightParty(t *testing.T) {
	m := newMachine()
	for _, e := range Edges() {
		job := jobAt(e.From)
		actor := actorFor(e.Role)
		plan, err := m.Plan(job, TransitionRequest{Target: e.To, Actor: actor, Reason: "ok"})
		require.NoError(t, err, "%s -> %s as %s", e.From, e.To, e.Role)

		out := plan.Apply(job)
		require.Len(t, out.StatusHistory, len(job.StatusHistory)+1)
		last := out.StatusHistory[len(out.StatusHistory)-1]
		assert.Equal(t, e.To, last.Status)
		assert.Equal(t, actor.ID, last.ActorID)
		assert.Equal(t, e.To, out.Status)
		assert.Equal(t, e.From, plan.Expected)
		require.Len(t, out.Messages, 1)
		assert.Equal(t, model.MessageKindStatusUpdate, out.Messages[0].Kind)
		assert.Equal(t, e.From, job.Status, "input job must not be mutated")
	}
}

func TestPlan_WrongParty(t *testing.T) {
	m := newMachine()

	tests := []struct {
		name  string
		actor Actor
	}{
		{name: "customer claiming vendor role", actor: Actor{ID: "cust-1", Role: model.RoleVendor}},
		{name: "stranger claiming vendor role", actor: Actor{ID: "someone", Role: model.RoleVendor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Plan(jobAt(model.JobStatusPending), TransitionRequest{Target: model.JobStatusAccepted, Actor: tt.actor})
			assert.True(t, apperrors.IsForbidden(err), "%v", err)
		})
	}
}

func TestPlan_InvalidActorOrTarget(t *testing.T) {
	m := newMachine()

	_, err := m.Plan(jobAt(model.JobStatusPending), TransitionRequest{Target: model.JobStatusAccepted, Actor: Actor{ID: "vend-1"}})
	assert.True(t, apperrors.IsValidation(err))

	_, err = m.Plan(jobAt(model.JobStatusPending), TransitionRequest{Target: "sideways", Actor: actorFor(model.RoleVendor)})
	assert.True(t, apperrors.IsValidation(err))

	_, err = m.Plan(nil, TransitionRequest{Target: model.JobStatusAccepted, Actor: actorFor(model.RoleVendor)})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPlan_SelfTransition(t *testing.T) {
	_, err := newMachine().Plan(jobAt(model.JobStatusAccepted), TransitionRequest{
		Target: model.JobStatusAccepted,
		Actor:  actorFor(model.RoleCustomer),
	})
	assert.True(t, apperrors.IsInvalidTransition(err))
}

func TestPlan_StatusUpdateMessage(t *testing.T) {
	plan, err := newMachine().Plan(jobAt(model.JobStatusPending), TransitionRequest{
		Target: model.JobStatusCancelled,
		Actor:  actorFor(model.RoleCustomer),
		Reason: "  found another vendor ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Status changed from Pending to Cancelled: found another vendor", plan.Message.Message)
	assert.Equal(t, "found another vendor", plan.Entry.Reason)
	assert.Equal(t, fixedNow, plan.Entry.Timestamp)
	assert.Equal(t, "cust-1", plan.Message.SenderID)
}

func TestPlan_SidePayload(t *testing.T) {
	m := newMachine()

	tests := []struct {
		name  string
		from  model.JobStatus
		to    model.JobStatus
		role  model.Role
		extra string
		check func(t *testing.T, out *model.Job)
		field string
		prep  func(j *model.Job)
	}{
		{
			name:  "quote sets pricing and keeps existing keys",
			from:  model.JobStatusPending,
			to:    model.JobStatusQuoted,
			role:  model.RoleVendor,
			extra: `{"quoted_price": 120.5, "currency": "usd", "ignored": true}`,
			prep:  func(j *model.Job) { j.Pricing = json.RawMessage(`{"budget": 100}`) },
			check: func(t *testing.T, out *model.Job) {
				assert.JSONEq(t, `{"budget":100,"quoted_price":120.5,"currency":"USD"}`, string(out.Pricing))
			},
		},
		{
			name:  "negative quote rejected",
			from:  model.JobStatusPending,
			to:    model.JobStatusQuoted,
			role:  model.RoleVendor,
			extra: `{"quoted_price": -1}`,
			field: FieldQuotedPrice,
		},
		{
			name:  "non-numeric quote rejected",
			from:  model.JobStatusReviewing,
			to:    model.JobStatusQuoted,
			role:  model.RoleVendor,
			extra: `{"quoted_price": "cheap"}`,
			field: FieldQuotedPrice,
		},
		{
			name:  "confirm sets scheduled date",
			from:  model.JobStatusAccepted,
			to:    model.JobStatusConfirmed,
			role:  model.RoleVendor,
			extra: `{"scheduled_date": "2026-06-01T09:00:00+02:00"}`,
			check: func(t *testing.T, out *model.Job) {
				assert.JSONEq(t, `{"scheduled_date":"2026-06-01T07:00:00Z"}`, string(out.Scheduling))
			},
		},
		{
			name:  "bad scheduled date rejected",
			from:  model.JobStatusAccepted,
			to:    model.JobStatusConfirmed,
			role:  model.RoleVendor,
			extra: `{"scheduled_date": "next tuesday"}`,
			field: FieldScheduledDate,
		},
		{
			name:  "start work sets estimated completion",
			from:  model.JobStatusConfirmed,
			to:    model.JobStatusInProgress,
			role:  model.RoleVendor,
			extra: `{"estimated_completion": "2026-06-10T17:00:00Z"}`,
			prep:  func(j *model.Job) { j.Scheduling = json.RawMessage(`{"scheduled_date":"2026-06-01T07:00:00Z"}`) },
			check: func(t *testing.T, out *model.Job) {
				assert.JSONEq(t, `{"scheduled_date":"2026-06-01T07:00:00Z","estimated_completion":"2026-06-10T17:00:00Z"}`, string(out.Scheduling))
			},
		},
		{
			name:  "deliver sets deliverables",
			from:  model.JobStatusInProgress,
			to:    model.JobStatusDelivered,
			role:  model.RoleVendor,
			extra: `{"deliverables": ["logo.svg", " ", "brand.pdf"]}`,
			check: func(t *testing.T, out *model.Job) {
				assert.JSONEq(t, `["logo.svg","brand.pdf"]`, string(out.Deliverables))
			},
		},
		{
			name:  "deliverables must be strings",
			from:  model.JobStatusInProgress,
			to:    model.JobStatusDelivered,
			role:  model.RoleVendor,
			extra: `{"deliverables": [1, 2]}`,
			field: FieldDeliverables,
		},
		{
			name:  "complete records hand-off and completion time",
			from:  model.JobStatusInProgress,
			to:    model.JobStatusCompleted,
			role:  model.RoleVendor,
			extra: `{"delivery_notes": "All done", "completed_deliverables": ["site.zip"]}`,
			check: func(t *testing.T, out *model.Job) {
				assert.JSONEq(t, `{"items":["site.zip"],"notes":"All done"}`, string(out.CompletedDeliverables))
				assert.JSONEq(t, `{"completed_at":"2026-05-04T10:30:00Z"}`, string(out.Scheduling))
			},
		},
		{
			name: "complete without extras still stamps completion",
			from: model.JobStatusDelivered,
			to:   model.JobStatusCompleted,
			role: model.RoleCustomer,
			check: func(t *testing.T, out *model.Job) {
				assert.Nil(t, out.CompletedDeliverables)
				assert.JSONEq(t, `{"completed_at":"2026-05-04T10:30:00Z"}`, string(out.Scheduling))
			},
		},
		{
			name:  "fields for other targets ignored",
			from:  model.JobStatusPending,
			to:    model.JobStatusAccepted,
			role:  model.RoleVendor,
			extra: `{"quoted_price": "not even a number"}`,
			check: func(t *testing.T, out *model.Job) {
				assert.Nil(t, out.Pricing)
			},
		},
		{
			name:  "extra must be an object",
			from:  model.JobStatusPending,
			to:    model.JobStatusAccepted,
			role:  model.RoleVendor,
			extra: `[1,2,3]`,
			field: "extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := jobAt(tt.from)
			if tt.prep != nil {
				tt.prep(job)
			}
			plan, err := m.Plan(job, TransitionRequest{Target: tt.to, Actor: actorFor(tt.role), Extra: json.RawMessage(tt.extra)})
			if tt.field != "" {
				require.Error(t, err)
				assert.True(t, apperrors.IsValidation(err))
				assert.Equal(t, tt.field, apperrors.GetField(err))
				return
			}
			require.NoError(t, err)
			tt.check(t, plan.Apply(job))
		})
	}
}
