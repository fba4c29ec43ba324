// Package workflow holds the booking lifecycle rules: the transition graph, state groups,
// the actor abstraction, transition planning, and read-only history accessors.
//
// The graph in this file is the only place edges are defined. Authorization and the
// affordances advertised to callers both read from it.
package workflow

import "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"

const (
	// EntryStatus is the status every job is created in.
	EntryStatus = model.JobStatusPending
	// SuccessTerminal is the only status from which a review may be submitted.
	SuccessTerminal = model.JobStatusCompleted
)

// Edge is a single allowed move for one role.
type Edge struct {
	From           model.JobStatus
	To             model.JobStatus
	Role           model.Role
	RequiresReason bool
	Label          string
	Description    string
}

// Transition is an edge as advertised to a caller.
type Transition struct {
	Target         model.JobStatus `json:"target"`
	Label          string          `json:"label"`
	Description    string          `json:"description"`
	RequiresReason bool            `json:"requires_reason"`
}

func vendor(from, to model.JobStatus, label, desc string) []Edge {
	return []Edge{{From: from, To: to, Role: model.RoleVendor, Label: label, Description: desc}}
}

func customer(from, to model.JobStatus, label, desc string) []Edge {
	return []Edge{{From: from, To: to, Role: model.RoleCustomer, Label: label, Description: desc}}
}

// withReason marks every edge in es as requiring a reason.
func withReason(es []Edge) []Edge {
	for i := range es {
		es[i].RequiresReason = true
	}
	return es
}

// either yields one edge per role with identical presentation.
func either(from, to model.JobStatus, label, desc string) []Edge {
	return append(vendor(from, to, label, desc), customer(from, to, label, desc)...)
}

func concat(groups ...[]Edge) []Edge {
	var out []Edge
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

const (
	pending    = model.JobStatusPending
	reviewing  = model.JobStatusReviewing
	quoted     = model.JobStatusQuoted
	accepted   = model.JobStatusAccepted
	confirmed  = model.JobStatusConfirmed
	inProgress = model.JobStatusInProgress
	delivered  = model.JobStatusDelivered
	completed  = model.JobStatusCompleted
	disputed   = model.JobStatusDisputed
	closed     = model.JobStatusClosed
	cancelled  = model.JobStatusCancelled
)

var edges = concat(
	vendor(pending, reviewing, "Start Review", "Review the request before deciding"),
	vendor(pending, quoted, "Send Quote", "Propose a price for this booking"),
	vendor(pending, accepted, "Accept Booking", "Accept the request as submitted"),
	withReason(vendor(pending, cancelled, "Decline Booking", "Decline this booking request")),
	withReason(customer(pending, cancelled, "Cancel Request", "Withdraw this booking request")),

	vendor(reviewing, quoted, "Send Quote", "Propose a price for this booking"),
	vendor(reviewing, accepted, "Accept Booking", "Accept the request as submitted"),
	withReason(either(reviewing, cancelled, "Cancel", "Cancel this booking")),

	customer(quoted, accepted, "Accept Quote", "Accept the vendor's quote"),
	withReason(customer(quoted, pending, "Request Changes", "Ask the vendor to revise the quote")),
	withReason(either(quoted, cancelled, "Cancel", "Cancel this booking")),

	vendor(accepted, confirmed, "Confirm Schedule", "Confirm the date for the work"),
	vendor(accepted, inProgress, "Start Work", "Begin working on this booking"),
	vendor(accepted, completed, "Mark Completed", "Mark the work as finished"),
	withReason(either(accepted, cancelled, "Cancel", "Cancel this booking")),

	vendor(confirmed, inProgress, "Start Work", "Begin working on this booking"),
	withReason(either(confirmed, cancelled, "Cancel", "Cancel this booking")),

	vendor(inProgress, delivered, "Deliver Work", "Submit deliverables for approval"),
	vendor(inProgress, completed, "Mark Completed", "Mark the work as finished"),
	withReason(customer(inProgress, disputed, "Raise Dispute", "Report a problem with the work")),

	customer(delivered, completed, "Approve Delivery", "Accept the delivered work"),
	withReason(customer(delivered, disputed, "Raise Dispute", "Report a problem with the delivery")),

	vendor(disputed, inProgress, "Resume Work", "Address the dispute and resume work"),
	withReason(either(disputed, closed, "Close Dispute", "Settle the dispute and close the booking")),
)

// byFrom indexes edges by source status, preserving table order.
var byFrom = func() map[model.JobStatus][]Edge {
	m := make(map[model.JobStatus][]Edge, len(model.AllStatuses))
	for _, e := range edges {
		m[e.From] = append(m[e.From], e)
	}
	return m
}()

// Edges returns a copy of the full transition table.
func Edges() []Edge {
	return append([]Edge(nil), edges...)
}

// Lookup finds the edge from -> to usable by role.
func Lookup(from, to model.JobStatus, role model.Role) (Edge, bool) {
	for _, e := range byFrom[from] {
		if e.To == to && e.Role == role {
			return e, true
		}
	}
	return Edge{}, false
}

// IsTerminal reports whether status has no outgoing edges.
func IsTerminal(status model.JobStatus) bool {
	return len(byFrom[status]) == 0
}

// AvailableTransitions lists the moves role may make from the job's current status.
func AvailableTransitions(job *model.Job, role model.Role) []Transition {
	if job == nil {
		return nil
	}
	return TransitionsFrom(job.Status, role)
}

// TransitionsFrom lists the moves role may make from status.
func TransitionsFrom(status model.JobStatus, role model.Role) []Transition {
	out := []Transition{}
	for _, e := range byFrom[status] {
		if e.Role != role {
			continue
		}
		out = append(out, Transition{
			Target:         e.To,
			Label:          e.Label,
			Description:    e.Description,
			RequiresReason: e.RequiresReason,
		})
	}
	return out
}
