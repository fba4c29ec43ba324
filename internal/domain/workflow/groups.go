package workflow

import (
	"fmt"
	"strings"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
)

// Group is the simplified four-state view of the lifecycle.
type Group string

const (
	GroupPending   Group = "pending"
	GroupAccepted  Group = "accepted"
	GroupCompleted Group = "completed"
	GroupCancelled Group = "cancelled"
)

var groupMembers = map[Group][]model.JobStatus{
	GroupPending:   {model.JobStatusPending, model.JobStatusReviewing, model.JobStatusQuoted},
	GroupAccepted:  {model.JobStatusAccepted, model.JobStatusConfirmed, model.JobStatusInProgress, model.JobStatusDelivered, model.JobStatusDisputed},
	GroupCompleted: {model.JobStatusCompleted, model.JobStatusClosed},
	GroupCancelled: {model.JobStatusCancelled},
}

var statusGroup = func() map[model.JobStatus]Group {
	m := make(map[model.JobStatus]Group)
	for g, members := range groupMembers {
		for _, s := range members {
			m[s] = g
		}
	}
	return m
}()

// ParseGroup normalizes a group name.
func ParseGroup(value string) (Group, error) {
	g := Group(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := groupMembers[g]; !ok {
		return "", fmt.Errorf("invalid status group: %q", value)
	}
	return g, nil
}

// GroupOf maps a canonical status onto its group.
func GroupOf(status model.JobStatus) Group {
	return statusGroup[status]
}

// StatusesIn returns the canonical statuses belonging to g.
func StatusesIn(g Group) []model.JobStatus {
	return append([]model.JobStatus(nil), groupMembers[g]...)
}
