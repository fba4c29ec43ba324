package workflow

import "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"

// StatusPresentation is display metadata for a status.
type StatusPresentation struct {
	Label    string `json:"label"`
	Color    string `json:"color"`
	Progress int    `json:"progress"`
}

var presentation = map[model.JobStatus]StatusPresentation{
	model.JobStatusPending:    {Label: "Pending", Color: "amber", Progress: 5},
	model.JobStatusReviewing:  {Label: "Under Review", Color: "amber", Progress: 15},
	model.JobStatusQuoted:     {Label: "Quoted", Color: "indigo", Progress: 25},
	model.JobStatusAccepted:   {Label: "Accepted", Color: "blue", Progress: 40},
	model.JobStatusConfirmed:  {Label: "Confirmed", Color: "blue", Progress: 50},
	model.JobStatusInProgress: {Label: "In Progress", Color: "purple", Progress: 65},
	model.JobStatusDisputed:   {Label: "Disputed", Color: "red", Progress: 65},
	model.JobStatusDelivered:  {Label: "Delivered", Color: "teal", Progress: 85},
	model.JobStatusCompleted:  {Label: "Completed", Color: "green", Progress: 100},
	model.JobStatusClosed:     {Label: "Closed", Color: "gray", Progress: 100},
	model.JobStatusCancelled:  {Label: "Cancelled", Color: "gray", Progress: 0},
}

// Present returns display metadata for status. Unknown statuses render as their raw value.
func Present(status model.JobStatus) StatusPresentation {
	if p, ok := presentation[status]; ok {
		return p
	}
	return StatusPresentation{Label: string(status), Color: "gray"}
}

// StatusLabel returns the human label for status.
func StatusLabel(status model.JobStatus) string {
	return Present(status).Label
}

// StatusColor returns the display color for status.
func StatusColor(status model.JobStatus) string {
	return Present(status).Color
}
