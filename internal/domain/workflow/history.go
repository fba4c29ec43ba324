package workflow

import (
	"time"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
)

// FirstEntry returns the earliest history entry bearing status.
func FirstEntry(job *model.Job, status model.JobStatus) (model.StatusEntry, bool) {
	if job == nil {
		return model.StatusEntry{}, false
	}
	for _, e := range job.StatusHistory {
		if e.Status == status {
			return e, true
		}
	}
	return model.StatusEntry{}, false
}

// ElapsedSince returns whole days between now and the first time the job reached status.
// ok is false if the job never held status.
func ElapsedSince(job *model.Job, status model.JobStatus, now time.Time) (days int, ok bool) {
	e, ok := FirstEntry(job, status)
	if !ok {
		return 0, false
	}
	d := now.Sub(e.Timestamp)
	if d < 0 {
		return 0, true
	}
	return int(d / (24 * time.Hour)), true
}

// ProgressPercent maps the job's current status onto 0..100.
func ProgressPercent(job *model.Job) int {
	if job == nil {
		return 0
	}
	return StatusProgress(job.Status)
}

// StatusProgress maps a status onto 0..100.
func StatusProgress(status model.JobStatus) int {
	return Present(status).Progress
}

// Summary is the progress view of a job: where it sits in the lifecycle and how long
// it has been open.
type Summary struct {
	Label       string `json:"label"`
	Color       string `json:"color"`
	Group       Group  `json:"group"`
	Progress    int    `json:"progress"`
	ElapsedDays int    `json:"elapsed_days"`
	Terminal    bool   `json:"terminal"`
}

// Summarize derives the progress view of job at now. Elapsed days count from the first
// entry status.
func Summarize(job *model.Job, now time.Time) Summary {
	if job == nil {
		return Summary{}
	}
	days, _ := ElapsedSince(job, EntryStatus, now)
	return Summary{
		Label:       StatusLabel(job.Status),
		Color:       StatusColor(job.Status),
		Group:       GroupOf(job.Status),
		Progress:    ProgressPercent(job),
		ElapsedDays: days,
		Terminal:    IsTerminal(job.Status),
	}
}
