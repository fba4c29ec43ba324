package service

import (
	"context"
	"slices"
	"strings"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	// filterScanLimit bounds how many stored jobs a filtered listing examines.
	filterScanLimit = 2000
)

// ListJobsRequest selects jobs for a listing.
// Notes:
// - Statuses and Groups combine: a job matches if its status is listed or belongs to a listed group.
// - Filter is a JMESPath expression evaluated against each job's JSON; truthy results match.
type ListJobsRequest struct {
	ParticipantID string
	Role          model.Role
	Statuses      []model.JobStatus
	Groups        []workflow.Group
	Filter        string
	Limit         int
	Offset        int
}

// List returns jobs matching req, newest first.
func (s *JobService) List(ctx context.Context, req ListJobsRequest) ([]*model.Job, error) {
	opts, err := listOptions(req)
	if err != nil {
		return nil, err
	}
	expr := strings.TrimSpace(req.Filter)
	if expr == "" {
		jobs, err := s.repo.List(ctx, opts)
		if err != nil {
			return nil, apperrors.Infrastructure(err, "list jobs")
		}
		return jobs, nil
	}
	if err := s.filters.Validate(expr); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, "invalid filter expression")
	}
	return s.listFiltered(ctx, opts, expr)
}

func listOptions(req ListJobsRequest) (*model.JobListOptions, error) {
	if req.Role != "" && !req.Role.Valid() {
		return nil, apperrors.ValidationField("role", "role must be customer or vendor")
	}
	if req.Role != "" && strings.TrimSpace(req.ParticipantID) == "" {
		return nil, apperrors.ValidationField("participant_id", "participant_id is required when role is set")
	}
	if req.Limit < 0 || req.Offset < 0 {
		return nil, apperrors.Validation("limit and offset must not be negative")
	}

	var statuses []model.JobStatus
	for _, st := range req.Statuses {
		if !st.Valid() {
			return nil, apperrors.ValidationField("status", "unknown status "+string(st))
		}
		if !slices.Contains(statuses, st) {
			statuses = append(statuses, st)
		}
	}
	for _, g := range req.Groups {
		members := workflow.StatusesIn(g)
		if len(members) == 0 {
			return nil, apperrors.ValidationField("group", "unknown status group "+string(g))
		}
		for _, st := range members {
			if !slices.Contains(statuses, st) {
				statuses = append(statuses, st)
			}
		}
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	return &model.JobListOptions{
		ParticipantID: strings.TrimSpace(req.ParticipantID),
		Role:          req.Role,
		Statuses:      statuses,
		Limit:         min(limit, maxListLimit),
		Offset:        req.Offset,
	}, nil
}

// listFiltered pages through the store applying expr, then applies offset and limit
// to the matching jobs.
func (s *JobService) listFiltered(ctx context.Context, opts *model.JobListOptions, expr string) ([]*model.Job, error) {
	want := opts.Offset + opts.Limit
	page := *opts
	page.Limit = maxListLimit
	page.Offset = 0

	var matched []*model.Job
	for scanned := 0; scanned < filterScanLimit && len(matched) < want; {
		batch, err := s.repo.List(ctx, &page)
		if err != nil {
			return nil, apperrors.Infrastructure(err, "list jobs")
		}
		for _, job := range batch {
			ok, err := s.matchFilter(expr, job)
			if err != nil {
				return nil, err
			}
			if ok {
				matched = append(matched, job)
			}
		}
		scanned += len(batch)
		if len(batch) < page.Limit {
			break
		}
		page.Offset += len(batch)
	}

	if opts.Offset >= len(matched) {
		return []*model.Job{}, nil
	}
	matched = matched[opts.Offset:]
	if len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *JobService) matchFilter(expr string, job *model.Job) (bool, error) {
	doc, err := jobDocument(job)
	if err != nil {
		return false, apperrors.Infrastructure(err, "filter jobs")
	}
	res, err := s.filters.Evaluate(expr, doc)
	if err != nil {
		return false, apperrors.Wrap(err, apperrors.ErrCodeValidation, "filter evaluation failed")
	}
	return truthy(res), nil
}
