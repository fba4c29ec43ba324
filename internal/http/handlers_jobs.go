// Package httpx provides the JSON REST surface of the booking service.
package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/service"
)

// multipartMemory is how much of a multipart upload is buffered in memory.
const multipartMemory = 8 << 20

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc            *service.JobService
	MaxUploadBytes int64
	errs           errorWriter
}

// NewJobHandlers creates JobHandlers.
func NewJobHandlers(svc *service.JobService, maxUpload int64, logger *slog.Logger) *JobHandlers {
	if maxUpload <= 0 {
		maxUpload = service.DefaultMaxUploadBytes
	}
	return &JobHandlers{Svc: svc, MaxUploadBytes: maxUpload, errs: errorWriter{logger: orDiscard(logger)}}
}

// CreateJob opens a booking on behalf of the authenticated customer.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	subject := SubjectFromContext(r.Context())
	if req.CustomerID != "" && req.CustomerID != subject {
		h.errs.write(w, r, apperrors.Forbidden("jobs can only be created for the authenticated customer"))
		return
	}
	req.CustomerID = subject

	job, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// ListJobs lists the caller's jobs.
func (h *JobHandlers) ListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.ListJobsRequest{
		ParticipantID: SubjectFromContext(r.Context()),
		Filter:        q.Get("filter"),
		Limit:         parseIntQuery(r, "limit", 0),
		Offset:        parseIntQuery(r, "offset", 0),
	}
	if role := q.Get("role"); role != "" {
		req.Role, _ = model.ParseRole(role)
		if !req.Role.Valid() {
			h.errs.write(w, r, apperrors.ValidationField("role", "role must be customer or vendor"))
			return
		}
	}
	for _, s := range queryList(r, "status") {
		req.Statuses = append(req.Statuses, model.JobStatus(s))
	}
	for _, g := range queryList(r, "group") {
		group, err := workflow.ParseGroup(g)
		if err != nil {
			h.errs.write(w, r, apperrors.ValidationField("group", err.Error()))
			return
		}
		req.Groups = append(req.Groups, group)
	}

	jobs, err := h.Svc.List(r.Context(), req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// jobView is a job as returned to one of its participants.
type jobView struct {
	*model.Job
	Summary    workflow.Summary `json:"summary"`
	ViewerRole model.Role       `json:"viewer_role"`
}

// GetJob returns one job to a participant along with its progress summary.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	subject := SubjectFromContext(r.Context())
	job, err := h.Svc.GetForParticipant(r.Context(), r.PathValue("id"), subject)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	role, _ := workflow.Actor{ID: subject}.RoleIn(job)
	WriteJSON(w, http.StatusOK, jobView{Job: job, Summary: h.Svc.Summarize(job), ViewerRole: role})
}

type changeStatusBody struct {
	Status model.JobStatus `json:"status"`
	Role   string          `json:"role,omitempty"`
	Reason string          `json:"reason,omitempty"`
	Extra  json.RawMessage `json:"extra,omitempty"`
}

// ChangeStatus moves a job along one edge of the transition graph.
func (h *JobHandlers) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var body changeStatusBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	job, err := h.Svc.ChangeStatus(r.Context(), service.ChangeStatusRequest{
		JobID:  r.PathValue("id"),
		Target: body.Status,
		Actor:  actorFor(r, body.Role),
		Reason: body.Reason,
		Extra:  body.Extra,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// AvailableTransitions lists the moves the caller may make in the requested role.
func (h *JobHandlers) AvailableTransitions(w http.ResponseWriter, r *http.Request) {
	moves, err := h.Svc.AvailableTransitions(r.Context(), r.PathValue("id"), actorFor(r, ""))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"transitions": moves})
}

type postMessageBody struct {
	Message string `json:"message"`
}

// PostMessage appends to the job's thread.
func (h *JobHandlers) PostMessage(w http.ResponseWriter, r *http.Request) {
	var body postMessageBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	job, err := h.Svc.PostMessage(r.Context(), service.PostMessageRequest{
		JobID:    r.PathValue("id"),
		SenderID: SubjectFromContext(r.Context()),
		Text:     body.Message,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// Attachments dispatches on the request body: JSON bodies record already uploaded
// files, anything else is treated as a multipart upload.
func (h *JobHandlers) Attachments(w http.ResponseWriter, r *http.Request) {
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mt == "application/json" {
		h.RecordAttachment(w, r)
		return
	}
	h.AttachFile(w, r)
}

// AttachFile accepts a multipart upload in the "file" field.
func (h *JobHandlers) AttachFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errs.write(w, r, apperrors.ValidationField("size", "file exceeds the upload limit"))
			return
		}
		h.errs.write(w, r, apperrors.ValidationField("file", "multipart form with a file field is required"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errs.write(w, r, apperrors.ValidationField("file", "file field is required"))
		return
	}
	defer file.Close()

	job, err := h.Svc.AttachFile(r.Context(), service.AttachFileRequest{
		JobID:   r.PathValue("id"),
		ActorID: SubjectFromContext(r.Context()),
		Name:    header.Filename,
		Type:    header.Header.Get("Content-Type"),
		Size:    header.Size,
		Body:    file,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// RecordAttachment appends metadata for a file uploaded directly to storage.
func (h *JobHandlers) RecordAttachment(w http.ResponseWriter, r *http.Request) {
	var att model.Attachment
	if !DecodeJSON(w, r, &att) {
		return
	}
	job, err := h.Svc.RecordAttachment(r.Context(), service.RecordAttachmentRequest{
		JobID:      r.PathValue("id"),
		ActorID:    SubjectFromContext(r.Context()),
		Attachment: att,
	})
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// Timeline returns the job's merged activity timeline.
func (h *JobHandlers) Timeline(w http.ResponseWriter, r *http.Request) {
	events, err := h.Svc.GetTimelineFor(r.Context(), r.PathValue("id"), SubjectFromContext(r.Context()))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"events": events})
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return logger
}
