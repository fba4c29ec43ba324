package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/workflow"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// PostMessageRequest appends a participant's message to a job thread.
type PostMessageRequest struct {
	JobID    string
	SenderID string
	Text     string
}

// PostMessage appends a regular message. The write is conditioned on the thread
// length that was read, so a concurrent append yields a Conflict error.
func (s *JobService) PostMessage(ctx context.Context, req PostMessageRequest) (*model.Job, error) {
	job, err := s.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if err := (workflow.Actor{ID: req.SenderID}).RequireParticipant(job); err != nil {
		return nil, err
	}
	text, err := model.ValidateMessageText(req.Text)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.AppendMessage(ctx, core.AppendMessageParams{
		JobID:         job.ID,
		ExpectedCount: len(job.Messages),
		Message: model.Message{
			SenderID:  req.SenderID,
			Message:   text,
			Kind:      model.MessageKindRegular,
			Timestamp: s.now().UTC(),
		},
	})
	if err != nil {
		return nil, apperrors.Infrastructure(err, "append message")
	}

	s.events.publish(ctx, core.EventMessagePosted, updated, req.SenderID)
	return updated, nil
}

// AttachFileRequest carries an upload from a participant.
type AttachFileRequest struct {
	JobID   string
	ActorID string
	Name    string
	Type    string
	Size    int64
	Body    io.Reader
}

// AttachFile uploads the bytes to the blob store and appends the file's metadata to
// the job. The metadata append is conditioned on the attachment count that was read.
func (s *JobService) AttachFile(ctx context.Context, req AttachFileRequest) (*model.Job, error) {
	job, err := s.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if err := (workflow.Actor{ID: req.ActorID}).RequireParticipant(job); err != nil {
		return nil, err
	}
	name := cleanFileName(req.Name)
	if name == "" {
		return nil, apperrors.ValidationField("name", "file name is required")
	}
	if req.Size <= 0 || req.Body == nil {
		return nil, apperrors.ValidationField("file", "file content is required")
	}
	if req.Size > s.maxUpload {
		return nil, apperrors.ValidationField("size", fmt.Sprintf("file exceeds the %d byte upload limit", s.maxUpload))
	}
	if s.blobs == nil {
		return nil, apperrors.Internal("blob store is not configured")
	}

	key := fmt.Sprintf("jobs/%s/%s-%s", job.ID, uuid.NewString(), name)
	url, err := s.blobs.Put(ctx, core.PutBlobParams{
		Key:         key,
		Body:        io.LimitReader(req.Body, req.Size),
		Size:        req.Size,
		ContentType: req.Type,
	})
	if err != nil {
		return nil, apperrors.Infrastructure(err, "upload attachment")
	}

	updated, err := s.appendAttachment(ctx, job, model.Attachment{
		Name:       name,
		Size:       req.Size,
		Type:       req.Type,
		URL:        url,
		UploadedBy: req.ActorID,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "uploaded blob left unreferenced", "job_id", job.ID, "key", key, "error", err)
		return nil, err
	}
	return updated, nil
}

// RecordAttachmentRequest records a file already uploaded elsewhere.
type RecordAttachmentRequest struct {
	JobID      string
	ActorID    string
	Attachment model.Attachment
}

// RecordAttachment appends metadata for a file the client uploaded directly. When
// storage domains are configured the URL host must belong to one of them.
func (s *JobService) RecordAttachment(ctx context.Context, req RecordAttachmentRequest) (*model.Job, error) {
	job, err := s.Get(ctx, req.JobID)
	if err != nil {
		return nil, err
	}
	if err := (workflow.Actor{ID: req.ActorID}).RequireParticipant(job); err != nil {
		return nil, err
	}
	att := req.Attachment
	att.Name = cleanFileName(att.Name)
	if att.Name == "" {
		return nil, apperrors.ValidationField("name", "file name is required")
	}
	if att.Size < 0 {
		return nil, apperrors.ValidationField("size", "size must not be negative")
	}
	if err := s.domains.check(att.URL); err != nil {
		return nil, err
	}
	att.UploadedBy = req.ActorID
	return s.appendAttachment(ctx, job, att)
}

func (s *JobService) appendAttachment(ctx context.Context, job *model.Job, att model.Attachment) (*model.Job, error) {
	att.UploadedAt = s.now().UTC()
	updated, err := s.repo.AppendAttachment(ctx, core.AppendAttachmentParams{
		JobID:         job.ID,
		ExpectedCount: len(job.Attachments),
		Attachment:    att,
	})
	if err != nil {
		return nil, apperrors.Infrastructure(err, "append attachment")
	}
	s.events.publish(ctx, core.EventAttachmentAdded, updated, att.UploadedBy)
	return updated, nil
}

// cleanFileName keeps only the final path element of a client supplied name.
func cleanFileName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	if name == "" {
		return ""
	}
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return base
}
