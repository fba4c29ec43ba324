package service

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data/memstore"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/mocks"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/testutil"
)

func TestJobService_PostMessage(t *testing.T) {
	svc, _ := newMemJobService(t)
	ctx := context.Background()
	job := createJob(t, svc)

	updated, err := svc.PostMessage(ctx, PostMessageRequest{
		JobID:    job.ID,
		SenderID: testutil.DefaultVendorID,
		Text:     "  Happy to help, see you Tuesday  ",
	})
	require.NoError(t, err)
	require.Len(t, updated.Messages, 2)
	msg := updated.Messages[1]
	assert.Equal(t, "Happy to help, see you Tuesday", msg.Message)
	assert.Equal(t, model.MessageKindRegular, msg.Kind)
	assert.Equal(t, testutil.DefaultVendorID, msg.SenderID)
	assert.Equal(t, testutil.TestTime(), msg.Timestamp)
}

// Scenario D: a non-participant cannot post and the thread is untouched.
func TestJobService_PostMessage_NonParticipant(t *testing.T) {
	svc, store := newMemJobService(t)
	ctx := context.Background()
	job := createJob(t, svc)

	_, err := svc.PostMessage(ctx, PostMessageRequest{JobID: job.ID, SenderID: "stranger", Text: "hello"})
	assert.True(t, apperrors.IsForbidden(err))

	stored, err := store.Jobs().GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 1)
}

func TestJobService_PostMessage_Validation(t *testing.T) {
	svc, _ := newMemJobService(t)
	ctx := context.Background()
	job := createJob(t, svc)

	for name, text := range map[string]string{
		"blank":    " \n\t ",
		"too long": strings.Repeat("x", model.MaxMessageRunes+1),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.PostMessage(ctx, PostMessageRequest{JobID: job.ID, SenderID: testutil.DefaultCustomerID, Text: text})
			assert.True(t, apperrors.IsValidation(err))
			assert.Equal(t, "message", apperrors.GetField(err))
		})
	}
}

func TestJobService_PostMessage_StaleCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockJobRepository(ctrl)
	job := testutil.NewJob().Build()

	repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	repo.EXPECT().AppendMessage(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params core.AppendMessageParams) (*model.Job, error) {
			assert.Equal(t, 1, params.ExpectedCount)
			return nil, apperrors.Conflict("job changed concurrently")
		})

	svc, err := NewJobService(JobServiceOptions{Repo: repo})
	require.NoError(t, err)

	_, err = svc.PostMessage(context.Background(), PostMessageRequest{JobID: job.ID, SenderID: job.CustomerID, Text: "hi"})
	assert.True(t, apperrors.IsConflict(err))
}

func TestJobService_AttachFile(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := mocks.NewMockBlobStore(ctrl)
	store := memstore.New(memstore.Options{})
	svc, err := NewJobService(JobServiceOptions{
		Repo:          store.Jobs(),
		Collaborators: JobCollaborators{Blobs: blobs},
		Config:        JobServiceConfig{MaxUploadBytes: 64, Now: testutil.FixedTimeFunc(testutil.TestTime())},
	})
	require.NoError(t, err)
	ctx := context.Background()
	job := createJob(t, svc)

	blobs.EXPECT().Put(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, params core.PutBlobParams) (string, error) {
			assert.True(t, strings.HasPrefix(params.Key, "jobs/"+job.ID+"/"), params.Key)
			assert.True(t, strings.HasSuffix(params.Key, "-brief.pdf"), params.Key)
			assert.Equal(t, "application/pdf", params.ContentType)
			body, err := io.ReadAll(params.Body)
			require.NoError(t, err)
			assert.Equal(t, "%PDF-1.7", string(body))
			return "https://files.example.com/" + params.Key, nil
		})

	updated, err := svc.AttachFile(ctx, AttachFileRequest{
		JobID:   job.ID,
		ActorID: testutil.DefaultCustomerID,
		Name:    "../../etc/brief.pdf",
		Type:    "application/pdf",
		Size:    8,
		Body:    strings.NewReader("%PDF-1.7 trailing bytes past the declared size"),
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	att := updated.Attachments[0]
	assert.Equal(t, "brief.pdf", att.Name)
	assert.Equal(t, int64(8), att.Size)
	assert.Equal(t, testutil.DefaultCustomerID, att.UploadedBy)
	assert.Equal(t, testutil.TestTime(), att.UploadedAt)
	assert.True(t, strings.HasPrefix(att.URL, "https://files.example.com/jobs/"))
}

func TestJobService_AttachFile_Rejections(t *testing.T) {
	ctrl := gomock.NewController(t)
	blobs := mocks.NewMockBlobStore(ctrl) // no Put expected
	store := memstore.New(memstore.Options{})
	svc, err := NewJobService(JobServiceOptions{
		Repo:          store.Jobs(),
		Collaborators: JobCollaborators{Blobs: blobs},
		Config:        JobServiceConfig{MaxUploadBytes: 16},
	})
	require.NoError(t, err)
	ctx := context.Background()
	job := createJob(t, svc)

	base := AttachFileRequest{JobID: job.ID, ActorID: testutil.DefaultVendorID, Name: "a.txt", Size: 4, Body: strings.NewReader("abcd")}
	tests := []struct {
		name  string
		edit  func(*AttachFileRequest)
		check func(error) bool
	}{
		{"non participant", func(r *AttachFileRequest) { r.ActorID = "stranger" }, apperrors.IsForbidden},
		{"empty name", func(r *AttachFileRequest) { r.Name = " " }, apperrors.IsValidation},
		{"directory name", func(r *AttachFileRequest) { r.Name = "uploads/.." }, apperrors.IsValidation},
		{"too large", func(r *AttachFileRequest) { r.Size = 17 }, apperrors.IsValidation},
		{"no body", func(r *AttachFileRequest) { r.Body = nil }, apperrors.IsValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.edit(&req)
			_, err := svc.AttachFile(ctx, req)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}

	stored, err := store.Jobs().GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Attachments)
}

func TestJobService_AttachFile_NoBlobStore(t *testing.T) {
	svc, _ := newMemJobService(t)
	job := createJob(t, svc)

	_, err := svc.AttachFile(context.Background(), AttachFileRequest{
		JobID: job.ID, ActorID: job.CustomerID, Name: "a.txt", Size: 1, Body: strings.NewReader("a"),
	})
	assert.True(t, apperrors.IsInternal(err))
}

func TestJobService_RecordAttachment(t *testing.T) {
	store := memstore.New(memstore.Options{})
	svc, err := NewJobService(JobServiceOptions{
		Repo:   store.Jobs(),
		Config: JobServiceConfig{AllowedStorageDomains: []string{"files.example.com"}},
	})
	require.NoError(t, err)
	ctx := context.Background()
	job := createJob(t, svc)

	updated, err := svc.RecordAttachment(ctx, RecordAttachmentRequest{
		JobID:   job.ID,
		ActorID: job.VendorID,
		Attachment: model.Attachment{
			Name: "photo.jpg",
			Size: 2048,
			Type: "image/jpeg",
			URL:  "https://cdn.example.com/photo.jpg",
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, job.VendorID, updated.Attachments[0].UploadedBy)

	_, err = svc.RecordAttachment(ctx, RecordAttachmentRequest{
		JobID:      job.ID,
		ActorID:    job.VendorID,
		Attachment: model.Attachment{Name: "x.jpg", URL: "https://evil.test/x.jpg"},
	})
	assert.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "url", apperrors.GetField(err))
}

func TestCleanFileName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"  dir/sub/file.txt ": "file.txt",
		`C:\Users\me\cv.doc`:  "cv.doc",
		"":                    "",
		"..":                  "",
		"/":                   "",
	}
	for in, want := range tests {
		assert.Equal(t, want, cleanFileName(in), "input %q", in)
	}
}
