package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/core"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data/pgxutil"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// errPreconditionFailed marks a conditional UPDATE that matched no row.
var errPreconditionFailed = errors.New("precondition failed")

// Status, side-payload columns, and the message counter change in one statement
// guarded by the status that was read when the move was planned.
const applyTransitionSQL = `
  UPDATE jobs SET
    status = $2,
    pricing = COALESCE($3::jsonb, pricing),
    scheduling = COALESCE($4::jsonb, scheduling),
    deliverables = COALESCE($5::jsonb, deliverables),
    completed_deliverables = COALESCE($6::jsonb, completed_deliverables),
    message_count = message_count + 1,
    updated_at = $7
  WHERE id = $1 AND status = $8
  RETURNING message_count`

// ApplyTransition moves a job to a new status, appending the history entry and the
// status_update message in the same transaction. The write happens only if the stored
// status still equals params.Expected.
func (r *JobRepo) ApplyTransition(ctx context.Context, params core.ApplyTransitionParams) (*model.Job, error) {
	if _, err := uuid.Parse(params.JobID); err != nil {
		return nil, apperrors.NotFoundf("job %q not found", params.JobID)
	}
	now := utcNow(r.timeProvider)

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var msgSeq int
			scanErr := tx.QueryRow(ctx, applyTransitionSQL,
				params.JobID,
				string(params.Entry.Status),
				nullJSON(params.Patch.Pricing),
				nullJSON(params.Patch.Scheduling),
				nullJSON(params.Patch.Deliverables),
				nullJSON(params.Patch.CompletedDeliverables),
				now,
				string(params.Expected),
			).Scan(&msgSeq)
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return explainMiss(ctx, tx, params.JobID, fmt.Sprintf("job is no longer %s", params.Expected))
			}
			if scanErr != nil {
				return fmt.Errorf("update job status: %w", scanErr)
			}

			histSeq, seqErr := nextHistorySeq(ctx, tx, params.JobID)
			if seqErr != nil {
				return seqErr
			}
			if err := insertHistoryEntry(ctx, tx, params.JobID, histSeq, params.Entry); err != nil {
				return err
			}
			if err := insertMessage(ctx, tx, params.JobID, msgSeq, params.Message); err != nil {
				return err
			}

			var loadErr error
			job, loadErr = loadJob(ctx, tx, params.JobID)
			return loadErr
		},
	})
	if err != nil {
		return nil, mapRepoError(err, "apply transition", fmt.Sprintf("job %q not found", params.JobID))
	}

	r.logger.DebugContext(ctx, "job transition applied",
		"job_id", params.JobID,
		"from", params.Expected,
		"to", params.Entry.Status,
	)
	return job, nil
}

// AppendMessage appends to the thread if the stored message count still equals
// params.ExpectedCount.
func (r *JobRepo) AppendMessage(ctx context.Context, params core.AppendMessageParams) (*model.Job, error) {
	return r.appendEntry(ctx, appendSpec{
		jobID:    params.JobID,
		counter:  "message_count",
		expected: params.ExpectedCount,
		op:       "append message",
		insert: func(ctx context.Context, tx pgx.Tx, seq int) error {
			return insertMessage(ctx, tx, params.JobID, seq, params.Message)
		},
	})
}

// AppendAttachment appends file metadata if the stored attachment count still equals
// params.ExpectedCount.
func (r *JobRepo) AppendAttachment(ctx context.Context, params core.AppendAttachmentParams) (*model.Job, error) {
	return r.appendEntry(ctx, appendSpec{
		jobID:    params.JobID,
		counter:  "attachment_count",
		expected: params.ExpectedCount,
		op:       "append attachment",
		insert: func(ctx context.Context, tx pgx.Tx, seq int) error {
			return insertAttachment(ctx, tx, params.JobID, seq, params.Attachment)
		},
	})
}

type appendSpec struct {
	jobID    string
	counter  string // message_count or attachment_count; never user input
	expected int
	op       string
	insert   func(ctx context.Context, tx pgx.Tx, seq int) error
}

func (r *JobRepo) appendEntry(ctx context.Context, spec appendSpec) (*model.Job, error) {
	if _, err := uuid.Parse(spec.jobID); err != nil {
		return nil, apperrors.NotFoundf("job %q not found", spec.jobID)
	}
	now := utcNow(r.timeProvider)
	query := fmt.Sprintf(`
		UPDATE jobs SET %[1]s = %[1]s + 1, updated_at = $3
		WHERE id = $1 AND %[1]s = $2
		RETURNING %[1]s`, spec.counter)

	var job *model.Job
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			var seq int
			scanErr := tx.QueryRow(ctx, query, spec.jobID, spec.expected, now).Scan(&seq)
			if errors.Is(scanErr, pgx.ErrNoRows) {
				return explainMiss(ctx, tx, spec.jobID, "job changed concurrently")
			}
			if scanErr != nil {
				return fmt.Errorf("bump %s: %w", spec.counter, scanErr)
			}
			if err := spec.insert(ctx, tx, seq); err != nil {
				return err
			}
			var loadErr error
			job, loadErr = loadJob(ctx, tx, spec.jobID)
			return loadErr
		},
	})
	if err != nil {
		return nil, mapRepoError(err, spec.op, fmt.Sprintf("job %q not found", spec.jobID))
	}
	return job, nil
}

// explainMiss distinguishes a missing job from a failed precondition after a
// conditional update matched nothing.
func explainMiss(ctx context.Context, q pgxutil.Querier, jobID, conflictMsg string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM jobs WHERE id = $1)`, jobID).Scan(&exists); err != nil {
		return fmt.Errorf("check job exists: %w", err)
	}
	if !exists {
		return apperrors.NotFoundf("job %q not found", jobID)
	}
	return apperrors.Wrap(errPreconditionFailed, apperrors.ErrCodeConflict, conflictMsg)
}

func nextHistorySeq(ctx context.Context, q pgxutil.Querier, jobID string) (int, error) {
	var seq int
	if err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM job_status_history WHERE job_id = $1`, jobID,
	).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next history seq: %w", err)
	}
	return seq, nil
}
