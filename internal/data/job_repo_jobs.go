package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/data/pgxutil"
	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/domain/model"
	apperrors "github.com/William-Ta0/Migo-Marketplcase-sub000/internal/errors"
)

// Create stores a new job, assigning its ID, job number, and timestamps. The seeded
// history, messages, and attachments on job become the first entries of each log.
// A job number collision is retried with a fresh number.
func (r *JobRepo) Create(ctx context.Context, job *model.Job) (*model.Job, error) {
	if job == nil {
		return nil, apperrors.Validation("job is required")
	}
	if !job.Status.Valid() {
		return nil, apperrors.ValidationField("status", "invalid job status")
	}

	now := r.timeProvider.Now().UTC()
	for attempt := 1; ; attempt++ {
		created := job.Clone()
		id := uuid.New()
		created.ID = id.String()
		created.JobNumber = model.JobNumber(id[:])
		created.CreatedAt = now
		created.UpdatedAt = now

		err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
			Fn: func(tx pgx.Tx) error {
				return insertJobInTx(ctx, tx, created)
			},
		})
		if err == nil {
			return created, nil
		}
		if apperrors.IsUniqueViolation(err, jobNumberConstraint) && attempt < r.cfg.JobNumberAttempts {
			r.logger.DebugContext(ctx, "job number collision, retrying",
				"job_number", created.JobNumber,
				"attempt", attempt,
			)
			continue
		}
		return nil, mapRepoError(err, "create job", "job not found")
	}
}

func insertJobInTx(ctx context.Context, tx pgx.Tx, job *model.Job) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO jobs (
		  id, job_number, customer_id, vendor_id, service_id, status,
		  details, pricing, scheduling, deliverables, completed_deliverables,
		  message_count, attachment_count, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7::jsonb,$8::jsonb,$9::jsonb,$10::jsonb,$11::jsonb,$12,$13,$14,$14)`,
		job.ID,
		job.JobNumber,
		job.CustomerID,
		job.VendorID,
		job.ServiceID,
		string(job.Status),
		nullJSON(job.Details),
		nullJSON(job.Pricing),
		nullJSON(job.Scheduling),
		nullJSON(job.Deliverables),
		nullJSON(job.CompletedDeliverables),
		len(job.Messages),
		len(job.Attachments),
		job.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	for i, entry := range job.StatusHistory {
		if err := insertHistoryEntry(ctx, tx, job.ID, i+1, entry); err != nil {
			return err
		}
	}
	for i, msg := range job.Messages {
		if err := insertMessage(ctx, tx, job.ID, i+1, msg); err != nil {
			return err
		}
	}
	for i, att := range job.Attachments {
		if err := insertAttachment(ctx, tx, job.ID, i+1, att); err != nil {
			return err
		}
	}
	return nil
}

// GetByID loads a job together with its history, messages, and attachments.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.Job, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperrors.NotFoundf("job %q not found", id)
	}

	var job *model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var loadErr error
		job, loadErr = loadJob(ctx, conn, id)
		return loadErr
	})
	if err != nil {
		return nil, mapRepoError(err, "get job", fmt.Sprintf("job %q not found", id))
	}
	return job, nil
}

// List returns jobs matching opts, newest first.
func (r *JobRepo) List(ctx context.Context, opts *model.JobListOptions) ([]*model.Job, error) {
	if opts == nil {
		opts = &model.JobListOptions{}
	}
	query, args := buildJobListQuery(opts)

	var jobs []*model.Job
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("query jobs: %w", err)
		}
		jobs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Job, error) {
			return scanJob(row)
		})
		if err != nil {
			return fmt.Errorf("collect jobs: %w", err)
		}
		return loadChildren(ctx, conn, jobs)
	})
	if err != nil {
		return nil, mapRepoError(err, "list jobs", "job not found")
	}
	return jobs, nil
}

type jobListQueryBuilder struct {
	conds []string
	args  []any
}

// add appends a condition whose placeholders use the explicit index verb %[1]d.
func (b *jobListQueryBuilder) add(cond string, value any) {
	b.args = append(b.args, value)
	b.conds = append(b.conds, fmt.Sprintf(cond, len(b.args)))
}

func buildJobListQuery(opts *model.JobListOptions) (string, []any) {
	b := &jobListQueryBuilder{}
	if opts.ParticipantID != "" {
		switch opts.Role {
		case model.RoleCustomer:
			b.add("customer_id = $%[1]d", opts.ParticipantID)
		case model.RoleVendor:
			b.add("vendor_id = $%[1]d", opts.ParticipantID)
		default:
			b.add("(customer_id = $%[1]d OR vendor_id = $%[1]d)", opts.ParticipantID)
		}
	}
	if len(opts.Statuses) > 0 {
		statuses := make([]string, 0, len(opts.Statuses))
		for _, s := range opts.Statuses {
			statuses = append(statuses, string(s))
		}
		b.add("status = ANY($%[1]d)", statuses)
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(jobColumns)
	sb.WriteString(" FROM jobs")
	if len(b.conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.conds, " AND "))
	}
	sb.WriteString(" ORDER BY created_at DESC, id DESC")

	b.args = append(b.args, clampLimit(opts.Limit))
	fmt.Fprintf(&sb, " LIMIT $%d", len(b.args))
	if opts.Offset > 0 {
		b.args = append(b.args, opts.Offset)
		fmt.Fprintf(&sb, " OFFSET $%d", len(b.args))
	}
	return sb.String(), b.args
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultListLimit
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// loadJob reads one job and its logs through q.
func loadJob(ctx context.Context, q pgxutil.Querier, id string) (*model.Job, error) {
	rows, err := q.Query(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("query job: %w", err)
	}
	job, err := collectJobFromRows(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}
	if err := loadChildren(ctx, q, []*model.Job{job}); err != nil {
		return nil, err
	}
	return job, nil
}

// collectJobFromRows collects a single job from pgx rows.
func collectJobFromRows(rows pgx.Rows) (*model.Job, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, pgx.ErrNoRows
	}
	job, err := scanJob(rows)
	if err != nil {
		return nil, err
	}
	return job, rows.Err()
}

type jobRowScanner interface {
	Scan(dest ...any) error
}

func scanJob(scanner jobRowScanner) (*model.Job, error) {
	var (
		job                                 model.Job
		status                              string
		details, pricing, scheduling        []byte
		deliverables, completedDeliverables []byte
	)
	if err := scanner.Scan(
		&job.ID,
		&job.JobNumber,
		&job.CustomerID,
		&job.VendorID,
		&job.ServiceID,
		&status,
		&details,
		&pricing,
		&scheduling,
		&deliverables,
		&completedDeliverables,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		return nil, err
	}
	job.Status = model.JobStatus(status)
	job.Details = cloneJSON(details)
	job.Pricing = cloneJSON(pricing)
	job.Scheduling = cloneJSON(scheduling)
	job.Deliverables = cloneJSON(deliverables)
	job.CompletedDeliverables = cloneJSON(completedDeliverables)
	job.StatusHistory = []model.StatusEntry{}
	job.Messages = []model.Message{}
	job.Attachments = []model.Attachment{}
	return &job, nil
}

// loadChildren fills the history, message, and attachment logs of jobs with one query per table.
func loadChildren(ctx context.Context, q pgxutil.Querier, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	byID := make(map[string]*model.Job, len(jobs))
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		byID[j.ID] = j
		ids = append(ids, j.ID)
	}

	if err := forEachChild(ctx, q, `
		SELECT job_id, status, actor_id, reason, created_at
		FROM job_status_history WHERE job_id = ANY($1::uuid[]) ORDER BY job_id, seq`, ids,
		func(row pgx.Rows) error {
			var (
				jobID, status string
				e             model.StatusEntry
			)
			if err := row.Scan(&jobID, &status, &e.ActorID, &e.Reason, &e.Timestamp); err != nil {
				return err
			}
			e.Status = model.JobStatus(status)
			e.Timestamp = e.Timestamp.UTC()
			byID[jobID].StatusHistory = append(byID[jobID].StatusHistory, e)
			return nil
		}); err != nil {
		return fmt.Errorf("load status history: %w", err)
	}

	if err := forEachChild(ctx, q, `
		SELECT job_id, sender_id, body, kind, created_at
		FROM job_messages WHERE job_id = ANY($1::uuid[]) ORDER BY job_id, seq`, ids,
		func(row pgx.Rows) error {
			var (
				jobID, kind string
				m           model.Message
			)
			if err := row.Scan(&jobID, &m.SenderID, &m.Message, &kind, &m.Timestamp); err != nil {
				return err
			}
			m.Kind = model.MessageKind(kind)
			m.Timestamp = m.Timestamp.UTC()
			byID[jobID].Messages = append(byID[jobID].Messages, m)
			return nil
		}); err != nil {
		return fmt.Errorf("load messages: %w", err)
	}

	if err := forEachChild(ctx, q, `
		SELECT job_id, name, size_bytes, content_type, url, uploaded_by, uploaded_at
		FROM job_attachments WHERE job_id = ANY($1::uuid[]) ORDER BY job_id, seq`, ids,
		func(row pgx.Rows) error {
			var (
				jobID string
				a     model.Attachment
			)
			if err := row.Scan(&jobID, &a.Name, &a.Size, &a.Type, &a.URL, &a.UploadedBy, &a.UploadedAt); err != nil {
				return err
			}
			a.UploadedAt = a.UploadedAt.UTC()
			byID[jobID].Attachments = append(byID[jobID].Attachments, a)
			return nil
		}); err != nil {
		return fmt.Errorf("load attachments: %w", err)
	}
	return nil
}

func forEachChild(ctx context.Context, q pgxutil.Querier, query string, ids []string, fn func(pgx.Rows) error) error {
	rows, err := q.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func insertHistoryEntry(ctx context.Context, q pgxutil.Querier, jobID string, seq int, e model.StatusEntry) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO job_status_history (job_id, seq, status, actor_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		jobID, seq, string(e.Status), e.ActorID, e.Reason, e.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

func insertMessage(ctx context.Context, q pgxutil.Querier, jobID string, seq int, m model.Message) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO job_messages (job_id, seq, sender_id, body, kind, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		jobID, seq, m.SenderID, m.Message, string(m.Kind), m.Timestamp.UTC(),
	); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func insertAttachment(ctx context.Context, q pgxutil.Querier, jobID string, seq int, a model.Attachment) error {
	if _, err := q.Exec(ctx, `
		INSERT INTO job_attachments (job_id, seq, name, size_bytes, content_type, url, uploaded_by, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		jobID, seq, a.Name, a.Size, a.Type, a.URL, a.UploadedBy, a.UploadedAt.UTC(),
	); err != nil {
		return fmt.Errorf("insert attachment: %w", err)
	}
	return nil
}

// nullJSON passes empty documents to Postgres as NULL.
func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func cloneJSON(raw []byte) []byte {
	if raw == nil {
		return nil
	}
	return append([]byte(nil), raw...)
}

// mapRepoError converts storage failures into error kinds, naming the missing resource.
func mapRepoError(err error, op, notFoundMsg string) error {
	mapped := apperrors.MapDBError(err)
	if apperrors.IsNotFound(mapped) {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, notFoundMsg)
	}
	return apperrors.Infrastructure(mapped, op)
}

func utcNow(tp TimeProvider) time.Time {
	return tp.Now().UTC()
}
