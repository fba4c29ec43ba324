package data

import (
	"database/sql"
	"log/slog"
)

// RepoConfig holds configuration options for the Postgres repositories.
type RepoConfig struct {
	Logger       *slog.Logger
	TimeProvider TimeProvider
	// JobNumberAttempts bounds how many job numbers Create tries before giving up.
	JobNumberAttempts int
}

// JobRepo stores jobs in the jobs table with their append-only history, message,
// and attachment logs in child tables.
type JobRepo struct {
	DB           *sql.DB
	cfg          RepoConfig
	timeProvider TimeProvider
	logger       *slog.Logger
}

const defaultJobNumberAttempts = 3

// NewJobRepo creates a new JobRepo instance with the given database connection and configuration.
func NewJobRepo(db *sql.DB, cfg RepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.JobNumberAttempts <= 0 {
		cfg.JobNumberAttempts = defaultJobNumberAttempts
	}

	return &JobRepo{
		DB:           db,
		cfg:          cfg,
		timeProvider: tp,
		logger:       logger.With("component", "job_repo"),
	}
}

const jobColumns = `
  id,
  job_number,
  customer_id,
  vendor_id,
  service_id,
  status,
  details,
  pricing,
  scheduling,
  deliverables,
  completed_deliverables,
  created_at,
  updated_at
`

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// jobNumberConstraint names the unique index on jobs.job_number.
const jobNumberConstraint = "jobs_job_number_key"
