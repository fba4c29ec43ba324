package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"time"

	// Registers the pgx database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/William-Ta0/Migo-Marketplcase-sub000/internal/migrate"
)

// TestDBConfig locates the Postgres instance integration tests run against.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DefaultTestDBConfig reads TEST_DB_* variables. The default port 55432 is the local
// compose test profile; CI sets TEST_DB_PORT=5432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "bookings"),
		Password: envOr("TEST_DB_PASSWORD", "bookings"),
		DBName:   envOr("TEST_DB_NAME", "bookings"),
		SSLMode:  envOr("DB_SSL_MODE", "disable"),
	}
}

// DSN renders the config as a pgx URL, optionally pinned to schema.
func (c TestDBConfig) DSN(schema string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	q := url.Values{"sslmode": []string{c.SSLMode}}
	if schema != "" {
		q.Set("search_path", schema+",public")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func requireDB() bool { return envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") }

func openDB(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// SkipIfNoTestDB skips the test when the test database does not answer a ping.
// TEST_REQUIRE_DB or TEST_REQUIRE_INFRA turn the skip into a failure.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()
	db, err := openDB(DefaultTestDBConfig().DSN(""), 2*time.Second)
	if err != nil {
		unavailable(t, requireDB(), "test database", err)
		return
	}
	closeAndLog(t, "test db", db)
}

// bookingTables lists tables children first so foreign keys are honored on delete.
var bookingTables = []string{
	"reviews",
	"job_attachments",
	"job_messages",
	"job_status_history",
	"jobs",
}

// SetupTestDB connects to the shared test database, migrates it, and empties the
// booking tables.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	db, err := openDB(DefaultTestDBConfig().DSN(""), 5*time.Second)
	if err != nil {
		t.Fatal("connect test database:", err)
	}
	migrateOrFail(t, db)
	CleanupTestDB(t, db)
	return db
}

// CleanupTestDB deletes every booking row.
func CleanupTestDB(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, table := range bookingTables {
		if _, err := db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			t.Fatalf("clean table %s: %v", table, err)
		}
	}
}

// TeardownTestDB empties and closes a shared test database handle.
func TeardownTestDB(t TestingTB, db *sql.DB) {
	t.Helper()
	if db == nil {
		return
	}
	CleanupTestDB(t, db)
	if err := db.Close(); err != nil {
		t.Fatal("close test database:", err)
	}
}

// WithAutoDB runs fn against a fresh schema when TEST_DB_EPHEMERAL is truthy and
// against the shared, emptied database otherwise.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	if envBool("TEST_DB_EPHEMERAL") {
		fn(SetupEphemeralSchemaDB(t))
		return
	}
	db := SetupTestDB(t)
	defer TeardownTestDB(t, db)
	fn(db)
}

// SetupEphemeralSchemaDB migrates a randomly named schema and drops it when the test
// ends. t must support Cleanup.
func SetupEphemeralSchemaDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	cleaner, ok := any(t).(interface{ Cleanup(func()) })
	if !ok {
		t.Fatal("ephemeral schemas need a test that supports Cleanup")
	}

	cfg := DefaultTestDBConfig()
	admin, err := openDB(cfg.DSN(""), 5*time.Second)
	if err != nil {
		t.Fatal("connect admin database:", err)
	}

	schema := schemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		closeAndLog(t, "admin db", admin)
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db, err := openDB(cfg.DSN(schema), 10*time.Second)
	if err != nil {
		closeAndLog(t, "admin db", admin)
		t.Fatal("connect schema database:", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	t.Logf("using ephemeral schema %s", schema)
	cleaner.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		closeAndLog(t, "schema db", db)
		if _, err := admin.ExecContext(ctx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		closeAndLog(t, "admin db", admin)
	})

	migrateOrFail(t, db)
	return db
}

func migrateOrFail(t TestingTB, db *sql.DB) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := migrate.Run(ctx, db); err != nil {
		t.Fatal("run migrations:", err)
	}
}

func schemaName() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

func closeAndLog(t TestingTB, name string, c interface{ Close() error }) {
	if err := c.Close(); err != nil {
		t.Logf("close %s: %v", name, err)
	}
}

// JobStatusRow is one stored job as seen by InspectJobStatuses.
type JobStatusRow struct {
	ID        string
	JobNumber string
	Status    string
	Messages  int
	History   int
}

// InspectJobStatuses reads every stored job with its message and history counts,
// oldest first.
func InspectJobStatuses(t TestingTB, db *sql.DB) []JobStatusRow {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rows, err := db.QueryContext(ctx, `
		SELECT j.id, j.job_number, j.status, j.message_count,
		       (SELECT COUNT(*) FROM job_status_history h WHERE h.job_id = j.id)
		FROM jobs j
		ORDER BY j.created_at ASC, j.id ASC`)
	if err != nil {
		t.Fatalf("query job statuses: %v", err)
	}
	defer closeAndLog(t, "job status rows", rows)

	var out []JobStatusRow
	for rows.Next() {
		var row JobStatusRow
		if err := rows.Scan(&row.ID, &row.JobNumber, &row.Status, &row.Messages, &row.History); err != nil {
			t.Fatalf("scan job status: %v", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("iterate job statuses: %v", err)
	}
	return out
}

// LogJobStatuses dumps InspectJobStatuses to the test log.
func LogJobStatuses(t TestingTB, db *sql.DB, label string) {
	t.Helper()
	t.Logf("jobs %s:", label)
	for _, row := range InspectJobStatuses(t, db) {
		t.Logf("  %s %s status=%s messages=%d history=%d", row.JobNumber, row.ID, row.Status, row.Messages, row.History)
	}
}
