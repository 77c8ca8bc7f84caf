package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"kafkameter/internal/config"
	"kafkameter/internal/logger"
	"kafkameter/internal/metrics"
	"kafkameter/internal/models"

	_ "github.com/denisenkom/go-mssqldb"
	"github.com/sirupsen/logrus"
)

// ErrRunNotFound is returned when no summary exists for a run id
var ErrRunNotFound = errors.New("run not found")

// DB wraps the SQL database connection
type DB struct {
	conn *sql.DB
}

// New creates a new database connection
func New(cfg *config.MSSQLConfig) (*DB, error) {
	conn, err := sql.Open("sqlserver", cfg.GetConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(5)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	logger.Log.Info("Successfully connected to MS SQL database")

	return &DB{conn: conn}, nil
}

// NewWithConn wraps an existing connection
func NewWithConn(conn *sql.DB) *DB {
	return &DB{conn: conn}
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// SaveRunSummary inserts or updates a run summary (idempotent)
func (db *DB) SaveRunSummary(ctx context.Context, s models.RunSummary) error {
	start := time.Now()
	defer func() {
		metrics.DBLatency.WithLabelValues("save_run_summary").Observe(time.Since(start).Seconds())
	}()

	query := `
		MERGE INTO run_summaries AS target
		USING (SELECT @p1 AS run_id) AS source
		ON target.run_id = source.run_id
		WHEN MATCHED THEN
			UPDATE SET topic = @p2, client_id = @p3, workers = @p4, started_at = @p5, ended_at = @p6,
				samples = @p7, succeeded = @p8, failed = @p9, teardown_error = @p10
		WHEN NOT MATCHED THEN
			INSERT (run_id, topic, client_id, workers, started_at, ended_at, samples, succeeded, failed, teardown_error)
			VALUES (@p1, @p2, @p3, @p4, @p5, @p6, @p7, @p8, @p9, @p10);
	`

	_, err := db.conn.ExecContext(ctx, query,
		s.RunID,
		s.Topic,
		s.ClientID,
		s.Workers,
		s.StartedAt,
		s.EndedAt,
		s.Samples,
		s.Succeeded,
		s.Failed,
		s.TeardownError,
	)
	if err != nil {
		logger.WithRun(s.RunID).WithFields(logrus.Fields{
			"error": err.Error(),
		}).Error("Failed to save run summary")
		return fmt.Errorf("failed to save run summary: %w", err)
	}

	logger.WithRun(s.RunID).WithFields(logrus.Fields{
		"samples": s.Samples,
		"failed":  s.Failed,
	}).Info("Run summary saved")

	return nil
}

// GetRunSummary retrieves a run summary by id
func (db *DB) GetRunSummary(ctx context.Context, runID string) (*models.RunSummary, error) {
	start := time.Now()
	defer func() {
		metrics.DBLatency.WithLabelValues("get_run_summary").Observe(time.Since(start).Seconds())
	}()

	query := `
		SELECT run_id, topic, client_id, workers, started_at, ended_at, samples, succeeded, failed, teardown_error
		FROM run_summaries
		WHERE run_id = @p1
	`

	var s models.RunSummary
	err := db.conn.QueryRowContext(ctx, query, runID).Scan(
		&s.RunID,
		&s.Topic,
		&s.ClientID,
		&s.Workers,
		&s.StartedAt,
		&s.EndedAt,
		&s.Samples,
		&s.Succeeded,
		&s.Failed,
		&s.TeardownError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run summary: %w", err)
	}

	return &s, nil
}

// GetRecentRuns retrieves the most recent run summaries
func (db *DB) GetRecentRuns(ctx context.Context, limit int) ([]models.RunSummary, error) {
	start := time.Now()
	defer func() {
		metrics.DBLatency.WithLabelValues("get_recent_runs").Observe(time.Since(start).Seconds())
	}()

	query := `
		SELECT TOP (@p1) run_id, topic, client_id, workers, started_at, ended_at, samples, succeeded, failed, teardown_error
		FROM run_summaries
		ORDER BY started_at DESC
	`

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	runs := []models.RunSummary{}
	for rows.Next() {
		var s models.RunSummary
		if err := rows.Scan(
			&s.RunID,
			&s.Topic,
			&s.ClientID,
			&s.Workers,
			&s.StartedAt,
			&s.EndedAt,
			&s.Samples,
			&s.Succeeded,
			&s.Failed,
			&s.TeardownError,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run summary: %w", err)
		}
		runs = append(runs, s)
	}

	return runs, rows.Err()
}
