package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/logging"
	"github.com/Aetos973/AI-Powered-Intrusion-Detection-System-AI-IDS/internal/models"
)

// ClickHouseDB stores the detection audit trail.
type ClickHouseDB struct {
	conn driver.Conn
	log  zerolog.Logger
}

// Options configures the ClickHouse connection.
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(ctx context.Context, opts Options) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	db := &ClickHouseDB{conn: conn, log: logging.Component("clickhouse")}
	db.log.Info().Str("addr", opts.Addr).Msg("connected to ClickHouse")

	if err := db.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range AllTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	db.log.Info().Msg("database schema initialized")
	return nil
}

// SaveRun records a run and, for successful runs, every classified row.
func (db *ClickHouseDB) SaveRun(ctx context.Context, summary *models.DetectionSummary, rows []models.ResultRow) error {
	runID, err := uuid.Parse(summary.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", summary.RunID, err)
	}

	query := `
		INSERT INTO detection_runs (timestamp, run_id, device, source, rows, error_kind, error, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = db.conn.Exec(ctx, query,
		summary.Timestamp,
		runID,
		summary.Device,
		summary.Source,
		uint32(summary.Rows),
		summary.ErrorKind,
		summary.Error,
		summary.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("failed to insert detection run: %w", err)
	}

	if len(rows) == 0 {
		return nil
	}

	batch, err := db.conn.PrepareBatch(ctx, `
		INSERT INTO detection_predictions (timestamp, run_id, device, row_index, log_date, log_time, prediction)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prediction batch: %w", err)
	}
	defer func() { _ = batch.Abort() }()

	for i, r := range rows {
		if err := batch.Append(summary.Timestamp, runID, summary.Device, uint32(i), r.Date, r.Time, r.Prediction); err != nil {
			return fmt.Errorf("failed to append prediction: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to insert predictions: %w", err)
	}

	db.log.Debug().Str("run_id", summary.RunID).Int("rows", len(rows)).Msg("saved detection run")
	return nil
}

// LabelCount is the number of rows predicted as one label.
type LabelCount struct {
	Prediction string
	Rows       uint64
}

// PredictionCounts aggregates predictions for a device since a point in time.
func (db *ClickHouseDB) PredictionCounts(ctx context.Context, device string, since time.Time) ([]LabelCount, error) {
	query := `
		SELECT prediction, count() AS n
		FROM detection_predictions
		WHERE device = ? AND timestamp >= ?
		GROUP BY prediction
		ORDER BY n DESC
	`

	rows, err := db.conn.Query(ctx, query, device, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction counts: %w", err)
	}
	defer rows.Close()

	var out []LabelCount
	for rows.Next() {
		var c LabelCount
		if err := rows.Scan(&c.Prediction, &c.Rows); err != nil {
			return nil, fmt.Errorf("failed to scan prediction count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		db.log.Info().Msg("ClickHouse connection closed")
	}
	return nil
}
