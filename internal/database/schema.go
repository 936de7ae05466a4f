package database

// SQL schemas for the detection audit tables

const (
	// DetectionRunsTableSQL creates the detection_runs table, one row per run
	DetectionRunsTableSQL = `
		CREATE TABLE IF NOT EXISTS detection_runs (
			timestamp DateTime64(3),
			run_id UUID,
			device String,
			source LowCardinality(String),
			rows UInt32,
			error_kind LowCardinality(String),
			error String,
			duration_ms Float64
		) ENGINE = MergeTree()
		ORDER BY (device, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// DetectionPredictionsTableSQL creates the detection_predictions table, one row per classified log line
	DetectionPredictionsTableSQL = `
		CREATE TABLE IF NOT EXISTS detection_predictions (
			timestamp DateTime64(3),
			run_id UUID,
			device String,
			row_index UInt32,
			log_date String,
			log_time String,
			prediction LowCardinality(String)
		) ENGINE = MergeTree()
		ORDER BY (device, run_id, row_index)
		PARTITION BY toYYYYMM(timestamp)
	`
)

// AllTables returns all table creation SQL statements
func AllTables() []string {
	return []string{
		DetectionRunsTableSQL,
		DetectionPredictionsTableSQL,
	}
}
