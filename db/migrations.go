package db

import (
	"database/sql"
	"fmt"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations list all database migrations in order
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create initial schema",
		SQL: `
			-- Create plans table; the status column drives the approval
			-- state machine, so transitions always write it with a guard
			CREATE TABLE IF NOT EXISTS plans (
				id TEXT PRIMARY KEY,
				task_type TEXT NOT NULL,
				subject_id TEXT NOT NULL,
				query TEXT NOT NULL,
				status TEXT NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'executing', 'completed', 'failed')),
				risk_level TEXT NOT NULL,
				inputs JSON NOT NULL,
				structure JSON NOT NULL,
				steps JSON,
				step_cursor INTEGER NOT NULL DEFAULT 0,
				agentic BOOLEAN NOT NULL DEFAULT false,
				round INTEGER NOT NULL DEFAULT 0,
				pause JSON,
				modifications JSON,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_plans_status ON plans(status);
			CREATE INDEX IF NOT EXISTS idx_plans_subject ON plans(subject_id);

			-- Create approval_records table, the append-only audit trail
			CREATE TABLE IF NOT EXISTS approval_records (
				id TEXT PRIMARY KEY,
				plan_id TEXT NOT NULL,
				round INTEGER NOT NULL DEFAULT 0,
				decision TEXT NOT NULL CHECK (decision IN ('approve', 'reject')),
				modifications JSON,
				reason JSON,
				actor_id TEXT NOT NULL,
				decided_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (plan_id) REFERENCES plans(id)
			);
			CREATE INDEX IF NOT EXISTS idx_approval_records_plan ON approval_records(plan_id);

			-- Create execution_results table; one terminal result per plan
			CREATE TABLE IF NOT EXISTS execution_results (
				plan_id TEXT PRIMARY KEY,
				outcome TEXT NOT NULL CHECK (outcome IN ('success', 'partial', 'failure')),
				artifact_refs JSON,
				errors JSON,
				finished_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				FOREIGN KEY (plan_id) REFERENCES plans(id)
			);

			-- Create migrations table
			CREATE TABLE IF NOT EXISTS migrations (
				version INTEGER PRIMARY KEY,
				description TEXT NOT NULL,
				applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
	{
		Version:     2,
		Description: "Add session context table",
		SQL: `
			-- Create session_contexts table so contextual boosting survives
			-- restarts; one row per conversation session
			CREATE TABLE IF NOT EXISTS session_contexts (
				session_id TEXT PRIMARY KEY,
				active_category TEXT,
				last_task_type TEXT,
				updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			);
		`,
	},
}

// Migrate runs all pending database migrations
func (db *DB) Migrate() error {
	// First, ensure migrations table exists
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return serr.Wrap(err, "failed to create migrations table")
	}

	// Get current version
	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return serr.Wrap(err, "failed to get current migration version")
	}

	logger.Info("Current migration version", "version", currentVersion)

	// Apply pending migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("Applying migration", "version", migration.Version, "description", migration.Description)

		err := db.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(migration.SQL); err != nil {
				return serr.Wrap(err, fmt.Sprintf("failed to execute migration %d", migration.Version))
			}

			_, err := tx.Exec(
				"INSERT INTO migrations (version, description) VALUES (?, ?)",
				migration.Version, migration.Description,
			)
			if err != nil {
				return serr.Wrap(err, "failed to record migration")
			}

			return nil
		})

		if err != nil {
			return err
		}

		logger.Info("Migration applied successfully", "version", migration.Version)
	}

	return nil
}
