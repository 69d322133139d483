package db

import (
	"database/sql"
	"encoding/json"

	"github.com/rohanthewiz/serr"

	"cscx/executor"
	"cscx/gate"
)

// SaveResult stores a plan's terminal execution result. A result already
// on file wins: the insert is a no-op, so a plan can never accumulate two.
func (s *Store) SaveResult(res *executor.ExecutionResult) error {
	var refsJSON, errsJSON interface{}

	if len(res.ArtifactRefs) > 0 {
		b, err := json.Marshal(res.ArtifactRefs)
		if err != nil {
			return serr.Wrap(err, "failed to marshal artifact refs")
		}
		refsJSON = string(b)
	}
	if len(res.Errors) > 0 {
		b, err := json.Marshal(res.Errors)
		if err != nil {
			return serr.Wrap(err, "failed to marshal errors")
		}
		errsJSON = string(b)
	}

	query := `
		INSERT INTO execution_results (plan_id, outcome, artifact_refs, errors, finished_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(plan_id) DO NOTHING
	`
	_, err := s.db.Exec(query, res.PlanID, string(res.Outcome), refsJSON, errsJSON, res.FinishedAt)
	return serr.Wrap(err, "failed to save execution result")
}

// GetResult retrieves a plan's execution result.
func (s *Store) GetResult(planID string) (*executor.ExecutionResult, error) {
	var res executor.ExecutionResult
	var outcome string
	var refsJSON, errsJSON sql.NullString

	query := `
		SELECT plan_id, outcome, artifact_refs, errors, finished_at
		FROM execution_results
		WHERE plan_id = ?
	`
	err := s.db.QueryRow(query, planID).Scan(
		&res.PlanID, &outcome, &refsJSON, &errsJSON, &res.FinishedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, gate.ErrPlanNotFound
		}
		return nil, serr.Wrap(err, "failed to get execution result")
	}

	res.Outcome = executor.Outcome(outcome)
	if refsJSON.Valid && refsJSON.String != "" {
		if err := json.Unmarshal([]byte(refsJSON.String), &res.ArtifactRefs); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal artifact refs")
		}
	}
	if errsJSON.Valid && errsJSON.String != "" {
		if err := json.Unmarshal([]byte(errsJSON.String), &res.Errors); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal errors")
		}
	}
	return &res, nil
}
