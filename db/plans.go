package db

import (
	"database/sql"
	"encoding/json"

	"github.com/rohanthewiz/serr"

	"cscx/gate"
	"cscx/planner"
	"cscx/task"
)

// Store persists plans, approvals, and results. It is the durable side of
// the approval gate; the gate relies on UpdatePlanGuarded to serialize
// status transitions across processes.
type Store struct {
	db *DB
}

// NewStore creates a Store backed by the given connection.
func NewStore(db *DB) *Store {
	return &Store{db: db}
}

// SavePlan inserts a plan, or replaces its mutable fields when the id
// already exists.
func (s *Store) SavePlan(p *planner.ExecutionPlan) error {
	inputsJSON, structureJSON, stepsJSON, pauseJSON, modsJSON, err := marshalPlanColumns(p)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO plans (id, task_type, subject_id, query, status, risk_level,
		                   inputs, structure, steps, step_cursor, agentic, round,
		                   pause, modifications, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			steps = excluded.steps,
			step_cursor = excluded.step_cursor,
			round = excluded.round,
			pause = excluded.pause,
			modifications = excluded.modifications,
			updated_at = excluded.updated_at
	`

	_, err = s.db.Exec(query,
		p.ID, string(p.TaskType), p.SubjectID, p.Query, string(p.Status), string(p.RiskLevel),
		inputsJSON, structureJSON, stepsJSON, p.StepCursor, p.Agentic, p.Round,
		pauseJSON, modsJSON, p.CreatedAt, p.UpdatedAt)

	return serr.Wrap(err, "failed to save plan")
}

// GetPlan retrieves a plan by id.
func (s *Store) GetPlan(id string) (*planner.ExecutionPlan, error) {
	query := `
		SELECT id, task_type, subject_id, query, status, risk_level,
		       inputs, structure, steps, step_cursor, agentic, round,
		       pause, modifications, created_at, updated_at
		FROM plans
		WHERE id = ?
	`
	plan, err := scanPlan(s.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, gate.ErrPlanNotFound
		}
		return nil, serr.Wrap(err, "failed to get plan")
	}
	return plan, nil
}

// UpdatePlanGuarded writes the plan only if its stored status equals from,
// and reports whether the write happened. A false return means another
// actor transitioned the plan first.
func (s *Store) UpdatePlanGuarded(p *planner.ExecutionPlan, from planner.Status) (bool, error) {
	inputsJSON, structureJSON, stepsJSON, pauseJSON, modsJSON, err := marshalPlanColumns(p)
	if err != nil {
		return false, err
	}

	query := `
		UPDATE plans SET
			status = ?,
			inputs = ?,
			structure = ?,
			steps = ?,
			step_cursor = ?,
			round = ?,
			pause = ?,
			modifications = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := s.db.Exec(query,
		string(p.Status), inputsJSON, structureJSON, stepsJSON,
		p.StepCursor, p.Round, pauseJSON, modsJSON, p.UpdatedAt,
		p.ID, string(from))
	if err != nil {
		return false, serr.Wrap(err, "failed to update plan")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, serr.Wrap(err, "failed to check update result")
	}
	return affected == 1, nil
}

// ListPlansByStatus retrieves plans in a given status, newest first.
func (s *Store) ListPlansByStatus(status planner.Status) ([]*planner.ExecutionPlan, error) {
	query := `
		SELECT id, task_type, subject_id, query, status, risk_level,
		       inputs, structure, steps, step_cursor, agentic, round,
		       pause, modifications, created_at, updated_at
		FROM plans
		WHERE status = ?
		ORDER BY created_at DESC
	`

	rows, err := s.db.Query(query, string(status))
	if err != nil {
		return nil, serr.Wrap(err, "failed to query plans")
	}
	defer rows.Close()

	var plans []*planner.ExecutionPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, serr.Wrap(err, "failed to scan plan")
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPlan(row scanner) (*planner.ExecutionPlan, error) {
	var plan planner.ExecutionPlan
	var taskType, status, riskLevel string
	var inputsJSON, structureJSON string
	var stepsJSON, pauseJSON, modsJSON sql.NullString

	err := row.Scan(
		&plan.ID, &taskType, &plan.SubjectID, &plan.Query, &status, &riskLevel,
		&inputsJSON, &structureJSON, &stepsJSON, &plan.StepCursor, &plan.Agentic, &plan.Round,
		&pauseJSON, &modsJSON, &plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	plan.TaskType = task.Type(taskType)
	plan.Status = planner.Status(status)
	plan.RiskLevel = task.RiskLevel(riskLevel)

	if err := json.Unmarshal([]byte(inputsJSON), &plan.Inputs); err != nil {
		return nil, serr.Wrap(err, "failed to unmarshal plan inputs")
	}
	if err := json.Unmarshal([]byte(structureJSON), &plan.Structure); err != nil {
		return nil, serr.Wrap(err, "failed to unmarshal plan structure")
	}
	if stepsJSON.Valid && stepsJSON.String != "" {
		if err := json.Unmarshal([]byte(stepsJSON.String), &plan.Steps); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal plan steps")
		}
	}
	if pauseJSON.Valid && pauseJSON.String != "" {
		var pause planner.PausePoint
		if err := json.Unmarshal([]byte(pauseJSON.String), &pause); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal pause point")
		}
		plan.Pause = &pause
	}
	if modsJSON.Valid && modsJSON.String != "" {
		if err := json.Unmarshal([]byte(modsJSON.String), &plan.Modifications); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal modifications")
		}
	}

	return &plan, nil
}

// marshalPlanColumns serializes the JSON columns of a plan row. Nullable
// columns come back as nil when the field is empty.
func marshalPlanColumns(p *planner.ExecutionPlan) (inputs, structure string, steps, pause, mods interface{}, err error) {
	inputsJSON, err := json.Marshal(p.Inputs)
	if err != nil {
		return "", "", nil, nil, nil, serr.Wrap(err, "failed to marshal plan inputs")
	}
	structureJSON, err := json.Marshal(p.Structure)
	if err != nil {
		return "", "", nil, nil, nil, serr.Wrap(err, "failed to marshal plan structure")
	}

	if len(p.Steps) > 0 {
		stepsJSON, jerr := json.Marshal(p.Steps)
		if jerr != nil {
			return "", "", nil, nil, nil, serr.Wrap(jerr, "failed to marshal plan steps")
		}
		steps = string(stepsJSON)
	}
	if p.Pause != nil {
		pauseJSON, jerr := json.Marshal(p.Pause)
		if jerr != nil {
			return "", "", nil, nil, nil, serr.Wrap(jerr, "failed to marshal pause point")
		}
		pause = string(pauseJSON)
	}
	if len(p.Modifications) > 0 {
		modsJSON, jerr := json.Marshal(p.Modifications)
		if jerr != nil {
			return "", "", nil, nil, nil, serr.Wrap(jerr, "failed to marshal modifications")
		}
		mods = string(modsJSON)
	}

	return string(inputsJSON), string(structureJSON), steps, pause, mods, nil
}
