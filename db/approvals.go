package db

import (
	"database/sql"
	"encoding/json"

	"github.com/rohanthewiz/serr"

	"cscx/gate"
	"cscx/planner"
)

// AppendApproval adds one record to the audit trail. Records are never
// updated or deleted.
func (s *Store) AppendApproval(rec *gate.ApprovalRecord) error {
	var modsJSON, reasonJSON interface{}

	if len(rec.Modifications) > 0 {
		b, err := json.Marshal(rec.Modifications)
		if err != nil {
			return serr.Wrap(err, "failed to marshal modifications")
		}
		modsJSON = string(b)
	}
	if rec.Reason != nil {
		b, err := json.Marshal(rec.Reason)
		if err != nil {
			return serr.Wrap(err, "failed to marshal pause reason")
		}
		reasonJSON = string(b)
	}

	query := `
		INSERT INTO approval_records (id, plan_id, round, decision, modifications, reason, actor_id, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		rec.ID, rec.PlanID, rec.Round, string(rec.Decision), modsJSON, reasonJSON,
		rec.ActorID, rec.DecidedAt)
	return serr.Wrap(err, "failed to append approval record")
}

// LatestApproval returns the newest approval record for a plan, or nil
// when the plan has never been decided.
func (s *Store) LatestApproval(planID string) (*gate.ApprovalRecord, error) {
	query := `
		SELECT id, plan_id, round, decision, modifications, reason, actor_id, decided_at
		FROM approval_records
		WHERE plan_id = ?
		ORDER BY decided_at DESC, round DESC
		LIMIT 1
	`
	rec, err := scanApproval(s.db.QueryRow(query, planID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, serr.Wrap(err, "failed to get approval record")
	}
	return rec, nil
}

// ListApprovals returns a plan's full audit trail, oldest first.
func (s *Store) ListApprovals(planID string) ([]*gate.ApprovalRecord, error) {
	query := `
		SELECT id, plan_id, round, decision, modifications, reason, actor_id, decided_at
		FROM approval_records
		WHERE plan_id = ?
		ORDER BY decided_at ASC, round ASC
	`
	rows, err := s.db.Query(query, planID)
	if err != nil {
		return nil, serr.Wrap(err, "failed to query approval records")
	}
	defer rows.Close()

	var recs []*gate.ApprovalRecord
	for rows.Next() {
		rec, err := scanApproval(rows)
		if err != nil {
			return nil, serr.Wrap(err, "failed to scan approval record")
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func scanApproval(row scanner) (*gate.ApprovalRecord, error) {
	var rec gate.ApprovalRecord
	var decision string
	var modsJSON, reasonJSON sql.NullString

	err := row.Scan(&rec.ID, &rec.PlanID, &rec.Round, &decision,
		&modsJSON, &reasonJSON, &rec.ActorID, &rec.DecidedAt)
	if err != nil {
		return nil, err
	}

	rec.Decision = gate.Decision(decision)
	if modsJSON.Valid && modsJSON.String != "" {
		if err := json.Unmarshal([]byte(modsJSON.String), &rec.Modifications); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal modifications")
		}
	}
	if reasonJSON.Valid && reasonJSON.String != "" {
		var pause planner.PausePoint
		if err := json.Unmarshal([]byte(reasonJSON.String), &pause); err != nil {
			return nil, serr.Wrap(err, "failed to unmarshal pause reason")
		}
		rec.Reason = &pause
	}
	return &rec, nil
}
