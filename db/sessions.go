package db

import (
	"database/sql"

	"github.com/rohanthewiz/serr"

	"cscx/classifier"
	"cscx/task"
)

// SaveSessionContext upserts the conversational context for a session, so
// follow-up requests keep their category boost across restarts.
func (s *Store) SaveSessionContext(sc classifier.SessionContext, lastTask task.Type) error {
	query := `
		INSERT INTO session_contexts (session_id, active_category, last_task_type, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET
			active_category = excluded.active_category,
			last_task_type = excluded.last_task_type,
			updated_at = CURRENT_TIMESTAMP
	`
	_, err := s.db.Exec(query, sc.SessionID, string(sc.ActiveCategory), string(lastTask))
	return serr.Wrap(err, "failed to save session context")
}

// GetSessionContext returns the stored context for a session, or a zero
// context when the session is new.
func (s *Store) GetSessionContext(sessionID string) (classifier.SessionContext, error) {
	sc := classifier.SessionContext{SessionID: sessionID}
	var category sql.NullString

	err := s.db.QueryRow(
		"SELECT active_category FROM session_contexts WHERE session_id = ?",
		sessionID).Scan(&category)
	if err != nil {
		if err == sql.ErrNoRows {
			return sc, nil
		}
		return sc, serr.Wrap(err, "failed to get session context")
	}

	if category.Valid {
		sc.ActiveCategory = task.Category(category.String)
	}
	return sc, nil
}
