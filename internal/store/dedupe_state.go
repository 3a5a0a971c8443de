package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReadDedupeState returns the persisted dedupe snapshot for an
// instance, or ok=false if none has been written yet.
func (s *Store) ReadDedupeState(ctx context.Context, instanceID string) (strategy string, state []byte, ok bool, err error) {
	var stateText string
	err = s.db.QueryRowContext(ctx, `
		SELECT strategy, state FROM dedupe_state WHERE instance_id = ?
	`, instanceID).Scan(&strategy, &stateText)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("read dedupe state for %s: %w", instanceID, err)
	}
	return strategy, []byte(stateText), true, nil
}

// WriteDedupeState persists the dedupe snapshot for an instance.
//
// The snapshot is one row, written in one statement: either the whole
// post-invocation state lands or none of it does. A crashed invocation
// therefore leaves the previous snapshot intact.
func (s *Store) WriteDedupeState(ctx context.Context, instanceID, strategy string, state []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dedupe_state (instance_id, strategy, state, updated_at)
		VALUES (?, ?, ?, unixepoch())
		ON CONFLICT(instance_id) DO UPDATE SET
			strategy = excluded.strategy,
			state = excluded.state,
			updated_at = excluded.updated_at
	`, instanceID, strategy, string(state))
	if err != nil {
		return fmt.Errorf("write dedupe state for %s: %w", instanceID, err)
	}
	return nil
}
