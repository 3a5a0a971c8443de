package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// EnsureInstance creates the instance row if it does not exist.
// Idempotent: re-ensuring an existing instance keeps its endpoint id,
// which is what lets endpoints survive redeploys.
func (s *Store) EnsureInstance(ctx context.Context, instanceID, componentName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instances (id, component)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, instanceID, componentName)
	if err != nil {
		return fmt.Errorf("ensure instance %s: %w", instanceID, err)
	}
	return nil
}

// EndpointID returns the instance's HTTP endpoint identifier, or ""
// if none has been allocated.
func (s *Store) EndpointID(ctx context.Context, instanceID string) (string, error) {
	var endpoint string
	err := s.db.QueryRowContext(ctx, `
		SELECT endpoint_id FROM instances WHERE id = ?
	`, instanceID).Scan(&endpoint)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read endpoint for %s: %w", instanceID, err)
	}
	return endpoint, nil
}

// SetEndpointID persists the instance's endpoint identifier.
func (s *Store) SetEndpointID(ctx context.Context, instanceID, endpointID string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE instances SET endpoint_id = ? WHERE id = ?
	`, endpointID, instanceID)
	if err != nil {
		return fmt.Errorf("set endpoint for %s: %w", instanceID, err)
	}
	return nil
}

// DeleteInstance removes the instance row and all its scoped state.
// Used on full instance recreation; the next EnsureInstance gets a
// fresh endpoint.
func (s *Store) DeleteInstance(ctx context.Context, instanceID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete instance %s: %w", instanceID, err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM kv WHERE instance_id = ?`,
		`DELETE FROM dedupe_state WHERE instance_id = ?`,
		`DELETE FROM invocations WHERE instance_id = ?`,
		`DELETE FROM instances WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, instanceID); err != nil {
			return fmt.Errorf("delete instance %s: %w", instanceID, err)
		}
	}
	return tx.Commit()
}
