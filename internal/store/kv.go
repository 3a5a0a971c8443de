package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetValue reads one key for an instance.
// Returns ok=false for unset keys. The value is a detached copy.
func (s *Store) GetValue(ctx context.Context, instanceID, key string) (any, bool, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE instance_id = ? AND key = ?
	`, instanceID, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}

	value, err := unmarshalValue(key, data)
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// SetValue writes one key for an instance, replacing any prior value.
// Fails with SerializationError when the value cannot be stored.
func (s *Store) SetValue(ctx context.Context, instanceID, key string, value any) error {
	data, err := marshalValue(key, value)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO kv (instance_id, key, value, updated_at)
		VALUES (?, ?, ?, unixepoch())
		ON CONFLICT(instance_id, key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, instanceID, key, data)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// DeleteValue removes one key for an instance. Deleting an unset key
// is a no-op.
func (s *Store) DeleteValue(ctx context.Context, instanceID, key string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM kv WHERE instance_id = ? AND key = ?
	`, instanceID, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

// Keys returns the instance's keys in lexical order.
func (s *Store) Keys(ctx context.Context, instanceID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv WHERE instance_id = ? ORDER BY key
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}
