package store

import (
	"context"
	"fmt"
)

// Invocation statuses recorded in the invocation log.
const (
	InvocationRunning = "running"
	InvocationOK      = "ok"
	InvocationFailed  = "failed"
)

// InvocationRecord is one row of the per-instance invocation log.
type InvocationRecord struct {
	ID         string
	InstanceID string
	Kind       string // "timer" | "http" | "manual"
	Seq        int64
	Status     string
	Error      string
}

// WriteInvocation inserts an invocation record.
// Uses ON CONFLICT(id) DO NOTHING for idempotency.
func (s *Store) WriteInvocation(ctx context.Context, rec InvocationRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO invocations (id, instance_id, kind, seq, status, error)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.InstanceID, rec.Kind, rec.Seq, rec.Status, rec.Error)
	if err != nil {
		return fmt.Errorf("write invocation %s: %w", rec.ID, err)
	}
	return nil
}

// MarkInvocation updates an invocation's terminal status.
func (s *Store) MarkInvocation(ctx context.Context, id, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE invocations SET status = ?, error = ? WHERE id = ?
	`, status, errMsg, id)
	if err != nil {
		return fmt.Errorf("mark invocation %s: %w", id, err)
	}
	return nil
}

// Invocations returns an instance's invocation log in seq order.
func (s *Store) Invocations(ctx context.Context, instanceID string) ([]InvocationRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, kind, seq, status, error
		FROM invocations WHERE instance_id = ? ORDER BY seq
	`, instanceID)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	var recs []InvocationRecord
	for rows.Next() {
		var rec InvocationRecord
		if err := rows.Scan(&rec.ID, &rec.InstanceID, &rec.Kind, &rec.Seq, &rec.Status, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan invocation: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
