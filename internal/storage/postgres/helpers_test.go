package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes every row from the lifeform tables. It lives in
// the postgres package so it can reach the unexported db field.
func (s *Store) TruncateForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx,
		"TRUNCATE TABLE reflections, memories, questions, lifeform_state RESTART IDENTITY CASCADE")
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate: %w", err)
	}
	return nil
}
