package store

import (
	"context"
	"fmt"
	"strings"
)

// Bootstrap creates the application tables if they do not exist.
func (s *Store) Bootstrap(ctx context.Context) error {
	schema := s.Dialect.SchemaSQL()
	if s.driver == "sqlite" {
		// modernc/sqlite executes one statement per Exec call
		for _, stmt := range splitStatements(schema) {
			if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("bootstrap schema: %w", err)
			}
		}
		return nil
	}
	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("bootstrap schema: %w", err)
	}
	return nil
}

func splitStatements(schema string) []string {
	var stmts []string
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		stmts = append(stmts, stmt)
	}
	return stmts
}
