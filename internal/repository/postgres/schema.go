package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// EnsureSchema creates missing tables. Statements are idempotent and run in
// file name order.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements, err := schemaStatements(tables)
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// schemaStatements renders the embedded schema files for the given tables.
func schemaStatements(tables *TableNames) ([]string, error) {
	files, err := fs.Glob(schemaFS, "schema/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	replacer := map[string]string{
		"conversation_turns.sql": tables.ConversationTurns,
	}

	statements := make([]string, 0, len(files))
	for _, file := range files {
		name := strings.TrimPrefix(file, "schema/")
		table, ok := replacer[name]
		if !ok {
			return nil, fmt.Errorf("schema file %s has no table mapping", name)
		}
		data, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		statements = append(statements, strings.ReplaceAll(string(data), "{{TABLE}}", table))
	}
	return statements, nil
}
