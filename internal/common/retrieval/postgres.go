package retrieval

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"dashboard-assistant/internal/models"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)?$`)

// PostgresRetriever reads payloads stored as JSON documents keyed by
// (source_id, month).
type PostgresRetriever struct {
	db    *sql.DB
	query string
}

func NewPostgresRetriever(db *sql.DB, table string) (*PostgresRetriever, error) {
	if !identifierPattern.MatchString(table) {
		return nil, fmt.Errorf("invalid payload table name %q", table)
	}
	return &PostgresRetriever{
		db:    db,
		query: fmt.Sprintf("SELECT payload FROM %s WHERE source_id = $1 AND month = $2", table),
	}, nil
}

func (r *PostgresRetriever) Name() string {
	return "postgres"
}

func (r *PostgresRetriever) Fetch(ctx context.Context, source models.DataSourceDescriptor, month string) (json.RawMessage, error) {
	var payload []byte
	err := r.db.QueryRowContext(ctx, r.query, source.ID, month).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres retrieval %s/%s: %w", source.ID, month, err)
	}
	return payload, nil
}
