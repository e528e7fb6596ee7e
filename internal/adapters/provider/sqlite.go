package provider

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okian/placar/internal/domain/roster"
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id              TEXT NOT NULL,
	label           TEXT NOT NULL,
	championship_id TEXT NOT NULL,
	position        INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (championship_id, id)
);
CREATE INDEX IF NOT EXISTS idx_teams_championship ON teams (championship_id, position);
`

// SQLite reads rosters from a teams table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens dsn with the pure-Go driver and ensures the schema exists.
func OpenSQLite(ctx context.Context, dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster database: %w", err)
	}
	// :memory: databases are per connection.
	db.SetMaxOpenConns(1)
	s := &SQLite{db: db}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate creates the teams table when missing.
func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate roster schema: %w", err)
	}
	return nil
}

// Upsert replaces the roster of a championship, keeping the given order.
func (s *SQLite) Upsert(ctx context.Context, championshipID string, teams []roster.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin roster upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM teams WHERE championship_id = ?`, championshipID); err != nil {
		return fmt.Errorf("failed to clear roster: %w", err)
	}
	for i, t := range teams {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO teams (id, label, championship_id, position) VALUES (?, ?, ?, ?)`,
			t.ID, t.Label, championshipID, i,
		); err != nil {
			return fmt.Errorf("failed to insert team %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}

// Teams implements roster.Provider.
func (s *SQLite) Teams(ctx context.Context, championshipID string) ([]roster.Team, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, label FROM teams WHERE championship_id = ? ORDER BY position, label`,
		championshipID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var teams []roster.Team
	for rows.Next() {
		var t roster.Team
		if err := rows.Scan(&t.ID, &t.Label); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
