package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"guidegen/internal/models"
)

// SQLiteStore is the embedded-database backend. The full guide record is kept
// as a JSON payload; the columns used for listing and ownership checks are
// broken out so List never has to decode every payload.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_foreign_keys=1", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS guides (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			title TEXT NOT NULL,
			filename TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_guides_user ON guides(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_guides_created ON guides(created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("execute %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Put(ctx context.Context, guide *models.Guide) error {
	payload, err := json.Marshal(guide)
	if err != nil {
		return fmt.Errorf("encode guide %s: %w", guide.ID, err)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO guides (id, user_id, title, filename, created_at, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			title = excluded.title,
			filename = excluded.filename,
			created_at = excluded.created_at,
			payload = excluded.payload;
	`, guide.ID, guide.UserID, guide.Title, guide.Filename, guide.CreatedAt, string(payload)); err != nil {
		return fmt.Errorf("insert guide %s: %w", guide.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Guide, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM guides WHERE id = ?;`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load guide %s: %w", id, err)
	}
	guide := &models.Guide{}
	if err := json.Unmarshal([]byte(payload), guide); err != nil {
		return nil, fmt.Errorf("decode guide %s: %w", id, err)
	}
	return guide, nil
}

func (s *SQLiteStore) List(ctx context.Context, viewer string) ([]models.GuideSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, filename, created_at
		FROM guides
		WHERE user_id = ? OR user_id = ?
		ORDER BY created_at DESC;
	`, viewer, models.AnonymousUser)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}
	defer rows.Close()

	summaries := []models.GuideSummary{}
	for rows.Next() {
		var sum models.GuideSummary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Filename, &sum.CreatedAt); err != nil {
			continue
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string, requester string) error {
	var owner string
	err := s.db.QueryRowContext(ctx, `SELECT user_id FROM guides WHERE id = ?;`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("load guide owner %s: %w", id, err)
	}
	if owner != requester {
		return ErrForbidden
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM guides WHERE id = ?;`, id); err != nil {
		return fmt.Errorf("delete guide %s: %w", id, err)
	}
	return nil
}
