package sizestore

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

type sqliteBackend struct {
	db *sql.DB
}

func openSQLite(path string) (*sqliteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// WAL lets foreground readers run alongside the writer.
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 1000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sizes (
		path TEXT PRIMARY KEY,
		size INTEGER NOT NULL,
		updated INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS history (
		rank INTEGER PRIMARY KEY,
		path TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (s *sqliteBackend) Size(path string) (size, updated int64, ok bool, err error) {
	err = s.db.QueryRow(`SELECT size, updated FROM sizes WHERE path = ?`, path).Scan(&size, &updated)
	if err == sql.ErrNoRows {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return size, updated, true, nil
}

func (s *sqliteBackend) History() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM history ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *sqliteBackend) PutSize(path string, size, updated int64) error {
	_, err := s.db.Exec(`
		INSERT INTO sizes (path, size, updated) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET size = excluded.size, updated = excluded.updated
	`, path, size, updated)
	return err
}

func (s *sqliteBackend) ReplaceHistory(paths []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM history`); err != nil {
		tx.Rollback()
		return err
	}
	for rank, p := range paths {
		if _, err := tx.Exec(`INSERT INTO history (rank, path) VALUES (?, ?)`, rank, p); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *sqliteBackend) Prune(cutoff int64) (int, error) {
	res, err := s.db.Exec(`DELETE FROM sizes WHERE updated < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *sqliteBackend) Close() error {
	return s.db.Close()
}
