package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/typeid"
)

// SQLite is the single-file backend used for local and desktop runs.
type SQLite struct {
	conn *sql.DB
}

// OpenSQLite opens (or creates) the database file at path and migrates it.
func OpenSQLite(path string) (*SQLite, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &SQLite{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *SQLite) Close() error {
	return db.conn.Close()
}

func (db *SQLite) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			display_name TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS canvases (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS canvas_snapshots (
			id TEXT PRIMARY KEY,
			canvas_id TEXT NOT NULL REFERENCES canvases(id) ON DELETE CASCADE,
			version INTEGER NOT NULL,
			document TEXT NOT NULL,
			created_at TEXT NOT NULL,
			UNIQUE (canvas_id, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_canvases_owner ON canvases(owner_id)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

// --- users ---

func (db *SQLite) CreateUser(ctx context.Context, u User) (*User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password, display_name, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName, formatTime(u.CreatedAt),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (db *SQLite) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return db.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = ?`, email)
}

func (db *SQLite) GetUserByID(ctx context.Context, id string) (*User, error) {
	return db.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = ?`, id)
}

func (db *SQLite) getUser(ctx context.Context, query, arg string) (*User, error) {
	var u User
	var created string
	err := db.conn.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}

// --- canvases ---

func (db *SQLite) CreateCanvas(ctx context.Context, c *document.Canvas) error {
	data, err := encodeBody(c)
	if err != nil {
		return err
	}
	now := formatTime(time.Now())
	if c.Version == 0 {
		c.Version = 1
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO canvases (id, name, owner_id, version, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.OwnerID, c.Version, now, now,
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert canvas: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO canvas_snapshots (id, canvas_id, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		typeid.NewSnapshotID(), c.ID, c.Version, string(data), now,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.CreatedAt, c.UpdatedAt = now, now
	return nil
}

func (db *SQLite) GetCanvas(ctx context.Context, id string) (*document.Canvas, error) {
	var c document.Canvas
	var data string
	err := db.conn.QueryRowContext(ctx, `
		SELECT c.id, c.name, c.owner_id, c.version, c.created_at, c.updated_at, s.document
		FROM canvases c
		JOIN canvas_snapshots s ON s.canvas_id = c.id
		WHERE c.id = ?
		ORDER BY s.version DESC
		LIMIT 1`, id,
	).Scan(&c.ID, &c.Name, &c.OwnerID, &c.Version, &c.CreatedAt, &c.UpdatedAt, &data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	if err := decodeBody([]byte(data), &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *SQLite) ListCanvases(ctx context.Context, ownerID string) ([]CanvasMeta, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, owner_id, version, created_at, updated_at FROM canvases WHERE owner_id = ? ORDER BY updated_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	defer rows.Close()

	canvases := []CanvasMeta{}
	for rows.Next() {
		var m CanvasMeta
		if err := rows.Scan(&m.ID, &m.Name, &m.OwnerID, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		canvases = append(canvases, m)
	}
	return canvases, rows.Err()
}

func (db *SQLite) SaveDocument(ctx context.Context, c *document.Canvas) error {
	data, err := encodeBody(c)
	if err != nil {
		return err
	}
	now := formatTime(time.Now())

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var version int
	err = tx.QueryRowContext(ctx, `SELECT version FROM canvases WHERE id = ?`, c.ID).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("get version: %w", err)
	}
	version++

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO canvas_snapshots (id, canvas_id, version, document, created_at) VALUES (?, ?, ?, ?, ?)`,
		typeid.NewSnapshotID(), c.ID, version, string(data), now,
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE canvases SET version = ?, updated_at = ? WHERE id = ?`, version, now, c.ID,
	); err != nil {
		return fmt.Errorf("update canvas: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM canvas_snapshots WHERE canvas_id = ? AND version <= ?`, c.ID, version-snapshotRetention,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.Version, c.UpdatedAt = version, now
	return nil
}

func (db *SQLite) DeleteCanvas(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM canvases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
