package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/typeid"
)

// Postgres is the server backend.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to databaseURL and migrates the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &Postgres{pool: pool}
	if err := db.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func (db *Postgres) Close() error {
	db.pool.Close()
	return nil
}

func (db *Postgres) migrate(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL,
			display_name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS canvases (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS canvas_snapshots (
			id TEXT PRIMARY KEY,
			canvas_id TEXT NOT NULL REFERENCES canvases(id) ON DELETE CASCADE,
			version INTEGER NOT NULL,
			document JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (canvas_id, version)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_canvases_owner ON canvases(owner_id)`,
	}

	for _, m := range migrations {
		if _, err := db.pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

// --- users ---

func (db *Postgres) CreateUser(ctx context.Context, u User) (*User, error) {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, password, display_name) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		u.ID, u.Email, u.PasswordHash, u.DisplayName,
	).Scan(&u.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &u, nil
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	return db.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE email = $1`, email)
}

func (db *Postgres) GetUserByID(ctx context.Context, id string) (*User, error) {
	return db.getUser(ctx, `SELECT id, email, password, display_name, created_at FROM users WHERE id = $1`, id)
}

func (db *Postgres) getUser(ctx context.Context, query, arg string) (*User, error) {
	var u User
	err := db.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// --- canvases ---

func (db *Postgres) CreateCanvas(ctx context.Context, c *document.Canvas) error {
	data, err := encodeBody(c)
	if err != nil {
		return err
	}
	if c.Version == 0 {
		c.Version = 1
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var created time.Time
	err = tx.QueryRow(ctx,
		`INSERT INTO canvases (id, name, owner_id, version) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		c.ID, c.Name, c.OwnerID, c.Version,
	).Scan(&created)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert canvas: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO canvas_snapshots (id, canvas_id, version, document) VALUES ($1, $2, $3, $4)`,
		typeid.NewSnapshotID(), c.ID, c.Version, data,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.CreatedAt = formatTime(created)
	c.UpdatedAt = c.CreatedAt
	return nil
}

func (db *Postgres) GetCanvas(ctx context.Context, id string) (*document.Canvas, error) {
	var c document.Canvas
	var created, updated time.Time
	var data []byte
	err := db.pool.QueryRow(ctx, `
		SELECT c.id, c.name, c.owner_id, c.version, c.created_at, c.updated_at, s.document
		FROM canvases c
		JOIN canvas_snapshots s ON s.canvas_id = c.id
		WHERE c.id = $1
		ORDER BY s.version DESC
		LIMIT 1`, id,
	).Scan(&c.ID, &c.Name, &c.OwnerID, &c.Version, &created, &updated, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	c.CreatedAt, c.UpdatedAt = formatTime(created), formatTime(updated)
	if err := decodeBody(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *Postgres) ListCanvases(ctx context.Context, ownerID string) ([]CanvasMeta, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, owner_id, version, created_at, updated_at FROM canvases WHERE owner_id = $1 ORDER BY updated_at DESC, id`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	defer rows.Close()

	canvases := []CanvasMeta{}
	for rows.Next() {
		var m CanvasMeta
		var created, updated time.Time
		if err := rows.Scan(&m.ID, &m.Name, &m.OwnerID, &m.Version, &created, &updated); err != nil {
			return nil, err
		}
		m.CreatedAt, m.UpdatedAt = formatTime(created), formatTime(updated)
		canvases = append(canvases, m)
	}
	return canvases, rows.Err()
}

func (db *Postgres) SaveDocument(ctx context.Context, c *document.Canvas) error {
	data, err := encodeBody(c)
	if err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var version int
	var updated time.Time
	err = tx.QueryRow(ctx,
		`UPDATE canvases SET version = version + 1, updated_at = now() WHERE id = $1 RETURNING version, updated_at`,
		c.ID,
	).Scan(&version, &updated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("bump version: %w", err)
	}

	batch := &pgx.Batch{}
	batch.Queue(`INSERT INTO canvas_snapshots (id, canvas_id, version, document) VALUES ($1, $2, $3, $4)`,
		typeid.NewSnapshotID(), c.ID, version, data)
	batch.Queue(`DELETE FROM canvas_snapshots WHERE canvas_id = $1 AND version <= $2`,
		c.ID, version-snapshotRetention)
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	c.Version, c.UpdatedAt = version, formatTime(updated)
	return nil
}

func (db *Postgres) DeleteCanvas(ctx context.Context, id string) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM canvases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete canvas: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
