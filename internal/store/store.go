package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Drivers accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// snapshotRetention is how many document versions are kept per canvas.
const snapshotRetention = 20

const timeLayout = "2006-01-02T15:04:05Z"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	DisplayName  string
	CreatedAt    time.Time
}

// CanvasMeta is a canvas row without its document body.
type CanvasMeta struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	OwnerID   string `json:"ownerId"`
	Version   int    `json:"version"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type UserStore interface {
	CreateUser(ctx context.Context, u User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}

type CanvasStore interface {
	// CreateCanvas inserts the canvas row and its first document snapshot.
	CreateCanvas(ctx context.Context, c *document.Canvas) error
	// GetCanvas returns the canvas with its latest document snapshot.
	GetCanvas(ctx context.Context, id string) (*document.Canvas, error)
	ListCanvases(ctx context.Context, ownerID string) ([]CanvasMeta, error)
	// SaveDocument stores c's elements and viewport as a new snapshot and
	// bumps c.Version.
	SaveDocument(ctx context.Context, c *document.Canvas) error
	DeleteCanvas(ctx context.Context, id string) error
}

type Store interface {
	UserStore
	CanvasStore
	Close() error
}

// Open connects to the backend named by driver. dsn is a file path for
// sqlite and a connection URL for postgres.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite:
		return OpenSQLite(dsn)
	case DriverPostgres:
		return OpenPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// body is the persisted part of a canvas document.
type body struct {
	Viewport geometry.Viewport  `json:"viewport"`
	Elements []document.Element `json:"elements"`
}

func encodeBody(c *document.Canvas) ([]byte, error) {
	data, err := json.Marshal(body{Viewport: c.Viewport, Elements: c.Elements})
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return data, nil
}

func decodeBody(data []byte, c *document.Canvas) error {
	var b body
	if err := json.Unmarshal(data, &b); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	c.Viewport = b.Viewport
	c.Elements = b.Elements
	c.Normalize()
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
