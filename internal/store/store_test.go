package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/store"
	"github.com/equipdraw/equipdraw/internal/typeid"
)

func openSQLite(t *testing.T) store.Store {
	t.Helper()
	db, err := store.Open(context.Background(), store.DriverSQLite, filepath.Join(t.TempDir(), "data", "equipdraw.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func openPostgres(t *testing.T) store.Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := store.Open(context.Background(), store.DriverPostgres, url)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite(t *testing.T)   { runStoreSuite(t, openSQLite) }
func TestPostgres(t *testing.T) { runStoreSuite(t, openPostgres) }

func TestOpen_UnknownDriver(t *testing.T) {
	if _, err := store.Open(context.Background(), "mysql", ""); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func runStoreSuite(t *testing.T, open func(*testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("canvas lifecycle", func(t *testing.T) { testCanvasLifecycle(t, open(t)) })
	t.Run("snapshot retention", func(t *testing.T) { testSnapshotRetention(t, open(t)) })
}

// ───────────────────────────────────────────────────────────────
// Users
// ───────────────────────────────────────────────────────────────

func testUsers(t *testing.T, db store.Store) {
	ctx := context.Background()
	email := typeid.NewUserID() + "@example.com"

	u, err := db.CreateUser(ctx, store.User{ID: typeid.NewUserID(), Email: email, PasswordHash: "hash", DisplayName: "Dana"})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	_, err = db.CreateUser(ctx, store.User{ID: typeid.NewUserID(), Email: email, PasswordHash: "x", DisplayName: "Other"})
	if !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}

	got, err := db.GetUserByEmail(ctx, email)
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if got.ID != u.ID || got.PasswordHash != "hash" || got.DisplayName != "Dana" {
		t.Errorf("unexpected user: %+v", got)
	}

	byID, err := db.GetUserByID(ctx, u.ID)
	if err != nil || byID.Email != email {
		t.Errorf("expected %s, got %+v (%v)", email, byID, err)
	}

	if _, err := db.GetUserByID(ctx, "user_missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ───────────────────────────────────────────────────────────────
// Canvases
// ───────────────────────────────────────────────────────────────

func testCanvasLifecycle(t *testing.T, db store.Store) {
	ctx := context.Background()
	owner := typeid.NewUserID()

	c := document.NewSampleCanvas(typeid.NewCanvasID())
	c.Name = "Boiler room"
	c.OwnerID = owner
	if err := db.CreateCanvas(ctx, c); err != nil {
		t.Fatalf("create canvas: %v", err)
	}
	if c.CreatedAt == "" || c.Version != 1 {
		t.Errorf("expected timestamps and version 1, got %q / %d", c.CreatedAt, c.Version)
	}
	if err := db.CreateCanvas(ctx, c); !errors.Is(err, store.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate on second create, got %v", err)
	}

	got, err := db.GetCanvas(ctx, c.ID)
	if err != nil {
		t.Fatalf("get canvas: %v", err)
	}
	if got.Name != "Boiler room" || len(got.Elements) != len(c.Elements) {
		t.Errorf("expected %d elements named %q, got %d / %q", len(c.Elements), c.Name, len(got.Elements), got.Name)
	}

	got.Elements = got.Elements[:2]
	got.Elements[0].X = 999
	if err := db.SaveDocument(ctx, got); err != nil {
		t.Fatalf("save document: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("expected version 2, got %d", got.Version)
	}

	reloaded, err := db.GetCanvas(ctx, c.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.Elements) != 2 || reloaded.Elements[0].X != 999 || reloaded.Version != 2 {
		t.Errorf("expected saved document, got %d elements, x=%v, v%d",
			len(reloaded.Elements), reloaded.Elements[0].X, reloaded.Version)
	}

	list, err := db.ListCanvases(ctx, owner)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != c.ID {
		t.Errorf("expected [%s], got %+v", c.ID, list)
	}

	if err := db.DeleteCanvas(ctx, c.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := db.GetCanvas(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := db.DeleteCanvas(ctx, c.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	if err := db.SaveDocument(ctx, c); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound saving a deleted canvas, got %v", err)
	}
}

func testSnapshotRetention(t *testing.T, db store.Store) {
	ctx := context.Background()
	c := document.NewEmptyCanvas(typeid.NewCanvasID(), "scratch", typeid.NewUserID())
	if err := db.CreateCanvas(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := range 30 {
		c.Elements = []document.Element{{
			ID: typeid.NewElementID(), ShapeType: document.ShapeRectangle,
			X: float64(i), Width: 10, Height: 10,
		}}
		if err := db.SaveDocument(ctx, c); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}

	got, err := db.GetCanvas(ctx, c.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != 31 || got.Elements[0].X != 29 {
		t.Errorf("expected latest version 31 with x=29, got v%d x=%v", got.Version, got.Elements[0].X)
	}
}
