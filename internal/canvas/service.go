package canvas

import (
	"context"
	"errors"
	"fmt"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/geometry"
	"github.com/equipdraw/equipdraw/internal/store"
	"github.com/equipdraw/equipdraw/internal/typeid"
)

var (
	ErrNotFound  = errors.New("canvas not found")
	ErrForbidden = errors.New("forbidden")
)

// Templates accepted by Create.
const (
	TemplateEmpty  = "empty"
	TemplateSample = "sample"
)

// LiveDocuments is implemented by the session hub: a document replaced over
// REST must reach the engine of an open room instead of being overwritten
// by its next autosave.
type LiveDocuments interface {
	Replace(canvasID string, c *document.Canvas) bool
}

type Service struct {
	canvases store.CanvasStore
	live     LiveDocuments
}

func NewService(canvases store.CanvasStore) *Service {
	return &Service{canvases: canvases}
}

// SetLive attaches the session hub after both are constructed.
func (s *Service) SetLive(live LiveDocuments) {
	s.live = live
}

// Body is the editable part of a canvas document.
type Body struct {
	Viewport geometry.Viewport  `json:"viewport"`
	Elements []document.Element `json:"elements"`
}

func (s *Service) Create(ctx context.Context, name, template, ownerID string) (*store.CanvasMeta, error) {
	var c *document.Canvas
	switch template {
	case "", TemplateEmpty:
		c = document.NewEmptyCanvas(typeid.NewCanvasID(), name, ownerID)
	case TemplateSample:
		c = document.NewSampleCanvas(typeid.NewCanvasID())
		c.Name, c.OwnerID = name, ownerID
	default:
		return nil, fmt.Errorf("unknown template %q", template)
	}

	if err := s.canvases.CreateCanvas(ctx, c); err != nil {
		return nil, fmt.Errorf("create canvas: %w", err)
	}
	return metaOf(c), nil
}

func (s *Service) Get(ctx context.Context, canvasID, userID string) (*store.CanvasMeta, error) {
	c, err := s.load(ctx, canvasID, userID)
	if err != nil {
		return nil, err
	}
	return metaOf(c), nil
}

func (s *Service) List(ctx context.Context, userID string) ([]store.CanvasMeta, error) {
	canvases, err := s.canvases.ListCanvases(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list canvases: %w", err)
	}
	return canvases, nil
}

func (s *Service) Delete(ctx context.Context, canvasID, userID string) error {
	if _, err := s.load(ctx, canvasID, userID); err != nil {
		return err
	}
	if err := s.canvases.DeleteCanvas(ctx, canvasID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete canvas: %w", err)
	}
	return nil
}

func (s *Service) GetDocument(ctx context.Context, canvasID, userID string) (*document.Canvas, error) {
	return s.load(ctx, canvasID, userID)
}

// PutDocument replaces the canvas body. An open editing room picks the new
// document up immediately and persists it with its next save; pending is
// then true and the returned Version and UpdatedAt are those of the last
// stored revision. Otherwise the document is saved here.
func (s *Service) PutDocument(ctx context.Context, canvasID, userID string, b Body) (doc *document.Canvas, pending bool, err error) {
	c, err := s.load(ctx, canvasID, userID)
	if err != nil {
		return nil, false, err
	}
	c.Viewport = b.Viewport
	c.Elements = b.Elements
	c.Normalize()

	if s.live != nil && s.live.Replace(canvasID, c) {
		return c, true, nil
	}
	if err := s.canvases.SaveDocument(ctx, c); err != nil {
		return nil, false, fmt.Errorf("save document: %w", err)
	}
	return c, false, nil
}

func (s *Service) load(ctx context.Context, canvasID, userID string) (*document.Canvas, error) {
	c, err := s.canvases.GetCanvas(ctx, canvasID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get canvas: %w", err)
	}
	if c.OwnerID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

func metaOf(c *document.Canvas) *store.CanvasMeta {
	return &store.CanvasMeta{
		ID:        c.ID,
		Name:      c.Name,
		OwnerID:   c.OwnerID,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
