package engine

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/geometry"
	"github.com/equipdraw/equipdraw/internal/typeid"
)

// DefaultPasteOffset is how far pasted and duplicated elements land from
// their source, in canvas units.
const DefaultPasteOffset = 10.0

// Engine is the diagram editing engine. It owns the canvas element
// collection, the selection set and the state of the active gesture, and
// turns pointer and command input into new geometry and selection state.
//
// Engine is not safe for concurrent use: every call is expected to come from
// the host's single event-dispatch goroutine.
type Engine struct {
	// Canvas state
	elements []*document.Element

	// Selection in the order elements joined it; the last one is primary.
	selection []*document.Element

	mode EditMode
	tool Tool

	// Active gestures (at most one pointer gesture at a time)
	resize *resizeGesture
	move   *moveGesture
	pan    *PanContext
	rubber *rubberband

	text *textSession

	clipboard       []clipEntry
	clipboardAnchor geometry.Point

	scroll geometry.Point

	// Derived, recomputed after every mutation
	groupBounds    geometry.Rect
	hasGroupBounds bool

	pasteOffset geometry.Point
	newID       func() string
	listener    func(State)
	logger      *slog.Logger
}

type Option func(*Engine)

// WithPasteOffset overrides the paste/duplicate offset.
func WithPasteOffset(dx, dy float64) Option {
	return func(e *Engine) { e.pasteOffset = geometry.Pt(dx, dy) }
}

// WithIDGenerator overrides how ids for new elements are minted.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithListener registers fn to be called synchronously with the new state
// after every mutating call.
func WithListener(fn func(State)) Option {
	return func(e *Engine) { e.listener = fn }
}

// NewEngine creates an engine with an empty canvas.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		mode:        ModeNone,
		tool:        ToolSelect,
		pasteOffset: geometry.Pt(DefaultPasteOffset, DefaultPasteOffset),
		newID:       typeid.NewElementID,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Commands (host → engine) ---

// Load replaces the element collection and resets selection, gestures and
// text editing. The clipboard survives so content can move between canvases.
func (e *Engine) Load(elements []document.Element) {
	e.elements = make([]*document.Element, 0, len(elements))
	for _, el := range elements {
		el.Selected = false
		el.SetBounds(el.Bounds())
		e.elements = append(e.elements, &el)
	}

	e.selection = nil
	e.resize = nil
	e.move = nil
	e.pan = nil
	e.rubber = nil
	e.text = nil
	e.mode = ModeNone

	e.commit()
}

// SetTool switches the active tool. Leaving the pan tool ends a pan gesture.
func (e *Engine) SetTool(t Tool) {
	if e.tool == t {
		return
	}
	e.tool = t
	if t != ToolPan {
		e.pan = nil
	}
	e.commit()
}

// SetScrollOffset syncs the scroll offset from the host (e.g. scrollbars).
func (e *Engine) SetScrollOffset(p geometry.Point) {
	e.scroll = geometry.Pt(max(p.X, 0), max(p.Y, 0))
	e.commit()
}

// AddElement places a new element on top of the stacking order and returns
// its id. A missing id is generated.
func (e *Engine) AddElement(el document.Element) string {
	if el.ID == "" {
		el.ID = e.newID()
	}
	el.Selected = false
	el.SetBounds(el.Bounds())
	el.ZIndex = e.nextZ()

	e.elements = append(e.elements, &el)
	e.commit()
	return el.ID
}

// RemoveElement deletes an element regardless of its lock state.
func (e *Engine) RemoveElement(id string) bool {
	el := e.find(id)
	if el == nil {
		return false
	}
	e.removeElement(el)
	e.commit()
	return true
}

// --- Queries (engine → host) ---

func (e *Engine) Mode() EditMode { return e.mode }

func (e *Engine) Tool() Tool { return e.tool }

func (e *Engine) ScrollOffset() geometry.Point { return e.scroll }

// Elements returns copies of every element in collection order.
func (e *Engine) Elements() []document.Element {
	out := make([]document.Element, len(e.elements))
	for i, el := range e.elements {
		out[i] = *el
	}
	return out
}

// Element returns a copy of the element with the given id.
func (e *Engine) Element(id string) (document.Element, bool) {
	el := e.find(id)
	if el == nil {
		return document.Element{}, false
	}
	return *el, true
}

// GroupBounds returns the union of the selected elements' bounds. ok is
// false when nothing is selected.
func (e *Engine) GroupBounds() (bounds geometry.Rect, ok bool) {
	return e.groupBounds, e.hasGroupBounds
}

// State is an immutable snapshot of everything the host redraws from.
type State struct {
	Mode              EditMode           `json:"mode"`
	Tool              Tool               `json:"tool"`
	Elements          []document.Element `json:"elements"`
	SelectedIDs       []string           `json:"selectedIds"`
	GroupBounds       *geometry.Rect     `json:"groupBounds,omitempty"`
	MultiSelection    bool               `json:"multiSelection"`
	AllSelectedLocked bool               `json:"allSelectedLocked"`
	Scroll            geometry.Point     `json:"scroll"`
	Rubberband        *geometry.Rect     `json:"rubberband,omitempty"`
	TextEditingID     string             `json:"textEditingId,omitempty"`
}

func (e *Engine) State() State {
	s := State{
		Mode:              e.mode,
		Tool:              e.tool,
		Elements:          e.Elements(),
		SelectedIDs:       e.selectedIDs(),
		MultiSelection:    e.IsMultiSelectionMode(),
		AllSelectedLocked: e.IsAllSelectedLocked(),
		Scroll:            e.scroll,
	}
	if e.hasGroupBounds {
		gb := e.groupBounds
		s.GroupBounds = &gb
	}
	if r, ok := e.RubberbandRect(); ok {
		s.Rubberband = &r
	}
	if e.text != nil {
		s.TextEditingID = e.text.el.ID
	}
	return s
}

// --- internals ---

// commit recomputes derived state and notifies the listener. Every public
// mutating method ends with it.
func (e *Engine) commit() {
	e.groupBounds, e.hasGroupBounds = geometry.UnionAll(boundsOf(e.selection))

	switch {
	case e.text != nil:
		e.mode = ModeTextEditing
	case e.resize != nil:
		e.mode = ModeResizing
	case e.move != nil:
		e.mode = ModeMoving
	case e.pan != nil:
		e.mode = ModePanning
	default:
		e.mode = modeForCount(len(e.selection))
	}

	if e.listener != nil {
		e.listener(e.State())
	}
}

// violation reports a call made without its precondition (e.g. UpdateResize
// with no StartResize). Release builds ignore the call.
func (e *Engine) violation(op, reason string) {
	if debugAssertions {
		panic(fmt.Sprintf("engine: %s: %s", op, reason))
	}
	e.logger.Debug("ignored engine call", "op", op, "reason", reason)
}

// gestureActive reports whether a pointer gesture that holds element
// snapshots or owns the viewport is running.
func (e *Engine) gestureActive() bool {
	return e.resize != nil || e.move != nil || e.pan != nil
}

// pointerBusy reports whether any pointer gesture, rubberband included, is running.
func (e *Engine) pointerBusy() bool {
	return e.gestureActive() || e.rubber != nil
}

func (e *Engine) find(id string) *document.Element {
	if id == "" {
		return nil
	}
	for _, el := range e.elements {
		if el.ID == id {
			return el
		}
	}
	return nil
}

func (e *Engine) removeElement(el *document.Element) {
	e.elements = slices.DeleteFunc(e.elements, func(x *document.Element) bool { return x == el })
	if el.Selected {
		e.removeSelected(el)
	}
	if e.text != nil && e.text.el == el {
		e.text = nil
	}
}

// sortedByZ returns the elements bottom to top. Equal ZIndex values keep
// collection order so the ordering is total.
func (e *Engine) sortedByZ() []*document.Element {
	out := slices.Clone(e.elements)
	slices.SortStableFunc(out, func(a, b *document.Element) int {
		return cmp.Compare(a.ZIndex, b.ZIndex)
	})
	return out
}

func (e *Engine) nextZ() int {
	if len(e.elements) == 0 {
		return 0
	}
	top := e.elements[0].ZIndex
	for _, el := range e.elements[1:] {
		top = max(top, el.ZIndex)
	}
	return top + 1
}

func boundsOf(els []*document.Element) []geometry.Rect {
	rects := make([]geometry.Rect, len(els))
	for i, el := range els {
		rects[i] = el.Bounds()
	}
	return rects
}
