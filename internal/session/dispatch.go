package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/equipdraw/equipdraw/internal/engine"
	"github.com/equipdraw/equipdraw/internal/geometry"
)

const (
	gestureResize     = "resize"
	gestureMove       = "move"
	gesturePan        = "pan"
	gestureRubberband = "rubberband"
)

var (
	ErrGestureRefused  = errors.New("gesture refused")
	ErrGestureNotOwned = errors.New("no gesture of this kind owned by client")
	ErrTextRefused     = errors.New("text editing refused")
)

// apply maps one command onto the engine. It returns the ids of elements the
// command created.
func (r *Room) apply(sender *Client, msg *Message) ([]string, error) {
	e := r.engine

	switch msg.Type {
	// Selection
	case TypeSelect, TypeSelectAdd, TypeSelectToggle:
		var p IDPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		switch msg.Type {
		case TypeSelect:
			e.SelectElement(p.ID)
		case TypeSelectAdd:
			e.AddToSelection(p.ID)
		default:
			e.ToggleSelection(p.ID)
		}
	case TypeSelectClear:
		e.ClearAllSelections()

	// Rubberband
	case TypeRubberbandStart:
		var p PointPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if !e.StartRubberbandSelection(geometry.Pt(p.X, p.Y)) {
			return nil, ErrGestureRefused
		}
		r.own(sender, gestureRubberband)
	case TypeRubberbandUpdate:
		var p PointPayload
		if err := r.continueGesture(sender, msg, gestureRubberband, &p); err != nil {
			return nil, err
		}
		e.UpdateRubberbandSelection(geometry.Pt(p.X, p.Y))
	case TypeRubberbandFinish:
		if err := r.continueGesture(sender, msg, gestureRubberband, nil); err != nil {
			return nil, err
		}
		e.FinishRubberbandSelection()
		r.gesture = gestureOwner{}

	// Resize
	case TypeResizeStart:
		var p ResizeStartPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		h, err := engine.ParseHandle(p.Handle)
		if err != nil {
			return nil, err
		}
		if !e.StartResize(h, geometry.Pt(p.X, p.Y)) {
			return nil, ErrGestureRefused
		}
		r.own(sender, gestureResize)
	case TypeResizeUpdate:
		var p ResizeUpdatePayload
		if err := r.continueGesture(sender, msg, gestureResize, &p); err != nil {
			return nil, err
		}
		e.UpdateResize(geometry.Pt(p.X, p.Y), p.KeepAspect)
	case TypeResizeEnd:
		if err := r.continueGesture(sender, msg, gestureResize, nil); err != nil {
			return nil, err
		}
		e.EndResize()
		r.gesture = gestureOwner{}

	// Move
	case TypeMoveStart:
		var p PointPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if !e.StartMove(geometry.Pt(p.X, p.Y)) {
			return nil, ErrGestureRefused
		}
		r.own(sender, gestureMove)
	case TypeMoveUpdate:
		var p PointPayload
		if err := r.continueGesture(sender, msg, gestureMove, &p); err != nil {
			return nil, err
		}
		e.UpdateMove(geometry.Pt(p.X, p.Y))
	case TypeMoveEnd:
		if err := r.continueGesture(sender, msg, gestureMove, nil); err != nil {
			return nil, err
		}
		e.EndMove()
		r.gesture = gestureOwner{}

	// Pan
	case TypePanStart:
		var p PanStartPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if !e.StartPan(geometry.Pt(p.X, p.Y), p.Zoom) {
			return nil, ErrGestureRefused
		}
		r.own(sender, gesturePan)
	case TypePanUpdate:
		var p PointPayload
		if err := r.continueGesture(sender, msg, gesturePan, &p); err != nil {
			return nil, err
		}
		e.UpdatePan(geometry.Pt(p.X, p.Y))
	case TypePanEnd:
		if err := r.continueGesture(sender, msg, gesturePan, nil); err != nil {
			return nil, err
		}
		e.EndPan()
		r.gesture = gestureOwner{}

	// Commands
	case TypeToolSet:
		var p ToolPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		switch p.Tool {
		case engine.ToolSelect, engine.ToolPan, engine.ToolShape, engine.ToolText:
		default:
			return nil, fmt.Errorf("unknown tool %q", p.Tool)
		}
		e.SetTool(p.Tool)
		if r.gesture.kind == gesturePan && e.Mode() != engine.ModePanning {
			r.gesture = gestureOwner{}
		}
	case TypeScrollSet:
		var p PointPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		e.SetScrollOffset(geometry.Pt(p.X, p.Y))
	case TypeElementAdd:
		var p ElementPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if p.Element.ShapeType == "" {
			return nil, errors.New("element shapeType is required")
		}
		p.Element.ID = ""
		return []string{e.AddElement(p.Element)}, nil
	case TypeClipboardCopy:
		e.CopyToClipboard()
	case TypeClipboardPaste:
		return e.PasteFromClipboard(), nil
	case TypeDuplicate:
		return e.Duplicate(), nil
	case TypeDelete:
		e.DeleteSelected()
	case TypeLock:
		e.LockSelectedElements()
	case TypeUnlock:
		e.UnlockSelectedElements()
	case TypeZOrder:
		var p ZOrderPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		switch p.Direction {
		case ZForward:
			e.BringForward()
		case ZBackward:
			e.SendBackward()
		case ZFront:
			e.BringToFront()
		case ZBack:
			e.SendToBack()
		default:
			return nil, fmt.Errorf("unknown z-order direction %q", p.Direction)
		}

	// Text
	case TypeTextStart:
		var p IDPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if !e.TryStartTextEditing(p.ID) {
			return nil, ErrTextRefused
		}
	case TypeTextCommit:
		var p TextPayload
		if err := decode(msg, &p); err != nil {
			return nil, err
		}
		if _, ok := e.TextEditingElement(); !ok {
			return nil, errors.New("no text edit in progress")
		}
		e.CommitTextEditing(p.Text)
	case TypeTextCancel:
		if _, ok := e.TextEditingElement(); !ok {
			return nil, errors.New("no text edit in progress")
		}
		e.CancelTextEditing()

	default:
		return nil, fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil, nil
}

func (r *Room) own(sender *Client, kind string) {
	r.gesture = gestureOwner{clientID: sender.ClientID, kind: kind}
}

// continueGesture checks that sender owns a running gesture of kind and
// decodes the payload into p when p is non-nil.
func (r *Room) continueGesture(sender *Client, msg *Message, kind string, p any) error {
	if r.gesture.kind != kind || r.gesture.clientID != sender.ClientID {
		return ErrGestureNotOwned
	}
	if p == nil {
		return nil
	}
	return decode(msg, p)
}

func decode(msg *Message, v any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s: missing payload", msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%s: invalid payload: %w", msg.Type, err)
	}
	return nil
}
