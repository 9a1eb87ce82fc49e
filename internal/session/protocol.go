package session

import (
	"encoding/json"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/engine"
)

type Message struct {
	Type     string          `json:"type"`
	CanvasID string          `json:"canvasId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	// Connection
	TypeWelcome = "welcome"

	// Engine state after every command
	TypeState = "state"

	// Selection
	TypeSelect       = "select"
	TypeSelectAdd    = "select.add"
	TypeSelectToggle = "select.toggle"
	TypeSelectClear  = "select.clear"

	// Pointer gestures
	TypeRubberbandStart  = "rubberband.start"
	TypeRubberbandUpdate = "rubberband.update"
	TypeRubberbandFinish = "rubberband.finish"
	TypeResizeStart      = "resize.start"
	TypeResizeUpdate     = "resize.update"
	TypeResizeEnd        = "resize.end"
	TypeMoveStart        = "move.start"
	TypeMoveUpdate       = "move.update"
	TypeMoveEnd          = "move.end"
	TypePanStart         = "pan.start"
	TypePanUpdate        = "pan.update"
	TypePanEnd           = "pan.end"

	// Commands
	TypeToolSet        = "tool.set"
	TypeScrollSet      = "scroll.set"
	TypeElementAdd     = "element.add"
	TypeClipboardCopy  = "clipboard.copy"
	TypeClipboardPaste = "clipboard.paste"
	TypeDuplicate      = "duplicate"
	TypeDelete         = "delete"
	TypeLock           = "lock"
	TypeUnlock         = "unlock"
	TypeZOrder         = "zorder"
	TypeTextStart      = "text.start"
	TypeTextCommit     = "text.commit"
	TypeTextCancel     = "text.cancel"
)

// Z-order directions carried by TypeZOrder.
const (
	ZForward  = "forward"
	ZBackward = "backward"
	ZFront    = "front"
	ZBack     = "back"
)

// --- Presence ---

// PresencePayload is a client's cursor. Gesture names the pointer gesture
// the client is driving ("move", "resize", ...), filled in by the server.
type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Gesture     string     `json:"gesture,omitempty"`
	UserID      string     `json:"userId,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"` // clientID -> presence
}

type PresenceJoinPayload struct {
	ClientID    string `json:"clientId"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ClientID string `json:"clientId"`
	UserID   string `json:"userId"`
}

// --- Server -> client ---

type WelcomePayload struct {
	ClientID string       `json:"clientId"`
	UserID   string       `json:"userId"`
	CanvasID string       `json:"canvasId"`
	Name     string       `json:"name"`
	Version  int          `json:"version"`
	State    engine.State `json:"state"`
}

type StatePayload struct {
	engine.State
	// CreatedIDs lists elements made by the command (paste, duplicate, add).
	CreatedIDs []string `json:"createdIds,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// --- Client -> server ---

type IDPayload struct {
	ID string `json:"id"`
}

type PointPayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type ResizeStartPayload struct {
	Handle string  `json:"handle"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type ResizeUpdatePayload struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	KeepAspect bool    `json:"keepAspect"`
}

type PanStartPayload struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Zoom float64 `json:"zoom"`
}

type ToolPayload struct {
	Tool engine.Tool `json:"tool"`
}

type ElementPayload struct {
	Element document.Element `json:"element"`
}

type ZOrderPayload struct {
	Direction string `json:"direction"`
}

type TextPayload struct {
	Text string `json:"text"`
}
