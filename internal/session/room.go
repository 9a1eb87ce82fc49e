package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/engine"
)

const saveTimeout = 10 * time.Second

// Room is one open canvas. All engine calls run on the room's goroutine,
// in the order they were queued.
type Room struct {
	canvasID string
	save     Saver
	logger   *slog.Logger

	cmu     sync.RWMutex
	clients map[string]*Client // clientID -> client

	qmu    sync.Mutex
	closed bool
	inbox  chan func()
	done   chan struct{}

	// Owned by the room goroutine
	canvas    *document.Canvas
	engine    *engine.Engine
	changed   bool
	dirty     bool
	gesture   gestureOwner
	presences map[string]*PresencePayload // clientID -> presence
}

// gestureOwner records which client started the running pointer gesture.
type gestureOwner struct {
	clientID string
	kind     string
}

func newRoom(c *document.Canvas, save Saver, logger *slog.Logger, opts []engine.Option) *Room {
	r := &Room{
		canvasID:  c.ID,
		save:      save,
		logger:    logger,
		clients:   make(map[string]*Client),
		inbox:     make(chan func(), 256),
		done:      make(chan struct{}),
		canvas:    c,
		presences: make(map[string]*PresencePayload),
	}
	opts = append(slices.Clone(opts), engine.WithListener(func(engine.State) { r.changed = true }))
	r.engine = engine.NewEngine(opts...)
	r.engine.Load(c.Elements)
	r.engine.SetScrollOffset(c.Viewport.Scroll)

	go r.run()
	return r
}

func (r *Room) run() {
	defer close(r.done)
	for fn := range r.inbox {
		fn()
	}
}

// do queues fn on the room goroutine. It reports false once the room closed.
func (r *Room) do(fn func()) bool {
	r.qmu.Lock()
	defer r.qmu.Unlock()
	if r.closed {
		return false
	}
	r.inbox <- fn
	return true
}

// doWait runs fn on the room goroutine and waits for it.
func (r *Room) doWait(fn func()) bool {
	finished := make(chan struct{})
	if !r.do(func() { fn(); close(finished) }) {
		return false
	}
	<-finished
	return true
}

// close saves a dirty document and stops the goroutine. The final save is
// the last queued call: nothing can be queued behind it.
func (r *Room) close() {
	r.qmu.Lock()
	if !r.closed {
		r.inbox <- r.saveIfDirty
		r.closed = true
		close(r.inbox)
	}
	r.qmu.Unlock()
	<-r.done
}

func (r *Room) addClient(c *Client) {
	r.cmu.Lock()
	r.clients[c.ClientID] = c
	r.cmu.Unlock()
}

// removeClient reports whether the room is now empty.
func (r *Room) removeClient(c *Client) bool {
	r.cmu.Lock()
	defer r.cmu.Unlock()
	delete(r.clients, c.ClientID)
	return len(r.clients) == 0
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	r.cmu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	r.cmu.RUnlock()

	for _, c := range clients {
		c.Send(msg)
	}
}

// --- room goroutine only ---

// join greets c with the document and the room's presence, then announces
// it to everyone else.
func (r *Room) join(c *Client) {
	r.welcome(c)
	r.sendPresence(c)

	payload, _ := json.Marshal(PresenceJoinPayload{
		ClientID:    c.ClientID,
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
	})
	r.broadcast(&Message{
		Type:     TypePresenceJoin,
		ClientID: c.ClientID,
		UserID:   c.UserID,
		Payload:  payload,
	}, c.ClientID)
}

// leave ends c's gesture, forgets its cursor and tells the remaining clients.
func (r *Room) leave(c *Client) {
	r.release(c.ClientID)
	delete(r.presences, c.ClientID)

	payload, _ := json.Marshal(PresenceLeavePayload{ClientID: c.ClientID, UserID: c.UserID})
	r.broadcast(&Message{
		Type:     TypePresenceLeave,
		ClientID: c.ClientID,
		UserID:   c.UserID,
		Payload:  payload,
	}, c.ClientID)
}

// updatePresence records the sender's cursor, stamps it with the sender's
// identity and the gesture it currently drives, and relays it.
func (r *Room) updatePresence(sender *Client, msg *Message) {
	var p PresencePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		r.logger.Warn("invalid presence payload", "error", err, "client", sender.ClientID)
		return
	}
	p.UserID = sender.UserID
	p.DisplayName = sender.DisplayName
	p.Gesture = ""
	if r.gesture.clientID == sender.ClientID {
		p.Gesture = r.gesture.kind
	}
	r.presences[sender.ClientID] = &p

	payload, _ := json.Marshal(p)
	r.broadcast(&Message{
		Type:     TypePresenceUpdate,
		ClientID: sender.ClientID,
		UserID:   sender.UserID,
		Payload:  payload,
	}, sender.ClientID)
}

func (r *Room) sendPresence(c *Client) {
	payload, err := json.Marshal(PresenceStatePayload{Presences: r.presences})
	if err != nil {
		r.logger.Error("marshal presence state", "error", err)
		return
	}
	c.Send(&Message{Type: TypePresenceState, CanvasID: r.canvasID, Payload: payload})
}

func (r *Room) welcome(c *Client) {
	payload, err := json.Marshal(WelcomePayload{
		ClientID: c.ClientID,
		UserID:   c.UserID,
		CanvasID: r.canvasID,
		Name:     r.canvas.Name,
		Version:  r.canvas.Version,
		State:    r.engine.State(),
	})
	if err != nil {
		r.logger.Error("marshal welcome", "error", err)
		return
	}
	c.Send(&Message{Type: TypeWelcome, CanvasID: r.canvasID, ClientID: c.ClientID, Payload: payload})
}

// handle applies one client command and broadcasts the resulting state.
func (r *Room) handle(sender *Client, msg *Message) {
	before, scroll := r.engine.Elements(), r.engine.ScrollOffset()
	r.changed = false

	created, err := r.apply(sender, msg)
	if err != nil {
		sendError(sender, msg.Seq, err.Error())
		return
	}
	if !r.changed {
		return
	}
	if scroll != r.engine.ScrollOffset() || !sameDocument(before, r.engine.Elements()) {
		r.dirty = true
	}
	r.broadcastState(sender.ClientID, msg.Seq, created)
}

func (r *Room) broadcastState(clientID string, seq int64, created []string) {
	payload, err := json.Marshal(StatePayload{State: r.engine.State(), CreatedIDs: created})
	if err != nil {
		r.logger.Error("marshal state", "error", err)
		return
	}
	r.broadcast(&Message{
		Type:     TypeState,
		CanvasID: r.canvasID,
		ClientID: clientID,
		Seq:      seq,
		Payload:  payload,
	}, "")
}

// replace swaps in a document that arrived from outside the live session.
func (r *Room) replace(c *document.Canvas) {
	r.gesture = gestureOwner{}
	r.canvas.Viewport = c.Viewport
	r.engine.Load(c.Elements)
	r.engine.SetScrollOffset(c.Viewport.Scroll)
	r.dirty = true
	r.broadcastState("", 0, nil)
}

// release ends a gesture left running by a departing client.
func (r *Room) release(clientID string) {
	if r.gesture.clientID != clientID {
		return
	}
	switch r.gesture.kind {
	case gestureResize:
		r.engine.EndResize()
	case gestureMove:
		r.engine.EndMove()
	case gesturePan:
		r.engine.EndPan()
	case gestureRubberband:
		r.engine.FinishRubberbandSelection()
	}
	r.gesture = gestureOwner{}
	r.broadcastState("", 0, nil)
}

func (r *Room) snapshot() *document.Canvas {
	c := *r.canvas
	c.Elements = r.engine.Elements()
	c.Viewport.Scroll = r.engine.ScrollOffset()
	return &c
}

func (r *Room) saveIfDirty() {
	if !r.dirty || r.save == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	c := r.snapshot()
	if err := r.save(ctx, c); err != nil {
		r.logger.Error("save canvas failed", "canvas", r.canvasID, "error", err)
		return
	}
	r.canvas.Version = c.Version
	r.canvas.UpdatedAt = c.UpdatedAt
	r.dirty = false
	r.logger.Debug("canvas saved", "canvas", r.canvasID, "version", c.Version)
}

// sameDocument compares element lists ignoring selection flags.
func sameDocument(a, b []document.Element) bool {
	return slices.EqualFunc(a, b, func(x, y document.Element) bool {
		x.Selected, y.Selected = false, false
		return x == y
	})
}

func sendError(c *Client, seq int64, message string) {
	payload, _ := json.Marshal(ErrorPayload{Message: message})
	c.Send(&Message{Type: TypeError, ClientID: c.ClientID, Seq: seq, Payload: payload})
}
