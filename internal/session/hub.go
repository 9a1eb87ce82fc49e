package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/equipdraw/equipdraw/internal/document"
	"github.com/equipdraw/equipdraw/internal/engine"
	"github.com/equipdraw/equipdraw/internal/store"
)

// PlaygroundCanvasID is open to anonymous clients and created on first use.
const PlaygroundCanvasID = "cnv_playground"

// DefaultAutosaveSpec is the cron spec dirty rooms are saved on.
const DefaultAutosaveSpec = "@every 30s"

// Loader fetches a canvas when its room opens.
type Loader func(ctx context.Context, canvasID string) (*document.Canvas, error)

// Saver persists a room's document and updates c.Version.
type Saver func(ctx context.Context, c *document.Canvas) error

type Hub struct {
	mu    sync.RWMutex
	rooms map[string]*Room // canvasID -> room

	register   chan *Client
	unregister chan *Client
	stop       chan struct{}
	stopped    chan struct{}
	stopOnce   sync.Once

	load       Loader
	save       Saver
	engineOpts []engine.Option
	logger     *slog.Logger
	cron       *cron.Cron
}

type Option func(*Hub)

// WithEngineOptions passes options to the engine of every room.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(h *Hub) { h.engineOpts = append(h.engineOpts, opts...) }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

func NewHub(load Loader, save Saver, opts ...Option) *Hub {
	h := &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
		load:       load,
		save:       save,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.engineOpts = append(h.engineOpts, engine.WithLogger(h.logger))
	return h
}

// StoreLoader loads canvases from cs. The playground canvas is seeded with
// the sample diagram the first time it is opened.
func StoreLoader(cs store.CanvasStore) Loader {
	return func(ctx context.Context, canvasID string) (*document.Canvas, error) {
		c, err := cs.GetCanvas(ctx, canvasID)
		if err == nil || canvasID != PlaygroundCanvasID || !errors.Is(err, store.ErrNotFound) {
			return c, err
		}

		c = document.NewSampleCanvas(PlaygroundCanvasID)
		c.Name, c.OwnerID = "Playground", "anonymous"
		if err := cs.CreateCanvas(ctx, c); err != nil && !errors.Is(err, store.ErrDuplicate) {
			return nil, fmt.Errorf("seed playground: %w", err)
		}
		return cs.GetCanvas(ctx, canvasID)
	}
}

// StoreSaver saves documents to cs.
func StoreSaver(cs store.CanvasStore) Saver {
	return cs.SaveDocument
}

func (h *Hub) Run() {
	defer close(h.stopped)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.stop:
			h.closeAll()
			return
		}
	}
}

// Stop halts autosave, saves every dirty room and stops Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		if h.cron != nil {
			<-h.cron.Stop().Done()
		}
		close(h.stop)
	})
	<-h.stopped
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.stopped:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.stopped:
	}
}

func (h *Hub) room(canvasID string) (*Room, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[canvasID]
	return room, ok
}

func (h *Hub) addClient(client *Client) {
	room, ok := h.room(client.CanvasID)
	if !ok {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		c, err := h.load(ctx, client.CanvasID)
		cancel()
		if err != nil {
			h.logger.Error("load canvas failed", "canvas", client.CanvasID, "error", err)
			sendError(client, 0, "canvas unavailable")
			client.close()
			return
		}
		c.Normalize()

		room = newRoom(c, h.save, h.logger, h.engineOpts)
		h.mu.Lock()
		h.rooms[client.CanvasID] = room
		h.mu.Unlock()
	}
	room.addClient(client)
	room.do(func() { room.join(client) })

	h.logger.Info("client joined", "user", client.UserID, "canvas", client.CanvasID)
}

func (h *Hub) removeClient(client *Client) {
	room, ok := h.room(client.CanvasID)
	if !ok {
		return
	}

	empty := room.removeClient(client)
	client.close()
	room.do(func() { room.leave(client) })

	if empty {
		// Close before unpublishing: a concurrent Replace either lands ahead
		// of the final save or sees the room closed.
		room.close()
		h.mu.Lock()
		delete(h.rooms, client.CanvasID)
		h.mu.Unlock()
		h.logger.Info("room closed", "canvas", client.CanvasID)
	}

	h.logger.Info("client left", "user", client.UserID, "canvas", client.CanvasID)
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, room := range h.rooms {
		rooms = append(rooms, room)
	}
	h.mu.RUnlock()

	for _, room := range rooms {
		room.close()
		room.cmu.RLock()
		for _, c := range room.clients {
			c.close()
		}
		room.cmu.RUnlock()
	}

	h.mu.Lock()
	clear(h.rooms)
	h.mu.Unlock()
}

// HandleMessage queues a client message on its room's goroutine.
func (h *Hub) HandleMessage(sender *Client, msg *Message) {
	room, ok := h.room(sender.CanvasID)
	if !ok {
		return
	}

	if msg.Type == TypePresenceUpdate {
		room.do(func() { room.updatePresence(sender, msg) })
		return
	}
	room.do(func() { room.handle(sender, msg) })
}

// Replace hands a document to the open room for canvasID, which saves it
// with its next save. It reports false when no room is open; a closing room
// has finished its final save by then, so the caller may write directly.
func (h *Hub) Replace(canvasID string, c *document.Canvas) bool {
	room, ok := h.room(canvasID)
	if !ok {
		return false
	}
	if room.do(func() { room.replace(c) }) {
		return true
	}
	<-room.done
	return false
}

// Inspect runs fn against the open room's engine on the room goroutine and
// waits for it. It reports false when no room is open.
func (h *Hub) Inspect(canvasID string, fn func(*engine.Engine)) bool {
	room, ok := h.room(canvasID)
	if !ok {
		return false
	}
	return room.doWait(func() { fn(room.engine) })
}

// RoomCount is the number of open rooms.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}
