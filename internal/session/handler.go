package session

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/equipdraw/equipdraw/internal/auth"
	"github.com/equipdraw/equipdraw/internal/canvas"
)

type Handler struct {
	hub            *Hub
	auth           *auth.Service
	canvases       *canvas.Service
	originPatterns []string
}

func NewHandler(hub *Hub, authSvc *auth.Service, canvases *canvas.Service, originPatterns []string) *Handler {
	return &Handler{hub: hub, auth: authSvc, canvases: canvases, originPatterns: originPatterns}
}

// ServeWS upgrades /ws/canvas/{canvasId}. The playground canvas is open to
// anonymous clients; any other canvas needs its owner's token, sent as
// ?token= or an Authorization header.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	canvasID := mux.Vars(r)["canvasId"]

	var userID string
	var displayName string

	if canvasID == PlaygroundCanvasID {
		userID = "anon-" + uuid.New().String()[:8]
		displayName = "Anonymous"
	} else {
		user, err := h.auth.Authenticate(r)
		if err != nil {
			if auth.Unauthenticated(err) {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}
			slog.Error("authenticate websocket", "error", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		userID = user.ID

		if _, err := h.canvases.Get(r.Context(), canvasID, userID); err != nil {
			switch {
			case errors.Is(err, canvas.ErrNotFound):
				http.Error(w, "canvas not found", http.StatusNotFound)
			case errors.Is(err, canvas.ErrForbidden):
				http.Error(w, "not the canvas owner", http.StatusForbidden)
			default:
				slog.Error("check canvas access", "error", err)
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		displayName = user.DisplayName
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	clientID := uuid.New().String()
	client := NewClient(h.hub, conn, userID, displayName, canvasID, clientID)

	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}
