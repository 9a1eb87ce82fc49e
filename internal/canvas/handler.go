package canvas

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/equipdraw/equipdraw/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Name     string `json:"name"`
	Template string `json:"template"`
}

// Routes mounts the canvas endpoints on an authenticated subrouter.
func (h *Handler) Routes(api *mux.Router) {
	api.HandleFunc("/canvases", h.List).Methods("GET")
	api.HandleFunc("/canvases", h.Create).Methods("POST")
	api.HandleFunc("/canvases/{canvasId}", h.Get).Methods("GET")
	api.HandleFunc("/canvases/{canvasId}", h.Delete).Methods("DELETE")
	api.HandleFunc("/canvases/{canvasId}/document", h.GetDocument).Methods("GET")
	api.HandleFunc("/canvases/{canvasId}/document", h.PutDocument).Methods("PUT")
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if req.Template != "" && req.Template != TemplateEmpty && req.Template != TemplateSample {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown template"})
		return
	}

	canvas, err := h.service.Create(r.Context(), req.Name, req.Template, userID)
	if err != nil {
		slog.Error("create canvas failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, canvas)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	canvasID := mux.Vars(r)["canvasId"]

	canvas, err := h.service.Get(r.Context(), canvasID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, canvas)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	canvases, err := h.service.List(r.Context(), userID)
	if err != nil {
		slog.Error("list canvases failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, canvases)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	canvasID := mux.Vars(r)["canvasId"]

	if err := h.service.Delete(r.Context(), canvasID, userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	canvasID := mux.Vars(r)["canvasId"]

	doc, err := h.service.GetDocument(r.Context(), canvasID, userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	canvasID := mux.Vars(r)["canvasId"]

	var body Body
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	doc, pending, err := h.service.PutDocument(r.Context(), canvasID, userID, body)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// An open room saves the document later: 202 with the stored version.
	if pending {
		writeJSON(w, http.StatusAccepted, doc)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
