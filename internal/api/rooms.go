package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/user/orc/internal/project"
	"github.com/user/orc/internal/room"
	"github.com/user/orc/internal/service"
)

type terminalSnapshot struct {
	Content string `json:"content"`
	Alive   bool   `json:"alive"`
}

type attachRequest struct {
	Role    string `json:"role"`
	Model   string `json:"model"`
	Message string `json:"message"`
}

type messageRequest struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

func (h *handler) resolveRoom(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	path, ok := h.resolveProject(w, r)
	if !ok {
		return nil, false
	}
	rm := project.New(path).Room(r.PathValue("room"))
	if !rm.Exists() {
		jsonError(w, http.StatusNotFound, "room not found")
		return nil, false
	}
	return rm, true
}

func (h *handler) getInbox(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}
	messages := rm.ReadInbox()
	if messages == nil {
		messages = []room.Message{}
	}
	jsonResponse(w, http.StatusOK, messages)
}

func (h *handler) getMolecules(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.resolveRoom(w, r)
	if !ok {
		return
	}
	molecules := rm.Molecules()
	if molecules == nil {
		molecules = []room.Molecule{}
	}
	jsonResponse(w, http.StatusOK, molecules)
}

// getTerminal returns a one-shot pane snapshot for the dashboard's
// initial render; frontends switch to /terminal/{project}/{room} for
// the live stream.
func (h *handler) getTerminal(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.resolveRoom(w, r); !ok {
		return
	}
	content, alive := h.svc.CaptureTerminal(r.PathValue("name"), r.PathValue("room"))
	jsonResponse(w, http.StatusOK, terminalSnapshot{Content: content, Alive: alive})
}

func (h *handler) attachRoom(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	// The attach body is optional; an empty POST uses the defaults.
	var req attachRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	err := h.svc.AttachRoom(path, r.PathValue("room"), service.AttachOptions{
		Role:    req.Role,
		Model:   req.Model,
		Message: req.Message,
	})
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, h.svc.Rooms(path))
}

func (h *handler) postMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		jsonError(w, http.StatusBadRequest, "message is required")
		return
	}
	from := req.From
	if from == "" {
		from = "dashboard"
	}
	if err := h.svc.SendInboxMessage(from, r.PathValue("name"), r.PathValue("room"), req.Message); err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	jsonResponse(w, http.StatusCreated, map[string]string{"status": "sent"})
}
