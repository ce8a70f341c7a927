// Package api serves the dashboard's REST surface: project and room
// summaries, inbox and molecule listings, terminal snapshots and the
// attach/message actions. The live terminal stream is the bridge's
// job, not this package's.
package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/user/orc/internal/db"
	"github.com/user/orc/internal/service"
)

type handler struct {
	svc      *service.Service
	activity *db.ActivityRepo
}

func NewRouter(svc *service.Service, activity *db.ActivityRepo) http.Handler {
	h := &handler{svc: svc, activity: activity}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/projects", h.listProjects)
	mux.HandleFunc("GET /api/projects/{name}/rooms", h.listRooms)
	mux.HandleFunc("GET /api/projects/{name}/rooms/{room}/inbox", h.getInbox)
	mux.HandleFunc("GET /api/projects/{name}/rooms/{room}/molecules", h.getMolecules)
	mux.HandleFunc("GET /api/projects/{name}/rooms/{room}/terminal", h.getTerminal)
	mux.HandleFunc("POST /api/projects/{name}/rooms/{room}/attach", h.attachRoom)
	mux.HandleFunc("POST /api/projects/{name}/rooms/{room}/messages", h.postMessage)
	mux.HandleFunc("GET /api/activity", h.listActivity)

	return jsonMiddleware(corsMiddleware(mux))
}

func jsonMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return io.ErrUnexpectedEOF
	}
	return nil
}

// resolveProject maps a registered project name to its repo path.
func (h *handler) resolveProject(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := r.PathValue("name")
	path, ok := h.svc.DiscoverProjects()[name]
	if !ok {
		jsonError(w, http.StatusNotFound, "project not found")
		return "", false
	}
	return path, true
}
