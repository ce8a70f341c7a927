package api

import (
	"net/http"
	"strconv"

	"github.com/user/orc/internal/db"
)

const defaultActivityLimit = 50

// listActivity reports recent terminal bridge connections from the
// activity log, newest first.
func (h *handler) listActivity(w http.ResponseWriter, r *http.Request) {
	limit := defaultActivityLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	connections, err := h.activity.Recent(r.Context(), limit)
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if connections == nil {
		connections = []*db.Connection{}
	}
	jsonResponse(w, http.StatusOK, connections)
}
