package api

import (
	"net/http"
	"sort"
)

type projectSummary struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

func (h *handler) listProjects(w http.ResponseWriter, r *http.Request) {
	known := h.svc.DiscoverProjects()
	summaries := make([]projectSummary, 0, len(known))
	for name, path := range known {
		summaries = append(summaries, projectSummary{Name: name, Path: path})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	jsonResponse(w, http.StatusOK, summaries)
}

func (h *handler) listRooms(w http.ResponseWriter, r *http.Request) {
	path, ok := h.resolveProject(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, h.svc.Rooms(path))
}
