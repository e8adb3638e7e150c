package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/jobrunner/geocat/internal/application"
	"github.com/jobrunner/geocat/internal/domain"
	"github.com/jobrunner/geocat/internal/scope"
)

// handleHealth returns detailed health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	details := s.health.GetHealthDetails(r.Context())

	status := http.StatusOK
	if !details.Healthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, map[string]interface{}{
		"status":     boolToStatus(details.Healthy),
		"ready":      details.Ready,
		"objects":    details.Objects,
		"unresolved": details.Unresolved,
		"components": details.Components,
	})
}

// handleLiveness returns liveness status.
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsHealthy(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
	}
}

// handleReadiness returns readiness status.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if s.health.IsReady(r.Context()) {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	} else {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
	}
}

type unresolvedLister interface {
	GetUnresolved(ctx context.Context) []application.UnresolvedEntity
}

// handleUnresolved lists entities with pending references.
func (s *Server) handleUnresolved(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.health.(unresolvedLister)
	if !ok {
		s.writeError(w, http.StatusNotFound, "unresolved references are not tracked")
		return
	}
	found := lister.GetUnresolved(r.Context())
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entities": found,
		"count":    len(found),
	})
}

// handleList lists one entity collection.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	kind := collections[mux.Vars(r)["collection"]]

	q, err := s.parseListQuery(r)
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}

	found, err := s.catalog.List(r.Context(), kind, q)
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind":   kind.String(),
		"items":  views(found),
		"count":  len(found),
		"total":  s.catalog.Count(r.Context(), kind, q.Filter),
		"offset": q.Offset,
	})
}

// parseListQuery reads offset, limit, sort, q and workspace from the request.
func (s *Server) parseListQuery(r *http.Request) (domain.Query, error) {
	var q domain.Query
	params := r.URL.Query()

	if v := params.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("%w: offset must be a non-negative integer", domain.ErrInvalidInput)
		}
		q.Offset = n
	}
	if v := params.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput)
		}
		q.Limit = n
	}
	for _, v := range params["sort"] {
		for _, term := range strings.Split(v, ",") {
			if term == "" {
				continue
			}
			prop, dir, _ := strings.Cut(term, ":")
			switch strings.ToLower(dir) {
			case "", "asc":
				q.SortBy = append(q.SortBy, domain.SortBy{Property: prop})
			case "desc":
				q.SortBy = append(q.SortBy, domain.SortBy{Property: prop, Descending: true})
			default:
				return q, fmt.Errorf("%w: sort direction %q", domain.ErrInvalidInput, dir)
			}
		}
	}

	var filters []domain.Filter
	if sub := params.Get("q"); sub != "" {
		filters = append(filters, domain.NameContains(sub))
	}
	if name := params.Get("workspace"); name != "" {
		ws, err := s.catalog.GetByName(r.Context(), domain.KindWorkspace, name)
		if err != nil {
			return q, err
		}
		filters = append(filters, domain.InWorkspace(ws.ID()))
	}
	q.Filter = domain.And(filters...)
	return q, nil
}

// handleGet returns one entity by name. Workspace and namespace scoped
// entities are addressed as "prefix:name".
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	kind := collections[vars["collection"]]

	h, err := s.catalog.GetByName(r.Context(), kind, vars["name"])
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, view(h.Unwrap()))
}

// addWorkspaceRequest is the body of POST /api/v1/workspaces.
type addWorkspaceRequest struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	Isolated bool   `json:"isolated"`
}

// handleAddWorkspace adds a workspace with its namespace.
func (s *Server) handleAddWorkspace(w http.ResponseWriter, r *http.Request) {
	var req addWorkspaceRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	h, err := s.catalog.AddWorkspace(r.Context(), req.Name, req.URI, req.Isolated)
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/workspaces/"+req.Name)
	s.writeJSON(w, http.StatusCreated, view(h.Unwrap()))
}

// handleRemoveWorkspace removes an empty workspace and its namespace.
func (s *Server) handleRemoveWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.catalog.RemoveWorkspace(r.Context(), mux.Vars(r)["name"]); err != nil {
		s.handleCatalogError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCapabilities lists the enabled, advertised layers and layer groups
// the way a capabilities document would. Under /{workspace}/ows the listing
// is restricted to that workspace. Layers named in the layers parameter are
// listed even when they are not advertised.
func (s *Server) handleCapabilities(w http.ResponseWriter, r *http.Request) {
	local := mux.Vars(r)["workspace"]

	var inWorkspace domain.Filter
	if local != "" {
		ws, err := s.catalog.GetByName(r.Context(), domain.KindWorkspace, local)
		if err != nil {
			s.handleCatalogError(w, err)
			return
		}
		inWorkspace = domain.InWorkspace(ws.ID())
	}

	req := &scope.Request{LocalWorkspace: local, Capabilities: true}
	if names := r.URL.Query().Get("layers"); names != "" {
		req.Names = strings.Split(names, ",")
	}
	ctx := scope.WithRequest(r.Context(), req)

	order := []domain.SortBy{{Property: "id"}}
	layers, err := s.catalog.List(ctx, domain.KindLayer, domain.Query{Filter: inWorkspace, SortBy: order})
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}
	groups, err := s.catalog.List(ctx, domain.KindLayerGroup, domain.Query{Filter: inWorkspace, SortBy: order})
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}

	layerViews := make([]map[string]interface{}, 0, len(layers))
	for _, h := range layers {
		if l, ok := h.Unwrap().(*domain.Layer); ok && domain.LayerEnabled(l) {
			layerViews = append(layerViews, capabilityLayer(l))
		}
	}
	groupViews := make([]map[string]interface{}, 0, len(groups))
	for _, h := range groups {
		if g, ok := h.Unwrap().(*domain.LayerGroup); ok && g.Enabled {
			groupViews = append(groupViews, capabilityGroup(g))
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"workspace":    local,
		"layers":       layerViews,
		"layer_groups": groupViews,
	})
}

// handleSync handles the sync trigger endpoint.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.sync.TriggerSync(r.Context())
	if err != nil {
		if errors.Is(err, application.ErrRateLimited) {
			w.Header().Set("Retry-After", "30")
			s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again in 30 seconds")
			return
		}
		s.logger.Error("sync failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	s.writeJSON(w, http.StatusOK, result)
}

// handlePublish adds a layer for every feature type of a data store.
func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	st, err := s.catalog.GetByName(r.Context(), domain.KindStore, mux.Vars(r)["name"])
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}
	result, err := s.publisher.PublishStore(r.Context(), st.ID())
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// handleSnapshot returns the catalog as a YAML snapshot document.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := s.snapshot(r.Context())
	if err != nil {
		s.handleCatalogError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	if err := doc.Encode(w); err != nil {
		s.logger.Error("failed to write snapshot", "error", err)
	}
}

// statusOf maps catalog errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrReferentialIntegrity), errors.Is(err, domain.ErrAmbiguous):
		return http.StatusConflict
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrStructuralIntegrity),
		errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrUnsupported):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleCatalogError writes err with the status it maps to.
func (s *Server) handleCatalogError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("catalog error", "error", err)
		s.writeError(w, status, "catalog operation failed")
		return
	}
	s.writeError(w, status, err.Error())
}

// writeJSON writes a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func boolToStatus(b bool) string {
	if b {
		return "ok"
	}
	return "unhealthy"
}
