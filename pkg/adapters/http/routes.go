package http

import (
	"net/http"

	"github.com/aretw0/canvasflow/internal/presentation/graph"
	"github.com/aretw0/canvasflow/pkg/domain"
	"github.com/aretw0/canvasflow/pkg/executor"
	"github.com/aretw0/canvasflow/pkg/runner"
	"github.com/aretw0/canvasflow/pkg/validator"
	"github.com/go-chi/chi/v5"
)

// GET /node-types[?category=]
func (s *Server) listNodeTypes(w http.ResponseWriter, r *http.Request) {
	defs := s.factory.Definitions()
	if cat := r.URL.Query().Get("category"); cat != "" {
		defs = s.factory.DefinitionsByCategory(domain.Category(cat))
	}
	if defs == nil {
		defs = []domain.NodeTypeDefinition{}
	}
	s.writeJSON(w, http.StatusOK, defs)
}

type createNodeRequest struct {
	Type     string           `json:"type"`
	Position *domain.Position `json:"position,omitempty"`
	Data     map[string]any   `json:"data,omitempty"`
}

// POST /nodes
func (s *Server) createNode(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if !s.decode(w, r, &req) {
		return
	}
	node, err := s.factory.CreateNode(req.Type, req.Position, req.Data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, node)
}

type connectionRequest struct {
	Connection domain.Connection     `json:"connection"`
	Nodes      []domain.NodeInstance `json:"nodes"`
	Edges      []domain.Connection   `json:"edges,omitempty"`
}

type connectionResponse struct {
	Result       validator.Result `json:"result"`
	CreatesCycle bool             `json:"creates_cycle"`
}

// POST /validate/connection
func (s *Server) validateConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.writeJSON(w, http.StatusOK, connectionResponse{
		Result:       s.validator.ValidateConnection(req.Connection, req.Nodes),
		CreatesCycle: s.validator.WouldCreateCycle(req.Connection, req.Nodes, req.Edges),
	})
}

type graphRequest struct {
	Nodes []domain.NodeInstance `json:"nodes"`
	Edges []domain.Connection   `json:"edges"`
}

func (g graphRequest) graph() domain.Graph {
	return domain.Graph{Nodes: g.Nodes, Edges: g.Edges}
}

type graphValidationResponse struct {
	Valid bool                   `json:"valid"`
	Edges []validator.EdgeResult `json:"edges"`
}

// POST /validate/graph
func (s *Server) validateGraph(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if !s.decode(w, r, &req) {
		return
	}
	results := s.validator.ValidateGraph(req.Nodes, req.Edges)
	valid := true
	for _, res := range results {
		valid = valid && res.Result.Valid
	}
	s.writeJSON(w, http.StatusOK, graphValidationResponse{Valid: valid, Edges: results})
}

type targetsRequest struct {
	SourceNodeID string                `json:"source_node_id"`
	SourcePortID string                `json:"source_port_id"`
	Nodes        []domain.NodeInstance `json:"nodes"`
	Edges        []domain.Connection   `json:"edges"`
}

// POST /validate/targets
func (s *Server) validTargets(w http.ResponseWriter, r *http.Request) {
	var req targetsRequest
	if !s.decode(w, r, &req) {
		return
	}
	targets := s.validator.ValidTargets(req.SourceNodeID, req.SourcePortID, req.Nodes, req.Edges)
	if targets == nil {
		s.writeJSON(w, http.StatusOK, []any{})
		return
	}
	s.writeJSON(w, http.StatusOK, targets)
}

// POST /order
func (s *Server) executionOrder(w http.ResponseWriter, r *http.Request) {
	var req graphRequest
	if !s.decode(w, r, &req) {
		return
	}
	order, err := executor.Order(req.Nodes, req.Edges)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"order": order})
}

type mermaidRequest struct {
	graphRequest
	RunID string `json:"run_id,omitempty"`
}

// POST /mermaid
func (s *Server) mermaid(w http.ResponseWriter, r *http.Request) {
	var req mermaidRequest
	if !s.decode(w, r, &req) {
		return
	}
	var overlay *graph.Overlay
	if req.RunID != "" {
		state, err := s.runner.State(r.Context(), req.RunID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		overlay = graph.OverlayFromState(state)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(graph.GenerateMermaid(s.runner.Registry(), req.graph(), overlay)))
}

type runRequest struct {
	graphRequest
	Mode domain.ExecutionMode `json:"mode,omitempty"`
	Key  string               `json:"key,omitempty"`
}

// POST /runs
func (s *Server) submitRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Mode != "" {
		if _, err := domain.ParseExecutionMode(string(req.Mode)); err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
			return
		}
	}
	runID, err := s.runner.Submit(r.Context(), runner.Request{Graph: req.graph(), Mode: req.Mode, Key: req.Key})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/runs/"+runID)
	s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

// GET /runs
func (s *Server) activeRuns(w http.ResponseWriter, _ *http.Request) {
	active := s.runner.Active()
	if active == nil {
		active = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"active": active})
}

// GET /runs/{id}
func (s *Server) runState(w http.ResponseWriter, r *http.Request) {
	state, err := s.runner.State(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

// GET /runs/{id}/statuses
func (s *Server) runStatuses(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.runner.Statuses(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statuses)
}

// POST /runs/{id}/{pause|resume|stop}
func (s *Server) control(op func(string) (bool, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applied, err := op(chi.URLParam(r, "id"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]bool{"applied": applied})
	}
}
