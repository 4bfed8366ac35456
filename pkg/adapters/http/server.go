package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/internal/logging"
	"github.com/aretw0/circuitry/pkg/domain"
)

// Server exposes an Engine over a JSON API.
type Server struct {
	Engine  *circuitry.Engine
	Streams *StreamManager
	logger  *slog.Logger
	metrics http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h (usually promhttp.Handler()) at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine *circuitry.Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return enableCORS(s.Routes())
}

// Routes builds the router without middleware.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/kinds", s.ListKinds)
	r.Get("/library", s.ListLibrary)
	r.Post("/evaluate", s.Evaluate)
	r.Get("/events", s.SubscribeEvents)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", s.ListWorkspaces)
		r.Post("/", s.CreateWorkspace)

		r.Route("/{name}", func(r chi.Router) {
			r.Get("/", s.GetWorkspace)
			r.Put("/", s.ImportWorkspace)
			r.Delete("/", s.DeleteWorkspace)

			r.Post("/components", s.AddComponent)
			r.Patch("/components/{index}", s.MoveComponent)
			r.Delete("/components/{index}", s.RemoveComponent)

			r.Post("/connections", s.Connect)
			r.Delete("/connections/{component}/{slot}", s.Disconnect)

			r.Post("/clear", s.Clear)
			r.Post("/undo", s.Undo)
			r.Post("/redo", s.Redo)
			r.Post("/process", s.Process)
			r.Get("/truth-table", s.TruthTable)
			r.Post("/custom", s.SaveCustom)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "circuitry-http",
		"version": strings.TrimSpace(circuitry.Version),
	})
}

// ListKinds handles the GET /kinds request.
func (s *Server) ListKinds(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Registry().Kinds())
}

// ListLibrary handles the GET /library request.
func (s *Server) ListLibrary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Library().Names())
}

// Evaluate handles the stateless POST /evaluate request.
func (s *Server) Evaluate(w http.ResponseWriter, r *http.Request) {
	var body EvaluateRequest
	if !s.decode(w, r, &body) {
		return
	}
	if body.Circuit == nil {
		s.fail(w, "Evaluate", &domain.StructuralError{Op: "evaluate", Reason: "missing circuit"})
		return
	}
	stimulus, err := body.stimulus()
	if err != nil {
		s.badRequest(w, "Evaluate", err)
		return
	}
	out, err := s.Engine.Evaluate(body.Circuit, stimulus...)
	if err != nil {
		s.fail(w, "Evaluate", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newProcessResponse(out))
}

// ListWorkspaces handles the GET /workspaces request.
func (s *Server) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	names, err := s.Engine.Workspaces(r.Context())
	if err != nil {
		s.fail(w, "ListWorkspaces", err)
		return
	}
	s.writeJSON(w, http.StatusOK, names)
}

// CreateWorkspace handles the POST /workspaces request. The workspace gets a
// fresh UUID name and, when a document is posted, that document as content.
func (s *Server) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	var doc *domain.Document
	if r.ContentLength != 0 {
		doc = &domain.Document{}
		if !s.decode(w, r, doc) {
			return
		}
	}

	name := uuid.NewString()
	ws, err := s.Engine.Open(r.Context(), name)
	if err != nil {
		s.fail(w, "CreateWorkspace", err)
		return
	}
	if doc != nil && len(doc.Components) > 0 {
		if err := ws.Import(doc); err != nil {
			_ = s.Engine.Delete(r.Context(), name)
			s.fail(w, "CreateWorkspace", err)
			return
		}
	}
	s.logger.Info("Workspace created", "workspace", name)
	s.writeJSON(w, http.StatusCreated, WorkspaceResponse{Name: name, Document: ws.Export()})
}

// GetWorkspace handles the GET /workspaces/{name} request.
func (s *Server) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	s.writeState(w, http.StatusOK, ws)
}

// ImportWorkspace handles the PUT /workspaces/{name} request.
func (s *Server) ImportWorkspace(w http.ResponseWriter, r *http.Request) {
	var doc domain.Document
	if !s.decode(w, r, &doc) {
		return
	}
	ws, ok := s.workspace(w, r, true)
	if !ok {
		return
	}
	if err := ws.Import(&doc); err != nil {
		s.fail(w, "ImportWorkspace", err)
		return
	}
	s.changed(ws, "import")
	s.writeState(w, http.StatusOK, ws)
}

// DeleteWorkspace handles the DELETE /workspaces/{name} request.
func (s *Server) DeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.Engine.Delete(r.Context(), name); err != nil {
		s.fail(w, "DeleteWorkspace", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddComponent handles the POST /workspaces/{name}/components request.
func (s *Server) AddComponent(w http.ResponseWriter, r *http.Request) {
	var body domain.ComponentDoc
	if !s.decode(w, r, &body) {
		return
	}
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}

	kind := body.Kind
	if kind == domain.KindCustom.String() {
		kind = body.Name
	}
	comp, err := ws.Add(kind, body.Inputs, body.Outputs, domain.Point{X: body.X, Y: body.Y})
	if err != nil {
		s.fail(w, "AddComponent", err)
		return
	}
	s.changed(ws, "add_component")

	index := -1
	_ = ws.View(func(c *domain.Circuit) error {
		index = c.IndexOf(comp.Handle())
		return nil
	})
	s.writeJSON(w, http.StatusCreated, ComponentResponse{Index: index, Document: ws.Export()})
}

// MoveComponent handles the PATCH /workspaces/{name}/components/{index} request.
func (s *Server) MoveComponent(w http.ResponseWriter, r *http.Request) {
	var to domain.Point
	if !s.decode(w, r, &to) {
		return
	}
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	h, ok := s.handle(w, r, ws)
	if !ok {
		return
	}
	if err := ws.Move(h, to); err != nil {
		s.fail(w, "MoveComponent", err)
		return
	}
	s.changed(ws, "move")
	s.writeState(w, http.StatusOK, ws)
}

// RemoveComponent handles the DELETE /workspaces/{name}/components/{index} request.
func (s *Server) RemoveComponent(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	h, ok := s.handle(w, r, ws)
	if !ok {
		return
	}
	if err := ws.Remove(h); err != nil {
		s.fail(w, "RemoveComponent", err)
		return
	}
	s.changed(ws, "remove_component")
	s.writeState(w, http.StatusOK, ws)
}

// Connect handles the POST /workspaces/{name}/connections request.
// The body is a list of connections applied as one undoable edit.
func (s *Server) Connect(w http.ResponseWriter, r *http.Request) {
	var body []domain.ConnectionDoc
	if !s.decode(w, r, &body) {
		return
	}
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}

	wires := make([]domain.Wire, 0, len(body))
	err := ws.View(func(c *domain.Circuit) error {
		for _, cd := range body {
			from, to := c.At(cd.From.Component), c.At(cd.To.Component)
			if from == nil || to == nil {
				return fmt.Errorf("connection %v -> %v: %w", cd.From, cd.To, domain.ErrNotInCircuit)
			}
			wires = append(wires, domain.Wire{
				From:      domain.SlotRef{Component: from.Handle(), Index: cd.From.Slot},
				To:        domain.SlotRef{Component: to.Handle(), Index: cd.To.Slot},
				Waypoints: cd.Path,
			})
		}
		return nil
	})
	if err == nil {
		err = ws.Connect(wires...)
	}
	if err != nil {
		s.fail(w, "Connect", err)
		return
	}
	s.changed(ws, "connect")
	s.writeState(w, http.StatusOK, ws)
}

// Disconnect handles the DELETE /workspaces/{name}/connections/{component}/{slot} request.
func (s *Server) Disconnect(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	h, ok := s.handleParam(w, r, ws, "component")
	if !ok {
		return
	}
	slot, err := strconv.Atoi(chi.URLParam(r, "slot"))
	if err != nil {
		s.badRequest(w, "Disconnect", err)
		return
	}
	if err := ws.Disconnect(domain.SlotRef{Component: h, Index: slot}); err != nil {
		s.fail(w, "Disconnect", err)
		return
	}
	s.changed(ws, "disconnect")
	s.writeState(w, http.StatusOK, ws)
}

// Clear handles the POST /workspaces/{name}/clear request.
func (s *Server) Clear(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	if err := ws.Clear(); err != nil {
		s.fail(w, "Clear", err)
		return
	}
	s.changed(ws, "clear")
	s.writeState(w, http.StatusOK, ws)
}

// Undo handles the POST /workspaces/{name}/undo request.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "undo", (*circuitry.Workspace).Undo)
}

// Redo handles the POST /workspaces/{name}/redo request.
func (s *Server) Redo(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "redo", (*circuitry.Workspace).Redo)
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, op string, fn func(*circuitry.Workspace) (bool, error)) {
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	changed, err := fn(ws)
	if err != nil {
		s.fail(w, op, err)
		return
	}
	if changed {
		s.changed(ws, op)
	}
	undo, redo := ws.History()
	s.writeJSON(w, http.StatusOK, StepResponse{Changed: changed, Undo: undo, Redo: redo, Document: ws.Export()})
}

// Process handles the POST /workspaces/{name}/process request.
func (s *Server) Process(w http.ResponseWriter, r *http.Request) {
	var body ProcessRequest
	if !s.decode(w, r, &body) {
		return
	}
	stimulus, err := body.stimulus()
	if err != nil {
		s.badRequest(w, "Process", err)
		return
	}
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	out, err := ws.Process(stimulus...)
	if err != nil {
		s.fail(w, "Process", err)
		return
	}
	s.writeJSON(w, http.StatusOK, newProcessResponse(out))
}

// TruthTable handles the GET /workspaces/{name}/truth-table request.
func (s *Server) TruthTable(w http.ResponseWriter, r *http.Request) {
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	rows, err := ws.TruthTable()
	if err != nil {
		s.fail(w, "TruthTable", err)
		return
	}
	resp := make([]TruthRow, len(rows))
	for i, row := range rows {
		resp[i] = TruthRow{
			Inputs:  circuitry.FormatBits(row.Inputs),
			Outputs: circuitry.FormatBits(row.Outputs),
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// SaveCustom handles the POST /workspaces/{name}/custom request.
func (s *Server) SaveCustom(w http.ResponseWriter, r *http.Request) {
	var body CustomRequest
	if !s.decode(w, r, &body) {
		return
	}
	ws, ok := s.workspace(w, r, false)
	if !ok {
		return
	}
	comp, err := ws.ToCustom(r.Context(), body.Name)
	if err != nil {
		s.fail(w, "SaveCustom", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, CustomResponse{
		Name:    comp.Label(),
		Inputs:  comp.NumInputs(),
		Outputs: comp.NumOutputs(),
	})
}

// -- Helpers --

// workspace opens the workspace named in the URL. Unless create is set, a
// workspace that is neither open nor stored is reported as 404.
func (s *Server) workspace(w http.ResponseWriter, r *http.Request, create bool) (*circuitry.Workspace, bool) {
	name := chi.URLParam(r, "name")
	if !create {
		names, err := s.Engine.Workspaces(r.Context())
		if err != nil {
			s.fail(w, "Workspace", err)
			return nil, false
		}
		found := false
		for _, n := range names {
			if n == name {
				found = true
				break
			}
		}
		if !found {
			s.fail(w, "Workspace", fmt.Errorf("workspace %q: %w", name, domain.ErrNotFound))
			return nil, false
		}
	}
	ws, err := s.Engine.Open(r.Context(), name)
	if err != nil {
		s.fail(w, "Workspace", err)
		return nil, false
	}
	return ws, true
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request, ws *circuitry.Workspace) (domain.Handle, bool) {
	return s.handleParam(w, r, ws, "index")
}

func (s *Server) handleParam(w http.ResponseWriter, r *http.Request, ws *circuitry.Workspace, param string) (domain.Handle, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, param))
	if err != nil {
		s.badRequest(w, "Component", err)
		return 0, false
	}
	var h domain.Handle
	err = ws.View(func(c *domain.Circuit) error {
		comp := c.At(index)
		if comp == nil {
			return fmt.Errorf("component %d: %w", index, domain.ErrNotInCircuit)
		}
		h = comp.Handle()
		return nil
	})
	if err != nil {
		s.fail(w, "Component", err)
		return 0, false
	}
	return h, true
}

func (s *Server) changed(ws *circuitry.Workspace, op string) {
	undo, redo := ws.History()
	msg, err := json.Marshal(ChangeEvent{Workspace: ws.Name(), Op: op, Undo: undo, Redo: redo})
	if err != nil {
		return
	}
	s.Streams.Broadcast(ws.Name(), string(msg))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.badRequest(w, "Decode", err)
		return false
	}
	return true
}

func (s *Server) badRequest(w http.ResponseWriter, op string, err error) {
	s.logger.Warn(op+": invalid request", "err", err)
	s.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// fail maps domain errors onto status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Debug(op+" rejected", "err", err, "status", status)
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// StatusFor returns the HTTP status code that reports err.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNotInCircuit):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCycle), errors.Is(err, domain.ErrAlreadyInCircuit):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnknownKind), errors.Is(err, domain.ErrStructural), errors.Is(err, domain.ErrInvalidArity):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeState(w http.ResponseWriter, status int, ws *circuitry.Workspace) {
	undo, redo := ws.History()
	s.writeJSON(w, status, StateResponse{
		Name:     ws.Name(),
		Document: ws.Export(),
		Outputs:  circuitry.FormatBits(ws.Outputs()),
		Undo:     undo,
		Redo:     redo,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
