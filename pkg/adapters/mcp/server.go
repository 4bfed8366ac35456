package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/circuitry"
	"github.com/aretw0/circuitry/internal/logging"
	"github.com/aretw0/circuitry/pkg/codec"
	"github.com/aretw0/circuitry/pkg/domain"
	"github.com/aretw0/circuitry/pkg/library"
	"github.com/aretw0/circuitry/pkg/registry"
)

const (
	libraryURI       = "circuitry://library"
	libraryEntryURI  = "circuitry://library/{name}"
	libraryURIPrefix = "circuitry://library/"
)

// Engine defines what the MCP server needs from circuitry.
type Engine interface {
	Build(doc *domain.Document) (*domain.Circuit, error)
	Evaluate(doc *domain.Document, stimulus ...bool) ([]bool, error)
	Registry() *registry.Registry
	Library() *library.Library
}

// EvaluateResponse holds output port values in port order.
type EvaluateResponse struct {
	Outputs []bool `json:"outputs" jsonschema_description:"Output port values in port order"`
	Bits    string `json:"bits" jsonschema_description:"The same values as a string of 0 and 1"`
}

// TruthTableResponse is the full truth table of a circuit.
type TruthTableResponse struct {
	Inputs   int        `json:"inputs" jsonschema_description:"Number of input ports"`
	Outputs  int        `json:"outputs" jsonschema_description:"Number of output ports"`
	Rows     []TruthRow `json:"rows" jsonschema_description:"One row per input combination, first port most significant"`
	Markdown string     `json:"markdown" jsonschema_description:"The table rendered as Markdown"`
}

// TruthRow is one line of a truth table as bit strings.
type TruthRow struct {
	Inputs  string `json:"inputs"`
	Outputs string `json:"outputs"`
}

// ComponentsResponse lists the kinds a circuit may use.
type ComponentsResponse struct {
	Builtin []string `json:"builtin" jsonschema_description:"Gate and port kinds"`
	Custom  []string `json:"custom" jsonschema_description:"Registered custom components"`
}

// CustomResponse describes a saved custom component.
type CustomResponse struct {
	Name    string `json:"name"`
	Inputs  int    `json:"inputs"`
	Outputs int    `json:"outputs"`
}

// Server wraps the Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("circuitry-mcp", strings.TrimSpace(circuitry.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying protocol server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("MCP Server shutting down")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: evaluate_circuit
	s.mcpServer.AddTool(mcp.NewTool("evaluate_circuit",
		mcp.WithDescription("Evaluate a circuit document for one input combination and return its outputs."),
		mcp.WithObject("circuit", mcp.Required(), mcp.Description("Circuit document with components and connections")),
		mcp.WithString("inputs", mcp.Description("Input port values as bits, first port first (e.g. \"101\")")),
		mcp.WithOutputSchema[EvaluateResponse](),
	), mcp.NewStructuredToolHandler(s.handleEvaluate))

	// TOOL: truth_table
	s.mcpServer.AddTool(mcp.NewTool("truth_table",
		mcp.WithDescription("Enumerate every input combination of a circuit document."),
		mcp.WithObject("circuit", mcp.Required(), mcp.Description("Circuit document with components and connections")),
		mcp.WithOutputSchema[TruthTableResponse](),
	), mcp.NewStructuredToolHandler(s.handleTruthTable))

	// TOOL: list_components
	s.mcpServer.AddTool(mcp.NewTool("list_components",
		mcp.WithDescription("List the gate, port and custom component kinds a circuit may use."),
		mcp.WithOutputSchema[ComponentsResponse](),
	), mcp.NewStructuredToolHandler(s.handleListComponents))

	// TOOL: save_custom_component
	s.mcpServer.AddTool(mcp.NewTool("save_custom_component",
		mcp.WithDescription("Store a circuit document in the library as a reusable custom component."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name the component is referenced by")),
		mcp.WithObject("circuit", mcp.Required(), mcp.Description("Circuit document with components and connections")),
		mcp.WithOutputSchema[CustomResponse](),
	), mcp.NewStructuredToolHandler(s.handleSaveCustom))

	// TOOL: describe_circuit
	s.mcpServer.AddTool(mcp.NewTool("describe_circuit",
		mcp.WithDescription("Render a circuit document as a Markdown listing."),
		mcp.WithObject("circuit", mcp.Required(), mcp.Description("Circuit document with components and connections")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := circuitArg(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if _, err := s.engine.Build(doc); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid circuit: %v", err)), nil
		}
		return mcp.NewToolResultText(circuitry.Describe(doc)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EvaluateResponse, error) {
	doc, err := circuitArg(args)
	if err != nil {
		return EvaluateResponse{}, err
	}
	stimulus, err := inputsArg(args)
	if err != nil {
		return EvaluateResponse{}, err
	}
	out, err := s.engine.Evaluate(doc, stimulus...)
	if err != nil {
		s.logger.Debug("MCP evaluate_circuit rejected", "err", err)
		return EvaluateResponse{}, fmt.Errorf("evaluate failed: %w", err)
	}
	if out == nil {
		out = []bool{}
	}
	return EvaluateResponse{Outputs: out, Bits: circuitry.FormatBits(out)}, nil
}

func (s *Server) handleTruthTable(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (TruthTableResponse, error) {
	doc, err := circuitArg(args)
	if err != nil {
		return TruthTableResponse{}, err
	}
	c, err := s.engine.Build(doc)
	if err != nil {
		return TruthTableResponse{}, fmt.Errorf("invalid circuit: %w", err)
	}
	rows, err := c.TruthTable()
	if err != nil {
		return TruthTableResponse{}, fmt.Errorf("truth table failed: %w", err)
	}

	resp := TruthTableResponse{
		Inputs:   len(c.Inputs()),
		Outputs:  len(c.Outputs()),
		Rows:     make([]TruthRow, len(rows)),
		Markdown: circuitry.TruthTableMarkdown(rows),
	}
	for i, row := range rows {
		resp.Rows[i] = TruthRow{Inputs: circuitry.FormatBits(row.Inputs), Outputs: circuitry.FormatBits(row.Outputs)}
	}
	return resp, nil
}

func (s *Server) handleListComponents(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (ComponentsResponse, error) {
	resp := ComponentsResponse{Custom: s.engine.Registry().Custom()}
	for _, k := range domain.Kinds() {
		if k != domain.KindCustom {
			resp.Builtin = append(resp.Builtin, k.String())
		}
	}
	if resp.Custom == nil {
		resp.Custom = []string{}
	}
	return resp, nil
}

func (s *Server) handleSaveCustom(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CustomResponse, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return CustomResponse{}, errors.New("name is required")
	}
	doc, err := circuitArg(args)
	if err != nil {
		return CustomResponse{}, err
	}
	c, err := s.engine.Build(doc)
	if err != nil {
		return CustomResponse{}, fmt.Errorf("invalid circuit: %w", err)
	}
	comp, err := s.engine.Library().Save(ctx, name, c)
	if err != nil {
		return CustomResponse{}, fmt.Errorf("save failed: %w", err)
	}
	s.logger.Info("MCP saved custom component", "name", name)
	return CustomResponse{Name: comp.Label(), Inputs: comp.NumInputs(), Outputs: comp.NumOutputs()}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: circuitry://library
	s.mcpServer.AddResource(mcp.NewResource(libraryURI, "Custom Component Library",
		mcp.WithResourceDescription("Names of the registered custom components"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		names := s.engine.Library().Names()
		if names == nil {
			names = []string{}
		}
		jsonBytes, _ := json.Marshal(names)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      libraryURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	// EXPOSE: circuitry://library/{name}
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(libraryEntryURI, "Custom Component",
		mcp.WithTemplateDescription("The circuit document of one custom component"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readLibraryEntry)
}

func (s *Server) readLibraryEntry(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	name := strings.TrimPrefix(uri, libraryURIPrefix)
	if name == "" || name == uri {
		return nil, fmt.Errorf("invalid library uri %q", uri)
	}
	doc, err := s.engine.Library().Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("custom component %q: %w", name, err)
	}
	data, err := codec.Encode(doc, codec.JSON)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// circuitArg reads the circuit argument, given either as an object or as
// JSON or YAML text.
func circuitArg(args map[string]interface{}) (*domain.Document, error) {
	switch v := args["circuit"].(type) {
	case map[string]interface{}:
		return codec.DecodeMap(v)
	case string:
		return codec.Decode([]byte(v), codec.YAML)
	case nil:
		return nil, errors.New("circuit is required")
	default:
		return nil, fmt.Errorf("circuit must be an object, got %T", v)
	}
}

// inputsArg reads the stimulus as a bit string or a list of booleans or numbers.
func inputsArg(args map[string]interface{}) ([]bool, error) {
	switch v := args["inputs"].(type) {
	case nil:
		return nil, nil
	case string:
		return circuitry.ParseBits(v)
	case []interface{}:
		out := make([]bool, len(v))
		for i, item := range v {
			switch b := item.(type) {
			case bool:
				out[i] = b
			case float64:
				out[i] = b != 0
			default:
				return nil, fmt.Errorf("inputs[%d]: want a boolean, got %T", i, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("inputs must be a bit string, got %T", v)
	}
}
