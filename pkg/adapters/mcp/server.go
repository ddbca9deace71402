// Package mcp exposes form sessions as MCP tools, so an agent can drive
// a form the same way a UI would: create it, fill fields, inspect
// errors, submit.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	formwork "github.com/formwork-dev/formwork"
	"github.com/formwork-dev/formwork/internal/logging"
	"github.com/formwork-dev/formwork/pkg/domain"
	"github.com/formwork-dev/formwork/pkg/schema"
	"github.com/formwork-dev/formwork/pkg/session"
)

// FormSnapshot is the unified tool result: the session's state plus
// everything a caller needs to decide the next step.
type FormSnapshot struct {
	SessionID string        `json:"session_id" jsonschema_description:"The session this snapshot belongs to"`
	State     any           `json:"state" jsonschema_description:"The current form state"`
	Errors    domain.Errors `json:"errors" jsonschema_description:"Current validation errors"`
	Modified  bool          `json:"modified" jsonschema_description:"Whether the state differs from the initial snapshot"`
	CanUndo   bool          `json:"can_undo"`
	CanRedo   bool          `json:"can_redo"`
}

// Server wraps a session manager and exposes it as an MCP server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool-level events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates an MCP server over the session manager.
func NewServer(sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  sessions,
		mcpServer: server.NewMCPServer("formwork-mcp", strings.TrimSpace(formwork.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	createTool := mcp.NewTool("form_create",
		mcp.WithDescription("Create a new form session from an initial state and an optional schema document."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Form name")),
		mcp.WithString("initial_state", mcp.Description("JSON object for the initial state (optional)")),
		mcp.WithString("schema", mcp.Description("JSON schema document: {fields: [...]} or {schema: {...}} (optional)")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(createTool, mcp.NewStructuredToolHandler(s.handleCreate))

	stateTool := mcp.NewTool("form_state",
		mcp.WithDescription("Read the current state, errors and history position of a form session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID returned by form_create")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.handleState))

	setFieldTool := mcp.NewTool("form_set_field",
		mcp.WithDescription("Set the value of a single field addressed by a dotted path."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("path", mcp.Required(), mcp.Description("Dotted field path, e.g. user.address.city or items.0")),
		mcp.WithString("value", mcp.Required(), mcp.Description("JSON-encoded value")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(setFieldTool, mcp.NewStructuredToolHandler(s.handleSetField))

	submitTool := mcp.NewTool("form_submit",
		mcp.WithDescription("Run validation and invoke the submit handler. Invalid forms are not submitted; check errors."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(submitTool, mcp.NewStructuredToolHandler(s.handleSubmit))

	undoTool := mcp.NewTool("form_undo",
		mcp.WithDescription("Step the form state back through history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("steps", mcp.Description("Number of steps (default 1)")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(undoTool, mcp.NewStructuredToolHandler(s.handleUndo))

	redoTool := mcp.NewTool("form_redo",
		mcp.WithDescription("Step the form state forward through history."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithNumber("steps", mcp.Description("Number of steps (default 1)")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(redoTool, mcp.NewStructuredToolHandler(s.handleRedo))

	resetTool := mcp.NewTool("form_reset",
		mcp.WithDescription("Reset the form back to its (freshly recomputed) initial state."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[FormSnapshot](),
	)
	s.mcpServer.AddTool(resetTool, mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("form_list",
		mcp.WithDescription("List the live form sessions."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, _ := json.Marshal(s.sessions.List())
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("formwork://sessions", "Live Form Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.sessions.List())
		if err != nil {
			return nil, fmt.Errorf("failed to encode sessions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "formwork://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

// Tool handlers

func (s *Server) handleCreate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	name, _ := args["name"].(string)
	if name == "" {
		return FormSnapshot{}, fmt.Errorf("name is required")
	}

	initial := map[string]any{}
	if raw, ok := args["initial_state"].(string); ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &initial); err != nil {
			return FormSnapshot{}, fmt.Errorf("invalid initial_state: %w", err)
		}
	}

	var opts []formwork.Option
	if raw, ok := args["schema"].(string); ok && raw != "" {
		var body map[string]any
		if err := json.Unmarshal([]byte(raw), &body); err != nil {
			return FormSnapshot{}, fmt.Errorf("invalid schema: %w", err)
		}
		doc, err := schema.ParseMap(body)
		if err != nil {
			return FormSnapshot{}, fmt.Errorf("invalid schema: %w", err)
		}
		if doc.Name == "" {
			doc.Name = name
		}
		validator, err := doc.Validator()
		if err != nil {
			return FormSnapshot{}, fmt.Errorf("invalid schema: %w", err)
		}
		opts = append(opts, formwork.WithValidator(validator))
	}

	id, form, err := s.sessions.Create(ctx, name, initial, opts...)
	if err != nil {
		return FormSnapshot{}, fmt.Errorf("create failed: %w", err)
	}
	return s.snapshot(id, form), nil
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	id, form, err := s.lookup(args)
	if err != nil {
		return FormSnapshot{}, err
	}
	return s.snapshot(id, form), nil
}

func (s *Server) handleSetField(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	id, form, err := s.lookup(args)
	if err != nil {
		return FormSnapshot{}, err
	}

	p, _ := args["path"].(string)
	if p == "" {
		return FormSnapshot{}, fmt.Errorf("path is required")
	}
	raw, _ := args["value"].(string)
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		// Unquoted scalars come through as plain text.
		value = raw
	}

	if err := form.SetFieldValue(ctx, p, value); err != nil {
		return FormSnapshot{}, fmt.Errorf("set field failed: %w", err)
	}
	return s.snapshot(id, form), nil
}

func (s *Server) handleSubmit(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	id, form, err := s.lookup(args)
	if err != nil {
		return FormSnapshot{}, err
	}
	if err := form.Submit(ctx); err != nil {
		return FormSnapshot{}, fmt.Errorf("submit failed: %w", err)
	}
	return s.snapshot(id, form), nil
}

func (s *Server) handleUndo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	id, form, err := s.lookup(args)
	if err != nil {
		return FormSnapshot{}, err
	}
	steps := 1
	if n, ok := args["steps"].(float64); ok && n >= 1 {
		steps = int(n)
	}
	if err := form.Undo(ctx, steps); err != nil {
		return FormSnapshot{}, fmt.Errorf("undo failed: %w", err)
	}
	return s.snapshot(id, form), nil
}

func (s *Server) handleRedo(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	id, form, err := s.lookup(args)
	if err != nil {
		return FormSnapshot{}, err
	}
	steps := 1
	if n, ok := args["steps"].(float64); ok && n >= 1 {
		steps = int(n)
	}
	if err := form.Redo(ctx, steps); err != nil {
		return FormSnapshot{}, fmt.Errorf("redo failed: %w", err)
	}
	return s.snapshot(id, form), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FormSnapshot, error) {
	id, form, err := s.lookup(args)
	if err != nil {
		return FormSnapshot{}, err
	}
	if err := form.Reset(ctx); err != nil {
		return FormSnapshot{}, fmt.Errorf("reset failed: %w", err)
	}
	return s.snapshot(id, form), nil
}

func (s *Server) lookup(args map[string]interface{}) (string, *formwork.Form, error) {
	id, _ := args["session_id"].(string)
	form, err := s.sessions.Get(id)
	if err != nil {
		return "", nil, fmt.Errorf("session %q: %w", id, err)
	}
	return id, form, nil
}

func (s *Server) snapshot(id string, form *formwork.Form) FormSnapshot {
	return FormSnapshot{
		SessionID: id,
		State:     form.State(),
		Errors:    form.Errors(),
		Modified:  form.WasModified(),
		CanUndo:   form.CanUndo(),
		CanRedo:   form.CanRedo(),
	}
}
