package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/daybookapp/daybook/internal/core"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

const protocolVersion = "2024-11-05"

// Server exposes the Daybook service as MCP tools over line-delimited
// JSON-RPC. One Server may serve stdio and TCP connections concurrently;
// the underlying service is safe for that.
type Server struct {
	svc     *core.Service
	logger  *slog.Logger
	version string
	tools   []tool
	byName  map[string]*tool
}

// NewServer builds a server with the full tool catalogue.
func NewServer(svc *core.Service, logger *slog.Logger, version string) *Server {
	s := &Server{
		svc:     svc,
		logger:  logger,
		version: version,
		tools:   catalogue(),
	}
	s.byName = make(map[string]*tool, len(s.tools))
	for i := range s.tools {
		s.byName[s.tools[i].def.Name] = &s.tools[i]
	}
	return s
}

// Serve reads line-delimited JSON-RPC requests from r and writes
// responses to w until r is exhausted or the context is cancelled.
// This is the stdio transport.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	var mu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if len(line) == 0 && err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		var request JSONRPCRequest
		if unmarshalErr := json.Unmarshal(line, &request); unmarshalErr != nil {
			s.send(w, &mu, &JSONRPCResponse{
				JSONRPC: "2.0",
				Error:   &JSONRPCError{Code: -32700, Message: "Parse error", Data: unmarshalErr.Error()},
			})
		} else {
			s.handleRequest(w, &mu, &request)
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}
	}
}

// ListenAndServe accepts loopback TCP connections and serves each with
// the same dispatch as stdio. It blocks until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	defer listener.Close()

	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("mcp server listening", "addr", listener.Addr().String())

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			s.logger.Error("failed to accept connection", "error", err)
			continue
		}
		go func() {
			defer conn.Close()
			if err := s.Serve(ctx, conn, conn); err != nil && !errors.Is(err, context.Canceled) {
				s.logger.Debug("connection closed", "error", err)
			}
		}()
	}
}

func (s *Server) handleRequest(w io.Writer, mu *sync.Mutex, req *JSONRPCRequest) {
	switch req.Method {
	case "initialize":
		s.sendResult(w, mu, req.ID, map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "daybook", "version": s.version},
		})
	case "notifications/initialized":
		// Notifications get no response.
	case "tools/list":
		defs := make([]ToolDefinition, len(s.tools))
		for i := range s.tools {
			defs[i] = s.tools[i].def
		}
		s.sendResult(w, mu, req.ID, map[string]any{"tools": defs})
	case "tools/call":
		s.handleToolsCall(w, mu, req)
	default:
		s.sendError(w, mu, req.ID, -32601, "Method not found", req.Method)
	}
}

// handleToolsCall validates and executes one tool. Domain failures are
// returned inside the tool result so the LLM client sees them; only an
// unknown tool or malformed params is a protocol error.
func (s *Server) handleToolsCall(w io.Writer, mu *sync.Mutex, req *JSONRPCRequest) {
	var params struct {
		Name      string         `json:"name"`
		Arguments map[string]any `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		s.sendError(w, mu, req.ID, -32602, "Invalid params", err.Error())
		return
	}

	t, ok := s.byName[params.Name]
	if !ok {
		s.sendError(w, mu, req.ID, -32602, "Tool not found", params.Name)
		return
	}

	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}

	payload, err := s.runTool(t, params.Arguments)
	if err != nil {
		s.logger.Warn("tool call failed", "tool", params.Name, "error", err)
		payload = map[string]any{"success": false, "error": err.Error()}
	} else {
		s.logger.Info("tool call", "tool", params.Name)
	}

	text, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		s.sendError(w, mu, req.ID, -32603, "Internal error", marshalErr.Error())
		return
	}

	s.sendResult(w, mu, req.ID, map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": string(text)},
		},
	})
}

func (s *Server) runTool(t *tool, args map[string]any) (any, error) {
	if err := t.def.InputSchema.Validate(args); err != nil {
		return nil, err
	}
	return t.run(s.svc, args)
}

func (s *Server) sendResult(w io.Writer, mu *sync.Mutex, id any, result any) {
	s.send(w, mu, &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result})
}

func (s *Server) sendError(w io.Writer, mu *sync.Mutex, id any, code int, message, data string) {
	s.send(w, mu, &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
	})
}

func (s *Server) send(w io.Writer, mu *sync.Mutex, response *JSONRPCResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal response", "error", err)
		return
	}
	data = append(data, '\n')
	mu.Lock()
	defer mu.Unlock()
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}
