// Package mcp serves the ranking tools over the Model Context Protocol:
// newline-delimited JSON-RPC 2.0 on stdin/stdout.
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.uber.org/zap"
)

// protocolVersion is the MCP revision the server speaks.
const protocolVersion = "2024-11-05"

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
)

// maxLineBytes bounds a single request line.
const maxLineBytes = 1 << 20

// Server answers MCP requests. Every tool call runs a fresh scoring pass
// through the PassFunc it was built with.
type Server struct {
	tools   []toolDef
	pass    PassFunc
	version string
	logger  *zap.Logger
}

type toolDef struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     toolHandler
}

type toolHandler func(ctx context.Context, args json.RawMessage) (any, error)

type jsonrpcRequest struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Method  string           `json:"method"`
	Params  json.RawMessage  `json:"params,omitempty"`
}

type jsonrpcResponse struct {
	JSONRPC string           `json:"jsonrpc"`
	ID      *json.RawMessage `json:"id,omitempty"`
	Result  any              `json:"result,omitempty"`
	Error   *jsonrpcError    `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type toolsCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// toolsCallResult carries a tool's output as text content. Tool failures
// are reported here with IsError set, not as JSON-RPC errors.
type toolsCallResult struct {
	Content []mcpContent `json:"content"`
	IsError bool         `json:"isError"`
}

type mcpContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type toolListEntry struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// NewServer constructs a Server whose tools score the snapshot returned by
// pass. version is reported in serverInfo. A nil logger discards output.
func NewServer(pass PassFunc, version string, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		pass:    pass,
		version: version,
		logger:  logger,
	}
	addTools(s)
	return s
}

func (s *Server) registerTool(def toolDef) {
	s.tools = append(s.tools, def)
}

func (s *Server) tool(name string) (toolDef, bool) {
	for _, t := range s.tools {
		if t.Name == name {
			return t, true
		}
	}
	return toolDef{}, false
}

// Run serves requests read from r until ctx is cancelled or r reaches EOF,
// both of which return nil. Read and write failures are returned.
func (s *Server) Run(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				readErr <- nil
				return
			}
		}
		readErr <- sc.Err()
	}()

	bw := bufio.NewWriter(w)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-readErr
			}
			if err := s.serveLine(ctx, line, bw); err != nil {
				return err
			}
		}
	}
}

// serveLine answers one request line. Notifications get no reply.
func (s *Server) serveLine(ctx context.Context, line string, bw *bufio.Writer) error {
	var req jsonrpcRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return writeResponse(bw, jsonrpcResponse{
			JSONRPC: "2.0",
			Error:   &jsonrpcError{Code: codeParseError, Message: "Parse error"},
		})
	}
	if req.ID == nil {
		s.logger.Debug("notification received", zap.String("method", req.Method))
		return nil
	}

	result, rpcErr := s.dispatch(ctx, req)
	return writeResponse(bw, jsonrpcResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   rpcErr,
	})
}

func (s *Server) dispatch(ctx context.Context, req jsonrpcRequest) (any, *jsonrpcError) {
	switch req.Method {
	case "initialize":
		return map[string]any{
			"protocolVersion": protocolVersion,
			"capabilities":    map[string]any{"tools": map[string]any{}},
			"serverInfo":      map[string]any{"name": "feedbackrank", "version": s.version},
		}, nil

	case "ping":
		return map[string]any{}, nil

	case "tools/list":
		entries := make([]toolListEntry, 0, len(s.tools))
		for _, t := range s.tools {
			entries = append(entries, toolListEntry{Name: t.Name, Description: t.Description, InputSchema: t.InputSchema})
		}
		return map[string]any{"tools": entries}, nil

	case "tools/call":
		var params toolsCallParams
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return nil, &jsonrpcError{Code: codeInvalidParams, Message: "Invalid params"}
		}
		return s.callTool(ctx, params), nil

	default:
		return nil, &jsonrpcError{Code: codeMethodNotFound, Message: "Method not found"}
	}
}

func (s *Server) callTool(ctx context.Context, params toolsCallParams) toolsCallResult {
	t, ok := s.tool(params.Name)
	if !ok {
		return errorResult(fmt.Errorf("unknown tool: %s", params.Name))
	}

	args := params.Arguments
	if len(args) == 0 {
		args = json.RawMessage(`{}`)
	}

	out, err := t.Handler(ctx, args)
	if err != nil {
		s.logger.Debug("tool call failed", zap.String("tool", t.Name), zap.Error(err))
		return errorResult(err)
	}
	text, err := json.Marshal(out)
	if err != nil {
		return errorResult(err)
	}
	return toolsCallResult{Content: []mcpContent{{Type: "text", Text: string(text)}}}
}

func errorResult(err error) toolsCallResult {
	return toolsCallResult{
		Content: []mcpContent{{Type: "text", Text: err.Error()}},
		IsError: true,
	}
}

// writeResponse writes resp as one JSON line and flushes.
func writeResponse(bw *bufio.Writer, resp jsonrpcResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := bw.Write(data); err != nil {
		return err
	}
	return bw.Flush()
}
