package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/page-tools-mcp/internal/batch"
	"github.com/ironsheep/page-tools-mcp/internal/imaging"
	"github.com/ironsheep/page-tools-mcp/internal/normalizer"
	"github.com/ironsheep/page-tools-mcp/internal/ocr"
)

// Name and Version identify the server to MCP clients.
const Name = "page-tools-mcp"

// Version is set at build time with -ldflags "-X .../server.Version=...".
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache      *imaging.ImageCache
	normalizer *normalizer.Normalizer
	batch      *batch.Adapter
	ocrLang    string
	log        logrus.FieldLogger

	in  io.Reader
	out io.Writer
}

// Option configures a Server.
type Option func(*Server)

// WithNormalizer sets the normalizer used by the page tools.
func WithNormalizer(n *normalizer.Normalizer) Option {
	return func(s *Server) { s.normalizer = n }
}

// WithBatch sets the adapter behind page_normalize_batch.
func WithBatch(a *batch.Adapter) Option {
	return func(s *Server) { s.batch = a }
}

// WithOCRLanguage sets the default OCR language.
func WithOCRLanguage(lang string) Option {
	return func(s *Server) { s.ocrLang = lang }
}

// WithLogger sets the logger. It must not write to the output stream.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. Components not supplied through
// options get their defaults; the batch adapter then writes under the
// system temp directory.
func New(opts ...Option) *Server {
	s := &Server{
		cache:   imaging.NewImageCache(),
		ocrLang: ocr.DefaultLanguage,
		log:     logrus.StandardLogger(),
		in:      os.Stdin,
		out:     os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.normalizer == nil {
		s.normalizer = normalizer.New(normalizer.WithLogger(s.log))
	}
	if s.batch == nil {
		store := batch.NewDiskStore(os.TempDir(), "")
		s.batch = batch.NewAdapter(store, s.normalizer, batch.WithLogger(s.log))
	}
	s.log = s.log.WithField("component", "server")
	return s
}

// Run serves requests from the input stream until it is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Batch requests carry many paths; allow large lines.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 4*1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.WithError(err).Warn("failed to parse request")
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.log.WithError(err).Error("failed to encode response")
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	s.log.WithField("method", req.Method).Debug("request")

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    Name,
				"version": Version,
			},
		},
	}
}
