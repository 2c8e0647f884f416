package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/ironsheep/page-tools-mcp/internal/barcode"
	"github.com/ironsheep/page-tools-mcp/internal/batch"
	"github.com/ironsheep/page-tools-mcp/internal/detection"
	"github.com/ironsheep/page-tools-mcp/internal/imaging"
	"github.com/ironsheep/page-tools-mcp/internal/normalizer"
	"github.com/ironsheep/page-tools-mcp/internal/ocr"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "page_normalize").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Info("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)

	// Page Normalization
	case "page_detect_boundary":
		return s.handlePageDetectBoundary(args)
	case "page_normalize":
		return s.handlePageNormalize(args)
	case "page_normalize_batch":
		return s.handlePageNormalizeBatch(args)

	// Detection Diagnostics
	case "page_edge_map":
		return s.handlePageEdgeMap(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)

	// Page Content
	case "page_scan_isbn":
		return s.handlePageScanISBN(args)
	case "page_ocr":
		return s.handlePageOCR(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// userError prefixes err with the message shown to end users.
func userError(err error) error {
	return fmt.Errorf("%s: %w", normalizer.UserMessage(err), err)
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Page Normalization Handlers ===

type pageDetectBoundaryArgs struct {
	Path      string `json:"path"`
	Preview   bool   `json:"preview"`
	LineColor string `json:"line_color"`
	MaxSide   int    `json:"max_side"`
}

// BoundaryResult reports the outcome of page_detect_boundary.
type BoundaryResult struct {
	Found     bool                   `json:"found"`
	Width     int                    `json:"width"`
	Height    int                    `json:"height"`
	Candidate *detection.Candidate   `json:"candidate,omitempty"`
	Message   string                 `json:"message,omitempty"`
	Preview   *imaging.OverlayResult `json:"preview,omitempty"`
}

func (s *Server) handlePageDetectBoundary(args json.RawMessage) (interface{}, error) {
	var a pageDetectBoundaryArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.LineColor == "" {
		a.LineColor = "#00FF00"
	}
	if a.MaxSide == 0 {
		a.MaxSide = 1024
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, userError(&normalizer.LoadError{Path: a.Path, Err: err})
	}
	b := img.Bounds()
	res := &BoundaryResult{Width: b.Dx(), Height: b.Dy()}

	cand, ok := s.normalizer.Detector().Detect(img)
	if !ok {
		res.Message = normalizer.MsgBoundaryNotFound
		return res, nil
	}
	res.Found = true
	res.Candidate = &cand

	if a.Preview {
		res.Preview, err = imaging.QuadOverlay(img, cand.Quad, a.LineColor, a.MaxSide)
		if err != nil {
			return nil, fmt.Errorf("failed to render preview: %w", err)
		}
	}
	return res, nil
}

type pageNormalizeArgs struct {
	Path       string `json:"path"`
	OutputPath string `json:"output_path"`
}

// defaultOutputPath places the normalized page next to its input.
func defaultOutputPath(in string) string {
	ext := filepath.Ext(in)
	return strings.TrimSuffix(in, ext) + "_normalized.jpg"
}

func (s *Server) handlePageNormalize(args json.RawMessage) (interface{}, error) {
	var a pageNormalizeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.OutputPath == "" {
		a.OutputPath = defaultOutputPath(a.Path)
	}

	res, err := s.normalizer.Process(a.Path, a.OutputPath)
	if err != nil {
		return nil, userError(err)
	}
	s.cache.Evict(a.OutputPath)
	return res, nil
}

type pageNormalizeBatchArgs struct {
	Paths []string `json:"paths"`
}

func (s *Server) handlePageNormalizeBatch(args json.RawMessage) (interface{}, error) {
	var a pageNormalizeBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must not be empty")
	}

	uploads := make([]batch.Upload, len(a.Paths))
	for i, p := range a.Paths {
		uploads[i] = batch.FileUpload{Path: p}
	}
	results, err := s.batch.NormalizeBatch(uploads)
	if err != nil {
		return nil, err
	}
	return &batch.Response{NormalizedImages: results}, nil
}

// === Detection Diagnostic Handlers ===

type pageEdgeMapArgs struct {
	Path   string `json:"path"`
	Recipe string `json:"recipe"`
}

func (s *Server) handlePageEdgeMap(args json.RawMessage) (interface{}, error) {
	var a pageEdgeMapArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Recipe == "" {
		a.Recipe = detection.RecipeNames()[0]
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	mask, err := s.normalizer.Detector().EdgeMask(img, a.Recipe)
	if err != nil {
		return nil, err
	}
	return imaging.MaskResult(mask)
}

type imageEdgeDetectArgs struct {
	Path          string `json:"path"`
	ThresholdLow  int    `json:"threshold_low"`
	ThresholdHigh int    `json:"threshold_high"`
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ThresholdLow == 0 {
		a.ThresholdLow = 50
	}
	if a.ThresholdHigh == 0 {
		a.ThresholdHigh = 150
	}
	if a.ThresholdLow > a.ThresholdHigh {
		return nil, fmt.Errorf("threshold_low %d exceeds threshold_high %d", a.ThresholdLow, a.ThresholdHigh)
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, a.ThresholdLow, a.ThresholdHigh)
}

// === Page Content Handlers ===

// pageSource loads the image at path, optionally rectifies it, and crops
// the named region. When normalization finds no page the photo is used as
// is; normalized reports which happened.
func (s *Server) pageSource(path string, normalize bool, region string) (img image.Image, normalized bool, r imaging.Region, err error) {
	img, err = s.cache.Load(path)
	if err != nil {
		return nil, false, r, err
	}

	if normalize {
		page, nerr := s.normalizer.NormalizeImage(img)
		switch {
		case nerr == nil:
			img, normalized = page.Image, true
		case errors.As(nerr, new(*normalizer.BoundaryNotFoundError)):
			s.log.WithField("path", path).Debug("no page found, using full photo")
		default:
			return nil, false, r, nerr
		}
	}

	if region == "" {
		region = "full"
	}
	cropped, r, err := imaging.CropNamed(img, region)
	if err != nil {
		return nil, false, r, err
	}
	return cropped, normalized, r, nil
}

type pageScanISBNArgs struct {
	Path      string `json:"path"`
	Normalize bool   `json:"normalize"`
	Region    string `json:"region"`
}

// ISBNScanResult reports the outcome of page_scan_isbn.
type ISBNScanResult struct {
	Found      bool           `json:"found"`
	ISBN13     string         `json:"isbn13,omitempty"`
	ISBN10     string         `json:"isbn10,omitempty"`
	Normalized bool           `json:"normalized"`
	Region     imaging.Region `json:"region"`
}

func (s *Server) handlePageScanISBN(args json.RawMessage) (interface{}, error) {
	var a pageScanISBNArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	img, normalized, region, err := s.pageSource(a.Path, a.Normalize, a.Region)
	if err != nil {
		return nil, err
	}

	res := &ISBNScanResult{Normalized: normalized, Region: region}
	scan, err := barcode.ScanISBN(img)
	if errors.Is(err, barcode.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return nil, err
	}
	res.Found = true
	res.ISBN13 = scan.ISBN13
	res.ISBN10 = scan.ISBN10
	return res, nil
}

type pageOCRArgs struct {
	Path      string `json:"path"`
	Language  string `json:"language"`
	Normalize *bool  `json:"normalize"`
	Region    string `json:"region"`
}

// OCRResult reports the outcome of page_ocr. Word bounds are relative to
// the examined region.
type OCRResult struct {
	*ocr.Result
	ISBN       string         `json:"isbn,omitempty"`
	Normalized bool           `json:"normalized"`
	Region     imaging.Region `json:"region"`
}

func (s *Server) handlePageOCR(args json.RawMessage) (interface{}, error) {
	var a pageOCRArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Language == "" {
		a.Language = s.ocrLang
	}
	normalize := a.Normalize == nil || *a.Normalize

	img, normalized, region, err := s.pageSource(a.Path, normalize, a.Region)
	if err != nil {
		return nil, err
	}

	text, err := ocr.Recognize(img, a.Language)
	if err != nil {
		return nil, err
	}
	res := &OCRResult{Result: text, Normalized: normalized, Region: region}
	if isbn, ok := barcode.FindISBN(text.Text); ok {
		res.ISBN = isbn
	}
	return res, nil
}
