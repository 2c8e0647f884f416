package server

import (
	"strings"

	"github.com/ironsheep/page-tools-mcp/internal/detection"
	"github.com/ironsheep/page-tools-mcp/internal/imaging"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

func regionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Optional region to examine: " + strings.Join(imaging.RegionNames(), ", ") + ". Default full",
		"enum":        imaging.RegionNames(),
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format and orientation.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},

		// Page Normalization
		{
			Name:        "page_detect_boundary",
			Description: "Find the document page in a photo. Returns the four page corners (top-left, top-right, bottom-right, bottom-left), the detection tier and strategy, and optionally a preview with the outline drawn.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"preview": map[string]interface{}{
						"type":        "boolean",
						"description": "Include a base64 PNG preview with the detected outline. Default false",
						"default":     false,
					},
					"line_color": map[string]interface{}{
						"type":        "string",
						"description": "Outline color for the preview as hex (e.g. '#00FF00'). Default green",
						"default":     "#00FF00",
					},
					"max_side": map[string]interface{}{
						"type":        "integer",
						"description": "Longest side of the preview in pixels. Default 1024",
						"default":     1024,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_normalize",
			Description: "Detect the page in a photo, correct its perspective so it is upright and rectangular, and write it as JPEG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "Where to write the JPEG. Default <name>_normalized.jpg next to the input",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_normalize_batch",
			Description: "Normalize several page photos. Results come back in input order; a failed page carries an error and never stops the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"description": "Absolute paths to the image files",
						"items":       map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{"paths"},
			},
		},

		// Detection Diagnostics
		{
			Name:        "page_edge_map",
			Description: "Return the binary mask a page detection recipe sees, as base64 PNG at working resolution. Useful for understanding why a page was or was not found.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"recipe": map[string]interface{}{
						"type":        "string",
						"description": "Detection recipe. Default " + detection.RecipeNames()[0],
						"enum":        detection.RecipeNames(),
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Run Canny edge detection on the full-resolution image and return the edge mask as base64 PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"threshold_low": map[string]interface{}{
						"type":        "integer",
						"description": "Lower hysteresis threshold. Default 50",
						"default":     50,
					},
					"threshold_high": map[string]interface{}{
						"type":        "integer",
						"description": "Upper hysteresis threshold. Default 150",
						"default":     150,
					},
				},
				"required": []string{"path"},
			},
		},

		// Page Content
		{
			Name:        "page_scan_isbn",
			Description: "Decode an EAN-13 ISBN barcode from a page or book cover photo. Returns ISBN-13 and, for 978 prefixes, ISBN-10.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"normalize": map[string]interface{}{
						"type":        "boolean",
						"description": "Rectify the page before scanning. Default false",
						"default":     false,
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "page_ocr",
			Description: "Extract text from a page with Tesseract OCR. Returns full text, word boxes in source coordinates, and any ISBN found in the text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"language": map[string]interface{}{
						"type":        "string",
						"description": "Tesseract language code, '+' separated for several (e.g. 'eng+deu'). Default from server configuration",
					},
					"normalize": map[string]interface{}{
						"type":        "boolean",
						"description": "Rectify the page before recognition. Default true",
						"default":     true,
					},
					"region": regionProperty(),
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
