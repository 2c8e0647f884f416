// Package server implements the MCP (Model Context Protocol) server for page tools.
//
// The server exposes page normalization, ISBN scanning and OCR to MCP
// clients over JSON-RPC 2.0.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Basic Image Information:
//   - image_load: Load image and get metadata
//
// Page Normalization:
//   - page_detect_boundary: Find the page quadrilateral, with optional preview
//   - page_normalize: Rectify one photo to an upright JPEG
//   - page_normalize_batch: Rectify many photos, one result per input
//
// Detection Diagnostics:
//   - page_edge_map: Mask seen by one detection recipe
//   - image_edge_detect: Full-resolution Canny edges
//
// Page Content:
//   - page_scan_isbn: Decode an EAN-13 ISBN barcode
//   - page_ocr: Extract text and any ISBN printed in it
//
// # Image Caching
//
// Images are cached by path and reused across tool calls for the lifetime
// of the server process.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with
// code -32000. For normalization failures the data field starts with the
// end-user message (for example "could not detect the page, please retake
// the photo") followed by the detail.
//
// A page that cannot be found is not an error for page_detect_boundary;
// it reports found=false instead.
//
// # Usage
//
//	srv := server.New(server.WithLogger(logger))
//	if err := srv.Run(); err != nil {
//	    logger.Fatal(err)
//	}
package server
