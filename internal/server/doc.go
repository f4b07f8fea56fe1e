// Package server implements the MCP (Model Context Protocol) server for canvas
// compositing tools.
//
// The server keeps a session of positioned canvases, each a pixel buffer of
// one of six formats anchored somewhere on an unbounded integer plane.
// Clients create or load canvases, composite them onto each other and export
// the result, addressing canvases by the id returned when they were created.
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
// Sources:
//   - image_info: Describe an image file
//   - canvas_create: New canvas, optionally filled
//   - canvas_load: New canvas from an image file
//   - canvas_compose: New canvas from a TOML recipe
//
// Inspection:
//   - canvas_info, canvas_list
//   - canvas_sample: Colors at plane points
//   - canvas_palette: Dominant colors
//   - canvas_export: PNG as base64 or to disk
//   - canvas_grid: PNG with a plane-coordinate grid
//   - canvas_compare: Pixel differences where two canvases overlap
//
// Geometry:
//   - canvas_move, canvas_expand, canvas_crop, canvas_trim
//   - canvas_subimage, canvas_clone: Copies registered as new canvases
//
// Pixels:
//   - canvas_draw: over, replace or mask compositing
//   - canvas_fill, canvas_mutate
//
// Lifecycle:
//   - canvas_dispose: Release pixels, keep the id
//   - canvas_delete: Release pixels and the id
//
// # Coordinates
//
// Every coordinate a tool accepts or returns is a plane coordinate. A canvas
// at (-10, 5) holds its top-left pixel at plane point (-10, 5); growing it
// to the left moves its anchor, never its content.
//
// # Limits
//
// Operations that would make a canvas wider or taller than the configured
// max_dimension fail with ErrTooLarge before any pixel changes.
//
// # Errors
//
// Tool errors are returned as JSON-RPC errors with code -32000 and a
// descriptive message in the data field. Unknown canvas ids wrap
// ErrCanvasNotFound.
package server
