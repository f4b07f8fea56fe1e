package server

import (
	"github.com/ironsheep/canvas-tools-mcp/internal/compose"
)

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var formatNames = []string{"rgb", "rgba", "l8", "l16", "la16", "la32"}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	schema := map[string]interface{}{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func idProp() map[string]interface{} {
	return prop("string", "Canvas id returned by canvas_create, canvas_load or another tool that creates a canvas")
}

func formatProp(description string) map[string]interface{} {
	p := prop("string", description)
	p["enum"] = formatNames
	return p
}

// rectProps returns plane rectangle properties merged with extra.
func rectProps(extra map[string]interface{}) map[string]interface{} {
	props := map[string]interface{}{
		"x":      prop("integer", "Left edge in plane coordinates (may be negative)"),
		"y":      prop("integer", "Top edge in plane coordinates (may be negative)"),
		"width":  prop("integer", "Width in pixels"),
		"height": prop("integer", "Height in pixels"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Sources
		{
			Name:        "image_info",
			Description: "Describe an image file: dimensions, file format, bit depth, alpha and the canvas pixel format that holds it losslessly.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", "Absolute path to the image file"),
			}, "path"),
		},
		{
			Name:        "canvas_create",
			Description: "Create a canvas anchored at (x, y) on an unbounded plane. A zero width or height creates an empty canvas that grows on first draw.",
			InputSchema: objectSchema(map[string]interface{}{
				"name":   prop("string", "Optional label shown in canvas_list"),
				"format": formatProp("Pixel format. Default rgba"),
				"x":      prop("integer", "Anchor X in plane coordinates"),
				"y":      prop("integer", "Anchor Y in plane coordinates"),
				"width":  prop("integer", "Width in pixels (0 for an empty canvas)"),
				"height": prop("integer", "Height in pixels (0 for an empty canvas)"),
				"fill":   prop("string", "Optional fill color: #RGB, #RRGGBB or #RRGGBBAA"),
			}),
		},
		{
			Name:        "canvas_load",
			Description: "Load an image file into a new canvas anchored at (x, y).",
			InputSchema: objectSchema(map[string]interface{}{
				"path":   prop("string", "Absolute path to the image file"),
				"name":   prop("string", "Optional label shown in canvas_list"),
				"format": formatProp("Pixel format. Defaults to the format that best matches the file"),
				"x":      prop("integer", "Anchor X in plane coordinates"),
				"y":      prop("integer", "Anchor Y in plane coordinates"),
			}, "path"),
		},
		{
			Name:        "canvas_compose",
			Description: "Run a TOML composition recipe (canvas, layers, ops, crop, trim) and register the result as a new canvas.",
			InputSchema: objectSchema(map[string]interface{}{
				"recipe": prop("string", "Recipe text in TOML"),
				"dir":    prop("string", "Directory that relative layer paths resolve against"),
				"name":   prop("string", "Optional label shown in canvas_list"),
			}, "recipe"),
		},

		// Inspection
		{
			Name:        "canvas_info",
			Description: "Describe a canvas: format, plane bounds, growth counters and the bounds of its visible content.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
			}, "id"),
		},
		{
			Name:        "canvas_list",
			Description: "List every canvas in the session, oldest first.",
			InputSchema: objectSchema(map[string]interface{}{}),
		},
		{
			Name:        "canvas_sample",
			Description: "Sample colors at plane coordinates. Returns hex, RGBA and HSL per point, in input order.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
				"points": map[string]interface{}{
					"type":        "array",
					"description": "Points to sample in plane coordinates",
					"items": objectSchema(map[string]interface{}{
						"x":     prop("integer", "X in plane coordinates"),
						"y":     prop("integer", "Y in plane coordinates"),
						"label": prop("string", "Optional label echoed in the result"),
					}, "x", "y"),
				},
			}, "id", "points"),
		},
		{
			Name:        "canvas_palette",
			Description: "Find the most frequent colors of a canvas, optionally within a plane region. Transparent pixels are ignored.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Number of colors to return. Default 5, 0 for all",
					"default":     5,
				},
				"region": objectSchema(rectProps(nil), "x", "y", "width", "height"),
			}, "id"),
		},
		{
			Name:        "canvas_export",
			Description: "Encode a canvas as PNG. Without a path the image is returned base64-encoded; with a path it is written to disk.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
				"scale": map[string]interface{}{
					"type":        "number",
					"description": "Optional scale factor (e.g., 2.0 to double size). Default 1.0",
					"default":     1.0,
				},
				"path": prop("string", "Optional absolute output path"),
			}, "id"),
		},

		{
			Name:        "canvas_grid",
			Description: "Render a canvas with a plane-coordinate grid drawn over it, as base64 PNG. The canvas itself is not changed.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
				"spacing": map[string]interface{}{
					"type":        "integer",
					"description": "Grid spacing in pixels. Default 50",
					"default":     50,
				},
				"show_coordinates": map[string]interface{}{
					"type":        "boolean",
					"description": "Label intersections with plane coordinates. Default true",
					"default":     true,
				},
				"color": map[string]interface{}{
					"type":        "string",
					"description": "Grid color. Default #FF000080",
					"default":     "#FF000080",
				},
			}, "id"),
		},
		{
			Name:        "canvas_compare",
			Description: "Compare two canvases pixel by pixel where their plane bounds overlap.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":       idProp(),
				"other_id": prop("string", "Canvas to compare against"),
				"threshold": map[string]interface{}{
					"type":        "integer",
					"description": "Mean channel difference (0-255) above which a pixel counts as different. Default 10",
					"default":     10,
				},
			}, "id", "other_id"),
		},

		// Geometry
		{
			Name:        "canvas_move",
			Description: "Re-anchor a canvas at (x, y) without touching its pixels.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
				"x":  prop("integer", "New anchor X"),
				"y":  prop("integer", "New anchor Y"),
			}, "id", "x", "y"),
		},
		{
			Name:        "canvas_expand",
			Description: "Grow a canvas to the smallest rectangle containing both its bounds and the given rectangle. Existing content keeps its plane position; new area is zero.",
			InputSchema: objectSchema(rectProps(map[string]interface{}{
				"id": idProp(),
			}), "id", "x", "y", "width", "height"),
		},
		{
			Name:        "canvas_crop",
			Description: "Crop a canvas to the intersection with a plane rectangle. With expand the result covers the whole rectangle, zero-filled outside the old content.",
			InputSchema: objectSchema(rectProps(map[string]interface{}{
				"id":     idProp(),
				"expand": prop("boolean", "Grow to the full rectangle first. Default false"),
			}), "id", "x", "y", "width", "height"),
		},
		{
			Name:        "canvas_trim",
			Description: "Crop a canvas to the bounds of its visible pixels. A canvas with nothing visible becomes empty.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
			}, "id"),
		},
		{
			Name:        "canvas_subimage",
			Description: "Copy a plane rectangle of a canvas into a new canvas. Areas outside the source are zero.",
			InputSchema: objectSchema(rectProps(map[string]interface{}{
				"id":   idProp(),
				"name": prop("string", "Optional label for the new canvas"),
			}), "id", "x", "y", "width", "height"),
		},
		{
			Name:        "canvas_clone",
			Description: "Copy a canvas into a new canvas, optionally converting its pixel format.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":     idProp(),
				"name":   prop("string", "Optional label for the new canvas"),
				"format": formatProp("Target pixel format. Defaults to the source format"),
			}, "id"),
		},

		// Pixels
		{
			Name:        "canvas_draw",
			Description: "Composite one canvas onto another at the source's plane position. over alpha-blends, replace copies, mask scales the destination by the source's alpha or luminance.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":        prop("string", "Destination canvas id"),
				"source_id": prop("string", "Source canvas id"),
				"mode": map[string]interface{}{
					"type":        "string",
					"description": "Compositing mode. Default over",
					"enum":        []string{compose.ModeOver.String(), compose.ModeReplace.String(), compose.ModeMask.String()},
				},
				"expand": prop("boolean", "Grow the destination to contain the source first. Default true except for mask"),
			}, "id", "source_id"),
		},
		{
			Name:        "canvas_fill",
			Description: "Set every pixel of a canvas to one color.",
			InputSchema: objectSchema(map[string]interface{}{
				"id":    idProp(),
				"color": prop("string", "Color: #RGB, #RRGGBB or #RRGGBBAA"),
			}, "id", "color"),
		},
		{
			Name:        "canvas_mutate",
			Description: "Apply image operations to a canvas in order. The anchor stays put; operations that change size change the canvas size.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
				"ops": map[string]interface{}{
					"type":        "array",
					"description": "Operations to apply in order",
					"items": objectSchema(map[string]interface{}{
						"name": map[string]interface{}{
							"type":        "string",
							"description": "Operation name",
							"enum":        compose.OpNames,
						},
						"width":  prop("integer", "resize: target width, 0 keeps aspect"),
						"height": prop("integer", "resize: target height, 0 keeps aspect"),
						"radius": prop("number", "blur: Gaussian radius"),
						"amount": prop("number", "brightness, contrast: percent; gamma: exponent"),
					}, "name"),
				},
			}, "id", "ops"),
		},

		// Lifecycle
		{
			Name:        "canvas_dispose",
			Description: "Release a canvas's pixels but keep its id. The canvas becomes empty and grows again on the next draw or expand.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
			}, "id"),
		},
		{
			Name:        "canvas_delete",
			Description: "Release a canvas and forget its id.",
			InputSchema: objectSchema(map[string]interface{}{
				"id": idProp(),
			}, "id"),
		},
	}
}

// ToolNames returns the names of every tool, in definition order.
func ToolNames() []string {
	tools := GetToolDefinitions()
	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	return names
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
