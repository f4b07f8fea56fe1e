package server

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ironsheep/canvas-tools-mcp/internal/config"
	"github.com/ironsheep/canvas-tools-mcp/internal/imaging"
)

// createTestImageFile creates a test image file and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "handler-test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

// callTool runs a tools/call request and returns the result text or the
// JSON-RPC error.
func callTool(t *testing.T, s *Server, name string, args interface{}) (string, *MCPError) {
	t.Helper()

	params := map[string]interface{}{
		"name":      name,
		"arguments": args,
	}
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		t.Fatalf("marshal params: %v", err)
	}

	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	if resp == nil {
		t.Fatal("handleToolsCall returned nil")
	}
	if resp.Error != nil {
		return "", resp.Error
	}

	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	return content[0]["text"].(string), nil
}

// mustCall runs a tool that must succeed and decodes its result into out.
func mustCall(t *testing.T, s *Server, name string, args, out interface{}) {
	t.Helper()
	text, mcpErr := callTool(t, s, name, args)
	if mcpErr != nil {
		t.Fatalf("%s: unexpected error: %s (%v)", name, mcpErr.Message, mcpErr.Data)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("%s: decode result: %v\n%s", name, err, text)
	}
}

// mustFail runs a tool that must fail and returns the error detail.
func mustFail(t *testing.T, s *Server, name string, args interface{}) string {
	t.Helper()
	_, mcpErr := callTool(t, s, name, args)
	if mcpErr == nil {
		t.Fatalf("%s: expected an error", name)
	}
	if mcpErr.Code != -32000 {
		t.Errorf("%s: error code %d, want -32000", name, mcpErr.Code)
	}
	detail, _ := mcpErr.Data.(string)
	return detail
}

func create(t *testing.T, s *Server, args map[string]interface{}) CanvasResult {
	t.Helper()
	var c CanvasResult
	mustCall(t, s, "canvas_create", args, &c)
	if c.ID == "" {
		t.Fatal("canvas_create returned no id")
	}
	return c
}

func sampleHex(t *testing.T, s *Server, id string, x, y int) string {
	t.Helper()
	var res imaging.MultiColorResult
	mustCall(t, s, "canvas_sample", map[string]interface{}{
		"id":     id,
		"points": []map[string]interface{}{{"x": x, "y": y}},
	}, &res)
	return res.Samples[0].Color.Hex
}

func TestHandleToolsCall_ImageInfo(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 100, 80, color.NRGBA{255, 0, 0, 255})

	var info imaging.ImageInfo
	mustCall(t, s, "image_info", map[string]interface{}{"path": path}, &info)

	if info.Width != 100 || info.Height != 80 {
		t.Errorf("size = %dx%d, want 100x80", info.Width, info.Height)
	}
	if info.Format != "png" {
		t.Errorf("format = %q, want png", info.Format)
	}
}

func TestHandleToolsCall_NonExistentFile(t *testing.T) {
	s := newTestServer(t)
	mustFail(t, s, "canvas_load", map[string]interface{}{"path": "/nonexistent/image.png"})
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	s := newTestServer(t)
	resp := s.handleToolsCall(context.Background(), &MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Params:  json.RawMessage(`not json`),
	})
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Fatalf("expected -32602, got %+v", resp.Error)
	}
}

func TestHandleToolsCall_InvalidTool(t *testing.T) {
	s := newTestServer(t)
	detail := mustFail(t, s, "nonexistent_tool", map[string]interface{}{})
	if !strings.Contains(detail, "unknown tool") {
		t.Errorf("detail = %q", detail)
	}
}

func TestCanvasCreate(t *testing.T) {
	s := newTestServer(t)

	c := create(t, s, map[string]interface{}{
		"name": "bg", "format": "rgb", "x": -3, "y": 4, "width": 5, "height": 2, "fill": "#102030",
	})
	if c.Name != "bg" || c.Format != "rgb" {
		t.Errorf("got name %q format %q", c.Name, c.Format)
	}
	if c.X != -3 || c.Y != 4 || c.Width != 5 || c.Height != 2 || c.Empty {
		t.Errorf("bounds = (%d,%d %dx%d) empty=%v", c.X, c.Y, c.Width, c.Height, c.Empty)
	}
	if got := sampleHex(t, s, c.ID, -3, 4); got != "#102030" {
		t.Errorf("fill sample = %s, want #102030", got)
	}

	empty := create(t, s, map[string]interface{}{"format": "la16"})
	if !empty.Empty || empty.Width != 0 {
		t.Errorf("zero-size canvas = %+v, want empty", empty)
	}
}

func TestCanvasCreate_Stats(t *testing.T) {
	s := newTestServer(t)
	sized := create(t, s, map[string]interface{}{"width": 3, "height": 3})
	empty := create(t, s, map[string]interface{}{})

	if sized.Stats.Allocations != 1 {
		t.Errorf("sized allocations = %d, want 1", sized.Stats.Allocations)
	}
	if empty.Stats.Allocations != 0 {
		t.Errorf("empty allocations = %d, want 0", empty.Stats.Allocations)
	}
}

func TestCanvasCreate_Errors(t *testing.T) {
	s := New(config.Config{MaxDimension: 64}, nil)

	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"unknown format", map[string]interface{}{"format": "cmyk", "width": 1, "height": 1}, "unknown pixel format"},
		{"too wide", map[string]interface{}{"width": 65, "height": 1}, "maximum dimension"},
		{"negative", map[string]interface{}{"width": -1, "height": 1}, "invalid size"},
		{"bad color", map[string]interface{}{"width": 1, "height": 1, "fill": "#12"}, "color"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail := mustFail(t, s, "canvas_create", tt.args)
			if !strings.Contains(detail, tt.want) {
				t.Errorf("detail = %q, want it to contain %q", detail, tt.want)
			}
		})
	}
	if s.Canvases().Len() != 0 {
		t.Errorf("failed creates left %d canvases", s.Canvases().Len())
	}
}

func TestCanvasLoad(t *testing.T) {
	s := newTestServer(t)
	path := createTestImageFile(t, 6, 4, color.NRGBA{0, 255, 0, 255})

	var c CanvasResult
	mustCall(t, s, "canvas_load", map[string]interface{}{"path": path, "x": 10, "y": -2}, &c)

	if c.Format != "rgb" {
		t.Errorf("opaque image loaded as %s, want rgb", c.Format)
	}
	if c.X != 10 || c.Y != -2 || c.Width != 6 || c.Height != 4 {
		t.Errorf("bounds = (%d,%d %dx%d)", c.X, c.Y, c.Width, c.Height)
	}
	if got := sampleHex(t, s, c.ID, 15, 1); got != "#00FF00" {
		t.Errorf("sample = %s, want #00FF00", got)
	}

	var gray CanvasResult
	mustCall(t, s, "canvas_load", map[string]interface{}{"path": path, "format": "l8"}, &gray)
	if gray.Format != "l8" {
		t.Errorf("format override = %s, want l8", gray.Format)
	}
}

func TestCanvasDraw_Over(t *testing.T) {
	s := newTestServer(t)
	dst := create(t, s, map[string]interface{}{"format": "rgb", "width": 2, "height": 2, "fill": "#000000"})
	src := create(t, s, map[string]interface{}{"format": "rgba", "x": 1, "y": 1, "width": 2, "height": 2, "fill": "#FF0000"})

	var out CanvasResult
	mustCall(t, s, "canvas_draw", map[string]interface{}{"id": dst.ID, "source_id": src.ID}, &out)

	if out.Width != 3 || out.Height != 3 || out.X != 0 || out.Y != 0 {
		t.Errorf("after expand: (%d,%d %dx%d), want (0,0 3x3)", out.X, out.Y, out.Width, out.Height)
	}
	if out.Stats.Expansions != 1 {
		t.Errorf("expansions = %d, want 1", out.Stats.Expansions)
	}

	tests := []struct {
		x, y int
		want string
	}{
		{0, 0, "#000000"},
		{1, 1, "#FF0000"},
		{2, 2, "#FF0000"},
		{2, 0, "#000000"}, // grown area
	}
	for _, tt := range tests {
		if got := sampleHex(t, s, dst.ID, tt.x, tt.y); got != tt.want {
			t.Errorf("sample (%d,%d) = %s, want %s", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestCanvasDraw_NoExpand(t *testing.T) {
	s := newTestServer(t)
	dst := create(t, s, map[string]interface{}{"format": "rgba", "width": 2, "height": 2})
	src := create(t, s, map[string]interface{}{"format": "rgba", "x": 1, "y": 1, "width": 4, "height": 4, "fill": "#FFFFFF"})

	var out CanvasResult
	mustCall(t, s, "canvas_draw", map[string]interface{}{
		"id": dst.ID, "source_id": src.ID, "mode": "replace", "expand": false,
	}, &out)

	if out.Width != 2 || out.Height != 2 {
		t.Errorf("size = %dx%d, want unchanged 2x2", out.Width, out.Height)
	}
	if got := sampleHex(t, s, dst.ID, 1, 1); got != "#FFFFFF" {
		t.Errorf("overlap sample = %s, want #FFFFFF", got)
	}
}

func TestCanvasDraw_Errors(t *testing.T) {
	s := New(config.Config{MaxDimension: 8}, nil)
	gray := create(t, s, map[string]interface{}{"format": "l8", "width": 2, "height": 2})
	rgba := create(t, s, map[string]interface{}{"format": "rgba", "width": 2, "height": 2})
	far := create(t, s, map[string]interface{}{"format": "la16", "x": 20, "width": 2, "height": 2})

	t.Run("unsupported pair", func(t *testing.T) {
		detail := mustFail(t, s, "canvas_draw", map[string]interface{}{"id": gray.ID, "source_id": rgba.ID})
		if !strings.Contains(detail, "unsupported") {
			t.Errorf("detail = %q", detail)
		}
		var info CanvasResult
		mustCall(t, s, "canvas_info", map[string]interface{}{"id": gray.ID}, &info)
		if info.Width != 2 || info.Height != 2 {
			t.Errorf("failed draw changed destination to %dx%d", info.Width, info.Height)
		}
	})

	t.Run("growth too large", func(t *testing.T) {
		detail := mustFail(t, s, "canvas_draw", map[string]interface{}{"id": gray.ID, "source_id": far.ID})
		if !strings.Contains(detail, "maximum dimension") {
			t.Errorf("detail = %q", detail)
		}
	})

	t.Run("self", func(t *testing.T) {
		mustFail(t, s, "canvas_draw", map[string]interface{}{"id": gray.ID, "source_id": gray.ID})
	})

	t.Run("unknown source", func(t *testing.T) {
		detail := mustFail(t, s, "canvas_draw", map[string]interface{}{"id": gray.ID, "source_id": "missing"})
		if !strings.Contains(detail, ErrCanvasNotFound.Error()) {
			t.Errorf("detail = %q", detail)
		}
	})

	t.Run("bad mode", func(t *testing.T) {
		mustFail(t, s, "canvas_draw", map[string]interface{}{"id": gray.ID, "source_id": far.ID, "mode": "multiply"})
	})
}

func TestCanvasExpand(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "rgba", "width": 2, "height": 2, "fill": "#FFFFFF"})

	var res ExpandResult
	mustCall(t, s, "canvas_expand", map[string]interface{}{
		"id": c.ID, "x": -3, "y": -1, "width": 1, "height": 1,
	}, &res)

	if !res.Expanded || res.DeltaX != 3 || res.DeltaY != 1 {
		t.Errorf("result = %+v, want expanded with delta (3,1)", res)
	}
	if res.Canvas.X != -3 || res.Canvas.Y != -1 || res.Canvas.Width != 5 || res.Canvas.Height != 3 {
		t.Errorf("canvas = (%d,%d %dx%d), want (-3,-1 5x3)", res.Canvas.X, res.Canvas.Y, res.Canvas.Width, res.Canvas.Height)
	}
	if got := sampleHex(t, s, c.ID, 0, 0); got != "#FFFFFF" {
		t.Errorf("content moved: sample (0,0) = %s", got)
	}

	mustCall(t, s, "canvas_expand", map[string]interface{}{
		"id": c.ID, "x": 0, "y": 0, "width": 1, "height": 1,
	}, &res)
	if res.Expanded {
		t.Error("contained rectangle should not expand")
	}
}

func TestCanvasCrop(t *testing.T) {
	s := newTestServer(t)

	t.Run("shrink", func(t *testing.T) {
		c := create(t, s, map[string]interface{}{"format": "l8", "width": 10, "height": 10})
		var out CanvasResult
		mustCall(t, s, "canvas_crop", map[string]interface{}{
			"id": c.ID, "x": 8, "y": -5, "width": 10, "height": 10,
		}, &out)
		if out.X != 8 || out.Y != 0 || out.Width != 2 || out.Height != 5 {
			t.Errorf("crop = (%d,%d %dx%d), want (8,0 2x5)", out.X, out.Y, out.Width, out.Height)
		}
	})

	t.Run("expand", func(t *testing.T) {
		c := create(t, s, map[string]interface{}{"format": "l8", "width": 10, "height": 10})
		var out CanvasResult
		mustCall(t, s, "canvas_crop", map[string]interface{}{
			"id": c.ID, "x": 8, "y": -5, "width": 10, "height": 10, "expand": true,
		}, &out)
		if out.X != 8 || out.Y != -5 || out.Width != 10 || out.Height != 10 {
			t.Errorf("crop = (%d,%d %dx%d), want (8,-5 10x10)", out.X, out.Y, out.Width, out.Height)
		}
	})
}

func TestCanvasCrop_ExpandLimit(t *testing.T) {
	s := New(config.Config{MaxDimension: 16}, nil)
	c := create(t, s, map[string]interface{}{"format": "l8", "width": 10, "height": 10})

	// The union with the canvas is 18 wide before the crop clips it.
	detail := mustFail(t, s, "canvas_crop", map[string]interface{}{
		"id": c.ID, "x": 8, "y": 0, "width": 10, "height": 10, "expand": true,
	})
	if !strings.Contains(detail, "maximum dimension") {
		t.Errorf("detail = %q", detail)
	}
	var info CanvasResult
	mustCall(t, s, "canvas_info", map[string]interface{}{"id": c.ID}, &info)
	if info.X != 0 || info.Width != 10 || info.Height != 10 {
		t.Errorf("refused crop changed canvas to (%d,%d %dx%d)", info.X, info.Y, info.Width, info.Height)
	}

	// A disjoint crop replaces the canvas, so only the target size counts.
	var out CanvasResult
	mustCall(t, s, "canvas_crop", map[string]interface{}{
		"id": c.ID, "x": 100, "y": 100, "width": 16, "height": 16, "expand": true,
	}, &out)
	if out.X != 100 || out.Width != 16 || out.Height != 16 {
		t.Errorf("crop = (%d,%d %dx%d), want (100,100 16x16)", out.X, out.Y, out.Width, out.Height)
	}
}

func TestCanvasTrim(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "rgba", "width": 6, "height": 6})
	dot := create(t, s, map[string]interface{}{"format": "rgba", "x": 2, "y": 3, "width": 1, "height": 1, "fill": "#FFFFFF"})
	mustCall(t, s, "canvas_draw", map[string]interface{}{"id": c.ID, "source_id": dot.ID, "expand": false}, nil)

	var info CanvasInfoResult
	mustCall(t, s, "canvas_info", map[string]interface{}{"id": c.ID}, &info)
	if info.Content == nil || *info.Content != (BoundsResult{X: 2, Y: 3, Width: 1, Height: 1}) {
		t.Errorf("content = %+v, want (2,3 1x1)", info.Content)
	}

	var res TrimResult
	mustCall(t, s, "canvas_trim", map[string]interface{}{"id": c.ID}, &res)
	if !res.Changed || res.Canvas.X != 2 || res.Canvas.Y != 3 || res.Canvas.Width != 1 {
		t.Errorf("trim = %+v", res)
	}

	blank := create(t, s, map[string]interface{}{"format": "rgba", "width": 3, "height": 3})
	mustCall(t, s, "canvas_trim", map[string]interface{}{"id": blank.ID}, &res)
	if !res.Changed || !res.Canvas.Empty {
		t.Errorf("blank trim = %+v, want empty", res)
	}
}

func TestCanvasSubimageAndClone(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "rgba", "width": 4, "height": 4, "fill": "#FF0000"})

	var sub CanvasResult
	mustCall(t, s, "canvas_subimage", map[string]interface{}{
		"id": c.ID, "name": "corner", "x": 2, "y": 2, "width": 4, "height": 4,
	}, &sub)
	if sub.ID == c.ID || sub.Name != "corner" {
		t.Errorf("subimage = %+v", sub)
	}
	if got := sampleHex(t, s, sub.ID, 3, 3); got != "#FF0000" {
		t.Errorf("inside sample = %s", got)
	}
	if got := sampleHex(t, s, sub.ID, 5, 5); got != "#000000" {
		t.Errorf("padding sample = %s, want #000000", got)
	}

	var gray CanvasResult
	mustCall(t, s, "canvas_clone", map[string]interface{}{"id": c.ID, "format": "la16"}, &gray)
	if gray.Format != "la16" || gray.Width != 4 {
		t.Errorf("clone = %+v", gray)
	}

	var list CanvasListResult
	mustCall(t, s, "canvas_list", map[string]interface{}{}, &list)
	if list.Count != 3 {
		t.Fatalf("list count = %d, want 3", list.Count)
	}
	if list.Canvases[0].ID != c.ID {
		t.Errorf("list not ordered by creation: first = %s", list.Canvases[0].ID)
	}
}

func TestCanvasMoveAndSample(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "rgba", "width": 2, "height": 2, "fill": "#00FF0080"})

	var moved CanvasResult
	mustCall(t, s, "canvas_move", map[string]interface{}{"id": c.ID, "x": 10, "y": 10}, &moved)
	if moved.X != 10 || moved.Y != 10 {
		t.Errorf("moved to (%d,%d)", moved.X, moved.Y)
	}

	var res imaging.MultiColorResult
	mustCall(t, s, "canvas_sample", map[string]interface{}{
		"id":     c.ID,
		"points": []map[string]interface{}{{"x": 11, "y": 10, "label": "edge"}},
	}, &res)
	got := res.Samples[0]
	if got.X != 11 || got.Y != 10 || got.Label != "edge" {
		t.Errorf("sample point = (%d,%d) %q", got.X, got.Y, got.Label)
	}
	if got.Color.Hex != "#00FF00" || got.Color.RGBA.A != 0x80 {
		t.Errorf("sample = %s alpha %d", got.Color.Hex, got.Color.RGBA.A)
	}

	mustFail(t, s, "canvas_sample", map[string]interface{}{
		"id":     c.ID,
		"points": []map[string]interface{}{{"x": 0, "y": 0}},
	})
	mustFail(t, s, "canvas_sample", map[string]interface{}{"id": c.ID, "points": []interface{}{}})
}

func TestCanvasFillAndPalette(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "rgb", "x": 5, "y": 5, "width": 4, "height": 4})

	mustCall(t, s, "canvas_fill", map[string]interface{}{"id": c.ID, "color": "#FF0000"}, nil)

	var pal imaging.DominantColorsResult
	mustCall(t, s, "canvas_palette", map[string]interface{}{"id": c.ID}, &pal)
	if len(pal.Colors) != 1 || pal.Colors[0].Hex != "#F00000" || pal.Colors[0].Percentage != 100 {
		t.Errorf("palette = %+v", pal.Colors)
	}

	mustCall(t, s, "canvas_palette", map[string]interface{}{
		"id": c.ID, "region": map[string]interface{}{"x": 7, "y": 7, "width": 10, "height": 10},
	}, &pal)
	if len(pal.Colors) != 1 {
		t.Errorf("region palette = %+v", pal.Colors)
	}

	mustFail(t, s, "canvas_palette", map[string]interface{}{
		"id": c.ID, "region": map[string]interface{}{"x": 0, "y": 0, "width": 2, "height": 2},
	})

	empty := create(t, s, map[string]interface{}{})
	mustFail(t, s, "canvas_fill", map[string]interface{}{"id": empty.ID, "color": "#FFF"})
}

func TestCanvasMutate(t *testing.T) {
	s := New(config.Config{MaxDimension: 16}, nil)
	c := create(t, s, map[string]interface{}{"format": "rgba", "x": 3, "y": 4, "width": 4, "height": 2, "fill": "#FFFFFF"})

	var out CanvasResult
	mustCall(t, s, "canvas_mutate", map[string]interface{}{
		"id":  c.ID,
		"ops": []map[string]interface{}{{"name": "rotate90"}, {"name": "invert"}},
	}, &out)
	if out.X != 3 || out.Y != 4 || out.Width != 2 || out.Height != 4 {
		t.Errorf("after rotate = (%d,%d %dx%d), want (3,4 2x4)", out.X, out.Y, out.Width, out.Height)
	}
	if got := sampleHex(t, s, c.ID, 3, 4); got != "#000000" {
		t.Errorf("after invert = %s", got)
	}

	detail := mustFail(t, s, "canvas_mutate", map[string]interface{}{
		"id":  c.ID,
		"ops": []map[string]interface{}{{"name": "resize", "height": 40}},
	})
	if !strings.Contains(detail, "maximum dimension") {
		t.Errorf("detail = %q", detail)
	}

	mustFail(t, s, "canvas_mutate", map[string]interface{}{
		"id":  c.ID,
		"ops": []map[string]interface{}{{"name": "swirl"}},
	})
	mustFail(t, s, "canvas_mutate", map[string]interface{}{"id": c.ID, "ops": []interface{}{}})
}

func TestCanvasExport(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "la16", "width": 4, "height": 3, "fill": "#808080"})

	var exp imaging.ExportResult
	mustCall(t, s, "canvas_export", map[string]interface{}{"id": c.ID, "scale": 2.0}, &exp)
	if exp.Width != 8 || exp.Height != 6 || exp.ImageBase64 == "" || exp.MimeType != "image/png" {
		t.Errorf("export = %dx%d %s (%d bytes)", exp.Width, exp.Height, exp.MimeType, len(exp.ImageBase64))
	}

	path := filepath.Join(t.TempDir(), "out.png")
	var saved SaveResult
	mustCall(t, s, "canvas_export", map[string]interface{}{"id": c.ID, "path": path}, &saved)
	if saved.Width != 4 || saved.Height != 3 {
		t.Errorf("saved = %+v", saved)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved file: %v", err)
	}

	empty := create(t, s, map[string]interface{}{})
	mustFail(t, s, "canvas_export", map[string]interface{}{"id": empty.ID})
}

func TestCanvasCompose(t *testing.T) {
	s := newTestServer(t)
	recipe := `
format = "rgb"

[canvas]
width = 4
height = 4
fill = "#000000"

[[layer]]
fill = "#FFFFFF"
x = 2
y = 2
width = 4
height = 4
`
	var c CanvasResult
	mustCall(t, s, "canvas_compose", map[string]interface{}{"recipe": recipe, "name": "recipe"}, &c)
	if c.Format != "rgb" || c.Width != 6 || c.Height != 6 {
		t.Errorf("composed = %+v", c)
	}
	if got := sampleHex(t, s, c.ID, 5, 5); got != "#FFFFFF" {
		t.Errorf("layer sample = %s", got)
	}

	mustFail(t, s, "canvas_compose", map[string]interface{}{"recipe": "bogus_key = 1"})
}

func TestCanvasCompose_SizeLimit(t *testing.T) {
	s := New(config.Config{MaxDimension: 64}, nil)

	tests := []struct {
		name   string
		recipe string
	}{
		{"fill layer", "[[layer]]\nfill = \"#fff\"\nwidth = 4000\nheight = 4000"},
		{"start canvas", "[canvas]\nwidth = 4000\nheight = 4000"},
		{"draw growth", "[[layer]]\nfill = \"#fff\"\nwidth = 8\nheight = 8\n[[layer]]\nfill = \"#fff\"\nx = 4000\ny = 4000\nwidth = 8\nheight = 8"},
		{"resize op", "[[layer]]\nfill = \"#fff\"\nwidth = 8\nheight = 8\nops = [{ name = \"resize\", width = 4000 }]"},
		{"crop expand", "[[layer]]\nfill = \"#fff\"\nwidth = 8\nheight = 8\n[crop]\nx = 4\nwidth = 4000\nheight = 4\nexpand = true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var before, after runtime.MemStats
			runtime.GC()
			runtime.ReadMemStats(&before)

			detail := mustFail(t, s, "canvas_compose", map[string]interface{}{"recipe": tt.recipe})

			runtime.ReadMemStats(&after)
			if !strings.Contains(detail, "maximum dimension") {
				t.Errorf("detail = %q", detail)
			}
			// A 4000x4000 RGBA buffer is 64 MB; refusing it must not allocate it.
			if grown := after.TotalAlloc - before.TotalAlloc; grown > 8<<20 {
				t.Errorf("refused recipe allocated %d bytes", grown)
			}
		})
	}
	if s.Canvases().Len() != 0 {
		t.Errorf("refused recipes left %d canvases", s.Canvases().Len())
	}
}

func TestCanvasDisposeAndDelete(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "l16", "x": 4, "y": 4, "width": 2, "height": 2})

	var disposed CanvasResult
	mustCall(t, s, "canvas_dispose", map[string]interface{}{"id": c.ID}, &disposed)
	if !disposed.Empty || disposed.X != 0 || disposed.Y != 0 {
		t.Errorf("disposed = %+v, want empty at origin", disposed)
	}

	// A disposed canvas grows again.
	var res ExpandResult
	mustCall(t, s, "canvas_expand", map[string]interface{}{"id": c.ID, "x": 1, "y": 1, "width": 3, "height": 3}, &res)
	if res.Canvas.Empty || res.Canvas.Width != 3 || res.Canvas.X != 1 {
		t.Errorf("regrown = %+v", res.Canvas)
	}

	var del DeleteResult
	mustCall(t, s, "canvas_delete", map[string]interface{}{"id": c.ID}, &del)
	if del.Deleted != c.ID || del.Remaining != 0 {
		t.Errorf("delete = %+v", del)
	}

	mustFail(t, s, "canvas_info", map[string]interface{}{"id": c.ID})
	mustFail(t, s, "canvas_delete", map[string]interface{}{"id": c.ID})
	mustFail(t, s, "canvas_info", map[string]interface{}{})
}

func TestExecuteTool_AllTools(t *testing.T) {
	s := newTestServer(t)
	for _, name := range ToolNames() {
		t.Run(name, func(t *testing.T) {
			_, err := s.executeTool(context.Background(), name, json.RawMessage(`{"id":"missing"}`))
			if err != nil && strings.Contains(err.Error(), "unknown tool") {
				t.Errorf("tool %s is defined but not dispatched", name)
			}
		})
	}
}

func TestExecuteTool_InvalidJSON(t *testing.T) {
	s := newTestServer(t)
	if _, err := s.executeTool(context.Background(), "canvas_create", json.RawMessage(`{invalid`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestExecuteTool_CanvasNotFound(t *testing.T) {
	s := newTestServer(t)
	_, err := s.executeTool(context.Background(), "canvas_trim", json.RawMessage(`{"id":"missing"}`))
	if !errors.Is(err, ErrCanvasNotFound) {
		t.Errorf("error = %v, want ErrCanvasNotFound", err)
	}
}

func TestCanvasGrid(t *testing.T) {
	s := newTestServer(t)
	c := create(t, s, map[string]interface{}{"format": "rgb", "x": -10, "width": 30, "height": 20})

	var res imaging.GridOverlayResult
	mustCall(t, s, "canvas_grid", map[string]interface{}{"id": c.ID, "spacing": 10}, &res)
	if res.Width != 30 || res.Height != 20 || res.GridSpacing != 10 || res.ImageBase64 == "" {
		t.Errorf("grid = %dx%d spacing %d", res.Width, res.Height, res.GridSpacing)
	}

	// The grid is a rendering; the canvas keeps its pixels.
	if got := sampleHex(t, s, c.ID, 0, 0); got != "#000000" {
		t.Errorf("canvas changed by grid: %s", got)
	}

	mustFail(t, s, "canvas_grid", map[string]interface{}{"id": c.ID, "spacing": 0})
	mustFail(t, s, "canvas_grid", map[string]interface{}{"id": c.ID, "color": "nope"})
}

func TestCanvasCompare(t *testing.T) {
	s := newTestServer(t)
	a := create(t, s, map[string]interface{}{"format": "rgba", "width": 4, "height": 4, "fill": "#FF0000"})
	b := create(t, s, map[string]interface{}{"format": "rgb", "x": 2, "y": 2, "width": 4, "height": 4, "fill": "#FF0000"})
	g := create(t, s, map[string]interface{}{"format": "rgba", "x": 3, "y": 3, "width": 4, "height": 4, "fill": "#00FF00"})
	far := create(t, s, map[string]interface{}{"format": "rgba", "x": 50, "width": 1, "height": 1})

	var same CompareResult
	mustCall(t, s, "canvas_compare", map[string]interface{}{"id": a.ID, "other_id": b.ID}, &same)
	if same.Overlap != (BoundsResult{X: 2, Y: 2, Width: 2, Height: 2}) {
		t.Errorf("overlap = %+v", same.Overlap)
	}
	if same.TotalPixels != 4 || same.SimilarityScore != 1 {
		t.Errorf("same = %+v", same)
	}

	var diff CompareResult
	mustCall(t, s, "canvas_compare", map[string]interface{}{"id": a.ID, "other_id": g.ID}, &diff)
	if diff.TotalPixels != 1 || diff.PixelsDifferent != 1 {
		t.Errorf("diff = %+v", diff)
	}

	mustFail(t, s, "canvas_compare", map[string]interface{}{"id": a.ID, "other_id": far.ID})
}
