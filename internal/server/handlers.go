package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/canvas-tools-mcp/internal/compose"
	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/imaging"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// ErrTooLarge is returned when an operation would produce a canvas wider or
// taller than the configured maximum dimension.
var ErrTooLarge = errors.New("canvas exceeds maximum dimension")

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "canvas_create", "canvas_draw").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	start := time.Now()
	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", "tool", params.Name, "err", err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}
	s.logger.Debug("tool call", "tool", params.Name, "elapsed", time.Since(start).Round(time.Microsecond))

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
//
// Each tool handler unmarshals its arguments, looks up the canvases it
// names, checks size limits before anything grows, and returns a result
// that is marshaled into the response.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Sources
	case "image_info":
		return s.handleImageInfo(args)
	case "canvas_create":
		return s.handleCanvasCreate(args)
	case "canvas_load":
		return s.handleCanvasLoad(args)
	case "canvas_compose":
		return s.handleCanvasCompose(ctx, args)

	// Inspection
	case "canvas_info":
		return s.handleCanvasInfo(args)
	case "canvas_list":
		return s.handleCanvasList()
	case "canvas_sample":
		return s.handleCanvasSample(args)
	case "canvas_palette":
		return s.handleCanvasPalette(args)
	case "canvas_export":
		return s.handleCanvasExport(args)
	case "canvas_grid":
		return s.handleCanvasGrid(args)
	case "canvas_compare":
		return s.handleCanvasCompare(args)

	// Geometry
	case "canvas_move":
		return s.handleCanvasMove(args)
	case "canvas_expand":
		return s.handleCanvasExpand(args)
	case "canvas_crop":
		return s.handleCanvasCrop(args)
	case "canvas_trim":
		return s.handleCanvasTrim(args)
	case "canvas_subimage":
		return s.handleCanvasSubimage(args)
	case "canvas_clone":
		return s.handleCanvasClone(args)

	// Pixels
	case "canvas_draw":
		return s.handleCanvasDraw(args)
	case "canvas_fill":
		return s.handleCanvasFill(args)
	case "canvas_mutate":
		return s.handleCanvasMutate(args)

	// Lifecycle
	case "canvas_dispose":
		return s.handleCanvasDispose(args)
	case "canvas_delete":
		return s.handleCanvasDelete(args)

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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Shared argument and result types ===

type idArgs struct {
	ID string `json:"id"`
}

// rectArgs is a plane rectangle.
type rectArgs struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (r rectArgs) rect() geom.Rect {
	return geom.R(r.X, r.Y, r.Width, r.Height)
}

// CanvasResult describes a registered canvas.
type CanvasResult struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
	compose.Info
	Stats CanvasStats `json:"stats"`
}

// BoundsResult is a plane rectangle in tool output.
type BoundsResult struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

func boundsOf(r geom.Rect) *BoundsResult {
	return &BoundsResult{X: r.Pos.X, Y: r.Pos.Y, Width: r.Size.X, Height: r.Size.Y}
}

func describe(e *CanvasEntry) CanvasResult {
	return CanvasResult{
		ID:    e.ID,
		Name:  e.Name,
		Info:  e.Layer.Info(),
		Stats: e.Stats(),
	}
}

func (s *Server) lookup(id string) (*CanvasEntry, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}
	return s.canvases.Get(id)
}

// checkSize rejects sizes beyond the configured maximum dimension.
func (s *Server) checkSize(size image.Point) error {
	return MaxDimension(s.cfg.MaxDimension)(size)
}

// MaxDimension returns a size check that refuses negative sizes and, when m
// is positive, sizes wider or taller than m with ErrTooLarge.
func MaxDimension(m int) compose.SizeCheck {
	return func(size image.Point) error {
		if size.X < 0 || size.Y < 0 {
			return fmt.Errorf("invalid size %dx%d", size.X, size.Y)
		}
		if m > 0 && (size.X > m || size.Y > m) {
			return fmt.Errorf("%w: %dx%d (max %d)", ErrTooLarge, size.X, size.Y, m)
		}
		return nil
	}
}

// checkGrowth checks the size l would have after growing to contain r.
func (s *Server) checkGrowth(l compose.Layer, r geom.Rect) error {
	if r.Empty() {
		return nil
	}
	return s.checkSize(compose.GrowthSize(l, r))
}

func parseFormatOr(name string, def pixel.Format) (pixel.Format, error) {
	if name == "" {
		return def, nil
	}
	return compose.ParseFormat(name)
}

// === Source Handlers ===

type imageInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageInfo(args json.RawMessage) (interface{}, error) {
	var a imageInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type canvasCreateArgs struct {
	Name   string `json:"name"`
	Format string `json:"format"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Fill   string `json:"fill"`
}

func (s *Server) handleCanvasCreate(args json.RawMessage) (interface{}, error) {
	var a canvasCreateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	format, err := parseFormatOr(a.Format, pixel.FormatRGBA)
	if err != nil {
		return nil, err
	}
	size := image.Pt(a.Width, a.Height)
	if err := s.checkSize(size); err != nil {
		return nil, err
	}

	l, err := compose.NewLayer(format, image.Pt(a.X, a.Y), size)
	if err != nil {
		return nil, err
	}
	if a.Fill != "" {
		c, err := compose.ParseColor(a.Fill)
		if err != nil {
			l.Dispose()
			return nil, err
		}
		l.Fill(c)
	}
	return describe(s.canvases.Add(a.Name, l)), nil
}

type canvasLoadArgs struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Format string `json:"format"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

func (s *Server) handleCanvasLoad(args json.RawMessage) (interface{}, error) {
	var a canvasLoadArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	if err := s.checkSize(img.Bounds().Size()); err != nil {
		return nil, err
	}
	format, err := parseFormatOr(a.Format, imaging.SuggestFormat(img))
	if err != nil {
		return nil, err
	}

	l, err := compose.LayerFromImage(format, image.Pt(a.X, a.Y), img)
	if err != nil {
		return nil, err
	}
	return describe(s.canvases.Add(a.Name, l)), nil
}

type canvasComposeArgs struct {
	Recipe string `json:"recipe"`
	Dir    string `json:"dir"`
	Name   string `json:"name"`
}

func (s *Server) handleCanvasCompose(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a canvasComposeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	r, err := compose.ParseRecipe([]byte(a.Recipe), a.Dir)
	if err != nil {
		return nil, err
	}
	l, err := compose.RunRecipe(ctx, r, s.cache, s.checkSize)
	if err != nil {
		return nil, err
	}
	return describe(s.canvases.Add(a.Name, l)), nil
}

// === Inspection Handlers ===

// CanvasInfoResult adds the bounds of the visible content to a canvas
// description.
type CanvasInfoResult struct {
	CanvasResult
	Content *BoundsResult `json:"content,omitempty"`
}

func (s *Server) handleCanvasInfo(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	res := CanvasInfoResult{CanvasResult: describe(e)}
	if r, ok := e.Layer.ContentBounds(); ok {
		res.Content = boundsOf(r)
	}
	return res, nil
}

// CanvasListResult lists every registered canvas, oldest first.
type CanvasListResult struct {
	Count    int            `json:"count"`
	Canvases []CanvasResult `json:"canvases"`
}

func (s *Server) handleCanvasList() (interface{}, error) {
	entries := s.canvases.List()
	res := CanvasListResult{Count: len(entries), Canvases: make([]CanvasResult, 0, len(entries))}
	for _, e := range entries {
		res.Canvases = append(res.Canvases, describe(e))
	}
	return res, nil
}

// pixelsOf returns the canvas image and its plane anchor, failing on an
// empty canvas.
func pixelsOf(e *CanvasEntry) (image.Image, image.Point, error) {
	img := e.Layer.Image()
	if img == nil {
		return nil, image.Point{}, fmt.Errorf("canvas %s is empty", e.ID)
	}
	return img, e.Layer.Bounds().Pos, nil
}

type canvasSampleArgs struct {
	ID     string                 `json:"id"`
	Points []imaging.LabeledPoint `json:"points"`
}

func (s *Server) handleCanvasSample(args json.RawMessage) (interface{}, error) {
	var a canvasSampleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, fmt.Errorf("points array is empty")
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	img, origin, err := pixelsOf(e)
	if err != nil {
		return nil, err
	}

	local := make([]imaging.LabeledPoint, len(a.Points))
	for i, p := range a.Points {
		local[i] = imaging.LabeledPoint{X: p.X - origin.X, Y: p.Y - origin.Y, Label: p.Label}
	}
	res, err := imaging.SampleColorsMulti(img, local)
	if err != nil {
		return nil, err
	}
	for i := range res.Samples {
		res.Samples[i].X += origin.X
		res.Samples[i].Y += origin.Y
	}
	return res, nil
}

type canvasPaletteArgs struct {
	ID     string    `json:"id"`
	Count  int       `json:"count"`
	Region *rectArgs `json:"region"`
}

func (s *Server) handleCanvasPalette(args json.RawMessage) (interface{}, error) {
	a := canvasPaletteArgs{Count: 5}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	img, origin, err := pixelsOf(e)
	if err != nil {
		return nil, err
	}

	var region *imaging.Region
	if a.Region != nil {
		r := a.Region.rect()
		lo, hi := r.Pos.Sub(origin), r.Max().Sub(origin)
		region = &imaging.Region{X1: lo.X, Y1: lo.Y, X2: hi.X, Y2: hi.Y}
	}
	return imaging.DominantColors(img, a.Count, region)
}

type canvasExportArgs struct {
	ID    string  `json:"id"`
	Scale float64 `json:"scale"`
	Path  string  `json:"path"`
}

// SaveResult reports a canvas written to disk.
type SaveResult struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

func (s *Server) handleCanvasExport(args json.RawMessage) (interface{}, error) {
	a := canvasExportArgs{Scale: 1.0}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	img, _, err := pixelsOf(e)
	if err != nil {
		return nil, err
	}

	if a.Path == "" {
		return imaging.Export(img, a.Scale)
	}
	out := imaging.Scale(img, a.Scale)
	if err := imaging.SaveImage(a.Path, out); err != nil {
		return nil, err
	}
	return SaveResult{Path: a.Path, Width: out.Bounds().Dx(), Height: out.Bounds().Dy()}, nil
}

type canvasGridArgs struct {
	ID              string `json:"id"`
	Spacing         int    `json:"spacing"`
	ShowCoordinates bool   `json:"show_coordinates"`
	Color           string `json:"color"`
}

func (s *Server) handleCanvasGrid(args json.RawMessage) (interface{}, error) {
	a := canvasGridArgs{Spacing: 50, ShowCoordinates: true, Color: "#FF000080"}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := compose.ParseColor(a.Color)
	if err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	img, origin, err := pixelsOf(e)
	if err != nil {
		return nil, err
	}
	return imaging.GridOverlay(img, origin, a.Spacing, a.ShowCoordinates, c)
}

type canvasCompareArgs struct {
	ID        string `json:"id"`
	OtherID   string `json:"other_id"`
	Threshold int    `json:"threshold"`
}

// CompareResult reports how two canvases differ where they overlap.
type CompareResult struct {
	imaging.CompareResult
	Overlap BoundsResult `json:"overlap"`
}

func (s *Server) handleCanvasCompare(args json.RawMessage) (interface{}, error) {
	a := canvasCompareArgs{Threshold: 10}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	first, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	second, err := s.lookup(a.OtherID)
	if err != nil {
		return nil, err
	}
	if !first.Layer.HasBuffer() || !second.Layer.HasBuffer() {
		return nil, fmt.Errorf("cannot compare an empty canvas")
	}

	overlap := geom.Clip(first.Layer.Bounds(), second.Layer.Bounds())
	if overlap.Empty() {
		return nil, fmt.Errorf("canvases %s and %s do not overlap", a.ID, a.OtherID)
	}
	x := first.Layer.Subimage(overlap)
	defer x.Dispose()
	y := second.Layer.Subimage(overlap)
	defer y.Dispose()

	res, err := imaging.Compare(x.Image(), y.Image(), a.Threshold)
	if err != nil {
		return nil, err
	}
	return CompareResult{CompareResult: *res, Overlap: *boundsOf(overlap)}, nil
}

// === Geometry Handlers ===

type canvasMoveArgs struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

func (s *Server) handleCanvasMove(args json.RawMessage) (interface{}, error) {
	var a canvasMoveArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	e.Layer.SetPos(image.Pt(a.X, a.Y))
	return describe(e), nil
}

type canvasRectArgs struct {
	ID string `json:"id"`
	rectArgs
	Expand bool   `json:"expand"`
	Name   string `json:"name"`
}

// ExpandResult reports whether a canvas grew and how far its anchor moved.
type ExpandResult struct {
	Expanded bool         `json:"expanded"`
	DeltaX   int          `json:"delta_x"`
	DeltaY   int          `json:"delta_y"`
	Canvas   CanvasResult `json:"canvas"`
}

func (s *Server) handleCanvasExpand(args json.RawMessage) (interface{}, error) {
	var a canvasRectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	r := a.rect()
	if err := s.checkGrowth(e.Layer, r); err != nil {
		return nil, err
	}
	expanded, delta := e.Layer.ExpandToContain(r)
	return ExpandResult{Expanded: expanded, DeltaX: delta.X, DeltaY: delta.Y, Canvas: describe(e)}, nil
}

func (s *Server) handleCanvasCrop(args json.RawMessage) (interface{}, error) {
	var a canvasRectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	r := a.rect()
	if a.Expand {
		if err := s.checkSize(compose.CropGrowthSize(e.Layer, r)); err != nil {
			return nil, err
		}
	}
	e.Layer.Crop(r, a.Expand)
	return describe(e), nil
}

// TrimResult reports whether trimming changed a canvas.
type TrimResult struct {
	Changed bool         `json:"changed"`
	Canvas  CanvasResult `json:"canvas"`
}

func (s *Server) handleCanvasTrim(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	changed := e.Layer.Trim()
	return TrimResult{Changed: changed, Canvas: describe(e)}, nil
}

func (s *Server) handleCanvasSubimage(args json.RawMessage) (interface{}, error) {
	var a canvasRectArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	r := a.rect()
	if err := s.checkSize(r.Size); err != nil {
		return nil, err
	}
	return describe(s.canvases.Add(a.Name, e.Layer.Subimage(r))), nil
}

type canvasCloneArgs struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Format string `json:"format"`
}

func (s *Server) handleCanvasClone(args json.RawMessage) (interface{}, error) {
	var a canvasCloneArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	format, err := parseFormatOr(a.Format, e.Layer.Format())
	if err != nil {
		return nil, err
	}

	var l compose.Layer
	if format == e.Layer.Format() {
		l = e.Layer.Clone()
	} else {
		l = e.Layer.ConvertTo(format)
	}
	return describe(s.canvases.Add(a.Name, l)), nil
}

// === Pixel Handlers ===

type canvasDrawArgs struct {
	ID       string `json:"id"`
	SourceID string `json:"source_id"`
	Mode     string `json:"mode"`
	Expand   *bool  `json:"expand"`
}

func (s *Server) handleCanvasDraw(args json.RawMessage) (interface{}, error) {
	var a canvasDrawArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	mode, err := compose.ParseMode(a.Mode)
	if err != nil {
		return nil, err
	}
	dst, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	src, err := s.lookup(a.SourceID)
	if err != nil {
		return nil, err
	}
	if dst == src {
		return nil, fmt.Errorf("cannot draw canvas %s onto itself", a.ID)
	}

	expand := mode != compose.ModeMask
	if a.Expand != nil {
		expand = *a.Expand
	}
	if expand && src.Layer.HasBuffer() {
		if err := s.checkGrowth(dst.Layer, src.Layer.Bounds()); err != nil {
			return nil, err
		}
	}
	if err := dst.Layer.Draw(src.Layer, mode, expand); err != nil {
		return nil, err
	}
	return describe(dst), nil
}

type canvasFillArgs struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

func (s *Server) handleCanvasFill(args json.RawMessage) (interface{}, error) {
	var a canvasFillArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := compose.ParseColor(a.Color)
	if err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	if !e.Layer.HasBuffer() {
		return nil, fmt.Errorf("canvas %s is empty", e.ID)
	}
	e.Layer.Fill(c)
	return describe(e), nil
}

type canvasMutateArgs struct {
	ID  string       `json:"id"`
	Ops []compose.Op `json:"ops"`
}

func (s *Server) handleCanvasMutate(args json.RawMessage) (interface{}, error) {
	var a canvasMutateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if len(a.Ops) == 0 {
		return nil, fmt.Errorf("ops array is empty")
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}

	if err := compose.CheckOps(e.Layer.Bounds().Size, a.Ops, s.checkSize); err != nil {
		return nil, err
	}
	if err := compose.ApplyOps(e.Layer, a.Ops); err != nil {
		return nil, err
	}
	return describe(e), nil
}

// === Lifecycle Handlers ===

func (s *Server) handleCanvasDispose(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	e, err := s.lookup(a.ID)
	if err != nil {
		return nil, err
	}
	e.Layer.Dispose()
	return describe(e), nil
}

// DeleteResult confirms a canvas was removed.
type DeleteResult struct {
	Deleted   string `json:"deleted"`
	Remaining int    `json:"remaining"`
}

func (s *Server) handleCanvasDelete(args json.RawMessage) (interface{}, error) {
	var a idArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if err := s.canvases.Remove(a.ID); err != nil {
		return nil, err
	}
	return DeleteResult{Deleted: a.ID, Remaining: s.canvases.Len()}, nil
}
