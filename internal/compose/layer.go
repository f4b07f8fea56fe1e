// Package compose builds pictures out of positioned canvases of mixed pixel
// formats.
//
// canvas.Canvas is generic over its pixel type, which suits code that knows
// its formats at compile time. Tools and recipes only learn formats at run
// time, so this package wraps each canvas in a Layer: a format-erased handle
// that dispatches to the typed canvas and compositing operators underneath.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/canvas-tools-mcp/internal/canvas"
	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// ErrUnknownFormat is returned for a pixel format name that does not exist.
var ErrUnknownFormat = errors.New("unknown pixel format")

// Info describes a layer's placement and format.
type Info struct {
	Format string `json:"format"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Empty  bool   `json:"empty"`
}

// Layer is a positioned canvas whose pixel format is only known at run time.
//
// Coordinates are plane coordinates, the same space canvas.Canvas uses.
// Every Layer returned by this package owns its pixels; Subimage, Clone and
// ConvertTo produce independent copies.
type Layer interface {
	Format() pixel.Format
	Info() Info
	Bounds() geom.Rect
	HasBuffer() bool
	SetPos(pos image.Point)

	ExpandToContain(r geom.Rect) (bool, image.Point)
	Crop(r geom.Rect, expand bool)
	Subimage(r geom.Rect) Layer
	Clone() Layer
	ConvertTo(f pixel.Format) Layer
	ContentBounds() (geom.Rect, bool)
	Trim() bool

	// Fill sets every pixel to c converted into the layer's format.
	Fill(c color.Color)
	// Mutate replaces the pixels with transform's output, keeping the anchor.
	Mutate(transform func(image.Image) image.Image)
	// Draw composites src onto the layer at src's plane position.
	Draw(src Layer, mode Mode, expand bool) error
	// Sample returns the pixel at plane point p. ok is false outside the
	// layer.
	Sample(p image.Point) (c color.Color, ok bool)
	// Image exposes the pixels as an image anchored at (0,0), or nil when
	// the layer is empty. The image aliases the layer's storage.
	Image() image.Image
	Dispose()

	// Observe installs the canvas callbacks fired on first allocation and
	// on every growth. Either may be nil.
	Observe(onCreate func(), onExpand func(delta image.Point))
}

// layer adapts a typed canvas to Layer.
type layer[P pixel.Pixel] struct {
	c *canvas.Canvas[P]
}

func wrap[P pixel.Pixel](c *canvas.Canvas[P]) Layer {
	return &layer[P]{c: c}
}

// NewLayer returns a layer of format f at pos. A positive size allocates a
// zeroed buffer; otherwise the layer starts empty.
func NewLayer(f pixel.Format, pos, size image.Point) (Layer, error) {
	alloc := size.X > 0 && size.Y > 0
	switch f {
	case pixel.FormatRGB:
		return newTyped[pixel.RGB](pos, size, alloc), nil
	case pixel.FormatRGBA:
		return newTyped[pixel.RGBA](pos, size, alloc), nil
	case pixel.FormatL8:
		return newTyped[pixel.L8](pos, size, alloc), nil
	case pixel.FormatL16:
		return newTyped[pixel.L16](pos, size, alloc), nil
	case pixel.FormatLA16:
		return newTyped[pixel.LA16](pos, size, alloc), nil
	case pixel.FormatLA32:
		return newTyped[pixel.LA32](pos, size, alloc), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
}

func newTyped[P pixel.Pixel](pos, size image.Point, alloc bool) Layer {
	if !alloc {
		return wrap(canvas.NewAt[P](pos))
	}
	return wrap(canvas.NewSized[P](pos, size))
}

// LayerFromImage copies img into a new layer of format f anchored at pos.
func LayerFromImage(f pixel.Format, pos image.Point, img image.Image) (Layer, error) {
	switch f {
	case pixel.FormatRGB:
		return fromImage[pixel.RGB](pos, img), nil
	case pixel.FormatRGBA:
		return fromImage[pixel.RGBA](pos, img), nil
	case pixel.FormatL8:
		return fromImage[pixel.L8](pos, img), nil
	case pixel.FormatL16:
		return fromImage[pixel.L16](pos, img), nil
	case pixel.FormatLA16:
		return fromImage[pixel.LA16](pos, img), nil
	case pixel.FormatLA32:
		return fromImage[pixel.LA32](pos, img), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
}

func fromImage[P pixel.Pixel](pos image.Point, img image.Image) Layer {
	return wrap(canvas.FromBuffer(pos, pixel.FromImage[P](img)))
}

// ParseFormat is pixel.ParseFormat with errors wrapping ErrUnknownFormat.
func ParseFormat(name string) (pixel.Format, error) {
	f, err := pixel.ParseFormat(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
	return f, nil
}

func (l *layer[P]) Format() pixel.Format { return l.c.Format() }

func (l *layer[P]) Info() Info {
	b := l.c.Bounds()
	return Info{
		Format: l.c.Format().String(),
		X:      b.Pos.X,
		Y:      b.Pos.Y,
		Width:  b.Size.X,
		Height: b.Size.Y,
		Empty:  !l.c.HasBuffer(),
	}
}

func (l *layer[P]) Bounds() geom.Rect        { return l.c.Bounds() }
func (l *layer[P]) HasBuffer() bool          { return l.c.HasBuffer() }
func (l *layer[P]) SetPos(pos image.Point)   { l.c.SetPos(pos) }
func (l *layer[P]) Crop(r geom.Rect, e bool) { l.c.CropRect(r, e) }
func (l *layer[P]) Clone() Layer             { return wrap(l.c.Clone()) }
func (l *layer[P]) Trim() bool               { return l.c.Trim() }
func (l *layer[P]) Dispose()                 { l.c.Dispose() }

func (l *layer[P]) Observe(onCreate func(), onExpand func(delta image.Point)) {
	l.c.OnCreate = onCreate
	l.c.OnExpand = onExpand
}

func (l *layer[P]) ExpandToContain(r geom.Rect) (bool, image.Point) {
	return l.c.ExpandToContainRect(r)
}

func (l *layer[P]) Subimage(r geom.Rect) Layer {
	return wrap(l.c.Subimage(r.Pos, r.Size))
}

func (l *layer[P]) ContentBounds() (geom.Rect, bool) {
	return l.c.ContentBounds()
}

func (l *layer[P]) ConvertTo(f pixel.Format) Layer {
	switch f {
	case pixel.FormatRGB:
		return wrap(canvas.Convert[pixel.RGB](l.c))
	case pixel.FormatRGBA:
		return wrap(canvas.Convert[pixel.RGBA](l.c))
	case pixel.FormatL8:
		return wrap(canvas.Convert[pixel.L8](l.c))
	case pixel.FormatL16:
		return wrap(canvas.Convert[pixel.L16](l.c))
	case pixel.FormatLA16:
		return wrap(canvas.Convert[pixel.LA16](l.c))
	case pixel.FormatLA32:
		return wrap(canvas.Convert[pixel.LA32](l.c))
	}
	return l.Clone()
}

func (l *layer[P]) Fill(c color.Color) {
	if buf := l.c.Buffer(); buf != nil {
		buf.Fill(pixel.ModelOf[P]().Convert(c).(P))
	}
}

func (l *layer[P]) Mutate(transform func(image.Image) image.Image) {
	l.c.Mutate(transform)
}

func (l *layer[P]) Sample(p image.Point) (color.Color, bool) {
	if !l.c.HasBuffer() || !p.In(l.c.Bounds().Rectangle()) {
		return nil, false
	}
	off := p.Sub(l.c.Pos())
	return l.c.Buffer().PixelAt(off.X, off.Y), true
}

func (l *layer[P]) Image() image.Image {
	if !l.c.HasBuffer() {
		return nil
	}
	return l.c.Buffer()
}

// Draw dispatches on the concrete type of src so the typed operators see
// both formats.
func (l *layer[P]) Draw(src Layer, mode Mode, expand bool) error {
	switch s := src.(type) {
	case *layer[pixel.RGB]:
		return draw(l.c, s.c, mode, expand)
	case *layer[pixel.RGBA]:
		return draw(l.c, s.c, mode, expand)
	case *layer[pixel.L8]:
		return draw(l.c, s.c, mode, expand)
	case *layer[pixel.L16]:
		return draw(l.c, s.c, mode, expand)
	case *layer[pixel.LA16]:
		return draw(l.c, s.c, mode, expand)
	case *layer[pixel.LA32]:
		return draw(l.c, s.c, mode, expand)
	case nil:
		return nil
	}
	return fmt.Errorf("draw: unsupported layer type %T", src)
}

func draw[D, O pixel.Pixel](dst *canvas.Canvas[D], src *canvas.Canvas[O], mode Mode, expand bool) error {
	switch mode {
	case ModeOver:
		return canvas.DrawOver(dst, src, expand)
	case ModeReplace:
		return canvas.DrawReplace(dst, src, expand)
	case ModeMask:
		return canvas.DrawMask(dst, src)
	}
	return fmt.Errorf("draw: unknown mode %v", mode)
}
