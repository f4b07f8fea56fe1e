package pixel

import "image/color"

// RGB is an opaque 8-bit color pixel.
type RGB struct {
	R, G, B uint8
}

// RGBA is an 8-bit color pixel with straight (non-premultiplied) alpha.
type RGBA struct {
	R, G, B, A uint8
}

// L8 is an 8-bit luminance pixel.
type L8 struct {
	Y uint8
}

// L16 is a 16-bit luminance pixel.
type L16 struct {
	Y uint16
}

// LA16 is an 8-bit luminance pixel with an 8-bit straight alpha.
type LA16 struct {
	Y, A uint8
}

// LA32 is a 16-bit luminance pixel with a 16-bit straight alpha.
type LA32 struct {
	Y, A uint16
}

// Pixel is the closed set of pixel types a Buffer can hold.
type Pixel interface {
	RGB | RGBA | L8 | L16 | LA16 | LA32
	color.Color
}

func (p RGB) RGBA() (r, g, b, a uint32) {
	return color.RGBA{R: p.R, G: p.G, B: p.B, A: 0xff}.RGBA()
}

func (p RGBA) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: p.R, G: p.G, B: p.B, A: p.A}.RGBA()
}

func (p L8) RGBA() (r, g, b, a uint32) {
	return color.Gray{Y: p.Y}.RGBA()
}

func (p L16) RGBA() (r, g, b, a uint32) {
	return color.Gray16{Y: p.Y}.RGBA()
}

func (p LA16) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: p.Y, G: p.Y, B: p.Y, A: p.A}.RGBA()
}

func (p LA32) RGBA() (r, g, b, a uint32) {
	return color.NRGBA64{R: p.Y, G: p.Y, B: p.Y, A: p.A}.RGBA()
}

// Color models converting arbitrary colors into each pixel type.
var (
	RGBModel  color.Model = color.ModelFunc(rgbModel)
	RGBAModel color.Model = color.ModelFunc(rgbaModel)
	L8Model   color.Model = color.ModelFunc(l8Model)
	L16Model  color.Model = color.ModelFunc(l16Model)
	LA16Model color.Model = color.ModelFunc(la16Model)
	LA32Model color.Model = color.ModelFunc(la32Model)
)

// ModelOf returns the color model producing values of type P.
func ModelOf[P Pixel]() color.Model {
	switch FormatOf[P]() {
	case FormatRGB:
		return RGBModel
	case FormatRGBA:
		return RGBAModel
	case FormatL8:
		return L8Model
	case FormatL16:
		return L16Model
	case FormatLA16:
		return LA16Model
	default:
		return LA32Model
	}
}

func rgbModel(c color.Color) color.Color {
	if p, ok := c.(RGB); ok {
		return p
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: n.R, G: n.G, B: n.B}
}

func rgbaModel(c color.Color) color.Color {
	if p, ok := c.(RGBA); ok {
		return p
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{R: n.R, G: n.G, B: n.B, A: n.A}
}

func l8Model(c color.Color) color.Color {
	if p, ok := c.(L8); ok {
		return p
	}
	return L8{Y: color.GrayModel.Convert(c).(color.Gray).Y}
}

func l16Model(c color.Color) color.Color {
	if p, ok := c.(L16); ok {
		return p
	}
	return L16{Y: color.Gray16Model.Convert(c).(color.Gray16).Y}
}

func la16Model(c color.Color) color.Color {
	if p, ok := c.(LA16); ok {
		return p
	}
	y, a := straightLuma(c)
	return LA16{Y: uint8(y >> 8), A: uint8(a >> 8)}
}

func la32Model(c color.Color) color.Color {
	if p, ok := c.(LA32); ok {
		return p
	}
	y, a := straightLuma(c)
	return LA32{Y: uint16(y), A: uint16(a)}
}

// straightLuma returns the 16-bit non-premultiplied luminance and alpha of c,
// using the same weights as color.GrayModel.
func straightLuma(c color.Color) (y, a uint32) {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	y = (19595*uint32(n.R) + 38470*uint32(n.G) + 7471*uint32(n.B) + 1<<15) >> 16
	return y, uint32(n.A)
}

// Transparent reports whether p is fully transparent. Pixels without an
// alpha channel are never transparent.
func Transparent[P Pixel](p P) bool {
	switch v := any(p).(type) {
	case RGBA:
		return v.A == 0
	case LA16:
		return v.A == 0
	case LA32:
		return v.A == 0
	}
	return false
}

// IsZero reports whether p is the zero value of its format.
func IsZero[P Pixel](p P) bool {
	var zero P
	return p == zero
}
