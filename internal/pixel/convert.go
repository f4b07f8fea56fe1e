package pixel

import (
	"image"
	"math"
)

// FromImage copies any image into a new buffer of format P, converting each
// pixel through P's color model. The result is anchored at the origin
// regardless of img.Bounds().Min.
func FromImage[P Pixel](img image.Image) *Buffer[P] {
	if src, ok := img.(*Buffer[P]); ok {
		return src.Clone()
	}

	bounds := img.Bounds()
	b := New[P](bounds.Dx(), bounds.Dy())
	model := ModelOf[P]()
	for y := 0; y < b.height; y++ {
		row := b.Row(y)
		for x := range row {
			row[x] = model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(P)
		}
	}
	return b
}

// Convert returns a copy of src in format Q.
func Convert[Q, P Pixel](src *Buffer[P]) *Buffer[Q] {
	if same, ok := any(src).(*Buffer[Q]); ok {
		return same.Clone()
	}

	dst := New[Q](src.width, src.height)
	model := ModelOf[Q]()
	for i, p := range src.pix {
		dst.pix[i] = model.Convert(p).(Q)
	}
	return dst
}

// Vector is a pixel expanded to four channel-native numbers (R, G, B, A).
// Luminance formats report their luminance in R, G and B; formats without
// alpha report A as the channel maximum.
type Vector [4]float64

// ToVector expands p into a Vector.
func ToVector[P Pixel](p P) Vector {
	switch v := any(p).(type) {
	case RGB:
		return Vector{float64(v.R), float64(v.G), float64(v.B), 0xff}
	case RGBA:
		return Vector{float64(v.R), float64(v.G), float64(v.B), float64(v.A)}
	case L8:
		y := float64(v.Y)
		return Vector{y, y, y, 0xff}
	case L16:
		y := float64(v.Y)
		return Vector{y, y, y, 0xffff}
	case LA16:
		y := float64(v.Y)
		return Vector{y, y, y, float64(v.A)}
	case LA32:
		y := float64(v.Y)
		return Vector{y, y, y, float64(v.A)}
	}
	return Vector{}
}

// FromVector narrows a Vector back into a pixel of type P. Each component is
// rounded half away from zero and clamped to the channel range. Luminance
// formats take their luminance from component 0.
func FromVector[P Pixel](v Vector) P {
	var out P
	switch any(out).(type) {
	case RGB:
		out = any(RGB{R: narrow8(v[0]), G: narrow8(v[1]), B: narrow8(v[2])}).(P)
	case RGBA:
		out = any(RGBA{R: narrow8(v[0]), G: narrow8(v[1]), B: narrow8(v[2]), A: narrow8(v[3])}).(P)
	case L8:
		out = any(L8{Y: narrow8(v[0])}).(P)
	case L16:
		out = any(L16{Y: narrow16(v[0])}).(P)
	case LA16:
		out = any(LA16{Y: narrow8(v[0]), A: narrow8(v[3])}).(P)
	case LA32:
		out = any(LA32{Y: narrow16(v[0]), A: narrow16(v[3])}).(P)
	}
	return out
}

func narrow8(f float64) uint8 {
	return uint8(roundClamp(f, 0xff))
}

func narrow16(f float64) uint16 {
	return uint16(roundClamp(f, 0xffff))
}

func roundClamp(f, limit float64) float64 {
	r := math.Round(f)
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	if r > limit {
		return limit
	}
	return r
}
