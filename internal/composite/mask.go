package composite

import (
	"image"

	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// DrawMask scales the destination's alpha, or its luminance when it has no
// alpha, by a mask sample:
//
//	dst = dst * sample / maskMax
//
// The sample is the mask pixel's alpha when present and its luminance
// otherwise; maskMax is the mask format's channel maximum. Color and
// luminance channels of alpha destinations are never touched. RGB can be
// neither a mask nor a masked destination.
func DrawMask[D, M pixel.Pixel](dst *pixel.Buffer[D], mask *pixel.Buffer[M], pos image.Point) error {
	if dst == nil || mask == nil {
		return nil
	}
	r, ok := overlap(dst, mask, pos)
	if !ok {
		return nil
	}
	if !SupportsMask[D, M]() {
		return unsupported("mask", pairOf[D, M]())
	}

	apply(dst, mask, r, func(d, s any) {
		samples := make([]uint64, r.size.X)
		m := sampleRow(s, samples)
		scaleRow(d, samples, m)
	}, true)
	return nil
}

// SupportsMask reports whether DrawMask has a rule for the pair.
func SupportsMask[D, M pixel.Pixel]() bool {
	return pixel.FormatOf[D]() != pixel.FormatRGB && pixel.FormatOf[M]() != pixel.FormatRGB
}

// sampleRow fills out with the mask samples of row src and returns the
// mask maximum.
func sampleRow(src any, out []uint64) uint64 {
	switch s := src.(type) {
	case []pixel.RGBA:
		for i, p := range s {
			out[i] = uint64(p.A)
		}
		return max8
	case []pixel.L8:
		for i, p := range s {
			out[i] = uint64(p.Y)
		}
		return max8
	case []pixel.L16:
		for i, p := range s {
			out[i] = uint64(p.Y)
		}
		return max16
	case []pixel.LA16:
		for i, p := range s {
			out[i] = uint64(p.A)
		}
		return max8
	case []pixel.LA32:
		for i, p := range s {
			out[i] = uint64(p.A)
		}
		return max16
	}
	return 1
}

// scaleRow multiplies the scalable channel of each pixel in dst by
// samples[i]/m.
func scaleRow(dst any, samples []uint64, m uint64) {
	switch d := dst.(type) {
	case []pixel.RGBA:
		for i := range d {
			d[i].A = uint8(uint64(d[i].A) * samples[i] / m)
		}
	case []pixel.L8:
		for i := range d {
			d[i].Y = uint8(uint64(d[i].Y) * samples[i] / m)
		}
	case []pixel.L16:
		for i := range d {
			d[i].Y = uint16(uint64(d[i].Y) * samples[i] / m)
		}
	case []pixel.LA16:
		for i := range d {
			d[i].A = uint8(uint64(d[i].A) * samples[i] / m)
		}
	case []pixel.LA32:
		for i := range d {
			d[i].A = uint16(uint64(d[i].A) * samples[i] / m)
		}
	}
}
