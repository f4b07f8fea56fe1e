package composite

import "github.com/ironsheep/canvas-tools-mcp/internal/pixel"

const (
	max8  = 0xff
	max16 = 0xffff
)

var overKernels = map[pair]rowKernel{
	{pixel.FormatRGBA, pixel.FormatRGBA}: overRGBA,
	{pixel.FormatRGB, pixel.FormatRGBA}:  overRGBAOntoRGB,
	{pixel.FormatRGBA, pixel.FormatRGB}:  replaceRGBIntoRGBA,
	{pixel.FormatLA16, pixel.FormatLA16}: overLA16,
	{pixel.FormatL8, pixel.FormatLA16}:   overLA16OntoL8,
	{pixel.FormatLA16, pixel.FormatL8}:   replaceL8IntoLA16,
	{pixel.FormatLA32, pixel.FormatLA32}: overLA32,
	{pixel.FormatL16, pixel.FormatLA32}:  overLA32OntoL16,
	{pixel.FormatLA32, pixel.FormatL16}:  replaceL16IntoLA32,
}

// overAlpha is the alpha of overlay alpha oa composited on destination
// alpha da.
func overAlpha(oa, da, m uint64) uint64 {
	return oa + da*(m-oa)/m
}

// overChannel blends overlay channel oc onto destination channel dc for an
// alpha destination. outA must come from overAlpha and be non-zero.
func overChannel(oc, oa, dc, da, outA, m uint64) uint64 {
	return (oc*oa + dc*da*(m-oa)/m) / outA
}

// overOpaque blends overlay channel oc onto an opaque destination channel.
func overOpaque(oc, oa, dc, m uint64) uint64 {
	return (oc*oa + dc*(m-oa)) / m
}

func overRGBA(dst, src any) {
	d, s := dst.([]pixel.RGBA), src.([]pixel.RGBA)
	for x := range d {
		o := s[x]
		if o.A == 0 {
			continue
		}
		p := &d[x]
		oa, da := uint64(o.A), uint64(p.A)
		a := overAlpha(oa, da, max8)
		p.R = uint8(overChannel(uint64(o.R), oa, uint64(p.R), da, a, max8))
		p.G = uint8(overChannel(uint64(o.G), oa, uint64(p.G), da, a, max8))
		p.B = uint8(overChannel(uint64(o.B), oa, uint64(p.B), da, a, max8))
		p.A = uint8(a)
	}
}

func overRGBAOntoRGB(dst, src any) {
	d, s := dst.([]pixel.RGB), src.([]pixel.RGBA)
	for x := range d {
		o := s[x]
		if o.A == 0 {
			continue
		}
		p := &d[x]
		oa := uint64(o.A)
		p.R = uint8(overOpaque(uint64(o.R), oa, uint64(p.R), max8))
		p.G = uint8(overOpaque(uint64(o.G), oa, uint64(p.G), max8))
		p.B = uint8(overOpaque(uint64(o.B), oa, uint64(p.B), max8))
	}
}

func overLA16(dst, src any) {
	d, s := dst.([]pixel.LA16), src.([]pixel.LA16)
	for x := range d {
		o := s[x]
		if o.A == 0 {
			continue
		}
		p := &d[x]
		oa, da := uint64(o.A), uint64(p.A)
		a := overAlpha(oa, da, max8)
		p.Y = uint8(overChannel(uint64(o.Y), oa, uint64(p.Y), da, a, max8))
		p.A = uint8(a)
	}
}

func overLA16OntoL8(dst, src any) {
	d, s := dst.([]pixel.L8), src.([]pixel.LA16)
	for x := range d {
		o := s[x]
		if o.A == 0 {
			continue
		}
		d[x].Y = uint8(overOpaque(uint64(o.Y), uint64(o.A), uint64(d[x].Y), max8))
	}
}

func overLA32(dst, src any) {
	d, s := dst.([]pixel.LA32), src.([]pixel.LA32)
	for x := range d {
		o := s[x]
		if o.A == 0 {
			continue
		}
		p := &d[x]
		oa, da := uint64(o.A), uint64(p.A)
		a := overAlpha(oa, da, max16)
		p.Y = uint16(overChannel(uint64(o.Y), oa, uint64(p.Y), da, a, max16))
		p.A = uint16(a)
	}
}

func overLA32OntoL16(dst, src any) {
	d, s := dst.([]pixel.L16), src.([]pixel.LA32)
	for x := range d {
		o := s[x]
		if o.A == 0 {
			continue
		}
		d[x].Y = uint16(overOpaque(uint64(o.Y), uint64(o.A), uint64(d[x].Y), max16))
	}
}
