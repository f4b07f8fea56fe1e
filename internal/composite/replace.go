package composite

import "github.com/ironsheep/canvas-tools-mcp/internal/pixel"

var replaceKernels = map[pair]rowKernel{
	{pixel.FormatRGBA, pixel.FormatRGB}: replaceRGBIntoRGBA,
	{pixel.FormatRGB, pixel.FormatRGBA}: replaceRGBAIntoRGB,
	{pixel.FormatLA16, pixel.FormatL8}:  replaceL8IntoLA16,
	{pixel.FormatL8, pixel.FormatLA16}:  replaceLA16IntoL8,
	{pixel.FormatLA32, pixel.FormatL16}: replaceL16IntoLA32,
	{pixel.FormatL16, pixel.FormatLA32}: replaceLA32IntoL16,
}

func replaceRGBIntoRGBA(dst, src any) {
	d, s := dst.([]pixel.RGBA), src.([]pixel.RGB)
	for x, o := range s {
		d[x] = pixel.RGBA{R: o.R, G: o.G, B: o.B, A: max8}
	}
}

func replaceRGBAIntoRGB(dst, src any) {
	d, s := dst.([]pixel.RGB), src.([]pixel.RGBA)
	for x, o := range s {
		d[x] = pixel.RGB{R: o.R, G: o.G, B: o.B}
	}
}

func replaceL8IntoLA16(dst, src any) {
	d, s := dst.([]pixel.LA16), src.([]pixel.L8)
	for x, o := range s {
		d[x] = pixel.LA16{Y: o.Y, A: max8}
	}
}

func replaceLA16IntoL8(dst, src any) {
	d, s := dst.([]pixel.L8), src.([]pixel.LA16)
	for x, o := range s {
		d[x].Y = o.Y
	}
}

func replaceL16IntoLA32(dst, src any) {
	d, s := dst.([]pixel.LA32), src.([]pixel.L16)
	for x, o := range s {
		d[x] = pixel.LA32{Y: o.Y, A: max16}
	}
}

func replaceLA32IntoL16(dst, src any) {
	d, s := dst.([]pixel.L16), src.([]pixel.LA32)
	for x, o := range s {
		d[x].Y = o.Y
	}
}
