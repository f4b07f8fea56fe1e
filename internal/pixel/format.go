package pixel

import (
	"fmt"
	"strings"
)

// Format identifies one of the supported pixel encodings.
type Format int

const (
	FormatRGB  Format = iota // 8-bit R,G,B, implicitly opaque
	FormatRGBA               // 8-bit R,G,B,A, straight alpha
	FormatL8                 // 8-bit luminance
	FormatL16                // 16-bit luminance
	FormatLA16               // 8-bit luminance + 8-bit alpha
	FormatLA32               // 16-bit luminance + 16-bit alpha
)

var formatNames = [...]string{
	FormatRGB:  "rgb",
	FormatRGBA: "rgba",
	FormatL8:   "l8",
	FormatL16:  "l16",
	FormatLA16: "la16",
	FormatLA32: "la32",
}

// Formats lists every supported format in declaration order.
var Formats = []Format{FormatRGB, FormatRGBA, FormatL8, FormatL16, FormatLA16, FormatLA32}

func (f Format) String() string {
	if f < 0 || int(f) >= len(formatNames) {
		return fmt.Sprintf("Format(%d)", int(f))
	}
	return formatNames[f]
}

// ParseFormat converts a case-insensitive format name ("rgba", "l16", ...)
// into a Format.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for f, n := range formatNames {
		if n == name {
			return Format(f), nil
		}
	}
	return 0, fmt.Errorf("unknown pixel format: %q", s)
}

// Channels returns the number of channels stored per pixel.
func (f Format) Channels() int {
	switch f {
	case FormatRGB:
		return 3
	case FormatRGBA:
		return 4
	case FormatL8, FormatL16:
		return 1
	case FormatLA16, FormatLA32:
		return 2
	}
	return 0
}

// Depth returns the number of bits per channel.
func (f Format) Depth() int {
	switch f {
	case FormatL16, FormatLA32:
		return 16
	}
	return 8
}

// HasAlpha reports whether the format carries an alpha channel.
func (f Format) HasAlpha() bool {
	return f == FormatRGBA || f == FormatLA16 || f == FormatLA32
}

// MaxValue is the largest value a single channel can hold.
func (f Format) MaxValue() uint32 {
	if f.Depth() == 16 {
		return 0xffff
	}
	return 0xff
}

// Opaque is the alpha value of a fully opaque pixel, or 0 for formats
// without an alpha channel.
func (f Format) Opaque() uint32 {
	if !f.HasAlpha() {
		return 0
	}
	return f.MaxValue()
}

// FormatOf returns the Format of the pixel type P.
func FormatOf[P Pixel]() Format {
	var p P
	switch any(p).(type) {
	case RGB:
		return FormatRGB
	case RGBA:
		return FormatRGBA
	case L8:
		return FormatL8
	case L16:
		return FormatL16
	case LA16:
		return FormatLA16
	default:
		return FormatLA32
	}
}
