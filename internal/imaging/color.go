package imaging

import (
	"fmt"
	"image"
	"image/color"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGBColor is a straight 8-bit color without alpha.
type RGBColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// RGBAColor is a straight 8-bit color with alpha (0 transparent, 255 opaque).
type RGBAColor struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// HSLColor is a color in HSL space.
type HSLColor struct {
	H int `json:"h"` // Hue: 0-360 degrees (0=red, 120=green, 240=blue)
	S int `json:"s"` // Saturation: 0-100 percent
	L int `json:"l"` // Lightness: 0-100 percent
}

// ColorResult reports one sampled color as hex, RGB, RGBA and HSL.
type ColorResult struct {
	Hex  string    `json:"hex"` // "#RRGGBB", alpha excluded
	RGB  RGBColor  `json:"rgb"`
	RGBA RGBAColor `json:"rgba"`
	HSL  HSLColor  `json:"hsl"`
}

// SampleColor reads the pixel at (x, y) and reports it in several color
// spaces.
//
// Coordinates are 0-based in image space. Channel values are straight
// (non-premultiplied) 8-bit values, so a half-transparent red reads as
// #FF0000 with A=128. The Hex format excludes alpha; use RGBA.A for
// transparency.
func SampleColor(img image.Image, x, y int) (*ColorResult, error) {
	if !image.Pt(x, y).In(img.Bounds()) {
		return nil, fmt.Errorf("coordinates (%d,%d) outside image bounds", x, y)
	}

	n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
	c := colorful.Color{R: float64(n.R) / 255, G: float64(n.G) / 255, B: float64(n.B) / 255}

	return &ColorResult{
		Hex:  strings.ToUpper(c.Hex()),
		RGB:  RGBColor{R: n.R, G: n.G, B: n.B},
		RGBA: RGBAColor{R: n.R, G: n.G, B: n.B, A: n.A},
		HSL:  hslOf(c),
	}, nil
}

// LabeledPoint is a sample coordinate with an optional label, such as
// "shadow_edge", echoed back in the result.
type LabeledPoint struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Label string `json:"label,omitempty"`
}

// LabeledColorResult combines a color sample with its location and optional label.
type LabeledColorResult struct {
	Label string      `json:"label,omitempty"` // Optional label (empty if not provided)
	X     int         `json:"x"`               // X coordinate that was sampled
	Y     int         `json:"y"`               // Y coordinate that was sampled
	Color ColorResult `json:"color"`           // The color at this location
}

// MultiColorResult contains color samples from multiple points.
//
// Results are returned in the same order as the input points.
type MultiColorResult struct {
	Samples []LabeledColorResult `json:"samples"` // Color samples in input order
}

// SampleColorsMulti samples every point in order. It fails without partial
// results if any point lies outside the image.
func SampleColorsMulti(img image.Image, points []LabeledPoint) (*MultiColorResult, error) {
	results := make([]LabeledColorResult, 0, len(points))

	for _, p := range points {
		sample, err := SampleColor(img, p.X, p.Y)
		if err != nil {
			return nil, fmt.Errorf("failed to sample point (%d,%d): %w", p.X, p.Y, err)
		}
		results = append(results, LabeledColorResult{
			Label: p.Label,
			X:     p.X,
			Y:     p.Y,
			Color: *sample,
		})
	}

	return &MultiColorResult{Samples: results}, nil
}

// Region represents a rectangular region within an image.
//
// Coordinates follow the standard image convention:
//   - (X1, Y1) is the top-left corner (inclusive)
//   - (X2, Y2) is the bottom-right corner (exclusive)
//   - Width = X2 - X1, Height = Y2 - Y1
type Region struct {
	X1 int // Left edge X coordinate (inclusive)
	Y1 int // Top edge Y coordinate (inclusive)
	X2 int // Right edge X coordinate (exclusive)
	Y2 int // Bottom edge Y coordinate (exclusive)
}

// ColorFrequency represents a color and its occurrence frequency in an image.
type ColorFrequency struct {
	Hex        string   `json:"hex"`        // Hex color "#RRGGBB" (quantized)
	Percentage float64  `json:"percentage"` // Percentage of pixels with this color (0-100)
	RGB        RGBColor `json:"rgb"`        // RGB components (quantized)
}

// DominantColorsResult contains the most frequently occurring colors in an image.
//
// Colors are sorted by frequency in descending order (most common first).
type DominantColorsResult struct {
	Colors []ColorFrequency `json:"colors"` // Colors sorted by frequency (descending)
}

// DominantColors returns up to count of the most frequent colors in img,
// or in region when it is non-nil (clipped to the image).
//
// Colors are quantized to multiples of 16 per channel before counting, so
// #F0F0F0 and #FAFAFA fall in the same bucket. Fully transparent pixels are
// not counted. Ties are ordered by hex value. A count of 0 returns every
// bucket.
func DominantColors(img image.Image, count int, region *Region) (*DominantColorsResult, error) {
	bounds := img.Bounds()
	if region != nil {
		bounds = image.Rect(region.X1, region.Y1, region.X2, region.Y2).Intersect(bounds)
	}
	if bounds.Empty() {
		return nil, fmt.Errorf("region is empty")
	}

	counts := make(map[RGBColor]int)
	total := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			n := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			if n.A == 0 {
				continue
			}
			counts[RGBColor{R: n.R / 16 * 16, G: n.G / 16 * 16, B: n.B / 16 * 16}]++
			total++
		}
	}

	colors := make([]ColorFrequency, 0, len(counts))
	for rgb, cnt := range counts {
		c := colorful.Color{R: float64(rgb.R) / 255, G: float64(rgb.G) / 255, B: float64(rgb.B) / 255}
		colors = append(colors, ColorFrequency{
			Hex:        strings.ToUpper(c.Hex()),
			Percentage: float64(cnt) / float64(total) * 100,
			RGB:        rgb,
		})
	}

	sort.Slice(colors, func(i, j int) bool {
		if colors[i].Percentage != colors[j].Percentage {
			return colors[i].Percentage > colors[j].Percentage
		}
		return colors[i].Hex < colors[j].Hex
	})

	if count > 0 && len(colors) > count {
		colors = colors[:count]
	}

	return &DominantColorsResult{Colors: colors}, nil
}

// hslOf converts c to whole-number HSL: hue in degrees, saturation and
// lightness in percent.
func hslOf(c colorful.Color) HSLColor {
	h, s, l := c.Hsl()
	return HSLColor{
		H: int(h),
		S: int(s * 100),
		L: int(l * 100),
	}
}
