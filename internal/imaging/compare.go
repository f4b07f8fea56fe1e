package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

// CompareResult contains pixel comparison statistics.
type CompareResult struct {
	SimilarityScore  float64 `json:"similarity_score"` // share of matching pixels, 0-1
	PixelsDifferent  int     `json:"pixels_different"`
	TotalPixels      int     `json:"total_pixels"`
	AverageColorDiff float64 `json:"average_color_diff"` // mean per-pixel channel difference, 0-255
	MaxColorDiff     int     `json:"max_color_diff"`
}

// Compare compares a and b pixel by pixel over their common area, aligned
// at their top-left corners.
//
// A pixel's difference is the mean absolute difference of its straight
// 8-bit R, G, B and A channels; it counts as different above threshold.
// Two fully transparent pixels always match whatever their color.
func Compare(a, b image.Image, threshold int) (*CompareResult, error) {
	ab, bb := a.Bounds(), b.Bounds()
	w, h := min(ab.Dx(), bb.Dx()), min(ab.Dy(), bb.Dy())
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("nothing to compare: %dx%d and %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}

	total := w * h
	different, maxDiff := 0, 0
	var sum float64

	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			p := color.NRGBAModel.Convert(a.At(ab.Min.X+dx, ab.Min.Y+dy)).(color.NRGBA)
			q := color.NRGBAModel.Convert(b.At(bb.Min.X+dx, bb.Min.Y+dy)).(color.NRGBA)
			if p.A == 0 && q.A == 0 {
				continue
			}

			d := absDiff(p.R, q.R) + absDiff(p.G, q.G) + absDiff(p.B, q.B) + absDiff(p.A, q.A)
			diff := float64(d) / 4
			sum += diff
			maxDiff = max(maxDiff, (d+3)/4)
			if diff > float64(threshold) {
				different++
			}
		}
	}

	return &CompareResult{
		SimilarityScore:  math.Round((1-float64(different)/float64(total))*1000) / 1000,
		PixelsDifferent:  different,
		TotalPixels:      total,
		AverageColorDiff: math.Round(sum/float64(total)*100) / 100,
		MaxColorDiff:     maxDiff,
	}, nil
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}
