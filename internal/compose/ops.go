package compose

import (
	"fmt"
	"image"
	"strings"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Op is a named whole-image transform applied through Layer.Mutate.
//
// Recognised names and the fields they read:
//
//	resize      Width, Height (0 keeps the aspect ratio; not both 0)
//	flip_h      -
//	flip_v      -
//	rotate90    - (counter-clockwise)
//	rotate180   -
//	rotate270   -
//	blur        Radius (> 0)
//	sharpen     -
//	edges       -
//	invert      -
//	grayscale   -
//	brightness  Amount (-100..100 percent)
//	contrast    Amount (-100..100 percent)
//	gamma       Amount (> 0, 1 is identity)
type Op struct {
	Name   string  `toml:"name" json:"name"`
	Width  int     `toml:"width" json:"width,omitempty"`
	Height int     `toml:"height" json:"height,omitempty"`
	Radius float64 `toml:"radius" json:"radius,omitempty"`
	Amount float64 `toml:"amount" json:"amount,omitempty"`
}

// OpNames lists every operation ApplyOp understands.
var OpNames = []string{
	"resize", "flip_h", "flip_v", "rotate90", "rotate180", "rotate270",
	"blur", "sharpen", "edges", "invert", "grayscale",
	"brightness", "contrast", "gamma",
}

// Transform validates op and returns the image transform it performs.
func (op Op) Transform() (func(image.Image) image.Image, error) {
	switch strings.ToLower(op.Name) {
	case "resize":
		if op.Width < 0 || op.Height < 0 || op.Width == 0 && op.Height == 0 {
			return nil, fmt.Errorf("resize: need a positive width or height, got %dx%d", op.Width, op.Height)
		}
		return func(img image.Image) image.Image {
			return imaging.Resize(img, op.Width, op.Height, imaging.Lanczos)
		}, nil
	case "flip_h":
		return func(img image.Image) image.Image { return imaging.FlipH(img) }, nil
	case "flip_v":
		return func(img image.Image) image.Image { return imaging.FlipV(img) }, nil
	case "rotate90":
		return func(img image.Image) image.Image { return imaging.Rotate90(img) }, nil
	case "rotate180":
		return func(img image.Image) image.Image { return imaging.Rotate180(img) }, nil
	case "rotate270":
		return func(img image.Image) image.Image { return imaging.Rotate270(img) }, nil
	case "blur":
		if op.Radius <= 0 {
			return nil, fmt.Errorf("blur: radius must be positive, got %g", op.Radius)
		}
		return func(img image.Image) image.Image { return blur.Gaussian(img, op.Radius) }, nil
	case "sharpen":
		return func(img image.Image) image.Image { return effect.Sharpen(img) }, nil
	case "edges":
		return func(img image.Image) image.Image { return effect.Sobel(img) }, nil
	case "invert":
		return func(img image.Image) image.Image { return imaging.Invert(img) }, nil
	case "grayscale":
		return func(img image.Image) image.Image { return imaging.Grayscale(img) }, nil
	case "brightness":
		if op.Amount < -100 || op.Amount > 100 {
			return nil, fmt.Errorf("brightness: amount must be within -100..100, got %g", op.Amount)
		}
		return func(img image.Image) image.Image { return imaging.AdjustBrightness(img, op.Amount) }, nil
	case "contrast":
		if op.Amount < -100 || op.Amount > 100 {
			return nil, fmt.Errorf("contrast: amount must be within -100..100, got %g", op.Amount)
		}
		return func(img image.Image) image.Image { return imaging.AdjustContrast(img, op.Amount) }, nil
	case "gamma":
		if op.Amount <= 0 {
			return nil, fmt.Errorf("gamma: amount must be positive, got %g", op.Amount)
		}
		return func(img image.Image) image.Image { return imaging.AdjustGamma(img, op.Amount) }, nil
	}
	return nil, fmt.Errorf("unknown operation: %q", op.Name)
}

// ApplyOp runs op on l. Nothing is changed when op is invalid. Empty layers
// are left alone.
func ApplyOp(l Layer, op Op) error {
	transform, err := op.Transform()
	if err != nil {
		return err
	}
	l.Mutate(transform)
	return nil
}

// ApplyOps runs ops in order, stopping at the first invalid one.
func ApplyOps(l Layer, ops []Op) error {
	for i, op := range ops {
		if err := ApplyOp(l, op); err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
	}
	return nil
}
