package compose

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/ironsheep/canvas-tools-mcp/internal/geom"
	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// Recipe describes a composition: an optional starting canvas, layers drawn
// bottom-up, and optional final crop and trim steps.
//
//	format = "rgba"
//	output = "out.png"
//
//	[canvas]
//	width = 64
//	height = 64
//	fill = "#202020"
//
//	[[layer]]
//	file = "logo.png"
//	x = 8
//	y = 8
//	ops = [{ name = "resize", width = 32 }]
type Recipe struct {
	Format string        `toml:"format"`
	Output string        `toml:"output"`
	Canvas *RecipeCanvas `toml:"canvas"`
	Layers []RecipeLayer `toml:"layer"`
	Crop   *RecipeRect   `toml:"crop"`
	Trim   bool          `toml:"trim"`

	// dir resolves relative file paths; set by LoadRecipe.
	dir string
}

// RecipeRect is a plane rectangle in a recipe.
type RecipeRect struct {
	X      int  `toml:"x"`
	Y      int  `toml:"y"`
	Width  int  `toml:"width"`
	Height int  `toml:"height"`
	Expand bool `toml:"expand"`
}

// Rect converts r into a geom.Rect.
func (r RecipeRect) Rect() geom.Rect {
	return geom.R(r.X, r.Y, r.Width, r.Height)
}

// RecipeCanvas is the starting canvas of a recipe.
type RecipeCanvas struct {
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Fill   string `toml:"fill"`
}

// RecipeLayer is one layer of a recipe. Exactly one of File and Fill must be
// set. A Fill layer needs Width and Height; on a File layer they resize the
// image before Ops run.
type RecipeLayer struct {
	File   string `toml:"file"`
	Fill   string `toml:"fill"`
	Format string `toml:"format"`
	X      int    `toml:"x"`
	Y      int    `toml:"y"`
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Mode   string `toml:"mode"`
	Expand *bool  `toml:"expand"`
	Ops    []Op   `toml:"ops"`
}

// Loader provides decoded source images. *imaging.ImageCache satisfies it.
type Loader interface {
	Load(path string) (image.Image, error)
}

// ParseRecipe decodes a TOML recipe. Relative paths resolve against dir.
// Unknown keys are rejected so typos do not silently drop layers.
func ParseRecipe(data []byte, dir string) (*Recipe, error) {
	var r Recipe
	md, err := toml.Decode(string(data), &r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown recipe key %q", undecoded[0].String())
	}
	r.dir = dir
	return &r, nil
}

// LoadRecipe reads and decodes the recipe at path.
func LoadRecipe(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return ParseRecipe(data, filepath.Dir(path))
}

// Resolve returns path relative to the recipe's directory.
func (r *Recipe) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || r.dir == "" {
		return path
	}
	return filepath.Join(r.dir, path)
}

// RunRecipe composes r and returns the resulting layer. The context is
// checked between layers. check, when not nil, vets every size the result or
// a source layer would take before the pixels are allocated.
func RunRecipe(ctx context.Context, r *Recipe, loader Loader, check SizeCheck) (Layer, error) {
	format := pixel.FormatRGBA
	if r.Format != "" {
		f, err := ParseFormat(r.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}

	base, err := startCanvas(format, r.Canvas, check)
	if err != nil {
		return nil, err
	}

	for i, def := range r.Layers {
		if err := ctx.Err(); err != nil {
			base.Dispose()
			return nil, err
		}
		if err := drawLayer(base, r, def, loader, check); err != nil {
			base.Dispose()
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	if r.Crop != nil {
		if r.Crop.Expand {
			if err := check.vet(CropGrowthSize(base, r.Crop.Rect())); err != nil {
				base.Dispose()
				return nil, fmt.Errorf("crop: %w", err)
			}
		}
		base.Crop(r.Crop.Rect(), r.Crop.Expand)
	}
	if r.Trim {
		base.Trim()
	}
	return base, nil
}

func startCanvas(format pixel.Format, def *RecipeCanvas, check SizeCheck) (Layer, error) {
	if def == nil {
		return NewLayer(format, image.Point{}, image.Point{})
	}
	size := image.Pt(def.Width, def.Height)
	if err := check.vet(size); err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}
	base, err := NewLayer(format, image.Pt(def.X, def.Y), size)
	if err != nil {
		return nil, err
	}
	if def.Fill != "" {
		c, err := ParseColor(def.Fill)
		if err != nil {
			base.Dispose()
			return nil, fmt.Errorf("canvas: %w", err)
		}
		base.Fill(c)
	}
	return base, nil
}

func drawLayer(base Layer, r *Recipe, def RecipeLayer, loader Loader, check SizeCheck) error {
	mode, err := ParseMode(def.Mode)
	if err != nil {
		return err
	}
	src, err := buildLayer(base.Format(), r, def, loader, check)
	if err != nil {
		return err
	}
	defer src.Dispose()

	if err := CheckOps(src.Bounds().Size, def.Ops, check); err != nil {
		return err
	}
	if err := ApplyOps(src, def.Ops); err != nil {
		return err
	}
	expand := mode != ModeMask
	if def.Expand != nil {
		expand = *def.Expand
	}
	if expand && mode != ModeMask {
		if err := check.vet(GrowthSize(base, src.Bounds())); err != nil {
			return err
		}
	}
	return base.Draw(src, mode, expand)
}

// buildLayer creates the source layer for def. Without an explicit format
// it takes the alpha variant of the base format, which every mode can draw
// onto the base.
func buildLayer(baseFormat pixel.Format, r *Recipe, def RecipeLayer, loader Loader, check SizeCheck) (Layer, error) {
	format := withAlpha(baseFormat)
	if def.Format != "" {
		f, err := ParseFormat(def.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}
	pos := image.Pt(def.X, def.Y)

	switch {
	case def.File != "" && def.Fill != "":
		return nil, fmt.Errorf("file and fill are mutually exclusive")
	case def.File != "":
		img, err := loader.Load(r.Resolve(def.File))
		if err != nil {
			return nil, err
		}
		size := img.Bounds().Size()
		if err := check.vet(size); err != nil {
			return nil, err
		}
		if def.Width > 0 || def.Height > 0 {
			if err := check.vet(ResizeTarget(size, def.Width, def.Height)); err != nil {
				return nil, err
			}
		}
		l, err := LayerFromImage(format, pos, img)
		if err != nil {
			return nil, err
		}
		if def.Width > 0 || def.Height > 0 {
			if err := ApplyOp(l, Op{Name: "resize", Width: def.Width, Height: def.Height}); err != nil {
				l.Dispose()
				return nil, err
			}
		}
		return l, nil
	case def.Fill != "":
		if def.Width <= 0 || def.Height <= 0 {
			return nil, fmt.Errorf("fill layer needs a positive width and height")
		}
		c, err := ParseColor(def.Fill)
		if err != nil {
			return nil, err
		}
		size := image.Pt(def.Width, def.Height)
		if err := check.vet(size); err != nil {
			return nil, err
		}
		l, err := NewLayer(format, pos, size)
		if err != nil {
			return nil, err
		}
		l.Fill(c)
		return l, nil
	}
	return nil, fmt.Errorf("layer needs a file or a fill")
}

func withAlpha(f pixel.Format) pixel.Format {
	switch f {
	case pixel.FormatRGB:
		return pixel.FormatRGBA
	case pixel.FormatL8:
		return pixel.FormatLA16
	case pixel.FormatL16:
		return pixel.FormatLA32
	}
	return f
}
