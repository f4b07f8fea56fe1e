package imaging

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/canvas-tools-mcp/internal/pixel"
)

// ImageCache provides thread-safe caching of decoded source images.
//
// The cache stores decoded image.Image values keyed by their file path so a
// file used as several layers is only read and decoded once. Cached images
// are treated as read-only: callers convert them into canvases, which own a
// private copy of the pixels.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or
// Clear().
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/path/to/layer.png")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cache.Evict("/path/to/layer.png") // Optional: free memory
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Supported formats are PNG, JPEG, GIF, BMP, TIFF and WebP. EXIF orientation
// tags are applied on load, so a rotated phone photo arrives upright.
//
// The image is cached using the exact path string provided. Different paths to
// the same file (e.g., relative vs absolute) result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the file format detected from the extension: "png", "jpeg",
	// "gif", "webp", "bmp", "tiff" or "unknown".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the decoded image carries transparency.
	HasAlpha bool `json:"has_alpha"`

	// PixelFormat is the canvas pixel format that holds this image without
	// losing channels or depth.
	PixelFormat string `json:"pixel_format"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and describes it.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	format := "unknown"
	if f, err := imaging.FormatFromFilename(path); err == nil {
		format = strings.ToLower(f.String())
	} else if strings.EqualFold(filepath.Ext(path), ".webp") {
		format = "webp"
	}

	pf := SuggestFormat(img)
	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        format,
		ColorDepth:    fmt.Sprintf("%d-bit", pf.Depth()),
		HasAlpha:      pf.HasAlpha(),
		PixelFormat:   pf.String(),
		FileSizeBytes: stat.Size(),
	}, nil
}

// SuggestFormat picks the pixel format that best matches a decoded image.
//
// Gray images map to the luminance formats of matching depth. Everything
// else maps to RGB when every pixel is opaque and RGBA otherwise; 16-bit
// color is narrowed to 8 bits since no 16-bit color format exists.
func SuggestFormat(img image.Image) pixel.Format {
	switch img.(type) {
	case *image.Gray:
		return pixel.FormatL8
	case *image.Gray16:
		return pixel.FormatL16
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return pixel.FormatRGB
	}
	return pixel.FormatRGBA
}
