// Package imaging connects canvases to image files and to callers that
// expect encoded images.
//
// It covers the host side of the compositing engine: decoding source files
// (with a shared cache), encoding canvas snapshots as PNG (base64 for the
// MCP transport, files for the compose CLI) and reporting pixel colors in
// several color spaces.
//
// # Coordinate System
//
// Functions here work in image space: (0,0) is the top-left pixel of the
// image passed in, X grows rightward and Y downward. Translating canvas
// plane coordinates into image space is the caller's job.
//
// # Thread Safety
//
// ImageCache is safe for concurrent use. The other functions are stateless.
//
// # Color Representation
//
// Colors are reported with straight (non-premultiplied) channels:
//   - Hex: "#RRGGBB" (alpha excluded)
//   - RGB / RGBA: 8-bit components (0-255)
//   - HSL: Hue (0-360), Saturation (0-100), Lightness (0-100)
package imaging
