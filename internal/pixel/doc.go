// Package pixel defines the pixel formats understood by the compositor and
// the Buffer type that stores them.
//
// # Formats
//
//	Format  Channels  Depth   Alpha
//	RGB     R,G,B     8-bit   no (implicitly opaque)
//	RGBA    R,G,B,A   8-bit   yes, straight
//	L8      Y         8-bit   no
//	L16     Y         16-bit  no
//	LA16    Y,A       8-bit   yes, straight
//	LA32    Y,A       16-bit  yes, straight
//
// Each format is a small struct type. The zero value of every type is the
// format's default pixel, so a freshly allocated Buffer is opaque black (RGB),
// fully transparent (alpha formats) or zero luminance.
//
// # Buffers
//
// Buffer[P] is the pixel-buffer abstraction the rest of the module builds
// on: allocation, direct row access, whole-buffer transforms, cloning and
// disposal. Buffers implement draw.Image so they can be passed to
// disintegration/imaging, bild and the standard image packages.
package pixel
