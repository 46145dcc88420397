// Package imaging provides the raster operations the contour pipeline runs
// in-process.
//
// The heavy lifting of the pipeline is done by external tools. This package
// covers the small amount of pixel work that happens around them:
//
//   - ProbeDimensions reads the input size once per run for the simplifier's
//     image-size hint.
//   - ConvertToPGM is the native format adapter, producing the 8-bit binary
//     PGM the contour extractor expects.
//   - RenderOverlay and SaveOverlay draw the simplified polygons over the
//     input image as a quick visual check.
//
// # Coordinate System
//
// Polygon coordinates are used as pixel coordinates with (0,0) at the
// top-left corner, X increasing rightward and Y increasing downward. Points
// outside the image are clipped when drawing.
//
// # Supported Formats
//
// Decoding supports PNG, JPEG, GIF, BMP, TIFF and WebP. Overlay output format
// follows the destination file extension.
package imaging
