// Package contour reads and annotates contour artifacts.
//
// A contour artifact is a text file in which every non-comment line is one
// polygon given as a flat sequence of vertex coordinates:
//
//	x0 y0 x1 y1 ... xn yn
//
// Lines starting with '#' are comments. Blank lines are ignored.
//
// Annotation wraps a raw tool output with a provenance header and puts a
// "# contour number: i" comment immediately before each polygon line. The
// polygon lines themselves are copied byte for byte; annotation never
// reinterprets the geometry. Existing comment lines are carried through
// unnumbered, so annotating an annotated file only adds comments.
package contour
