// Package pipeline turns a raster image into simplified polygonal contours by
// driving four external tools in sequence, and records how every artifact was
// produced.
//
// # Stages
//
// All stages run in a single working directory and communicate only through
// files in it:
//
//  1. Format adapter: input_0.png -> inputNG.pgm (convert, or in-process).
//  2. Contour extractor: inputNG.pgm -> inputPolygon.txt, diagnostics in
//     algoLog.txt. In automatic threshold mode the effective maximum
//     threshold is recovered from the diagnostics.
//  3. Simplifier: inputPolygon.txt -> output.txt and output.eps, annotated
//     into outputPolygon.txt.
//  4. Rasterizer: output.eps -> output.png.
//
// The transcript of every external command is written to commands.txt after
// the last stage.
//
// # Outcomes
//
// When the extractor produces an empty contour file the run stops after
// writing demo_failure.txt and reports OutcomeNoContours with a nil error.
// This is a valid result for unsuitable parameters, not a failure.
//
// Any other problem surfaces as an error from Run: a tool that could not be
// started, an artifact that a tool failed to produce, or extractor
// diagnostics that no longer match the expected layout (ErrDiagnosticsFormat).
// Non-zero exit statuses are not inspected; a failing tool is detected by
// the next stage reading its missing or malformed output.
package pipeline
