// Package server implements the MCP (Model Context Protocol) server for the
// contour pipeline.
//
// This package provides a JSON-RPC 2.0 server that exposes the pipeline and
// its artifacts through the MCP protocol, so an MCP client can run the
// extraction on a prepared working directory and inspect the polygons it
// produced.
//
// # Protocol
//
// The server communicates over a line-delimited stream, normally stdio:
//   - Input: JSON-RPC requests (one per line)
//   - Output: JSON-RPC responses
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - contour_run: Run all pipeline stages in a working directory
//   - contour_read: Parse a contour artifact into polygons
//   - image_dimensions: Get width and height of an image
//
// Requests are served one at a time. A contour_run call blocks the server
// until every stage has exited, which keeps runs in different directories
// from interleaving their external tools.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A run that finds no contours is not an error: its result carries the
// "no_contours" outcome.
//
// # Usage
//
//	srv := server.New(cfg, server.WithLogger(logger))
//	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil {
//	    logger.Fatal("server error", zap.Error(err))
//	}
package server
