package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/contour-pipeline/internal/contour"
	"github.com/ironsheep/contour-pipeline/internal/imaging"
	"github.com/ironsheep/contour-pipeline/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "contour_run", "contour_read").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "contour_run":
		return s.handleContourRun(ctx, args)
	case "contour_read":
		return s.handleContourRead(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Pipeline Handlers ===

type contourRunArgs struct {
	Workdir       string          `json:"workdir"`
	ThresholdType int             `json:"thresholdtype"`
	TMin          int             `json:"tmin"`
	TMax          int             `json:"tmax"`
	MinSize       int             `json:"m"`
	ErrorBound    float64         `json:"e"`
	Render        json.RawMessage `json:"w"`
	Overlay       bool            `json:"overlay"`
}

func (s *Server) handleContourRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	a := contourRunArgs{
		TMin: pipeline.DefaultTMin,
		TMax: pipeline.DefaultTMax,
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Workdir == "" {
		return nil, errors.New("workdir is required")
	}
	render, err := renderArg(a.Render)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(s.cfg, a.Workdir,
		pipeline.WithLogger(s.logger),
		pipeline.WithOverlay(a.Overlay))
	return p.Run(ctx, pipeline.Params{
		Mode:       pipeline.ThresholdMode(a.ThresholdType),
		TMin:       a.TMin,
		TMax:       a.TMax,
		MinSize:    a.MinSize,
		ErrorBound: a.ErrorBound,
		Render:     render,
	})
}

// renderArg accepts the render flag either as the CLI-style string or as a
// JSON boolean. A missing value is false.
func renderArg(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return false, fmt.Errorf("w must be a string or boolean, got %s", raw)
	}
	return pipeline.ParseRenderFlag(str), nil
}

// === Contour File Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

// ContourReadResult lists the polygons of a contour file.
type ContourReadResult struct {
	Path     string            `json:"path"`
	Count    int               `json:"count"`
	Polygons []contour.Polygon `json:"polygons"`
}

func (s *Server) handleContourRead(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	polygons, err := contour.ParseFile(a.Path)
	if err != nil {
		return nil, err
	}
	return &ContourReadResult{Path: a.Path, Count: len(polygons), Polygons: polygons}, nil
}

// === Image Handlers ===

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.ProbeDimensions(a.Path)
}
