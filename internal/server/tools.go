package server

import "github.com/ironsheep/contour-pipeline/internal/pipeline"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name: "contour_run",
			Description: "Run the contour pipeline in a working directory containing input_0.png: " +
				"grayscale conversion, contour extraction, polygon simplification and rasterization. " +
				"Returns the outcome, the effective maximum threshold, polygon counts and the command transcript.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"workdir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the working directory holding input_0.png",
					},
					"thresholdtype": map[string]interface{}{
						"type":        "integer",
						"description": "0 for manual thresholds, any other value for automatic",
						"default":     0,
					},
					"tmin": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum threshold (manual mode only)",
						"default":     pipeline.DefaultTMin,
					},
					"tmax": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum threshold (manual mode only)",
						"default":     pipeline.DefaultTMax,
					},
					"m": map[string]interface{}{
						"type":        "integer",
						"description": "Minimum contour size in pixels",
					},
					"e": map[string]interface{}{
						"type":        "number",
						"description": "Simplification error bound",
					},
					"w": map[string]interface{}{
						"type":        []string{"string", "boolean"},
						"description": "Render flag; \"true\" (any case) or true enables it",
					},
					"overlay": map[string]interface{}{
						"type":        "boolean",
						"description": "Also draw the simplified polygons over the input as overlay.png",
						"default":     false,
					},
				},
				"required": []string{"workdir", "m", "e"},
			},
		},
		{
			Name:        "contour_read",
			Description: "Parse an annotated or raw contour file (inputPolygon.txt, outputPolygon.txt) into numbered polygons.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the contour file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
