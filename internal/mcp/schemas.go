package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchDocsTool returns the tool definition for search_fpga_docs
func searchDocsTool() mcp.Tool {
	return mcp.Tool{
		Name: "search_fpga_docs",
		Description: "Search FPGA vendor documentation (user guides, datasheets, app notes). " +
			"Returns relevant excerpts with page numbers, section paths, and document citations.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type": "string",
					"description": "Natural language search query (e.g., 'DDR4 memory controller configuration', " +
						"'PCIe Gen2 lane settings', 'CCC PLL multiplier constraints')",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to return (default: 5, max: 20)",
					"minimum":     1,
					"maximum":     20,
					"default":     5,
				},
				"document_type": map[string]interface{}{
					"type":        "string",
					"description": "Filter by document type (optional)",
					"enum":        []string{"User Guide", "Datasheet", "Application Note", "Errata", "Reference"},
				},
				"filters": map[string]interface{}{
					"type":        "object",
					"description": "Optional metadata filters applied to fused results",
					"properties": map[string]interface{}{
						"document_id": map[string]interface{}{
							"type":        "string",
							"description": "Restrict to one document id",
						},
						"revision": map[string]interface{}{
							"type":        "string",
							"description": "Restrict to one document revision",
						},
						"section": map[string]interface{}{
							"type":        "string",
							"description": "Restrict to chunks whose section path contains this heading",
						},
						"content_type": map[string]interface{}{
							"type":        "string",
							"description": "Restrict by chunk content type",
							"enum":        []string{"text", "table", "figure"},
						},
					},
				},
			},
			Required: []string{"query"},
		},
	}
}

// docInfoTool returns the tool definition for get_fpga_doc_info
func docInfoTool() mcp.Tool {
	return mcp.Tool{
		Name: "get_fpga_doc_info",
		Description: "Get information about indexed FPGA documentation. " +
			"Returns the list of indexed documents, page counts, and corpus statistics.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
			Required:   []string{},
		},
	}
}

// queryIPParametersTool returns the tool definition for query_ip_parameters
func queryIPParametersTool() mcp.Tool {
	return mcp.Tool{
		Name: "query_ip_parameters",
		Description: "Query IP core parameters and configuration options for Libero TCL generation. " +
			"Returns parameter specifications, valid ranges, default values, and configuration examples.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"ip_core": map[string]interface{}{
					"type":        "string",
					"description": "IP core name (e.g., 'PF_DDR4', 'PF_CCC', 'PF_PCIE', 'CoreUARTapb', 'CoreGPIO')",
				},
				"parameter": map[string]interface{}{
					"type":        "string",
					"description": "Specific parameter to query (optional). If omitted, returns all parameters for the IP core.",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of results to return (default: 5, max: 10)",
					"minimum":     1,
					"maximum":     10,
					"default":     5,
				},
			},
			Required: []string{"ip_core"},
		},
	}
}

// explainErrorTool returns the tool definition for explain_error
func explainErrorTool() mcp.Tool {
	return mcp.Tool{
		Name: "explain_error",
		Description: "Parse Libero error messages and search documentation for solutions. " +
			"Returns potential fixes, related documentation sections, and configuration recommendations.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"error_message": map[string]interface{}{
					"type": "string",
					"description": "Libero error message or warning text (e.g., 'Critical Warning: Clock domain CDC violation', " +
						"'Error: Insufficient PLL resources', 'Timing constraint not met')",
				},
				"context": map[string]interface{}{
					"type":        "string",
					"description": "Additional context about what was being done when the error occurred (optional)",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of potential solutions to return (default: 5, max: 10)",
					"minimum":     1,
					"maximum":     10,
					"default":     5,
				},
			},
			Required: []string{"error_message"},
		},
	}
}

// timingConstraintsTool returns the tool definition for get_timing_constraints
func timingConstraintsTool() mcp.Tool {
	return mcp.Tool{
		Name: "get_timing_constraints",
		Description: "Find timing constraint examples (SDC/PDC) for specific FPGA configurations. " +
			"Returns constraint examples, clock definitions, and timing requirements.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"constraint_type": map[string]interface{}{
					"type": "string",
					"description": "Type of constraint needed (e.g., 'clock definition', 'input/output delay', " +
						"'multi-cycle path', 'false path', 'clock domain crossing')",
				},
				"ip_or_interface": map[string]interface{}{
					"type":        "string",
					"description": "IP core or interface the constraint applies to (e.g., 'DDR4', 'PCIe', 'UART', 'CCC')",
				},
				"top_k": map[string]interface{}{
					"type":        "integer",
					"description": "Number of examples to return (default: 3, max: 10)",
					"minimum":     1,
					"maximum":     10,
					"default":     3,
				},
			},
			Required: []string{"constraint_type"},
		},
	}
}
