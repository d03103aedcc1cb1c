package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/hybrid"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeUnavailable   = -32001 // Retrieval backends unavailable
)

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

// handleSearchDocs handles the search_fpga_docs tool invocation
func (s *Server) handleSearchDocs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "query parameter is required and cannot be empty", map[string]interface{}{
			"param": "query",
		})
	}

	topK, err := s.parseTopK(args, s.defaultTopK, s.maxTopK)
	if err != nil {
		return nil, err
	}

	filters, err := parseFilterArgs(args)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid filters", map[string]interface{}{
			"reason": err.Error(),
		})
	}

	docType, _ := args["document_type"].(string)

	resp, results, err := s.runSearch(ctx, query, filters, topK, docType)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(noResultsText(query)), nil
	}

	titles := s.documentTitles(ctx)
	return mcp.NewToolResultText(formatSearchResults(query, results, resp, titles)), nil
}

// handleDocInfo handles the get_fpga_doc_info tool invocation
func (s *Server) handleDocInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read corpus stats", map[string]interface{}{
			"error": err.Error(),
		})
	}
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
	}

	return mcp.NewToolResultText(formatDocInfo(stats, docs)), nil
}

// handleQueryIPParameters handles the query_ip_parameters tool invocation
func (s *Server) handleQueryIPParameters(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	ipCore, ok := args["ip_core"].(string)
	if !ok || strings.TrimSpace(ipCore) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "ip_core parameter is required", map[string]interface{}{
			"param": "ip_core",
		})
	}
	parameter, _ := args["parameter"].(string)

	topK, err := s.parseTopK(args, 5, 10)
	if err != nil {
		return nil, err
	}

	// Expand the query with configuration vocabulary so datasheet
	// parameter tables rank above narrative mentions of the core.
	var query string
	if parameter != "" {
		query = fmt.Sprintf("%s %s parameter configuration valid values range", ipCore, parameter)
	} else {
		query = fmt.Sprintf("%s IP core parameters configuration options", ipCore)
	}

	_, results, err := s.runSearch(ctx, query, types.Filters{}, topK, "")
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(noIPResultsText(ipCore)), nil
	}

	titles := s.documentTitles(ctx)
	return mcp.NewToolResultText(formatIPParameters(ipCore, parameter, results, titles)), nil
}

// handleExplainError handles the explain_error tool invocation
func (s *Server) handleExplainError(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	errorMessage, ok := args["error_message"].(string)
	if !ok || strings.TrimSpace(errorMessage) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "error_message parameter is required", map[string]interface{}{
			"param": "error_message",
		})
	}
	contextText, _ := args["context"].(string)

	topK, err := s.parseTopK(args, 5, 10)
	if err != nil {
		return nil, err
	}

	query := errorMessage
	if contextText != "" {
		query += " " + contextText
	}
	query += " solution fix constraint configuration requirements"

	_, results, err := s.runSearch(ctx, query, types.Filters{}, topK, "")
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(noErrorResultsText(errorMessage)), nil
	}

	titles := s.documentTitles(ctx)
	return mcp.NewToolResultText(formatErrorSolutions(errorMessage, contextText, results, titles)), nil
}

// handleTimingConstraints handles the get_timing_constraints tool invocation
func (s *Server) handleTimingConstraints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	constraintType, ok := args["constraint_type"].(string)
	if !ok || strings.TrimSpace(constraintType) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "constraint_type parameter is required", map[string]interface{}{
			"param": "constraint_type",
		})
	}
	ipOrInterface, _ := args["ip_or_interface"].(string)

	topK, err := s.parseTopK(args, 3, 10)
	if err != nil {
		return nil, err
	}

	query := "timing constraint " + constraintType + " SDC PDC"
	if ipOrInterface != "" {
		query += " " + ipOrInterface
	}
	query += " example syntax clock definition"

	_, results, err := s.runSearch(ctx, query, types.Filters{}, topK, "")
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		return mcp.NewToolResultText(noConstraintResultsText(constraintType)), nil
	}

	titles := s.documentTitles(ctx)
	return mcp.NewToolResultText(formatTimingConstraints(constraintType, ipOrInterface, results, titles)), nil
}

// runSearch embeds the query text and runs hybrid retrieval. When a
// document_type filter is present the search over-fetches and filters
// on manifest metadata afterwards, because document type lives on the
// manifest rather than the chunk.
func (s *Server) runSearch(ctx context.Context, text string, filters types.Filters, topK int, docType string) (*hybrid.Response, []types.RankedResult, error) {
	var embedding []float32
	if s.embedder != nil {
		vec, err := s.embedder.EmbedText(ctx, text)
		if err != nil {
			s.logger.Warn("query embedding failed, keyword-only search", zap.Error(err))
		} else {
			embedding = vec
		}
	}

	requestK := topK
	if docType != "" {
		requestK = s.maxTopK
	}

	resp, err := s.search.Search(ctx, types.Query{
		Text:      text,
		Embedding: embedding,
		Filters:   filters,
		TopK:      requestK,
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidQuery):
			return nil, nil, newMCPError(ErrorCodeInvalidParams, err.Error(), nil)
		case errors.Is(err, types.ErrRetrievalUnavailable):
			return nil, nil, newMCPError(ErrorCodeUnavailable, "both retrieval backends are unavailable", nil)
		default:
			return nil, nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	results := resp.Results
	if docType != "" {
		results = s.filterByDocType(ctx, results, docType)
	}
	if len(results) > topK {
		results = results[:topK]
	}
	return resp, results, nil
}

func (s *Server) filterByDocType(ctx context.Context, results []types.RankedResult, docType string) []types.RankedResult {
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		s.logger.Warn("document type filter skipped", zap.Error(err))
		return results
	}
	allowed := make(map[string]bool)
	for _, doc := range docs {
		if strings.EqualFold(doc.DocType, docType) {
			allowed[doc.DocID] = true
		}
	}

	filtered := results[:0:0]
	for _, r := range results {
		if r.Chunk != nil && allowed[r.Chunk.DocumentID] {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (s *Server) documentTitles(ctx context.Context) map[string]string {
	titles := make(map[string]string)
	docs, err := s.store.ListDocuments(ctx)
	if err != nil {
		s.logger.Warn("failed to resolve document titles", zap.Error(err))
		return titles
	}
	for _, doc := range docs {
		titles[doc.DocID] = doc.Title
	}
	return titles
}

func (s *Server) parseTopK(args map[string]interface{}, def, max int) (int, error) {
	topK := def
	if v, ok := args["top_k"].(float64); ok {
		topK = int(v)
	} else if v, ok := args["top_k"].(int); ok {
		topK = v
	}
	if topK < 1 || topK > max {
		return 0, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("top_k must be between 1 and %d", max), map[string]interface{}{
			"param": "top_k",
			"value": topK,
		})
	}
	return topK, nil
}

func parseFilterArgs(args map[string]interface{}) (types.Filters, error) {
	raw, ok := args["filters"].(map[string]interface{})
	if !ok {
		return types.Filters{}, nil
	}
	kv := make(map[string]string, len(raw))
	for key, value := range raw {
		str, ok := value.(string)
		if !ok {
			return types.Filters{}, fmt.Errorf("filter %q must be a string", key)
		}
		kv[key] = str
	}
	return types.ParseFilters(kv)
}
