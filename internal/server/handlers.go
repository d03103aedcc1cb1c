package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jonzo97/mchp-fpga-mcp/internal/storage"
	"github.com/jonzo97/mchp-fpga-mcp/pkg/types"
)

const defaultTopK = 10

type searchRequest struct {
	Query   string            `json:"query"`
	TopK    int               `json:"top_k,omitempty"`
	RerankK int               `json:"rerank_k,omitempty"`
	Filters map[string]string `json:"filters,omitempty"`
}

type searchResponse struct {
	Query          string               `json:"query"`
	Results        []types.RankedResult `json:"results"`
	Reranked       bool                 `json:"reranked"`
	Degraded       bool                 `json:"degraded"`
	DegradedSource string               `json:"degraded_source,omitempty"`
	KeywordHits    int                  `json:"keyword_hits"`
	VectorHits     int                  `json:"vector_hits"`
	TookMs         int64                `json:"took_ms"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TopK == 0 {
		req.TopK = defaultTopK
	}

	filters, err := types.ParseFilters(req.Filters)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The embedding is computed here so the search core stays
	// provider-agnostic. A failed embedding degrades to keyword-only.
	var embedding []float32
	if s.embedder != nil {
		embedding, err = s.embedder.EmbedText(r.Context(), req.Query)
		if err != nil {
			s.logger.Warn("query embedding failed", zap.Error(err))
			embedding = nil
		}
	}

	resp, err := s.search.Search(r.Context(), types.Query{
		Text:      req.Query,
		Embedding: embedding,
		Filters:   filters,
		TopK:      req.TopK,
		RerankK:   req.RerankK,
	})
	if err != nil {
		switch {
		case errors.Is(err, types.ErrInvalidQuery):
			s.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrRetrievalUnavailable):
			s.respondError(w, http.StatusServiceUnavailable, "retrieval backends unavailable")
		default:
			s.logger.Error("search failed", zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.respondJSON(w, http.StatusOK, searchResponse{
		Query:          req.Query,
		Results:        resp.Results,
		Reranked:       resp.Reranked,
		Degraded:       resp.Degraded,
		DegradedSource: resp.DegradedSource,
		KeywordHits:    resp.KeywordHits,
		VectorHits:     resp.VectorHits,
		TookMs:         resp.Duration.Milliseconds(),
	})
}

type documentResponse struct {
	DocID      string `json:"doc_id"`
	Revision   string `json:"revision"`
	Title      string `json:"title"`
	DocType    string `json:"doc_type"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
}

func toDocumentResponse(doc *storage.Document) documentResponse {
	return documentResponse{
		DocID:      doc.DocID,
		Revision:   doc.Revision,
		Title:      doc.Title,
		DocType:    doc.DocType,
		PageCount:  doc.PageCount,
		ChunkCount: doc.ChunkCount,
		Status:     string(doc.Status),
		Notes:      doc.Notes,
	}
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.logger.Error("list documents failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toDocumentResponse(doc))
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"documents": out})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	revision := r.URL.Query().Get("revision")

	if revision != "" {
		doc, err := s.store.GetDocument(r.Context(), id, revision)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				s.respondError(w, http.StatusNotFound, "document not found")
				return
			}
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		s.respondJSON(w, http.StatusOK, toDocumentResponse(doc))
		return
	}

	docs, err := s.store.ListDocuments(r.Context())
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	var revisions []documentResponse
	for _, doc := range docs {
		if doc.DocID == id {
			revisions = append(revisions, toDocumentResponse(doc))
		}
	}
	if len(revisions) == 0 {
		s.respondError(w, http.StatusNotFound, "document not found")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{"doc_id": id, "revisions": revisions})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.logger.Error("status: corpus stats failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"documents":  stats.Documents,
		"ready":      stats.Ready,
		"chunks":     stats.Chunks,
		"embeddings": stats.Embeddings,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
