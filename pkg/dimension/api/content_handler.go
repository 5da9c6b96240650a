package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/content-dimension/pkg/dimension"
	"github.com/tendant/content-dimension/pkg/dimension/metadata"
	"github.com/tendant/content-dimension/pkg/dimension/search"
)

// Aggregator merges stored dimensions.
type Aggregator interface {
	Aggregate(ctx context.Context, entity dimension.Entity, attrs dimension.Attributes) (*dimension.DimensionContent, error)
}

// Resolver resolves merged content.
type Resolver interface {
	Resolve(ctx context.Context, dc *dimension.DimensionContent) (*dimension.ResolvedContent, error)
}

// Indexer maintains the search index.
type Indexer interface {
	Index(ctx context.Context, entity dimension.Entity, attrs dimension.Attributes) (*dimension.DimensionContent, error)
	Deindex(ctx context.Context, resourceKey, resourceID string, attrs *dimension.Attributes) error
}

// ContentResponse is the response body for resolved content
type ContentResponse struct {
	ResourceKey      string                               `json:"resource_key"`
	ResourceID       string                               `json:"resource_id"`
	Locale           string                               `json:"locale"`
	ResolvedLocale   string                               `json:"resolved_locale,omitempty"`
	AvailableLocales []string                             `json:"available_locales,omitempty"`
	Stage            dimension.Stage                      `json:"stage"`
	TemplateKey      string                               `json:"template_key"`
	Content          map[string]any                       `json:"content"`
	View             map[string]any                       `json:"view"`
	Extensions       map[string]dimension.ResolvedSection `json:"extension,omitempty"`
}

// SaveDimensionRequest is the request body for storing a dimension row
type SaveDimensionRequest struct {
	Locale      string                    `json:"locale"`
	Stage       dimension.Stage           `json:"stage"`
	TemplateKey string                    `json:"template_key"`
	Data        map[string]any            `json:"data"`
	Extensions  map[string]map[string]any `json:"extensions,omitempty"`
}

// IndexResponse is the response body of an index request
type IndexResponse struct {
	DocumentID string          `json:"document_id"`
	Locale     string          `json:"locale"`
	Stage      dimension.Stage `json:"stage"`
}

// ErrorResponse is the body of every error response
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrorBody describes an error
type ErrorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ContentHandler handles HTTP requests for dimension content
type ContentHandler struct {
	aggregator Aggregator
	resolver   Resolver
	indexer    Indexer
	writer     dimension.DimensionWriter
	logger     *slog.Logger
}

// NewContentHandler creates a new content handler. indexer and writer may be
// nil, which disables the respective routes.
func NewContentHandler(aggregator Aggregator, resolver Resolver, indexer Indexer, writer dimension.DimensionWriter, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{
		aggregator: aggregator,
		resolver:   resolver,
		indexer:    indexer,
		writer:     writer,
		logger:     logger,
	}
}

// Routes returns the routes for content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{resourceKey}/{id}", h.GetContent)
	r.Put("/{resourceKey}/{id}/dimensions", h.SaveDimension)
	r.Delete("/{resourceKey}/{id}", h.DeleteContent)

	r.Put("/{resourceKey}/{id}/index", h.IndexContent)
	r.Delete("/{resourceKey}/{id}/index", h.DeindexContent)

	return r
}

func attributesFromQuery(r *http.Request) (dimension.Attributes, error) {
	attrs := dimension.Attributes{
		Locale: r.URL.Query().Get("locale"),
		Stage:  dimension.Stage(r.URL.Query().Get("stage")),
	}
	if attrs.Stage != "" && !attrs.Stage.Valid() {
		return attrs, errors.New("stage must be 'draft' or 'live'")
	}
	return attrs, nil
}

// GetContent aggregates and resolves a resource
func (h *ContentHandler) GetContent(w http.ResponseWriter, r *http.Request) {
	ref := dimension.NewReference(chi.URLParam(r, "resourceKey"), chi.URLParam(r, "id"))
	attrs, err := attributesFromQuery(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_attributes", err.Error())
		return
	}

	dc, err := h.aggregator.Aggregate(r.Context(), ref, attrs)
	if err != nil {
		h.handleError(w, r, "Failed to aggregate content", ref, err)
		return
	}

	resolved, err := h.resolver.Resolve(r.Context(), dc)
	if err != nil {
		h.handleError(w, r, "Failed to resolve content", ref, err)
		return
	}

	render.JSON(w, r, ContentResponse{
		ResourceKey:      dc.ResourceKey,
		ResourceID:       dc.ResourceID,
		Locale:           dc.Locale,
		ResolvedLocale:   dc.ResolvedLocale,
		AvailableLocales: dc.AvailableLocales,
		Stage:            dc.Stage,
		TemplateKey:      dc.TemplateKey,
		Content:          resolved.Content,
		View:             resolved.View,
		Extensions:       resolved.Extensions,
	})
}

// SaveDimension stores one dimension row of a resource
func (h *ContentHandler) SaveDimension(w http.ResponseWriter, r *http.Request) {
	if h.writer == nil {
		h.writeError(w, r, http.StatusNotImplemented, "read_only", "dimension storage is read only")
		return
	}

	var req SaveDimensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if req.Stage == "" {
		req.Stage = dimension.StageDraft
	}
	if !req.Stage.Valid() {
		h.writeError(w, r, http.StatusBadRequest, "invalid_attributes", "stage must be 'draft' or 'live'")
		return
	}

	dc := &dimension.DimensionContent{
		ResourceKey: chi.URLParam(r, "resourceKey"),
		ResourceID:  chi.URLParam(r, "id"),
		Locale:      req.Locale,
		Stage:       req.Stage,
		TemplateKey: req.TemplateKey,
		Data:        req.Data,
		Extensions:  req.Extensions,
	}
	if err := h.writer.SaveDimension(r.Context(), dc); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to save dimension", "resource_key", dc.ResourceKey, "resource_id", dc.ResourceID, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.logger.InfoContext(r.Context(), "Dimension saved", "resource_key", dc.ResourceKey, "resource_id", dc.ResourceID, "locale", dc.Locale, "stage", dc.Stage)
	render.Status(r, http.StatusOK)
	render.JSON(w, r, dc)
}

// DeleteContent removes every dimension of a resource and its documents
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	ref := dimension.NewReference(chi.URLParam(r, "resourceKey"), chi.URLParam(r, "id"))
	if h.writer == nil {
		h.writeError(w, r, http.StatusNotImplemented, "read_only", "dimension storage is read only")
		return
	}

	if h.indexer != nil {
		if err := h.indexer.Deindex(r.Context(), ref.Key, ref.ID, nil); err != nil {
			h.handleError(w, r, "Failed to deindex content", ref, err)
			return
		}
	}
	if err := h.writer.DeleteDimensions(r.Context(), ref.Key, ref.ID); err != nil {
		h.handleError(w, r, "Failed to delete dimensions", ref, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// IndexContent writes the search documents of a resource
func (h *ContentHandler) IndexContent(w http.ResponseWriter, r *http.Request) {
	ref := dimension.NewReference(chi.URLParam(r, "resourceKey"), chi.URLParam(r, "id"))
	if h.indexer == nil {
		h.writeError(w, r, http.StatusNotImplemented, "search_disabled", "search indexing is not configured")
		return
	}
	attrs, err := attributesFromQuery(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_attributes", err.Error())
		return
	}

	dc, err := h.indexer.Index(r.Context(), ref, attrs)
	if err != nil {
		h.handleError(w, r, "Failed to index content", ref, err)
		return
	}

	render.JSON(w, r, IndexResponse{
		DocumentID: search.DocumentID(dc.ResourceKey, dc.ResourceID, dc.Locale),
		Locale:     dc.Locale,
		Stage:      dc.Stage,
	})
}

// DeindexContent removes the search documents of a resource
func (h *ContentHandler) DeindexContent(w http.ResponseWriter, r *http.Request) {
	ref := dimension.NewReference(chi.URLParam(r, "resourceKey"), chi.URLParam(r, "id"))
	if h.indexer == nil {
		h.writeError(w, r, http.StatusNotImplemented, "search_disabled", "search indexing is not configured")
		return
	}
	attrs, err := attributesFromQuery(r)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid_attributes", err.Error())
		return
	}

	var filter *dimension.Attributes
	if attrs.Locale != "" || attrs.Stage != "" {
		filter = &attrs
	}
	if err := h.indexer.Deindex(r.Context(), ref.Key, ref.ID, filter); err != nil {
		h.handleError(w, r, "Failed to deindex content", ref, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *ContentHandler) handleError(w http.ResponseWriter, r *http.Request, msg string, ref dimension.Reference, err error) {
	switch {
	case dimension.IsNotFound(err):
		h.logger.InfoContext(r.Context(), msg, "resource_key", ref.Key, "resource_id", ref.ID, "error", err)
		h.writeError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, metadata.ErrFormNotFound):
		h.logger.ErrorContext(r.Context(), msg, "resource_key", ref.Key, "resource_id", ref.ID, "error", err)
		h.writeError(w, r, http.StatusUnprocessableEntity, "unknown_template", err.Error())
	default:
		h.logger.ErrorContext(r.Context(), msg, "resource_key", ref.Key, "resource_id", ref.ID, "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func (h *ContentHandler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID, _ := r.Context().Value(RequestIDKey).(string)
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: ErrorBody{Code: code, Message: message, RequestID: requestID}})
}
