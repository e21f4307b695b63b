package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	citationrepo "github.com/scholardesk/scholardesk-backend/internal/data/repos/citations"
	"github.com/scholardesk/scholardesk-backend/internal/http/response"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/ctxutil"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
	"github.com/scholardesk/scholardesk-backend/internal/services"
)

type CitationHandler struct {
	log       *logger.Logger
	citations services.CitationService
}

func NewCitationHandler(log *logger.Logger, citations services.CitationService) *CitationHandler {
	return &CitationHandler{log: log.With("handler", "CitationHandler"), citations: citations}
}

type extractCitationsRequest struct {
	DocumentIDs []string `json:"document_ids" binding:"required"`
	Reprocess   bool     `json:"reprocess"`
}

// Extract runs citation extraction for up to the configured batch of
// documents.
func (h *CitationHandler) Extract(c *gin.Context) {
	var req extractCitationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_request_body", err))
		return
	}

	ids := make([]uuid.UUID, 0, len(req.DocumentIDs))
	for _, raw := range req.DocumentIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid_document_id",
				fmt.Errorf("invalid document id %q", raw)))
			return
		}
		ids = append(ids, id)
	}

	input := services.ExtractBatchInput{DocumentIDs: ids, Reprocess: req.Reprocess}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		input.UserID = rd.UserID
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.citations.ExtractBatch(dbc, input)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

// List serves citation queries and, when export=bibtex|ris is given, streams
// the formatted set as a download instead.
func (h *CitationHandler) List(c *gin.Context) {
	filter, err := citationFilterFromQuery(c)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}

	if export := strings.TrimSpace(c.Query("export")); export != "" {
		blob, err := h.citations.Export(dbc, filter, export)
		if err != nil {
			response.RespondAPIError(c, err)
			return
		}
		filename := "citations.bib"
		if strings.EqualFold(export, services.ExportFormatRIS) {
			filename = "citations.ris"
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(blob))
		return
	}

	result, err := h.citations.List(dbc, filter)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}

func citationFilterFromQuery(c *gin.Context) (citationrepo.Filter, error) {
	var filter citationrepo.Filter

	if raw := strings.TrimSpace(c.Query("document_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, apierr.Validation("invalid_document_id",
				fmt.Errorf("invalid document id %q", raw))
		}
		filter.DocumentID = &id
	}
	if t := strings.TrimSpace(c.Query("type")); t != "" {
		filter.Type = t
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.UserID != uuid.Nil {
		uid := rd.UserID
		filter.UserID = &uid
	}
	filter.Limit = intQuery(c, "limit", 50)
	filter.Offset = intQuery(c, "offset", 0)
	return filter, nil
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
