package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/http/response"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
	"github.com/scholardesk/scholardesk-backend/internal/services"
)

type DocumentHandler struct {
	log      *logger.Logger
	pipeline services.PipelineService
	activity services.ActivityService
}

func NewDocumentHandler(log *logger.Logger, pipeline services.PipelineService, activity services.ActivityService) *DocumentHandler {
	return &DocumentHandler{
		log:      log.With("handler", "DocumentHandler"),
		pipeline: pipeline,
		activity: activity,
	}
}

type processResponse struct {
	Success bool `json:"success"`
	services.ProcessResult
}

// Process runs the document through the processing pipeline and returns the
// run summary.
func (h *DocumentHandler) Process(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_document_id",
			fmt.Errorf("invalid document id %q", c.Param("id"))))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.pipeline.Process(dbc, docID)
	if err != nil {
		h.log.Warn("document processing failed", "document_id", docID, "error", err)
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, processResponse{Success: true, ProcessResult: result})
}

// Activity lists the processing audit trail for one document, newest first.
func (h *DocumentHandler) Activity(c *gin.Context) {
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_document_id",
			fmt.Errorf("invalid document id %q", c.Param("id"))))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	events, err := h.activity.ListByDocument(dbc, docID, intQuery(c, "limit", 100))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}
