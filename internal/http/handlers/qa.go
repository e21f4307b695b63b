package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/scholardesk/scholardesk-backend/internal/http/response"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/apierr"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/ctxutil"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/dbctx"
	"github.com/scholardesk/scholardesk-backend/internal/pkg/logger"
	"github.com/scholardesk/scholardesk-backend/internal/services"
)

type QAHandler struct {
	log *logger.Logger
	qa  services.QAService
}

func NewQAHandler(log *logger.Logger, qa services.QAService) *QAHandler {
	return &QAHandler{log: log.With("handler", "QAHandler"), qa: qa}
}

type askRequest struct {
	DocumentID   string  `json:"document_id" binding:"required"`
	Question     string  `json:"question" binding:"required"`
	SessionID    string  `json:"session_id"`
	UseWebSearch bool    `json:"use_web_search"`
	Temperature  float64 `json:"temperature"`
	MaxSources   int     `json:"max_sources"`
}

type askResponse struct {
	Success bool `json:"success"`
	services.AskResult
}

// Ask answers one question about a processed document.
func (h *QAHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_request_body", err))
		return
	}

	docID, err := uuid.Parse(strings.TrimSpace(req.DocumentID))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_document_id",
			fmt.Errorf("invalid document id %q", req.DocumentID)))
		return
	}

	input := services.AskInput{
		DocumentID:   docID,
		Question:     req.Question,
		UseWebSearch: req.UseWebSearch,
		Temperature:  req.Temperature,
		MaxSources:   req.MaxSources,
	}
	if raw := strings.TrimSpace(req.SessionID); raw != "" {
		sessionID, err := uuid.Parse(raw)
		if err != nil {
			response.RespondAPIError(c, apierr.Validation("invalid_session_id",
				fmt.Errorf("invalid session id %q", raw)))
			return
		}
		input.SessionID = &sessionID
	}
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil {
		input.UserID = rd.UserID
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.qa.Ask(dbc, input)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	// Fallback answers are successful responses; degradation is visible in
	// source_type, not in the status code.
	response.RespondOK(c, askResponse{Success: true, AskResult: result})
}

// History pages through one session's messages in conversation order.
func (h *QAHandler) History(c *gin.Context) {
	sessionID, err := uuid.Parse(strings.TrimSpace(c.Query("session_id")))
	if err != nil {
		response.RespondAPIError(c, apierr.Validation("invalid_session_id",
			fmt.Errorf("invalid session id %q", c.Query("session_id"))))
		return
	}

	dbc := dbctx.Context{Ctx: c.Request.Context()}
	result, err := h.qa.History(dbc, sessionID, intQuery(c, "limit", 50), intQuery(c, "offset", 0))
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, result)
}
