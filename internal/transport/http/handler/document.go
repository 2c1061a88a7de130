package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/model"
	"docqa/internal/pipeline"
	"docqa/internal/pkg/textextract"
	"docqa/internal/transport/http/response"
)

type DocumentService interface {
	CreateSession(ctx context.Context, input app.CreateSessionInput) (*model.Session, error)
	ListSessions(ctx context.Context, userID uint) ([]model.Session, error)
	DeleteSession(ctx context.Context, userID, sessionID uint) error
	Upload(ctx context.Context, input app.UploadInput) (*app.DocumentView, error)
	Document(ctx context.Context, userID, sessionID uint) (*app.DocumentView, error)
	Summarize(ctx context.Context, userID, sessionID uint) (*app.SummaryResult, error)
	Ask(ctx context.Context, input app.AskInput) (*app.AskResult, error)
	History(ctx context.Context, userID, sessionID uint, limit int) ([]model.QARecord, error)
}

type DocumentHandler struct {
	service  DocumentService
	maxBytes int64
}

type CreateSessionRequest struct {
	Title string `json:"title" binding:"max=128"`
}

type AskRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
}

func NewDocumentHandler(service DocumentService, maxBytes int64) *DocumentHandler {
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &DocumentHandler{service: service, maxBytes: maxBytes}
}

func (h *DocumentHandler) CreateSession(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), app.CreateSessionInput{
		UserID: userID,
		Title:  req.Title,
	})
	if err != nil {
		writeServiceError(c, err, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *DocumentHandler) ListSessions(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}
	sessions, err := h.service.ListSessions(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

func (h *DocumentHandler) DeleteSession(c *gin.Context) {
	userID, sessionID, ok := sessionScope(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		writeServiceError(c, err, "delete session failed")
		return
	}
	response.OK(c, gin.H{"deleted_session_id": sessionID})
}

// Upload accepts a multipart form with "file" and an optional "name" and
// replaces the session's document with it.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, sessionID, ok := sessionScope(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > h.maxBytes {
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge,
			fmt.Sprintf("file too large (max %d bytes)", h.maxBytes))
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	view, err := h.service.Upload(c.Request.Context(), app.UploadInput{
		UserID:    userID,
		SessionID: sessionID,
		Name:      c.PostForm("name"),
		Filename:  file.Filename,
		Content:   f,
	})
	if err != nil {
		writeServiceError(c, err, "upload failed")
		return
	}
	response.OK(c, view)
}

func (h *DocumentHandler) GetDocument(c *gin.Context) {
	userID, sessionID, ok := sessionScope(c)
	if !ok {
		return
	}
	view, err := h.service.Document(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeServiceError(c, err, "get document failed")
		return
	}
	response.OK(c, view)
}

func (h *DocumentHandler) Summarize(c *gin.Context) {
	userID, sessionID, ok := sessionScope(c)
	if !ok {
		return
	}
	result, err := h.service.Summarize(c.Request.Context(), userID, sessionID)
	if err != nil {
		writeServiceError(c, err, "summarize failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) Ask(c *gin.Context) {
	userID, sessionID, ok := sessionScope(c)
	if !ok {
		return
	}
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Ask(c.Request.Context(), app.AskInput{
		UserID:    userID,
		SessionID: sessionID,
		Question:  req.Question,
	})
	if err != nil {
		writeServiceError(c, err, "ask failed")
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) History(c *gin.Context) {
	userID, sessionID, ok := sessionScope(c)
	if !ok {
		return
	}
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	records, err := h.service.History(c.Request.Context(), userID, sessionID, limit)
	if err != nil {
		writeServiceError(c, err, "get history failed")
		return
	}
	response.OK(c, records)
}

// sessionScope reads the caller and the :id session parameter, writing the
// error response itself when either is missing.
func sessionScope(c *gin.Context) (uint, uint, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return 0, 0, false
	}
	sessionID, err := parseUintParam(c, "id")
	if err != nil || sessionID == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid session id")
		return 0, 0, false
	}
	return userID, sessionID, true
}

func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrEmptyQuestion):
		response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrNoDocument):
		response.Error(c, http.StatusConflict, response.CodeNoDocument, err.Error())
	case errors.Is(err, app.ErrDocumentChanged):
		response.Error(c, http.StatusConflict, response.CodeDocumentChanged, err.Error())
	case errors.Is(err, pipeline.ErrNoTextFound):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeNoTextFound, err.Error())
	case errors.Is(err, pipeline.ErrEmptyCorpus):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeEmptyCorpus, err.Error())
	case errors.Is(err, textextract.ErrUnsupportedFormat):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeUnsupportedFormat, err.Error())
	case errors.Is(err, textextract.ErrMalformedDocument):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeMalformedDocument, err.Error())
	case errors.Is(err, pipeline.ErrModelInvocation):
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, response.CodeModelFailure, "model request failed")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
