package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyrag/internal/app"
	"studyrag/internal/model"
	"studyrag/internal/transport/http/response"
)

type SessionHandler struct {
	sessionService *app.SessionService
	chatService    *app.ChatService
}

type CreateSessionRequest struct {
	Name     string `json:"name" binding:"max=128"`
	Category string `json:"category"`
}

type UpdateSessionRequest struct {
	Name     *string `json:"name" binding:"omitempty,max=128"`
	Category *string `json:"category"`
}

func NewSessionHandler(sessionService *app.SessionService, chatService *app.ChatService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService, chatService: chatService}
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	session, err := h.sessionService.Create(req.Name, model.Category(req.Category))
	if err != nil {
		writeServiceError(c, err, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) List(c *gin.Context) {
	var (
		sessions []model.Session
		err      error
	)
	if category := c.Query("category"); category != "" {
		sessions, err = h.sessionService.ListByCategory(model.Category(category))
	} else {
		sessions, err = h.sessionService.List()
	}
	if err != nil {
		writeServiceError(c, err, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

func (h *SessionHandler) Get(c *gin.Context) {
	session, err := h.sessionService.Get(c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "get session failed")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Update(c *gin.Context) {
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	var category *model.Category
	if req.Category != nil {
		cat := model.Category(*req.Category)
		category = &cat
	}
	session, err := h.sessionService.Update(c.Param("id"), req.Name, category)
	if err != nil {
		writeServiceError(c, err, "update session failed")
		return
	}
	response.OK(c, session)
}

func (h *SessionHandler) Touch(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessionService.Touch(id); err != nil {
		writeServiceError(c, err, "touch session failed")
		return
	}
	response.OK(c, gin.H{"session_id": id})
}

func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "delete session failed")
		return
	}
	response.OK(c, gin.H{"deleted_session_id": id})
}

func (h *SessionHandler) ListDocuments(c *gin.Context) {
	docs, err := h.sessionService.ListDocuments(c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "list documents failed")
		return
	}
	response.OK(c, docs)
}

func (h *SessionHandler) GetHistory(c *gin.Context) {
	messages, err := h.chatService.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, "get history failed")
		return
	}
	response.OK(c, messages)
}

func (h *SessionHandler) ClearHistory(c *gin.Context) {
	id := c.Param("id")
	if err := h.chatService.ClearHistory(c.Request.Context(), id); err != nil {
		writeServiceError(c, err, "clear history failed")
		return
	}
	response.OK(c, gin.H{"session_id": id})
}

// writeServiceError maps app sentinel errors onto the response envelope.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrEmptyDocument):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrModelUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeModelUnavailable, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
