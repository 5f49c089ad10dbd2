package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyrag/internal/app"
	"studyrag/internal/model"
	"studyrag/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
	Mode    string `json:"mode"`
}

type QuickActionRequest struct {
	Mode  string `json:"mode" binding:"required"`
	Topic string `json:"topic" binding:"max=256"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), app.ChatInput{
		SessionID: c.Param("id"),
		Message:   req.Message,
		Mode:      model.Mode(req.Mode),
	})
	if err != nil {
		writeServiceError(c, err, "send message failed")
		return
	}
	response.OK(c, result)
}

func (h *ChatHandler) QuickAction(c *gin.Context) {
	var req QuickActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.QuickAction(c.Request.Context(), c.Param("id"), model.Mode(req.Mode), req.Topic)
	if err != nil {
		writeServiceError(c, err, "quick action failed")
		return
	}
	response.OK(c, result)
}
