package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studyrag/internal/app"
	"studyrag/internal/model"
	"studyrag/internal/transport/http/response"
)

type IngestHandler struct {
	ingestService *app.IngestService
}

// UploadDocumentRequest carries a document whose text the client has
// already extracted.
type UploadDocumentRequest struct {
	Filename string `json:"filename" binding:"required,max=256"`
	Category string `json:"category"`
	Text     string `json:"text" binding:"required"`
}

func NewIngestHandler(ingestService *app.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

func (h *IngestHandler) Upload(c *gin.Context) {
	var req UploadDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.ingestService.Ingest(c.Request.Context(), app.IngestInput{
		SessionID: c.Param("id"),
		Filename:  req.Filename,
		Category:  model.Category(req.Category),
		Text:      req.Text,
	})
	if err != nil {
		writeServiceError(c, err, "upload document failed")
		return
	}
	response.OK(c, gin.H{
		"document":    result.Document,
		"chunk_count": result.ChunkCount,
	})
}
