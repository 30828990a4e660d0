package api

import (
	"errors"
	"net/http"

	"docuvault/internal/ingest/dal"
	"docuvault/internal/service"
	"docuvault/pkg/logger"

	"github.com/gin-gonic/gin"
)

// API provides the HTTP handlers for document ingestion.
type API struct {
	service *service.DocumentService
	logger  *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(svc *service.DocumentService, log *logger.Logger) *API {
	return &API{service: svc, logger: log}
}

// UploadHandler accepts a multipart upload and schedules processing.
func (a *API) UploadHandler(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file"})
		return
	}
	defer file.Close()

	doc, err := a.service.Upload(c.Request.Context(), tenantID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": verr.Reason})
			return
		}
		// The service layer already logged the detailed error.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store document"})
		return
	}

	c.JSON(http.StatusAccepted, doc)
}

// GetDocumentHandler returns a single document with its processing state.
func (a *API) GetDocumentHandler(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	documentID := c.Param("id")

	doc, err := a.service.Get(c.Request.Context(), tenantID, documentID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve document"})
		return
	}

	c.JSON(http.StatusOK, doc)
}

// ListDocumentsHandler returns the tenant's documents.
func (a *API) ListDocumentsHandler(c *gin.Context) {
	tenantID := c.GetString("tenantID")

	docs, err := a.service.List(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

// DeleteDocumentHandler removes a document and all derived data.
func (a *API) DeleteDocumentHandler(c *gin.Context) {
	tenantID := c.GetString("tenantID")
	documentID := c.Param("id")

	err := a.service.Delete(c.Request.Context(), tenantID, documentID)
	if err != nil {
		if errors.Is(err, dal.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
			return
		}
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusConflict, gin.H{"error": verr.Reason})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete document"})
		return
	}

	c.Status(http.StatusNoContent)
}
