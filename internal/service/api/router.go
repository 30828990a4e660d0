package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the calling tenant from the X-Tenant-ID header
// and sets "tenantID" in the request context. Every document route is
// tenant-scoped; requests without a tenant are rejected before reaching a
// handler.
func TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader("X-Tenant-ID")
		if tenantID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Missing X-Tenant-ID header"})
			return
		}
		c.Set("tenantID", tenantID)
		c.Next()
	}
}

// RegisterRoutes registers all the routes for the ingestion service.
func RegisterRoutes(router *gin.Engine, api *API) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	documents := v1.Group("/documents")
	documents.Use(TenantMiddleware())
	{
		documents.POST("", api.UploadHandler)
		documents.GET("", api.ListDocumentsHandler)
		documents.GET("/:id", api.GetDocumentHandler)
		documents.DELETE("/:id", api.DeleteDocumentHandler)
	}
}
