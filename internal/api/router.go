// router.go - Route table and CORS middleware

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with every endpoint registered.
func NewRouter(h *Handler, allowedOrigins string) *gin.Engine {
	router := gin.Default()
	router.MaxMultipartMemory = h.maxUploadBytes

	router.Use(CORSMiddleware(allowedOrigins))

	// Root endpoint for SSL verification
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/health", h.Health)
	router.GET("/countries", h.ListCountries)

	router.POST("/process", h.ProcessDocument)
	router.POST("/extract-keywords", h.ExtractKeywords)
	router.POST("/process-business-license", h.ProcessBusinessLicense)
	router.POST("/process-adaptive", h.ProcessAdaptive)
	router.POST("/process-receipt", h.ProcessReceipt)

	return router
}

// CORSMiddleware answers preflight requests and sets the allowed origin.
func CORSMiddleware(allowedOrigins string) gin.HandlerFunc {
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Request-ID, X-Country-Code, X-Country-Detected")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
