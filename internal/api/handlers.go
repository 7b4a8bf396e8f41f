// handlers.go - HTTP handlers for document upload and extraction

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/bosocmputer/document_gateway/internal/common"
	"github.com/bosocmputer/document_gateway/internal/extractor"
	"github.com/bosocmputer/document_gateway/internal/processor"
	"github.com/gin-gonic/gin"
)

const defaultMaxUploadBytes = 20 << 20

// ConfigStatus reports the state of the country configuration for /health.
type ConfigStatus interface {
	Ready() bool
	Source() string
	LastError() error
}

// Handler serves the extraction endpoints.
type Handler struct {
	service        *extractor.Service
	status         ConfigStatus
	maxUploadBytes int64
}

// NewHandler creates a Handler. maxUploadMB <= 0 falls back to 20 MB.
func NewHandler(service *extractor.Service, status ConfigStatus, maxUploadMB int) *Handler {
	maxBytes := int64(maxUploadMB) << 20
	if maxUploadMB <= 0 {
		maxBytes = defaultMaxUploadBytes
	}
	return &Handler{service: service, status: status, maxUploadBytes: maxBytes}
}

// ProcessDocument handles POST /process
func (h *Handler) ProcessDocument(c *gin.Context) {
	rc, ctx := h.begin(c, "process")

	in, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}

	resp, err := h.service.ProcessDocument(ctx, in)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}
	h.respond(c, rc, resp)
}

// ExtractKeywords handles POST /extract-keywords
func (h *Handler) ExtractKeywords(c *gin.Context) {
	rc, ctx := h.begin(c, "extract-keywords")

	in, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}

	resp, err := h.service.ExtractKeywords(ctx, in, c.PostForm("keywords"))
	if err != nil {
		h.respondError(c, rc, err)
		return
	}
	h.respond(c, rc, resp)
}

// ProcessBusinessLicense handles POST /process-business-license
// The optional form field "country" selects the configuration; when blank the
// country is detected from the document.
func (h *Handler) ProcessBusinessLicense(c *gin.Context) {
	rc, ctx := h.begin(c, "process-business-license")

	in, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}

	result, err := h.service.ProcessBusinessLicense(ctx, in, c.PostForm("country"))
	if err != nil {
		h.respondError(c, rc, err)
		return
	}

	c.Header("X-Country-Code", result.Country)
	c.Header("X-Country-Detected", strconv.FormatBool(result.CountryDetected))
	h.respond(c, rc, result.Record)
}

// ProcessAdaptive handles POST /process-adaptive
func (h *Handler) ProcessAdaptive(c *gin.Context) {
	rc, ctx := h.begin(c, "process-adaptive")

	in, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}

	resp, err := h.service.ProcessAdaptive(ctx, in)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}
	h.respond(c, rc, resp)
}

// ProcessReceipt handles POST /process-receipt
func (h *Handler) ProcessReceipt(c *gin.Context) {
	rc, ctx := h.begin(c, "process-receipt")

	in, err := h.readUpload(c)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}

	resp, err := h.service.ProcessReceipt(ctx, in)
	if err != nil {
		h.respondError(c, rc, err)
		return
	}
	h.respond(c, rc, resp)
}

// ListCountries handles GET /countries
func (h *Handler) ListCountries(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"countries": h.service.SupportedCountries(),
	})
}

// Health handles GET /health
// The server keeps running without country configuration, so the
// configuration state is reported here instead of failing startup.
func (h *Handler) Health(c *gin.Context) {
	countryConfig := gin.H{
		"loaded":    false,
		"source":    "none",
		"countries": h.service.SupportedCountries(),
	}
	status := "ok"

	if h.status != nil {
		countryConfig["loaded"] = h.status.Ready()
		countryConfig["source"] = h.status.Source()
		if err := h.status.LastError(); err != nil {
			countryConfig["error"] = err.Error()
		}
	}
	if loaded, _ := countryConfig["loaded"].(bool); !loaded {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status,
		"service":        "document-gateway",
		"model_provider": h.service.ModelProvider(),
		"country_config": countryConfig,
	})
}

func (h *Handler) begin(c *gin.Context, operation string) (*common.RequestContext, context.Context) {
	rc := common.NewRequestContext(operation)
	c.Header("X-Request-ID", rc.RequestID)
	return rc, common.WithRequestContext(c.Request.Context(), rc)
}

// readUpload reads the multipart "file" field fully into memory.
func (h *Handler) readUpload(c *gin.Context) (processor.DocumentInput, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+(1<<20))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return processor.DocumentInput{}, common.NewValidationError("File too large (limit %d bytes)", h.maxUploadBytes)
		}
		return processor.DocumentInput{}, common.NewValidationError("No file uploaded: multipart field \"file\" is required")
	}
	defer func() { _ = file.Close() }()

	if header.Size > h.maxUploadBytes {
		return processor.DocumentInput{}, common.NewValidationError("File too large: %d bytes (limit %d bytes)", header.Size, h.maxUploadBytes)
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		return processor.DocumentInput{}, common.NewProcessingError(fmt.Sprintf("Failed to read uploaded file: %v", err), err)
	}
	if int64(len(data)) > h.maxUploadBytes {
		return processor.DocumentInput{}, common.NewValidationError("File too large (limit %d bytes)", h.maxUploadBytes)
	}

	return processor.DocumentInput{Data: data, Filename: header.Filename}, nil
}

func (h *Handler) respond(c *gin.Context, rc *common.RequestContext, body interface{}) {
	rc.GetSummary()
	c.JSON(http.StatusOK, body)
}

func (h *Handler) respondError(c *gin.Context, rc *common.RequestContext, err error) {
	appErr := common.AsAppError(err)
	rc.LogError("%s", appErr.Error())

	body := gin.H{
		"error":      appErr.Message,
		"code":       string(appErr.Kind),
		"request_id": rc.RequestID,
	}
	if appErr.RawResponse != "" {
		body["raw_response"] = appErr.RawResponse
	}
	c.JSON(appErr.HTTPStatus(), body)
}
