// handlers.go - HTTP handlers for complaint analysis and health checks.

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/townsquare/complaint_analyzer/internal/common"
	"github.com/townsquare/complaint_analyzer/internal/domain"
	"github.com/townsquare/complaint_analyzer/internal/engine"
	"github.com/townsquare/complaint_analyzer/internal/processor"
	"github.com/townsquare/complaint_analyzer/internal/storage"
)

// multipartMemory is how much of a multipart body is held in memory before spilling to disk.
const multipartMemory = 8 << 20

// Analyzer runs one complaint through the engine. *engine.Orchestrator implements it.
type Analyzer interface {
	Run(ctx context.Context, req domain.AnalysisRequest) engine.Outcome
}

// Handler serves the analysis endpoints.
type Handler struct {
	analyzer       Analyzer
	provider       string
	audit          storage.AuditStore
	cache          *storage.ResultCache
	maxUploadBytes int64
}

// HandlerOptions wires optional collaborators into a Handler.
type HandlerOptions struct {
	Provider       string
	Audit          storage.AuditStore
	Cache          *storage.ResultCache
	MaxUploadBytes int64
}

// NewHandler creates a Handler. A nil audit store discards records.
func NewHandler(analyzer Analyzer, opts HandlerOptions) *Handler {
	if opts.Audit == nil {
		opts.Audit = storage.NopAuditStore{}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.Provider == "" {
		opts.Provider = "none"
	}
	return &Handler{
		analyzer:       analyzer,
		provider:       opts.Provider,
		audit:          opts.Audit,
		cache:          opts.Cache,
		maxUploadBytes: opts.MaxUploadBytes,
	}
}

// AnalyzeComplaintHandler handles POST /api/v1/analyze-complaint.
// The form carries title, description and an optional image file. Once the input is
// valid the response is always 200: model failures fall back to keyword classification.
func (h *Handler) AnalyzeComplaintHandler(c *gin.Context) {
	// Step 1: Parse the multipart form within the upload limit
	tooLarge := func() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error":     "upload too large",
			"max_bytes": h.maxUploadBytes,
		})
	}
	if c.Request.ContentLength > h.maxUploadBytes {
		tooLarge()
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			tooLarge()
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request format",
			"details": err.Error(),
		})
		return
	}

	// Step 2: Validate required fields
	title := strings.TrimSpace(c.PostForm("title"))
	description := strings.TrimSpace(c.PostForm("description"))
	if title == "" || description == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":    "title and description are required",
			"expected": "multipart form with title, description and optional image",
		})
		return
	}

	req := domain.AnalysisRequest{Title: title, Description: description}

	// Step 3: Read the optional image
	image, status, err := readImage(c)
	if err != nil {
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	req.Image = image

	reqCtx := common.NewRequestContext(title)
	ctx := common.WithRequestContext(c.Request.Context(), reqCtx)
	if image != nil {
		reqCtx.LogInfo("📷 Image attached: %s, %.1f KB", image.ContentType, float64(len(image.Data))/1024)
	}

	// Step 4: Serve duplicate submissions from the cache
	if cached, ok := h.cache.Get(req); ok {
		reqCtx.LogInfo("♻️  Duplicate submission, returning cached result")
		c.JSON(http.StatusOK, gin.H{
			"request_id": reqCtx.RequestID,
			"result":     cached,
			"cached":     true,
			"processing": reqCtx.GetSummary(),
		})
		return
	}

	// Step 5: Run the engine
	started := time.Now()
	out := h.analyzer.Run(ctx, req)
	h.cache.Put(req, out.Result)

	// Step 6: Record the outcome; audit failures never affect the response
	h.recordAudit(ctx, reqCtx, out, time.Since(started))

	summary := reqCtx.GetSummary()
	c.JSON(http.StatusOK, gin.H{
		"request_id": reqCtx.RequestID,
		"result":     out.Result,
		"processing": summary,
	})
}

// readImage returns the uploaded image, nil when none was sent, or an error with its HTTP status.
func readImage(c *gin.Context) (*domain.Image, int, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, http.StatusOK, nil
	}
	if err != nil {
		return nil, http.StatusBadRequest, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	if len(data) == 0 {
		return nil, http.StatusOK, nil
	}

	contentType := processor.DetectContentType(data, header.Header.Get("Content-Type"))
	if !processor.SupportedImageTypes[contentType] {
		return nil, http.StatusBadRequest, errors.New("unsupported image type " + contentType + " (supported: jpeg, png, gif, webp)")
	}
	return &domain.Image{Data: data, ContentType: contentType}, http.StatusOK, nil
}

func (h *Handler) recordAudit(ctx context.Context, reqCtx *common.RequestContext, out engine.Outcome, duration time.Duration) {
	reqCtx.StartStep("audit")

	path := make([]string, len(out.Path))
	for i, s := range out.Path {
		path[i] = string(s)
	}
	rec := storage.NewAuditRecord(reqCtx.RequestID, h.provider, out.Result, path, out.PrimaryErr, duration)
	rec.TokenUsage = map[string]int{
		"input_tokens":  reqCtx.TotalTokens.InputTokens,
		"output_tokens": reqCtx.TotalTokens.OutputTokens,
		"total_tokens":  reqCtx.TotalTokens.TotalTokens,
	}

	if err := h.audit.Record(context.WithoutCancel(ctx), rec); err != nil {
		reqCtx.EndStep(common.StatusFailed, err)
		return
	}
	reqCtx.EndStep(common.StatusSuccess, nil)
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	mode := "ai_with_fallback"
	if h.provider == "none" {
		mode = "fallback_only"
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "complaint-analyzer",
		"version":  "1.0.0",
		"provider": h.provider,
		"mode":     mode,
	})
}

// NewRouter registers the routes and CORS middleware on a new gin engine.
func NewRouter(h *Handler, allowedOrigins string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Add CORS middleware - configure allowed origins for production
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", h.Health)
	router.POST("/api/v1/analyze-complaint", h.AnalyzeComplaintHandler)
	return router
}
