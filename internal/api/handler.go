package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sanjeevkumarraob/askyourdoc/internal/document"
	"github.com/sanjeevkumarraob/askyourdoc/internal/search"
	"github.com/sanjeevkumarraob/askyourdoc/internal/service"
	"github.com/sanjeevkumarraob/askyourdoc/internal/store"
	"github.com/sanjeevkumarraob/askyourdoc/pkg/stream"
)

// DocumentService is the subset of service.Documents the handlers use.
type DocumentService interface {
	Upload(ctx context.Context, in service.UploadInput) (*store.Document, error)
	Ask(ctx context.Context, in service.AskInput) (*service.Answer, error)
	List(ctx context.Context) ([]store.Summary, error)
	Get(ctx context.Context, id string) (*store.Summary, error)
	Delete(ctx context.Context, id string) error
}

// Handler handles API requests
type Handler struct {
	documents      DocumentService
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(documents DocumentService, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		documents:      documents,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type askRequest struct {
	Question          string `json:"question" binding:"required"`
	DocumentID        string `json:"document_id" binding:"required"`
	TopK              *int   `json:"top_k" binding:"omitempty,min=1"`
	ContextParagraphs *int   `json:"context_paragraphs" binding:"omitempty,min=0"`
}

type paragraphResponse struct {
	Text            string  `json:"text"`
	Page            int     `json:"page"`
	ParagraphIndex  int     `json:"paragraph_index"`
	SimilarityScore float64 `json:"similarity_score"`
}

type resultResponse struct {
	Paragraph     paragraphResponse   `json:"paragraph"`
	ContextBefore []paragraphResponse `json:"context_before"`
	ContextAfter  []paragraphResponse `json:"context_after"`
}

type askResponse struct {
	DocumentID              string           `json:"document_id"`
	DocumentTitle           string           `json:"document_title"`
	OriginalFilename        string           `json:"original_filename"`
	Results                 []resultResponse `json:"results"`
	TotalParagraphsSearched int              `json:"total_paragraphs_searched"`
}

type uploadResponse struct {
	DocumentID       string `json:"document_id"`
	DocumentTitle    string `json:"document_title"`
	OriginalFilename string `json:"original_filename"`
	TotalParagraphs  int    `json:"total_paragraphs"`
	TotalPages       int    `json:"total_pages"`
	Message          string `json:"message"`
}

// Root reports that the service is running
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "AskYourDoc Backend",
		"status":  "running",
	})
}

// HealthCheck provides a simple health check endpoint
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// UploadDocument handles document upload and processing
func (h *Handler) UploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is required"})
		return
	}
	defer file.Close()

	data, err := stream.ReadLimited(file, stream.DefaultChunkSize, h.maxUploadBytes)
	if err != nil {
		h.fail(c, "Error processing document", err)
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), service.UploadInput{
		Filename:  header.Filename,
		MediaType: header.Header.Get("Content-Type"),
		Data:      data,
	})
	if err != nil {
		h.fail(c, "Error processing document", err)
		return
	}

	c.JSON(http.StatusOK, uploadResponse{
		DocumentID:       doc.ID,
		DocumentTitle:    doc.Title,
		OriginalFilename: doc.OriginalFilename,
		TotalParagraphs:  len(doc.Paragraphs),
		TotalPages:       doc.TotalPages,
		Message:          "Document uploaded and processed successfully",
	})
}

// Ask answers a question about one document
func (h *Handler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	answer, err := h.documents.Ask(c.Request.Context(), service.AskInput{
		DocumentID:    req.DocumentID,
		Question:      req.Question,
		TopK:          req.TopK,
		ContextWindow: req.ContextParagraphs,
	})
	if err != nil {
		h.fail(c, "Error processing question", err)
		return
	}
	h.logger.Debug("question answered",
		zap.String("document_id", answer.DocumentID),
		zap.Strings("methods", resultMethods(answer.Results)))

	results := make([]resultResponse, len(answer.Results))
	for i, r := range answer.Results {
		results[i] = resultResponse{
			Paragraph:     toParagraphResponse(r.Paragraph, r.SimilarityScore),
			ContextBefore: contextResponse(r.ContextBefore),
			ContextAfter:  contextResponse(r.ContextAfter),
		}
	}

	c.JSON(http.StatusOK, askResponse{
		DocumentID:              answer.DocumentID,
		DocumentTitle:           answer.DocumentTitle,
		OriginalFilename:        answer.OriginalFilename,
		Results:                 results,
		TotalParagraphsSearched: answer.TotalParagraphsSearched,
	})
}

// ListDocuments lists all uploaded documents
func (h *Handler) ListDocuments(c *gin.Context) {
	list, err := h.documents.List(c.Request.Context())
	if err != nil {
		h.fail(c, "Error listing documents", err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// GetDocument returns document information without its content
func (h *Handler) GetDocument(c *gin.Context) {
	summary, err := h.documents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Error loading document", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// DeleteDocument deletes a document
func (h *Handler) DeleteDocument(c *gin.Context) {
	if err := h.documents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, "Error deleting document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

// fail maps domain errors onto HTTP status codes.
func (h *Handler) fail(c *gin.Context, prefix string, err error) {
	var unsupported *document.UnsupportedFormatError
	switch {
	case errors.As(err, &unsupported):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     fmt.Sprintf("Unsupported file type: %s", unsupported.MediaType),
			"supported": document.SupportedMediaTypes(),
		})
	case errors.Is(err, document.ErrEmptyFile):
		c.JSON(http.StatusBadRequest, gin.H{"error": "File is empty"})
	case errors.Is(err, stream.ErrTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File is too large"})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	default:
		h.logger.Error(prefix, zap.Error(err), zap.String("request_id", c.GetString(requestIDKey)))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("%s: %v", prefix, err)})
	}
	_ = c.Error(err)
}

func toParagraphResponse(p document.Paragraph, score float64) paragraphResponse {
	return paragraphResponse{
		Text:            p.Text,
		Page:            p.Page,
		ParagraphIndex:  p.ParagraphIndex,
		SimilarityScore: score,
	}
}

// contextResponse reports context paragraphs with a score of 0; they are
// never scored themselves.
func contextResponse(ps []document.Paragraph) []paragraphResponse {
	out := make([]paragraphResponse, len(ps))
	for i, p := range ps {
		out[i] = toParagraphResponse(p, 0)
	}
	return out
}

var _ DocumentService = (*service.Documents)(nil)

func resultMethods(results []search.Result) []string {
	methods := make([]string, len(results))
	for i, r := range results {
		methods[i] = r.Method
	}
	return methods
}
