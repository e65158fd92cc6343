package comparison

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartdoc-backend/internal/shared/server/middleware"
	"smartdoc-backend/internal/shared/server/respond"
)

// Handler exposes the compare and summary endpoints.
type Handler struct {
	Svc *Service
	// Limit, when set, guards both model-backed routes.
	Limit gin.HandlerFunc
}

func NewHandler(svc *Service, limit gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Limit: limit}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	handlers := []gin.HandlerFunc{}
	if h.Limit != nil {
		handlers = append(handlers, h.Limit)
	}
	rg.POST("/comparisons", append(handlers, h.compare)...)
	rg.POST("/summaries", append(handlers, h.summarize)...)
}

type compareRequest struct {
	DocumentIDs []string `json:"documentIds"`
}

func (h *Handler) compare(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	result, err := h.Svc.Run(c.Request.Context(), middleware.UserIDFromContext(c), req.DocumentIDs, MinDocuments)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) summarize(c *gin.Context) {
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	summaries, err := h.Svc.Summarize(c.Request.Context(), middleware.UserIDFromContext(c), req.DocumentIDs)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"summaries": summaries})
}

func writeError(c *gin.Context, err error) {
	var details any
	if name := DocumentName(err); name != "" {
		details = gin.H{"document": name}
	}
	switch {
	case errors.Is(err, ErrInsufficientDocuments):
		respond.Error(c, http.StatusBadRequest, "insufficient_documents", "not enough distinct documents", nil)
	case errors.Is(err, ErrInsufficientCredits):
		respond.Error(c, http.StatusPaymentRequired, "insufficient_credits", "not enough credits for this comparison", nil)
	case errors.Is(err, ErrNotFoundOrForbidden):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", details)
	case errors.Is(err, ErrUnsupportedType):
		respond.Error(c, http.StatusUnsupportedMediaType, "unsupported_type", err.Error(), details)
	case errors.Is(err, ErrExtractionFailed):
		respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", err.Error(), details)
	case errors.Is(err, ErrNoJSONFound), errors.Is(err, ErrInvalidJSON), errors.Is(err, ErrMalformedSchema):
		respond.Error(c, http.StatusBadGateway, "ai_response_invalid", "the AI returned a response in an unexpected format, please try again", nil)
	case errors.Is(err, ErrModelOverloaded):
		respond.Error(c, http.StatusServiceUnavailable, "model_overloaded", "the AI model is busy, please try again", gin.H{"retryable": true})
	case errors.Is(err, ErrModelCallFailed):
		respond.Error(c, http.StatusBadGateway, "model_call_failed", "AI comparison failed", nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "comparison failed", nil)
	}
}
