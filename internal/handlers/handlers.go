package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/orderdocs/orderdocs/internal/logging"
	"github.com/orderdocs/orderdocs/internal/metrics"
	"github.com/orderdocs/orderdocs/internal/models"
	"github.com/orderdocs/orderdocs/internal/platform"
	"github.com/orderdocs/orderdocs/internal/ratelimit"
	"github.com/orderdocs/orderdocs/internal/service"
	"github.com/orderdocs/orderdocs/internal/spool"
	"github.com/orderdocs/orderdocs/internal/webhook"
)

// DocumentService is the orchestration surface the HTTP layer depends on.
type DocumentService interface {
	UploadAndLink(ctx context.Context, content []byte, filename, mimeType, orderID string) (string, error)
	ProcessOrderCreated(ctx context.Context, n *models.OrderNotification) error
}

// Handler serves the upload form endpoint and platform webhooks.
type Handler struct {
	service     DocumentService
	verifier    *webhook.Verifier
	spool       *spool.Store
	limiter     ratelimit.RateLimiter
	maxFileSize int64
	maxBodySize int64
	logger      *logging.Logger
}

func NewHandler(svc DocumentService, verifier *webhook.Verifier, store *spool.Store, limiter ratelimit.RateLimiter, maxFileSize, maxBodySize int64, logger *logging.Logger) *Handler {
	if limiter == nil {
		limiter = &ratelimit.NoOpRateLimiter{}
	}
	return &Handler{
		service:     svc,
		verifier:    verifier,
		spool:       store,
		limiter:     limiter,
		maxFileSize: maxFileSize,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// HandleUpload accepts a multipart document plus an order identifier, spools
// the bytes locally for the duration of the request, and runs the
// upload-and-link flow.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendUploadError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	allowed, err := h.limiter.Allow(r.Context(), getClientIP(r))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "rate limiter failure", "error", err)
		// Fail open: refusing uploads because Redis is down helps nobody.
	} else if !allowed {
		h.sendUploadError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize)

	file, header, err := r.FormFile("file")
	if err != nil {
		h.sendUploadError(w, http.StatusBadRequest, "No file uploaded.")
		return
	}
	defer file.Close()

	orderID := r.FormValue("orderId")
	if orderID == "" {
		h.sendUploadError(w, http.StatusBadRequest, "Order ID is required.")
		return
	}

	spooled, err := h.spool.Save(file, header.Filename)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "spool write failed", "error", err)
		h.sendUploadError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	// The spooled copy lives only for this request, error paths included.
	defer func() {
		if err := spooled.Remove(); err != nil {
			h.logger.WarnContext(r.Context(), "spool cleanup failed", "path", spooled.Path, "error", err)
		}
	}()

	content, err := spooled.Bytes()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "spool read failed", "error", err)
		h.sendUploadError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}
	metrics.UploadBytesTotal.Add(float64(len(content)))

	fileURL, err := h.service.UploadAndLink(r.Context(), content, header.Filename, header.Header.Get("Content-Type"), orderID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "upload and link failed",
			"order_id", orderID,
			"kind", string(platform.Kind(err)),
			"error", err)
		metrics.UploadsTotal.WithLabelValues("error").Inc()
		h.sendUploadError(w, uploadStatus(err), err.Error())
		return
	}

	metrics.UploadsTotal.WithLabelValues("success").Inc()
	h.sendJSON(w, http.StatusOK, models.UploadResponse{Success: true, FileURL: fileURL})
}

// HandleOrderCreated receives orders/create webhook deliveries. The signature
// is verified over the raw bytes before anything is parsed; a delivery that
// fails verification causes no downstream calls.
func (h *Handler) HandleOrderCreated(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.sendWebhookError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			metrics.WebhooksTotal.WithLabelValues("oversized").Inc()
			h.sendWebhookError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		h.sendWebhookError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	signature := r.Header.Get("X-Shopify-Hmac-Sha256")
	if !h.verifier.Verify(body, signature) {
		metrics.WebhooksTotal.WithLabelValues("rejected").Inc()
		h.logger.WarnContext(r.Context(), "webhook signature mismatch", "remote", getClientIP(r))
		h.sendWebhookError(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}

	var notification models.OrderNotification
	if err := json.Unmarshal(body, &notification); err != nil {
		metrics.WebhooksTotal.WithLabelValues("malformed").Inc()
		h.sendWebhookError(w, http.StatusBadRequest, "invalid webhook payload")
		return
	}

	if err := h.service.ProcessOrderCreated(r.Context(), &notification); err != nil {
		metrics.WebhooksTotal.WithLabelValues("failed").Inc()
		var partial *service.PartialLinkError
		if errors.As(err, &partial) {
			h.logger.ErrorContext(r.Context(), "partial link on notification",
				"order_id", notification.OrderID(),
				"error", err)
			h.sendWebhookError(w, http.StatusInternalServerError, partial.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "notification processing failed",
			"order_id", notification.OrderID(),
			"error", err)
		h.sendWebhookError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.WebhooksTotal.WithLabelValues("success").Inc()
	h.sendJSON(w, http.StatusOK, models.WebhookResponse{Success: true})
}

// HandleTest is the fixed liveness acknowledgment for the upload form.
func (h *Handler) HandleTest(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"message": "orderdocs service is running"})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	h.sendJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// uploadStatus maps the platform error taxonomy onto HTTP statuses.
func uploadStatus(err error) int {
	switch platform.Kind(err) {
	case platform.ErrRejected:
		return http.StatusUnprocessableEntity
	case platform.ErrRateLimited:
		return http.StatusTooManyRequests
	case platform.ErrTransport, platform.ErrMalformedResponse:
		return http.StatusBadGateway
	case platform.ErrResolutionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) sendUploadError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, models.UploadResponse{Success: false, Error: msg})
}

func (h *Handler) sendWebhookError(w http.ResponseWriter, status int, msg string) {
	h.sendJSON(w, status, models.WebhookResponse{Success: false, Error: msg})
}

func (h *Handler) sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
