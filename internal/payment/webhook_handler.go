package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/cvpratico/cv-builder/internal"
	"github.com/cvpratico/cv-builder/internal/transport"
)

// WebhookService is the slice of the payment service the webhook needs.
type WebhookService interface {
	ProcessNotification(ctx context.Context, providerPaymentID string) error
}

// WebhookHandler receives provider-pushed payment notifications. The contract
// with the provider is: 200 means "received and processed" (including
// no-ops), 5xx means "redeliver later". No other status codes are meaningful
// to its retry logic.
type WebhookHandler struct {
	*transport.BaseHandler
	service WebhookService
	logger  *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service WebhookService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler: baseHandler,
		service:     service,
		logger:      logger,
	}
}

func (h *WebhookHandler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	var envelope NotificationEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		// a body we cannot parse will never become parseable on retry
		h.logger.Warn("unparseable notification body", "error", err)
		h.WriteJSON(w, http.StatusOK, AckResponse{Received: true, Detail: "ignored: unparseable body"})
		return
	}

	if envelope.Type != notificationTypePayment {
		h.logger.Info("ignoring non-payment notification", "type", envelope.Type)
		h.WriteJSON(w, http.StatusOK, AckResponse{Received: true, Detail: "ignored: not a payment event"})
		return
	}

	if envelope.Data.ID == "" {
		h.logger.Warn("payment notification without a payment id")
		h.WriteJSON(w, http.StatusOK, AckResponse{Received: true, Detail: "ignored: missing payment id"})
		return
	}

	h.logger.Info("received payment notification", "provider_payment_id", envelope.Data.ID)

	err := h.service.ProcessNotification(r.Context(), envelope.Data.ID)
	if err == nil {
		h.WriteJSON(w, http.StatusOK, AckResponse{Received: true})
		return
	}

	appErr, ok := apperrors.IsAppError(err)
	if !ok {
		h.logger.Error("notification processing failed",
			"error", err,
			"provider_payment_id", envelope.Data.ID)
		h.WriteError(w, http.StatusInternalServerError, "notification processing failed")
		return
	}

	switch appErr.Code {
	case apperrors.ErrCodeDuplicateNotification:
		// already processed; receipt, not approval
		h.WriteJSON(w, http.StatusOK, AckResponse{Received: true, Detail: "already processed"})
	case apperrors.ErrCodeUnknownReference:
		// permanently unresolvable; retrying would never succeed
		h.WriteJSON(w, http.StatusOK, AckResponse{Received: true, Detail: "unknown reference"})
	default:
		// transient (provider query or store failure): ask for redelivery
		h.logger.Error("notification processing failed, requesting redelivery",
			"error", appErr,
			"code", appErr.Code,
			"provider_payment_id", envelope.Data.ID)
		h.WriteError(w, http.StatusServiceUnavailable, "temporary failure, please retry")
	}
}
