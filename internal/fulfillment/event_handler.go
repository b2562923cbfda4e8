package fulfillment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cvpratico/cv-builder/internal/core/events"
)

type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) HandlePaymentApproved(ctx context.Context, event events.Event) error {
	approvedEvent, ok := event.(*events.PaymentApprovedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment approved handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentApprovedEvent, got %T", event)
	}

	h.logger.Info("handling payment approved event for fulfillment",
		"cv_id", approvedEvent.CvDataID,
		"external_id", approvedEvent.ExternalID,
		"event_id", approvedEvent.EventID())

	if err := h.service.Enqueue(approvedEvent.CvDataID); err != nil {
		h.logger.Error("failed to enqueue fulfillment job",
			"error", err,
			"cv_id", approvedEvent.CvDataID,
			"event_id", approvedEvent.EventID())
		return fmt.Errorf("fulfillment enqueue failed for cv %d: %w", approvedEvent.CvDataID, err)
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentApproved, h.HandlePaymentApproved)

	h.logger.Info("fulfillment event handlers registered",
		"handlers", []string{events.EventTypePaymentApproved})
}
