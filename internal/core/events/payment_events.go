package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentApproved     = "payment.approved"
	EventTypePaymentRejected     = "payment.rejected"
	EventTypeFulfillmentComplete = "fulfillment.complete"
)

// PaymentApprovedEvent is published exactly once per provider payment id,
// gated on winning the payments insert. Fulfillment subscribes to it.
type PaymentApprovedEvent struct {
	BaseEvent
	CvDataID    int64  `json:"cv_data_id"`
	ExternalID  string `json:"external_id"`
	AmountCents int64  `json:"amount_cents"`
}

func NewPaymentApprovedEvent(cvDataID int64, externalID string, amountCents int64) *PaymentApprovedEvent {
	return &PaymentApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"cv_data_id":   cvDataID,
				"external_id":  externalID,
				"amount_cents": amountCents,
			},
		},
		CvDataID:    cvDataID,
		ExternalID:  externalID,
		AmountCents: amountCents,
	}
}

type PaymentRejectedEvent struct {
	BaseEvent
	CvDataID   int64  `json:"cv_data_id"`
	ExternalID string `json:"external_id"`
	Detail     string `json:"detail"`
}

func NewPaymentRejectedEvent(cvDataID int64, externalID, detail string) *PaymentRejectedEvent {
	return &PaymentRejectedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentRejected,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"cv_data_id":  cvDataID,
				"external_id": externalID,
				"detail":      detail,
			},
		},
		CvDataID:   cvDataID,
		ExternalID: externalID,
		Detail:     detail,
	}
}

type FulfillmentCompleteEvent struct {
	BaseEvent
	CvDataID int64  `json:"cv_data_id"`
	PdfURL   string `json:"pdf_url"`
}

func NewFulfillmentCompleteEvent(cvDataID int64, pdfURL string) *FulfillmentCompleteEvent {
	return &FulfillmentCompleteEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeFulfillmentComplete,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"cv_data_id": cvDataID,
				"pdf_url":    pdfURL,
			},
		},
		CvDataID: cvDataID,
		PdfURL:   pdfURL,
	}
}
