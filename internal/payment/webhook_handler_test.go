package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/cvpratico/cv-builder/internal"
	paymentpkg "github.com/cvpratico/cv-builder/internal/payment"
	"github.com/cvpratico/cv-builder/internal/transport"
)

// Mock webhook service for testing
type mockWebhookService struct {
	processErr error
	calls      []string
}

func (m *mockWebhookService) ProcessNotification(ctx context.Context, providerPaymentID string) error {
	m.calls = append(m.calls, providerPaymentID)
	return m.processErr
}

var _ = Describe("WebhookHandler", func() {
	var (
		service *mockWebhookService
		handler *paymentpkg.WebhookHandler
	)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		handler.HandleNotification(recorder, req)
		return recorder
	}

	ack := func(recorder *httptest.ResponseRecorder) paymentpkg.AckResponse {
		var response paymentpkg.AckResponse
		Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
		return response
	}

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = &mockWebhookService{}
		handler = paymentpkg.NewWebhookHandler(transport.NewBaseHandler(logger), service, logger)
	})

	Context("when the notification is valid", func() {
		It("should process it and acknowledge", func() {
			recorder := post(`{"type":"payment","data":{"id":"1001"}}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(ack(recorder).Received).To(BeTrue())
			Expect(service.calls).To(Equal([]string{"1001"}))
		})

		It("should accept data.id sent as a JSON number", func() {
			recorder := post(`{"type":"payment","data":{"id":1001}}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(service.calls).To(Equal([]string{"1001"}))
		})
	})

	Context("when the body cannot be parsed", func() {
		It("should acknowledge without processing", func() {
			recorder := post(`{{{not json`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(ack(recorder).Detail).To(Equal("ignored: unparseable body"))
			Expect(service.calls).To(BeEmpty())
		})
	})

	Context("when the notification is not a payment event", func() {
		It("should acknowledge without processing", func() {
			recorder := post(`{"type":"merchant_order","data":{"id":"55"}}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(ack(recorder).Detail).To(Equal("ignored: not a payment event"))
			Expect(service.calls).To(BeEmpty())
		})
	})

	Context("when the payment id is missing", func() {
		It("should acknowledge without processing", func() {
			recorder := post(`{"type":"payment","data":{}}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(ack(recorder).Detail).To(Equal("ignored: missing payment id"))
			Expect(service.calls).To(BeEmpty())
		})
	})

	Context("when the notification was already processed", func() {
		It("should acknowledge as a duplicate", func() {
			service.processErr = apperrors.ErrDuplicateNotification

			recorder := post(`{"type":"payment","data":{"id":"1001"}}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(ack(recorder).Detail).To(Equal("already processed"))
		})
	})

	Context("when the payment references no known record", func() {
		It("should acknowledge so the provider stops retrying", func() {
			service.processErr = apperrors.ErrUnknownReference

			recorder := post(`{"type":"payment","data":{"id":"1001"}}`)

			Expect(recorder.Code).To(Equal(http.StatusOK))
			Expect(ack(recorder).Detail).To(Equal("unknown reference"))
		})
	})

	Context("when the record store is unavailable", func() {
		It("should ask the provider to redeliver", func() {
			service.processErr = apperrors.NewStoreUnavailableError(errors.New("connection refused"))

			recorder := post(`{"type":"payment","data":{"id":"1001"}}`)

			Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("when the provider status query fails", func() {
		It("should ask the provider to redeliver", func() {
			service.processErr = apperrors.NewExternalError("failed to query payment status", errors.New("timeout"))

			recorder := post(`{"type":"payment","data":{"id":"1001"}}`)

			Expect(recorder.Code).To(Equal(http.StatusServiceUnavailable))
		})
	})

	Context("when processing fails with an unclassified error", func() {
		It("should return an internal error", func() {
			service.processErr = errors.New("boom")

			recorder := post(`{"type":"payment","data":{"id":"1001"}}`)

			Expect(recorder.Code).To(Equal(http.StatusInternalServerError))
		})
	})
})
