package payment_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/cvpratico/cv-builder/internal"
	paymentpkg "github.com/cvpratico/cv-builder/internal/payment"
)

// Mock preference service for testing
type mockPreferenceService struct {
	preference *paymentpkg.PreferenceDTO
	err        error
	lastCvID   int64
	calls      int
}

func (m *mockPreferenceService) CreatePreference(ctx context.Context, cvDataID int64) (*paymentpkg.PreferenceDTO, error) {
	m.calls++
	m.lastCvID = cvDataID
	if m.err != nil {
		return nil, m.err
	}
	return m.preference, nil
}

var _ = Describe("PaymentHandler", func() {
	var (
		service *mockPreferenceService
		handler *paymentpkg.Handler
	)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/preference", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		recorder := httptest.NewRecorder()
		handler.CreatePreference(recorder, req)
		return recorder
	}

	BeforeEach(func() {
		service = &mockPreferenceService{
			preference: &paymentpkg.PreferenceDTO{
				PreferenceID: "pref-123",
				InitPoint:    "https://mp.test/init",
			},
		}
		handler = paymentpkg.NewHandler(service)
	})

	Context("when the request is valid", func() {
		It("should return the created preference", func() {
			recorder := post(`{"cvDataId": 42}`)

			Expect(recorder.Code).To(Equal(http.StatusCreated))
			var response paymentpkg.PreferenceDTO
			Expect(json.Unmarshal(recorder.Body.Bytes(), &response)).To(Succeed())
			Expect(response.PreferenceID).To(Equal("pref-123"))
			Expect(service.lastCvID).To(Equal(int64(42)))
		})
	})

	Context("when the body is not valid JSON", func() {
		It("should return bad request without calling the service", func() {
			recorder := post(`not json`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(service.calls).To(Equal(0))
		})
	})

	Context("when the cv id is missing", func() {
		It("should return a validation error", func() {
			recorder := post(`{}`)

			Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			Expect(service.calls).To(Equal(0))
		})
	})

	Context("when the cv record does not exist", func() {
		It("should return not found", func() {
			service.err = apperrors.ErrCvNotFound

			recorder := post(`{"cvDataId": 999}`)

			Expect(recorder.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("when the provider is unavailable", func() {
		It("should return bad gateway", func() {
			service.err = apperrors.NewExternalError("payment provider rejected the preference request", nil)

			recorder := post(`{"cvDataId": 42}`)

			Expect(recorder.Code).To(Equal(http.StatusBadGateway))
		})
	})
})
