package mercadopago_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/cvpratico/cv-builder/internal"
	mp "github.com/cvpratico/cv-builder/internal/core/datamodel/mercadopago"
	"github.com/cvpratico/cv-builder/internal/mercadopago"
)

func TestMercadopagoClient(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mercadopago Client Suite")
}

var _ = Describe("Client", func() {
	var (
		logger *slog.Logger
		ctx    context.Context
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		ctx = context.Background()
	})

	newClient := func(baseURL string) *mercadopago.Client {
		return mercadopago.NewClient(internal.MercadoPagoConfig{
			APIBaseURL:  baseURL,
			AccessToken: "TEST-token",
		}, logger)
	}

	preferenceRequest := func() *mp.PreferenceRequest {
		return &mp.PreferenceRequest{
			Items: []mp.PreferenceItem{
				{ID: "42", Title: "Curriculo Profissional", Quantity: 1, UnitPrice: 4.97, CurrencyID: "BRL"},
			},
			ExternalReference: "42",
		}
	}

	Describe("CreatePreference", func() {
		Context("when the API accepts the request", func() {
			It("should send an authenticated idempotent request and parse the preference", func() {
				var receivedReq mp.PreferenceRequest
				var method, path, authHeader, idempotencyKey string

				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					method = r.Method
					path = r.URL.Path
					authHeader = r.Header.Get("Authorization")
					idempotencyKey = r.Header.Get("X-Idempotency-Key")
					json.NewDecoder(r.Body).Decode(&receivedReq)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusCreated)
					json.NewEncoder(w).Encode(mp.Preference{
						ID:        "pref-123",
						InitPoint: "https://mp.test/init",
					})
				}))
				defer server.Close()

				pref, err := newClient(server.URL).CreatePreference(ctx, preferenceRequest())

				Expect(err).ToNot(HaveOccurred())
				Expect(pref.ID).To(Equal("pref-123"))
				Expect(method).To(Equal(http.MethodPost))
				Expect(path).To(Equal("/checkout/preferences"))
				Expect(authHeader).To(Equal("Bearer TEST-token"))
				Expect(idempotencyKey).ToNot(BeEmpty())
				Expect(receivedReq.ExternalReference).To(Equal("42"))
				Expect(receivedReq.Items[0].UnitPrice).To(Equal(4.97))
			})
		})

		Context("when the API rejects the request", func() {
			It("should return an error carrying the status", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusBadRequest)
					w.Write([]byte(`{"message":"invalid access token"}`))
				}))
				defer server.Close()

				_, err := newClient(server.URL).CreatePreference(ctx, preferenceRequest())

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("status 400"))
			})
		})
	})

	Describe("GetPayment", func() {
		Context("when the payment exists", func() {
			It("should parse the authoritative payment object", func() {
				var method, path, authHeader string

				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					method = r.Method
					path = r.URL.Path
					authHeader = r.Header.Get("Authorization")

					w.Header().Set("Content-Type", "application/json")
					json.NewEncoder(w).Encode(mp.PaymentInfo{
						ID:                1001,
						Status:            mp.PaymentStatusApproved,
						StatusDetail:      "accredited",
						ExternalReference: "42",
						TransactionAmount: 4.97,
					})
				}))
				defer server.Close()

				info, err := newClient(server.URL).GetPayment(ctx, "1001")

				Expect(err).ToNot(HaveOccurred())
				Expect(info.Status).To(Equal(mp.PaymentStatusApproved))
				Expect(info.ExternalReference).To(Equal("42"))
				Expect(info.TransactionAmount).To(Equal(4.97))
				Expect(method).To(Equal(http.MethodGet))
				Expect(path).To(Equal("/v1/payments/1001"))
				Expect(authHeader).To(Equal("Bearer TEST-token"))
			})
		})

		Context("when the payment is unknown", func() {
			It("should return an error", func() {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(http.StatusNotFound)
					w.Write([]byte(`{"message":"Payment not found"}`))
				}))
				defer server.Close()

				_, err := newClient(server.URL).GetPayment(ctx, "9999")

				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("status 404"))
			})
		})
	})
})

var _ = Describe("SandboxClient", func() {
	var (
		client *mercadopago.SandboxClient
		ctx    context.Context
	)

	BeforeEach(func() {
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		client = mercadopago.NewSandboxClient(logger)
		ctx = context.Background()
	})

	Context("when a preference was minted for a reference", func() {
		It("should report the payment approved with the preference amount", func() {
			pref, err := client.CreatePreference(ctx, &mp.PreferenceRequest{
				Items:             []mp.PreferenceItem{{ID: "42", Quantity: 1, UnitPrice: 4.97, CurrencyID: "BRL"}},
				ExternalReference: "42",
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(pref.ID).ToNot(BeEmpty())
			Expect(pref.InitPoint).To(ContainSubstring(pref.ID))

			info, err := client.GetPayment(ctx, "42")

			Expect(err).ToNot(HaveOccurred())
			Expect(info.Status).To(Equal(mp.PaymentStatusApproved))
			Expect(info.ExternalReference).To(Equal("42"))
			Expect(info.TransactionAmount).To(Equal(4.97))
		})
	})

	Context("when no preference exists for a reference", func() {
		It("should still approve with the default price", func() {
			info, err := client.GetPayment(ctx, "77")

			Expect(err).ToNot(HaveOccurred())
			Expect(info.Status).To(Equal(mp.PaymentStatusApproved))
			Expect(info.TransactionAmount).To(Equal(4.97))
		})
	})
})
