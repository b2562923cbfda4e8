package fulfillment_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/cvpratico/cv-builder/internal"
	cvdomain "github.com/cvpratico/cv-builder/internal/cv"
	"github.com/cvpratico/cv-builder/internal/fulfillment"
)

// Mock fulfillment service for testing
type mockFulfillmentService struct {
	docs      *cvdomain.GeneratedDocuments
	docsErr   error
	pdf       []byte
	renderErr error
}

func (m *mockFulfillmentService) GenerateDocuments(ctx context.Context, cvDataID int64) (*cvdomain.GeneratedDocuments, error) {
	if m.docsErr != nil {
		return nil, m.docsErr
	}
	return m.docs, nil
}

func (m *mockFulfillmentService) RenderPdf(ctx context.Context, cvDataID int64) ([]byte, error) {
	if m.renderErr != nil {
		return nil, m.renderErr
	}
	return m.pdf, nil
}

var _ = Describe("FulfillmentHandler", func() {
	var (
		service *mockFulfillmentService
		router  *chi.Mux
	)

	BeforeEach(func() {
		service = &mockFulfillmentService{
			docs: &cvdomain.GeneratedDocuments{
				LinkedinSummary: "resumo",
				CoverLetter:     "carta",
			},
			pdf: []byte("%PDF-1.4 fake"),
		}
		handler := fulfillment.NewHandler(service)
		router = chi.NewRouter()
		router.Post("/cvs/{id}/documents", handler.GenerateDocuments)
		router.Get("/cvs/{id}/pdf", handler.DownloadPdf)
	})

	Describe("GenerateDocuments", func() {
		Context("when the cv is paid", func() {
			It("should return the generated documents", func() {
				req := httptest.NewRequest(http.MethodPost, "/cvs/7/documents", nil)
				recorder := httptest.NewRecorder()
				router.ServeHTTP(recorder, req)

				Expect(recorder.Code).To(Equal(http.StatusOK))
				var docs cvdomain.GeneratedDocuments
				Expect(json.Unmarshal(recorder.Body.Bytes(), &docs)).To(Succeed())
				Expect(docs.LinkedinSummary).To(Equal("resumo"))
			})
		})

		Context("when the id is not numeric", func() {
			It("should return bad request", func() {
				req := httptest.NewRequest(http.MethodPost, "/cvs/abc/documents", nil)
				recorder := httptest.NewRecorder()
				router.ServeHTTP(recorder, req)

				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})

		Context("when the cv payment is still pending", func() {
			It("should return a validation error", func() {
				service.docsErr = apperrors.ErrCvNotPaid

				req := httptest.NewRequest(http.MethodPost, "/cvs/7/documents", nil)
				recorder := httptest.NewRecorder()
				router.ServeHTTP(recorder, req)

				Expect(recorder.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("DownloadPdf", func() {
		Context("when the cv is paid", func() {
			It("should stream the pdf", func() {
				req := httptest.NewRequest(http.MethodGet, "/cvs/7/pdf", nil)
				recorder := httptest.NewRecorder()
				router.ServeHTTP(recorder, req)

				Expect(recorder.Code).To(Equal(http.StatusOK))
				Expect(recorder.Header().Get("Content-Type")).To(Equal("application/pdf"))
				Expect(recorder.Header().Get("Content-Disposition")).To(Equal("attachment; filename=cv.pdf"))
				Expect(recorder.Body.Bytes()).To(Equal([]byte("%PDF-1.4 fake")))
			})
		})

		Context("when the cv does not exist", func() {
			It("should return not found", func() {
				service.renderErr = apperrors.ErrCvNotFound

				req := httptest.NewRequest(http.MethodGet, "/cvs/999/pdf", nil)
				recorder := httptest.NewRecorder()
				router.ServeHTTP(recorder, req)

				Expect(recorder.Code).To(Equal(http.StatusNotFound))
			})
		})
	})
})
