package cv_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/cvpratico/cv-builder/internal"
	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	cvPkg "github.com/cvpratico/cv-builder/internal/cv"
)

type mockCvService struct {
	createResult *cvmodel.Cv
	createError  error
	getResult    *cvmodel.Cv
	getError     error
	lastDTO      *cvPkg.CreateCvDTO
}

func (m *mockCvService) CreateSubmission(dto *cvPkg.CreateCvDTO) (*cvmodel.Cv, error) {
	m.lastDTO = dto
	return m.createResult, m.createError
}

func (m *mockCvService) GetSubmission(id int64) (*cvmodel.Cv, error) {
	return m.getResult, m.getError
}

var _ = Describe("CvHandler", func() {
	var (
		handler *cvPkg.Handler
		service *mockCvService
		router  *chi.Mux
	)

	BeforeEach(func() {
		service = &mockCvService{}
		handler = cvPkg.NewHandler(service)
		router = chi.NewRouter()
		router.Post("/cvs", handler.CreateCv)
		router.Get("/cvs/{id}", handler.GetCv)
	})

	Describe("CreateCv", func() {
		Context("when the payload is valid", func() {
			It("should respond 201 with the stored record", func() {
				service.createResult = &cvmodel.Cv{
					ID:            42,
					Email:         "maria@mail.com",
					PaymentStatus: cvmodel.PaymentStatusPending,
				}

				body, _ := json.Marshal(validSubmission())
				req := httptest.NewRequest(http.MethodPost, "/cvs", bytes.NewReader(body))
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusCreated))

				var resp cvmodel.Cv
				Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.ID).To(Equal(int64(42)))
				Expect(resp.PaymentStatus).To(Equal(cvmodel.PaymentStatusPending))
				Expect(service.lastDTO.PersonalData.Email).To(Equal("maria@mail.com"))
			})
		})

		Context("when the body is not JSON", func() {
			It("should respond 400 without touching the service", func() {
				req := httptest.NewRequest(http.MethodPost, "/cvs", bytes.NewReader([]byte("not json")))
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(service.lastDTO).To(BeNil())
			})
		})

		Context("when the payload misses required blocks", func() {
			It("should respond 400 from schema validation", func() {
				req := httptest.NewRequest(http.MethodPost, "/cvs", bytes.NewReader([]byte(`{"skills":{"technical":[],"soft":[]}}`)))
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
				Expect(service.lastDTO).To(BeNil())
			})
		})
	})

	Describe("GetCv", func() {
		Context("when the record exists", func() {
			It("should respond 200", func() {
				service.getResult = &cvmodel.Cv{ID: 7, PaymentStatus: cvmodel.PaymentStatusApproved}

				req := httptest.NewRequest(http.MethodGet, "/cvs/7", nil)
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusOK))
			})
		})

		Context("when the record does not exist", func() {
			It("should respond 404", func() {
				service.getError = apperrors.ErrCvNotFound

				req := httptest.NewRequest(http.MethodGet, "/cvs/9999", nil)
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusNotFound))
			})
		})

		Context("when the id is not numeric", func() {
			It("should respond 400", func() {
				req := httptest.NewRequest(http.MethodGet, "/cvs/abc", nil)
				rec := httptest.NewRecorder()

				router.ServeHTTP(rec, req)

				Expect(rec.Code).To(Equal(http.StatusBadRequest))
			})
		})
	})
})
