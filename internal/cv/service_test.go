package cv_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	apperrors "github.com/cvpratico/cv-builder/internal"
	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	cvPkg "github.com/cvpratico/cv-builder/internal/cv"
)

func TestCvModule(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cv Module Suite")
}

// Mock repository for testing
type mockCvRepository struct {
	records     map[int64]*cvmodel.Cv
	nextID      int64
	createError error
	getError    error
	updateError error
}

func newMockCvRepository() *mockCvRepository {
	return &mockCvRepository{
		records: make(map[int64]*cvmodel.Cv),
		nextID:  1,
	}
}

func (m *mockCvRepository) Create(c *cvmodel.Cv) error {
	if m.createError != nil {
		return m.createError
	}
	c.ID = m.nextID
	m.nextID++
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.records[c.ID] = c
	return nil
}

func (m *mockCvRepository) GetByID(id int64) (*cvmodel.Cv, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	record, exists := m.records[id]
	if !exists {
		return nil, errors.New("record not found")
	}
	return record, nil
}

func (m *mockCvRepository) TransitionPaymentStatus(id int64, status string) (bool, error) {
	if m.updateError != nil {
		return false, m.updateError
	}
	record, exists := m.records[id]
	if !exists {
		return false, nil
	}
	if cvmodel.TerminalStatus(record.PaymentStatus) {
		return false, nil
	}
	record.PaymentStatus = status
	return true, nil
}

func (m *mockCvRepository) UpdateArtifacts(id int64, pdfURL, linkedinSummary, coverLetter *string) error {
	if m.updateError != nil {
		return m.updateError
	}
	record, exists := m.records[id]
	if !exists {
		return errors.New("record not found")
	}
	if pdfURL != nil {
		record.PdfURL = pdfURL
	}
	if linkedinSummary != nil {
		record.LinkedinSummary = linkedinSummary
	}
	if coverLetter != nil {
		record.CoverLetter = coverLetter
	}
	return nil
}

func validSubmission() *cvPkg.CreateCvDTO {
	return &cvPkg.CreateCvDTO{
		PersonalData: cvPkg.PersonalData{
			Name:    "Maria Silva",
			Email:   "maria@mail.com",
			Phone:   "+55 11 91234-5678",
			Summary: "Analista de marketing com 6 anos de experiência.",
		},
		Experiences: []cvPkg.Experience{
			{
				Company:     "Agência Horizonte",
				Position:    "Analista",
				StartDate:   "2021-03",
				Description: "Campanhas de performance.",
			},
		},
		Skills: cvPkg.Skills{
			Technical: []string{"SEO"},
			Soft:      []string{"Comunicação"},
		},
	}
}

var _ = Describe("CvService", func() {
	var (
		service  *cvPkg.Service
		mockRepo *mockCvRepository
	)

	BeforeEach(func() {
		mockRepo = newMockCvRepository()
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = cvPkg.NewService(mockRepo, logger)
	})

	Describe("CreateSubmission", func() {
		Context("when the payload is valid", func() {
			It("should insert exactly one record with status pending", func() {
				record, err := service.CreateSubmission(validSubmission())

				Expect(err).ToNot(HaveOccurred())
				Expect(record).ToNot(BeNil())
				Expect(record.ID).To(BeNumerically(">", 0))
				Expect(record.Email).To(Equal("maria@mail.com"))
				Expect(record.PaymentStatus).To(Equal(cvmodel.PaymentStatusPending))
				Expect(mockRepo.records).To(HaveLen(1))
			})

			It("should default optional collections to empty, not null", func() {
				dto := validSubmission()
				dto.Education = nil
				dto.Languages = nil

				record, err := service.CreateSubmission(dto)

				Expect(err).ToNot(HaveOccurred())
				Expect(string(record.Education)).To(Equal("[]"))
				Expect(string(record.Languages)).To(Equal("[]"))
			})
		})

		Context("when required fields are missing", func() {
			It("should reject a submission without an email and persist nothing", func() {
				dto := validSubmission()
				dto.PersonalData.Email = ""

				record, err := service.CreateSubmission(dto)

				Expect(err).To(HaveOccurred())
				Expect(record).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(apperrors.ErrorTypeValidation))
				Expect(mockRepo.records).To(BeEmpty())
			})

			It("should reject an experience without a company", func() {
				dto := validSubmission()
				dto.Experiences[0].Company = ""

				_, err := service.CreateSubmission(dto)

				Expect(err).To(HaveOccurred())
				Expect(mockRepo.records).To(BeEmpty())
			})

			It("should reject an invalid email format", func() {
				dto := validSubmission()
				dto.PersonalData.Email = "not-an-email"

				_, err := service.CreateSubmission(dto)

				Expect(err).To(HaveOccurred())
				Expect(mockRepo.records).To(BeEmpty())
			})
		})

		Context("when the repository fails", func() {
			It("should surface a store error", func() {
				mockRepo.createError = errors.New("connection refused")

				record, err := service.CreateSubmission(validSubmission())

				Expect(err).To(HaveOccurred())
				Expect(record).To(BeNil())
				appErr, ok := apperrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(apperrors.ErrCodeStoreUnavailable))
			})
		})
	})

	Describe("GetSubmission", func() {
		Context("when the record exists", func() {
			It("should return it", func() {
				created, err := service.CreateSubmission(validSubmission())
				Expect(err).ToNot(HaveOccurred())

				record, err := service.GetSubmission(created.ID)

				Expect(err).ToNot(HaveOccurred())
				Expect(record.ID).To(Equal(created.ID))
			})
		})

		Context("when the record does not exist", func() {
			It("should return a not found error", func() {
				_, err := service.GetSubmission(9999)

				Expect(err).To(MatchError(apperrors.ErrCvNotFound))
			})
		})
	})
})

var _ = Describe("ValidatePayloadShape", func() {
	Context("when the payload matches the wizard schema", func() {
		It("should accept it", func() {
			payload := []byte(`{
				"personalData": {"name": "Maria", "email": "maria@mail.com", "phone": "+55 11 91234-5678", "summary": "Analista."},
				"skills": {"technical": ["SEO"], "soft": ["Comunicação"]}
			}`)

			Expect(cvPkg.ValidatePayloadShape(payload)).To(Succeed())
		})
	})

	Context("when required blocks are missing", func() {
		It("should reject a payload without personalData", func() {
			payload := []byte(`{"skills": {"technical": [], "soft": []}}`)

			err := cvPkg.ValidatePayloadShape(payload)

			Expect(err).To(HaveOccurred())
			appErr, ok := apperrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(apperrors.ErrCodeInvalidPayload))
		})

		It("should reject a payload with a malformed skills block", func() {
			payload := []byte(`{
				"personalData": {"name": "Maria", "email": "maria@mail.com", "phone": "1", "summary": "x"},
				"skills": {"technical": "SEO"}
			}`)

			Expect(cvPkg.ValidatePayloadShape(payload)).ToNot(Succeed())
		})
	})
})
