package cv

import (
	"encoding/json"
	"fmt"
	"log/slog"

	errors "github.com/cvpratico/cv-builder/internal"
	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
)

// RepositoryAPI is the persistence contract for CV submissions.
type RepositoryAPI interface {
	Create(c *cvmodel.Cv) error
	GetByID(id int64) (*cvmodel.Cv, error)
	// TransitionPaymentStatus applies the status conditionally: records
	// already in a terminal state are left untouched and reported as such.
	TransitionPaymentStatus(id int64, status string) (applied bool, err error)
	UpdateArtifacts(id int64, pdfURL, linkedinSummary, coverLetter *string) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// CreateSubmission validates the wizard payload and inserts exactly one CV
// record with payment status pending. Nothing is persisted on validation
// failure.
func (s *Service) CreateSubmission(dto *CreateCvDTO) (*cvmodel.Cv, error) {
	dto.ApplyDefaults()

	if err := dto.Validate(); err != nil {
		s.logger.Warn("submission validation failed", "error", err)
		return nil, err
	}

	record, err := buildRecord(dto)
	if err != nil {
		return nil, errors.NewInternalError("failed to encode submission payload", err)
	}

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to create cv record", "error", err, "email", dto.PersonalData.Email)
		return nil, errors.NewStoreUnavailableError(err)
	}

	s.logger.Info("cv submission created",
		"cv_id", record.ID,
		"email", record.Email,
		"payment_status", record.PaymentStatus)

	return record, nil
}

func (s *Service) GetSubmission(id int64) (*cvmodel.Cv, error) {
	record, err := s.repo.GetByID(id)
	if err != nil {
		s.logger.Warn("cv record not found", "cv_id", id, "error", err)
		return nil, errors.ErrCvNotFound
	}
	return record, nil
}

func buildRecord(dto *CreateCvDTO) (*cvmodel.Cv, error) {
	personal, err := json.Marshal(dto.PersonalData)
	if err != nil {
		return nil, fmt.Errorf("marshal personal data: %w", err)
	}
	experiences, err := json.Marshal(dto.Experiences)
	if err != nil {
		return nil, fmt.Errorf("marshal experiences: %w", err)
	}
	skills, err := json.Marshal(dto.Skills)
	if err != nil {
		return nil, fmt.Errorf("marshal skills: %w", err)
	}
	education, err := json.Marshal(dto.Education)
	if err != nil {
		return nil, fmt.Errorf("marshal education: %w", err)
	}
	languages, err := json.Marshal(dto.Languages)
	if err != nil {
		return nil, fmt.Errorf("marshal languages: %w", err)
	}

	return &cvmodel.Cv{
		Email:         dto.PersonalData.Email,
		PersonalData:  personal,
		Experiences:   experiences,
		Skills:        skills,
		Education:     education,
		Languages:     languages,
		PaymentStatus: cvmodel.PaymentStatusPending,
	}, nil
}
