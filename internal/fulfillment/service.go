package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	errors "github.com/cvpratico/cv-builder/internal"
	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	"github.com/cvpratico/cv-builder/internal/core/events"
	cvdomain "github.com/cvpratico/cv-builder/internal/cv"
)

// CvStore is the slice of CV persistence fulfillment needs.
type CvStore interface {
	GetByID(id int64) (*cvmodel.Cv, error)
	UpdateArtifacts(id int64, pdfURL, linkedinSummary, coverLetter *string) error
}

// TextGenerator produces the LinkedIn summary and cover letter.
type TextGenerator interface {
	GenerateDocuments(ctx context.Context, personal cvdomain.PersonalData, experiences []cvdomain.Experience, skills cvdomain.Skills) (*cvdomain.GeneratedDocuments, error)
}

// PdfRenderer turns a CV into PDF bytes.
type PdfRenderer interface {
	RenderCv(ctx context.Context, data *cvdomain.CreateCvDTO) ([]byte, error)
}

type Job struct {
	CvDataID int64
}

type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Logger     *slog.Logger
}

func NewWorker(id int, workerPool chan chan Job, logger *slog.Logger) *Worker {
	return &Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Logger:     logger,
	}
}

func (w *Worker) Start(ctx context.Context, wg *sync.WaitGroup, processFunc func(Job)) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		for {

			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.Logger.Debug("worker processing job", "worker_id", w.ID, "cv_id", job.CvDataID)
				processFunc(job)
			case <-ctx.Done():
				w.Logger.Debug("worker shutting down", "worker_id", w.ID)
				return
			}
		}
	}()
}

type Config struct {
	MaxWorkers   int
	JobQueueSize int
	JobTimeout   time.Duration
}

// Service runs the post-payment pipeline: generate the LinkedIn summary and
// cover letter, verify the PDF renders, persist the artifact references.
// Failures here never touch the payment approval; the job is logged for an
// operator and the documents endpoints can re-run the pipeline on demand.
type Service struct {
	cvStore  CvStore
	textGen  TextGenerator
	renderer PdfRenderer
	eventBus *events.EventBus
	logger   *slog.Logger

	jobQueue   chan Job
	workerPool chan chan Job
	maxWorkers int
	jobTimeout time.Duration
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	once       sync.Once
}

func NewService(cfg Config, cvStore CvStore, textGen TextGenerator, renderer PdfRenderer, eventBus *events.EventBus, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	maxWorkers := cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 4
	}

	jobQueueSize := cfg.JobQueueSize
	if jobQueueSize <= 0 {
		jobQueueSize = 100
	}

	jobTimeout := cfg.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 3 * time.Minute
	}

	s := &Service{
		cvStore:  cvStore,
		textGen:  textGen,
		renderer: renderer,
		eventBus: eventBus,
		logger:   logger,

		maxWorkers: maxWorkers,
		jobQueue:   make(chan Job, jobQueueSize),
		workerPool: make(chan chan Job, maxWorkers),
		jobTimeout: jobTimeout,
		ctx:        ctx,
		cancel:     cancel,
	}

	s.startWorkerPool()

	return s
}

func (s *Service) startWorkerPool() {
	s.once.Do(func() {

		for i := 0; i < s.maxWorkers; i++ {
			worker := NewWorker(i, s.workerPool, s.logger)
			worker.Start(s.ctx, &s.wg, s.processJob)
		}

		go s.dispatch()

		s.logger.Info("fulfillment worker pool started",
			"max_workers", s.maxWorkers,
			"queue_size", cap(s.jobQueue))
	})
}

func (s *Service) dispatch() {
	s.wg.Add(1)
	defer s.wg.Done()

	for {
		select {
		case job := <-s.jobQueue:

			select {
			case jobChannel := <-s.workerPool:

				select {
				case jobChannel <- job:

				case <-s.ctx.Done():
					s.logger.Info("dispatcher shutting down")
					return
				}
			case <-s.ctx.Done():
				s.logger.Info("dispatcher shutting down")
				return
			}
		case <-s.ctx.Done():
			s.logger.Info("dispatcher shutting down")
			return
		}
	}
}

func (s *Service) Shutdown() {
	s.logger.Info("shutting down fulfillment service")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("fulfillment service shutdown complete")
}

// Enqueue schedules the pipeline for an approved CV. A full queue is logged
// and reported, never blocks the caller.
func (s *Service) Enqueue(cvDataID int64) error {
	job := Job{CvDataID: cvDataID}

	select {
	case s.jobQueue <- job:
		s.logger.Info("fulfillment job queued",
			"cv_id", cvDataID,
			"queue_length", len(s.jobQueue))
		return nil
	default:
		s.logger.Warn("fulfillment queue full, job dropped",
			"cv_id", cvDataID,
			"queue_capacity", cap(s.jobQueue))
		return fmt.Errorf("fulfillment queue full")
	}
}

func (s *Service) processJob(job Job) {
	ctx, cancel := context.WithTimeout(s.ctx, s.jobTimeout)
	defer cancel()

	if _, err := s.GenerateDocuments(ctx, job.CvDataID); err != nil {
		s.logger.Error("fulfillment text generation failed",
			"cv_id", job.CvDataID,
			"error", err)
		return
	}

	if _, err := s.RenderPdf(ctx, job.CvDataID); err != nil {
		s.logger.Error("fulfillment pdf render failed",
			"cv_id", job.CvDataID,
			"error", err)
		return
	}

	pdfURL := fmt.Sprintf("/api/v1/cvs/%d/pdf", job.CvDataID)
	if err := s.cvStore.UpdateArtifacts(job.CvDataID, &pdfURL, nil, nil); err != nil {
		s.logger.Error("fulfillment failed to persist pdf reference",
			"cv_id", job.CvDataID,
			"error", err)
		return
	}

	s.logger.Info("fulfillment complete",
		"cv_id", job.CvDataID,
		"pdf_url", pdfURL)

	if s.eventBus != nil {
		s.eventBus.Publish(ctx, events.NewFulfillmentCompleteEvent(job.CvDataID, pdfURL))
	}
}

// GenerateDocuments runs text generation for a paid CV and persists the
// result. Callable both from the worker and from the documents endpoint.
func (s *Service) GenerateDocuments(ctx context.Context, cvDataID int64) (*cvdomain.GeneratedDocuments, error) {
	record, data, err := s.loadPaidCv(cvDataID)
	if err != nil {
		return nil, err
	}

	docs, err := s.textGen.GenerateDocuments(ctx, data.PersonalData, data.Experiences, data.Skills)
	if err != nil {
		return nil, errors.NewTextGenerationError(err)
	}

	if err := s.cvStore.UpdateArtifacts(record.ID, nil, &docs.LinkedinSummary, &docs.CoverLetter); err != nil {
		return nil, errors.NewStoreUnavailableError(err)
	}

	s.logger.Info("documents generated", "cv_id", record.ID)

	return docs, nil
}

// RenderPdf renders the PDF for a paid CV.
func (s *Service) RenderPdf(ctx context.Context, cvDataID int64) ([]byte, error) {
	_, data, err := s.loadPaidCv(cvDataID)
	if err != nil {
		return nil, err
	}

	pdf, err := s.renderer.RenderCv(ctx, data)
	if err != nil {
		return nil, errors.NewPdfRenderError(err)
	}

	return pdf, nil
}

func (s *Service) loadPaidCv(cvDataID int64) (*cvmodel.Cv, *cvdomain.CreateCvDTO, error) {
	record, err := s.cvStore.GetByID(cvDataID)
	if err != nil {
		return nil, nil, errors.ErrCvNotFound
	}

	if record.PaymentStatus != cvmodel.PaymentStatusApproved {
		return nil, nil, errors.ErrCvNotPaid
	}

	data, err := decodeRecord(record)
	if err != nil {
		return nil, nil, errors.NewInternalError("failed to decode cv record", err)
	}

	return record, data, nil
}

func decodeRecord(record *cvmodel.Cv) (*cvdomain.CreateCvDTO, error) {
	var dto cvdomain.CreateCvDTO

	if err := json.Unmarshal(record.PersonalData, &dto.PersonalData); err != nil {
		return nil, fmt.Errorf("unmarshal personal data: %w", err)
	}
	if len(record.Experiences) > 0 {
		if err := json.Unmarshal(record.Experiences, &dto.Experiences); err != nil {
			return nil, fmt.Errorf("unmarshal experiences: %w", err)
		}
	}
	if len(record.Skills) > 0 {
		if err := json.Unmarshal(record.Skills, &dto.Skills); err != nil {
			return nil, fmt.Errorf("unmarshal skills: %w", err)
		}
	}
	if len(record.Education) > 0 {
		if err := json.Unmarshal(record.Education, &dto.Education); err != nil {
			return nil, fmt.Errorf("unmarshal education: %w", err)
		}
	}
	if len(record.Languages) > 0 {
		if err := json.Unmarshal(record.Languages, &dto.Languages); err != nil {
			return nil, fmt.Errorf("unmarshal languages: %w", err)
		}
	}

	dto.ApplyDefaults()

	return &dto, nil
}
