package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/cvpratico/cv-builder/internal"
	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	mp "github.com/cvpratico/cv-builder/internal/core/datamodel/mercadopago"
	paymodel "github.com/cvpratico/cv-builder/internal/core/datamodel/payment"
	"github.com/cvpratico/cv-builder/internal/core/events"
)

// ProviderAPI is the payment provider contract. The production client talks
// to MercadoPago; local development uses a sandbox client behind the same
// interface instead of branching inside the handler.
type ProviderAPI interface {
	CreatePreference(ctx context.Context, req *mp.PreferenceRequest) (*mp.Preference, error)
	GetPayment(ctx context.Context, id string) (*mp.PaymentInfo, error)
}

// RepositoryAPI is the persistence contract for payment records. Create must
// surface gorm.ErrDuplicatedKey on an external_id collision; that constraint
// is what makes concurrent duplicate notifications collapse to a no-op.
type RepositoryAPI interface {
	Create(p *paymodel.Payment) error
	// FindByExternalID returns (nil, nil) when no record exists.
	FindByExternalID(externalID string) (*paymodel.Payment, error)
	// PromoteStatusIfPending moves a non-terminal record to a terminal
	// status; applied=false means another handler already promoted it.
	PromoteStatusIfPending(externalID, status string, providerResponse json.RawMessage) (applied bool, err error)
}

// CvStore is the slice of the CV repository the payment flow needs.
type CvStore interface {
	GetByID(id int64) (*cvmodel.Cv, error)
	TransitionPaymentStatus(id int64, status string) (applied bool, err error)
}

type Config struct {
	PriceCents      int64
	Currency        string
	ItemTitle       string
	NotificationURL string
	BackURLBase     string
}

type Service struct {
	provider ProviderAPI
	repo     RepositoryAPI
	cvStore  CvStore
	eventBus *events.EventBus
	cfg      Config
	logger   *slog.Logger
}

func NewService(provider ProviderAPI, repo RepositoryAPI, cvStore CvStore, eventBus *events.EventBus, cfg Config, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		repo:     repo,
		cvStore:  cvStore,
		eventBus: eventBus,
		cfg:      cfg,
		logger:   logger,
	}
}

// CreatePreference asks the provider to mint a payment intent for the given
// CV. The price is the server-side catalog price; client-supplied amounts are
// never accepted. No local state is mutated, and provider failures are
// returned fail-fast without retry.
func (s *Service) CreatePreference(ctx context.Context, cvDataID int64) (*PreferenceDTO, error) {
	if _, err := s.cvStore.GetByID(cvDataID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCvNotFound
		}
		return nil, apperrors.NewStoreUnavailableError(err)
	}

	externalReference := strconv.FormatInt(cvDataID, 10)
	req := &mp.PreferenceRequest{
		Items: []mp.PreferenceItem{
			{
				ID:         externalReference,
				Title:      s.cfg.ItemTitle,
				Quantity:   1,
				UnitPrice:  float64(s.cfg.PriceCents) / 100,
				CurrencyID: s.cfg.Currency,
			},
		},
		ExternalReference: externalReference,
		NotificationURL:   s.cfg.NotificationURL,
		BackURLs: mp.BackURLs{
			Success: s.cfg.BackURLBase + "/success",
			Failure: s.cfg.BackURLBase + "/failure",
			Pending: s.cfg.BackURLBase + "/pending",
		},
		AutoReturn: "approved",
	}

	s.logger.Info("creating payment preference",
		"cv_id", cvDataID,
		"amount_cents", s.cfg.PriceCents,
		"currency", s.cfg.Currency)

	pref, err := s.provider.CreatePreference(ctx, req)
	if err != nil {
		s.logger.Error("preference creation failed", "error", err, "cv_id", cvDataID)
		return nil, apperrors.NewExternalError("payment provider rejected the preference request", err)
	}

	s.logger.Info("payment preference created",
		"cv_id", cvDataID,
		"preference_id", pref.ID)

	return &PreferenceDTO{
		PreferenceID:     pref.ID,
		InitPoint:        pref.InitPoint,
		SandboxInitPoint: pref.SandboxInitPoint,
	}, nil
}

// ProcessNotification resolves a payment notification to the provider's
// authoritative state and applies the transition. The pushed body has already
// been reduced to the payment id by the webhook handler; everything else is
// re-fetched from the provider.
//
// Returned errors classify the outcome for the acknowledgment:
// ErrDuplicateNotification and ErrUnknownReference are acknowledged as
// received; external and store errors tell the provider to redeliver.
func (s *Service) ProcessNotification(ctx context.Context, providerPaymentID string) error {
	existing, err := s.repo.FindByExternalID(providerPaymentID)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if existing != nil && existing.Status != paymodel.StatusPending {
		s.logger.Info("notification already processed",
			"provider_payment_id", providerPaymentID,
			"status", existing.Status)
		return apperrors.ErrDuplicateNotification
	}

	info, err := s.provider.GetPayment(ctx, providerPaymentID)
	if err != nil {
		s.logger.Error("provider payment query failed",
			"error", err,
			"provider_payment_id", providerPaymentID)
		return apperrors.NewExternalError("failed to query payment status", err)
	}

	cvDataID, err := strconv.ParseInt(info.ExternalReference, 10, 64)
	if err != nil {
		s.logger.Warn("payment carries an unparseable external_reference",
			"provider_payment_id", providerPaymentID,
			"external_reference", info.ExternalReference)
		return apperrors.ErrUnknownReference
	}

	if _, err := s.cvStore.GetByID(cvDataID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("payment references no known cv record",
				"provider_payment_id", providerPaymentID,
				"cv_id", cvDataID)
			return apperrors.ErrUnknownReference
		}
		return apperrors.NewStoreUnavailableError(err)
	}

	providerResponse, merr := json.Marshal(info)
	if merr != nil {
		providerResponse = nil
	}

	switch info.Status {
	case mp.PaymentStatusApproved:
		return s.applyApproved(ctx, cvDataID, providerPaymentID, info, existing, providerResponse)
	case mp.PaymentStatusRejected, mp.PaymentStatusCancelled:
		return s.applyRejected(ctx, cvDataID, providerPaymentID, info, existing, providerResponse)
	default:
		return s.recordNonTerminal(cvDataID, providerPaymentID, info, existing, providerResponse)
	}
}

// applyApproved is the only path that triggers fulfillment, and it does so at
// most once per provider payment id: only the caller that wins the payments
// insert (or the pending-to-approved promotion) publishes the event.
func (s *Service) applyApproved(ctx context.Context, cvDataID int64, providerPaymentID string, info *mp.PaymentInfo, existing *paymodel.Payment, providerResponse json.RawMessage) error {
	won, err := s.persistTerminal(cvDataID, providerPaymentID, paymodel.StatusApproved, info, existing, providerResponse)
	if err != nil {
		return err
	}
	if !won {
		s.logger.Info("approval already applied by a concurrent delivery",
			"provider_payment_id", providerPaymentID)
		return apperrors.ErrDuplicateNotification
	}

	applied, err := s.cvStore.TransitionPaymentStatus(cvDataID, cvmodel.PaymentStatusApproved)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}
	if !applied {
		// record already terminal; keep the payment row but do not re-trigger
		s.logger.Info("cv record already in a terminal state",
			"cv_id", cvDataID,
			"provider_payment_id", providerPaymentID)
		return nil
	}

	s.logger.Info("payment approved",
		"cv_id", cvDataID,
		"provider_payment_id", providerPaymentID,
		"amount", info.TransactionAmount)

	event := events.NewPaymentApprovedEvent(cvDataID, providerPaymentID, amountToCents(info.TransactionAmount))
	if err := s.eventBus.Publish(ctx, event); err != nil {
		// fulfillment failures are a separate, retryable concern; the
		// approval itself stands
		s.logger.Error("failed to publish payment approved event",
			"error", err,
			"cv_id", cvDataID)
	}

	return nil
}

func (s *Service) applyRejected(ctx context.Context, cvDataID int64, providerPaymentID string, info *mp.PaymentInfo, existing *paymodel.Payment, providerResponse json.RawMessage) error {
	won, err := s.persistTerminal(cvDataID, providerPaymentID, paymodel.StatusRejected, info, existing, providerResponse)
	if err != nil {
		return err
	}
	if !won {
		return apperrors.ErrDuplicateNotification
	}

	applied, err := s.cvStore.TransitionPaymentStatus(cvDataID, cvmodel.PaymentStatusRejected)
	if err != nil {
		return apperrors.NewStoreUnavailableError(err)
	}

	s.logger.Info("payment rejected",
		"cv_id", cvDataID,
		"provider_payment_id", providerPaymentID,
		"status_detail", info.StatusDetail,
		"cv_transitioned", applied)

	event := events.NewPaymentRejectedEvent(cvDataID, providerPaymentID, info.StatusDetail)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish payment rejected event", "error", err, "cv_id", cvDataID)
	}

	return nil
}

// persistTerminal lands the terminal status in the payments table. It returns
// won=false when a concurrent delivery got there first, which callers treat
// as the idempotent no-op path rather than an error.
func (s *Service) persistTerminal(cvDataID int64, providerPaymentID, status string, info *mp.PaymentInfo, existing *paymodel.Payment, providerResponse json.RawMessage) (won bool, err error) {
	if existing != nil {
		applied, err := s.repo.PromoteStatusIfPending(providerPaymentID, status, providerResponse)
		if err != nil {
			return false, apperrors.NewStoreUnavailableError(err)
		}
		return applied, nil
	}

	now := time.Now().UTC()
	record := &paymodel.Payment{
		CvDataID:         cvDataID,
		ExternalID:       providerPaymentID,
		AmountCents:      amountToCents(info.TransactionAmount),
		Status:           status,
		ProviderResponse: providerResponse,
		ProcessedAt:      &now,
	}

	if err := s.repo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// lost the insert race; fall back to the no-op path
			return false, nil
		}
		return false, apperrors.NewStoreUnavailableError(err)
	}

	return true, nil
}

// recordNonTerminal keeps a pending row for observability without blocking a
// later terminal notification for the same payment id.
func (s *Service) recordNonTerminal(cvDataID int64, providerPaymentID string, info *mp.PaymentInfo, existing *paymodel.Payment, providerResponse json.RawMessage) error {
	if existing != nil {
		s.logger.Info("non-terminal notification for a known payment",
			"provider_payment_id", providerPaymentID,
			"provider_status", info.Status)
		return nil
	}

	record := &paymodel.Payment{
		CvDataID:         cvDataID,
		ExternalID:       providerPaymentID,
		AmountCents:      amountToCents(info.TransactionAmount),
		Status:           paymodel.StatusPending,
		ProviderResponse: providerResponse,
	}

	if err := s.repo.Create(record); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return apperrors.NewStoreUnavailableError(err)
	}

	s.logger.Info("recorded non-terminal payment state",
		"cv_id", cvDataID,
		"provider_payment_id", providerPaymentID,
		"provider_status", info.Status)

	return nil
}

func (s *Service) GetPaymentByExternalID(externalID string) (*paymodel.Payment, error) {
	p, err := s.repo.FindByExternalID(externalID)
	if err != nil {
		return nil, apperrors.NewStoreUnavailableError(err)
	}
	if p == nil {
		return nil, fmt.Errorf("payment %s not found", externalID)
	}
	return p, nil
}

func amountToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}
