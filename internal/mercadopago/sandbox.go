package mercadopago

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/google/uuid"

	mp "github.com/cvpratico/cv-builder/internal/core/datamodel/mercadopago"
)

// SandboxClient is an in-memory stand-in for the provider, used for local
// development and demos without a MercadoPago account. Preferences it mints
// are remembered so a later payment query can resolve back to the original
// reference and amount.
type SandboxClient struct {
	mu          sync.Mutex
	preferences map[string]*mp.PreferenceRequest
	logger      *slog.Logger
}

func NewSandboxClient(logger *slog.Logger) *SandboxClient {
	return &SandboxClient{
		preferences: make(map[string]*mp.PreferenceRequest),
		logger:      logger,
	}
}

func (c *SandboxClient) CreatePreference(ctx context.Context, req *mp.PreferenceRequest) (*mp.Preference, error) {
	id := uuid.New().String()

	c.mu.Lock()
	c.preferences[req.ExternalReference] = req
	c.mu.Unlock()

	c.logger.Info("sandbox preference created",
		"preference_id", id,
		"external_reference", req.ExternalReference)

	return &mp.Preference{
		ID:               id,
		InitPoint:        "https://sandbox.local/checkout/" + id,
		SandboxInitPoint: "https://sandbox.local/checkout/" + id,
	}, nil
}

// GetPayment treats the provider payment id as the external reference of a
// previously minted preference and reports it approved. Posting a
// notification with a record id therefore walks the full approval path.
func (c *SandboxClient) GetPayment(ctx context.Context, id string) (*mp.PaymentInfo, error) {
	c.mu.Lock()
	req, ok := c.preferences[id]
	c.mu.Unlock()

	amount := 4.97
	if ok && len(req.Items) > 0 {
		amount = req.Items[0].UnitPrice
	}
	if !ok {
		c.logger.Warn("sandbox payment query for unknown reference", "provider_payment_id", id)
	}

	numericID, _ := strconv.ParseInt(id, 10, 64)

	return &mp.PaymentInfo{
		ID:                numericID,
		Status:            mp.PaymentStatusApproved,
		StatusDetail:      "accredited",
		ExternalReference: id,
		TransactionAmount: amount,
	}, nil
}
