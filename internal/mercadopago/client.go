package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/cvpratico/cv-builder/internal"
	mp "github.com/cvpratico/cv-builder/internal/core/datamodel/mercadopago"
)

// Client talks to the MercadoPago REST API. It is constructed once at
// startup from validated configuration and injected where needed; there is no
// package-level client or lazy credential lookup.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewClient(cfg internal.MercadoPagoConfig, logger *slog.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:     cfg.APIBaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// CreatePreference mints a checkout preference. An idempotency key guards
// against accidental double submission of the same intent request.
func (c *Client) CreatePreference(ctx context.Context, req *mp.PreferenceRequest) (*mp.Preference, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal preference request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/checkout/preferences", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create preference request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("X-Idempotency-Key", uuid.New().String())

	c.logger.Info("sending preference request",
		"external_reference", req.ExternalReference,
		"items", len(req.Items))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("preference request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read preference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		c.logger.Error("preference API returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"external_reference", req.ExternalReference)
		return nil, fmt.Errorf("preference API error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var pref mp.Preference
	if err := json.Unmarshal(respBody, &pref); err != nil {
		return nil, fmt.Errorf("unmarshal preference response: %w", err)
	}

	c.logger.Info("preference created",
		"preference_id", pref.ID,
		"external_reference", req.ExternalReference)

	return &pref, nil
}

// GetPayment fetches the authoritative payment object for a provider payment
// id. The notification handler relies on this response, never on the pushed
// notification body.
func (c *Client) GetPayment(ctx context.Context, id string) (*mp.PaymentInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, fmt.Errorf("create payment query: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payment query failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read payment response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("payment API returned error",
			"status", resp.StatusCode,
			"response", string(respBody),
			"provider_payment_id", id)
		return nil, fmt.Errorf("payment API error: status %d, response: %s", resp.StatusCode, string(respBody))
	}

	var info mp.PaymentInfo
	if err := json.Unmarshal(respBody, &info); err != nil {
		return nil, fmt.Errorf("unmarshal payment response: %w", err)
	}

	return &info, nil
}
