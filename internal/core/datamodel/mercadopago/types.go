package mercadopago

// Provider payment statuses as reported by the authoritative status query.
const (
	PaymentStatusApproved  = "approved"
	PaymentStatusRejected  = "rejected"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusPending   = "pending"
	PaymentStatusInProcess = "in_process"
)

type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

type BackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the outbound intent request. ExternalReference carries
// the CV record id and is the only correlation back from provider
// notifications to local state.
type PreferenceRequest struct {
	Items             []PreferenceItem `json:"items"`
	ExternalReference string           `json:"external_reference"`
	NotificationURL   string           `json:"notification_url"`
	BackURLs          BackURLs         `json:"back_urls"`
	AutoReturn        string           `json:"auto_return,omitempty"`
}

// Preference is the provider's intent object; ID is the opaque reference
// token the browser client renders the payment widget with.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

// PaymentInfo is the authoritative payment object fetched from the provider.
// Its status, not the pushed notification body, decides state transitions.
type PaymentInfo struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail,omitempty"`
	ExternalReference string  `json:"external_reference"`
	TransactionAmount float64 `json:"transaction_amount"`
	PaymentMethodID   string  `json:"payment_method_id,omitempty"`
	PaymentTypeID     string  `json:"payment_type_id,omitempty"`
}

// TerminalStatus reports whether a provider status needs no further
// notification processing for the same payment id.
func TerminalStatus(status string) bool {
	return status == PaymentStatusApproved || status == PaymentStatusRejected || status == PaymentStatusCancelled
}
