package payment

import (
	"encoding/json"
	"time"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Payment records a provider notification that was resolved to an
// authoritative state. ExternalID is the provider's payment identifier; its
// uniqueness is what makes duplicate webhook delivery idempotent.
type Payment struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	CvDataID         int64           `json:"cv_data_id" gorm:"column:cv_data_id;not null"`
	ExternalID       string          `json:"external_id" gorm:"column:external_id;not null;uniqueIndex"`
	AmountCents      int64           `json:"amount_cents" gorm:"column:amount_cents;not null"`
	Status           string          `json:"status" gorm:"column:status;default:pending"`
	ProviderResponse json.RawMessage `json:"provider_response,omitempty" gorm:"column:provider_response;type:jsonb"`
	ProcessedAt      *time.Time      `json:"processed_at,omitempty" gorm:"column:processed_at"`
	CreatedAt        time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt        time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Payment) TableName() string {
	return "payments"
}
