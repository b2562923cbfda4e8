package cv

import (
	"encoding/json"
	"time"
)

// Payment status lifecycle for a CV submission. Pending is the initial state;
// approved is terminal and never regresses.
const (
	PaymentStatusPending  = "pending"
	PaymentStatusApproved = "approved"
	PaymentStatusRejected = "rejected"
	PaymentStatusExpired  = "expired"
)

// TerminalStatus reports whether a CV payment status accepts no further
// approval transition.
func TerminalStatus(status string) bool {
	return status == PaymentStatusApproved
}

type Cv struct {
	ID              int64           `json:"id" gorm:"primaryKey"`
	Email           string          `json:"email" gorm:"column:email;not null"`
	PersonalData    json.RawMessage `json:"personal_data" gorm:"column:personal_data;type:jsonb;not null"`
	Experiences     json.RawMessage `json:"experiences" gorm:"column:experiences;type:jsonb;not null"`
	Skills          json.RawMessage `json:"skills" gorm:"column:skills;type:jsonb;not null"`
	Education       json.RawMessage `json:"education" gorm:"column:education;type:jsonb;not null"`
	Languages       json.RawMessage `json:"languages" gorm:"column:languages;type:jsonb;not null"`
	PdfURL          *string         `json:"pdf_url,omitempty" gorm:"column:pdf_url"`
	LinkedinSummary *string         `json:"linkedin_summary,omitempty" gorm:"column:linkedin_summary"`
	CoverLetter     *string         `json:"cover_letter,omitempty" gorm:"column:cover_letter"`
	PaymentStatus   string          `json:"payment_status" gorm:"column:payment_status;default:pending"`
	CreatedAt       time.Time       `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt       time.Time       `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Cv) TableName() string {
	return "cv_data"
}
