package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	paymodel "github.com/cvpratico/cv-builder/internal/core/datamodel/payment"
	paymentpkg "github.com/cvpratico/cv-builder/internal/payment"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) paymentpkg.RepositoryAPI {
	return &PaymentRepository{
		db: db,
	}
}

// Create inserts a payment record. The unique index on external_id turns a
// concurrent duplicate delivery into gorm.ErrDuplicatedKey, which the service
// treats as losing the race, not as a failure.
func (r *PaymentRepository) Create(p *paymodel.Payment) error {
	return r.db.Create(p).Error
}

func (r *PaymentRepository) FindByExternalID(externalID string) (*paymodel.Payment, error) {
	var p paymodel.Payment
	err := r.db.Where("external_id = ?", externalID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// PromoteStatusIfPending finalizes a record that was first seen in a
// non-terminal provider state. The WHERE guard makes the promotion a
// single-winner operation under concurrent delivery.
func (r *PaymentRepository) PromoteStatusIfPending(externalID, status string, providerResponse json.RawMessage) (bool, error) {
	updates := map[string]interface{}{
		"status":       status,
		"processed_at": time.Now().UTC(),
		"updated_at":   time.Now().UTC(),
	}
	if providerResponse != nil {
		updates["provider_response"] = providerResponse
	}

	res := r.db.Model(&paymodel.Payment{}).
		Where("external_id = ? AND status = ?", externalID, paymodel.StatusPending).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
