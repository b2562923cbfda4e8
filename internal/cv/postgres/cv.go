package postgres

import (
	"time"

	"gorm.io/gorm"

	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	cvpkg "github.com/cvpratico/cv-builder/internal/cv"
)

type CvRepository struct {
	db *gorm.DB
}

func NewCvRepository(db *gorm.DB) cvpkg.RepositoryAPI {
	return &CvRepository{
		db: db,
	}
}

func (r *CvRepository) Create(c *cvmodel.Cv) error {
	return r.db.Create(c).Error
}

func (r *CvRepository) GetByID(id int64) (*cvmodel.Cv, error) {
	var c cvmodel.Cv
	err := r.db.First(&c, id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// TransitionPaymentStatus moves the record to the given status unless it is
// already terminal. The guard runs inside the UPDATE itself so concurrent
// handlers cannot both win; applied=false means the record was already in a
// terminal state and nothing changed.
func (r *CvRepository) TransitionPaymentStatus(id int64, status string) (bool, error) {
	res := r.db.Model(&cvmodel.Cv{}).
		Where("id = ? AND payment_status NOT IN ?", id, []string{cvmodel.PaymentStatusApproved}).
		Updates(map[string]interface{}{
			"payment_status": status,
			"updated_at":     time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *CvRepository) UpdateArtifacts(id int64, pdfURL, linkedinSummary, coverLetter *string) error {
	updates := map[string]interface{}{
		"updated_at": time.Now().UTC(),
	}

	if pdfURL != nil {
		updates["pdf_url"] = *pdfURL
	}
	if linkedinSummary != nil {
		updates["linkedin_summary"] = *linkedinSummary
	}
	if coverLetter != nil {
		updates["cover_letter"] = *coverLetter
	}

	return r.db.Model(&cvmodel.Cv{}).Where("id = ?", id).Updates(updates).Error
}
