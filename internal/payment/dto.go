package payment

import (
	"bytes"
	"encoding/json"

	"github.com/cvpratico/cv-builder/internal/core/common/validation"
)

// NotificationEnvelope is the provider-pushed webhook body. It is untrusted:
// only the declared type and the payment id are read from it; status and
// amount always come from the authoritative provider query.
type NotificationEnvelope struct {
	Type string           `json:"type"`
	Data NotificationData `json:"data"`
}

type NotificationData struct {
	ID string
}

// The provider sends data.id as either a JSON string or a number depending on
// the notification channel, so decoding has to accept both.
func (d *NotificationData) UnmarshalJSON(b []byte) error {
	var probe struct {
		ID json.Number `json:"id"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&probe); err != nil {
		return err
	}
	d.ID = probe.ID.String()
	return nil
}

const notificationTypePayment = "payment"

type CreatePreferenceDTO struct {
	CvDataID int64 `json:"cvDataId"`
}

func (d *CreatePreferenceDTO) Validate() error {
	validator := validation.NewValidator()
	validator.Field("cvDataId", d.CvDataID).Required().PositiveAmount()
	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// PreferenceDTO is what the browser client needs to render the payment
// widget: the opaque preference id plus the checkout redirect URLs.
type PreferenceDTO struct {
	PreferenceID     string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point,omitempty"`
}

type AckResponse struct {
	Received bool   `json:"received"`
	Detail   string `json:"detail,omitempty"`
}
