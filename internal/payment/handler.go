package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/cvpratico/cv-builder/internal"
	"github.com/cvpratico/cv-builder/internal/transport"
	"github.com/cvpratico/cv-builder/pkg/logger"
)

type ServiceAPI interface {
	CreatePreference(ctx context.Context, cvDataID int64) (*PreferenceDTO, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// CreatePreference mints a payment intent for a CV submission. The request
// carries only the CV id; price and title come from the server-side catalog.
func (h *Handler) CreatePreference(w http.ResponseWriter, r *http.Request) {
	var dto CreatePreferenceDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePreference: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := dto.Validate(); err != nil {
		h.writeAppError(w, err)
		return
	}

	pref, err := h.Service.CreatePreference(r.Context(), dto.CvDataID)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, pref)
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := apperrors.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
