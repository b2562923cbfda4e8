package cv

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/cvpratico/cv-builder/internal"
	cvmodel "github.com/cvpratico/cv-builder/internal/core/datamodel/cv"
	"github.com/cvpratico/cv-builder/internal/transport"
	"github.com/cvpratico/cv-builder/pkg/logger"
)

type ServiceAPI interface {
	CreateSubmission(dto *CreateCvDTO) (*cvmodel.Cv, error)
	GetSubmission(id int64) (*cvmodel.Cv, error)
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

func (h *Handler) CreateCv(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Error("CreateCv: failed to read request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := ValidatePayloadShape(body); err != nil {
		h.writeAppError(w, err)
		return
	}

	var dto CreateCvDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		h.Logger.Error("CreateCv: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	record, err := h.Service.CreateSubmission(&dto)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) GetCv(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid cv id")
		return
	}

	record, err := h.Service.GetSubmission(id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
