package fulfillment

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/cvpratico/cv-builder/internal"
	cvdomain "github.com/cvpratico/cv-builder/internal/cv"
	"github.com/cvpratico/cv-builder/internal/transport"
	"github.com/cvpratico/cv-builder/pkg/logger"
)

// ServiceAPI is the on-demand slice of the fulfillment pipeline exposed over
// HTTP. Both operations require an approved payment.
type ServiceAPI interface {
	GenerateDocuments(ctx context.Context, cvDataID int64) (*cvdomain.GeneratedDocuments, error)
	RenderPdf(ctx context.Context, cvDataID int64) ([]byte, error)
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

func (h *Handler) GenerateDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid cv id")
		return
	}

	docs, err := h.Service.GenerateDocuments(r.Context(), id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, docs)
}

func (h *Handler) DownloadPdf(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid cv id")
		return
	}

	pdf, err := h.Service.RenderPdf(r.Context(), id)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=cv.pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.Logger.Error("DownloadPdf: failed to write response", "error", err, "cv_id", id)
	}
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	if appErr, ok := errors.IsAppError(err); ok {
		status, body := appErr.ToHTTPResponse()
		h.WriteJSON(w, status, body)
		return
	}
	h.WriteError(w, http.StatusInternalServerError, "internal server error")
}
