package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/pharmalink/golang_services/internal/messaging_service/app"
	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// EmptyTwiML acknowledges a webhook without instructing the carrier to reply.
const EmptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// InboundIngester stores an inbound message.
type InboundIngester interface {
	Process(ctx context.Context, ev app.InboundEvent) (*app.InboundResult, error)
}

// StatusApplier applies a carrier status callback.
type StatusApplier interface {
	Apply(ctx context.Context, ev domain.StatusEvent) (*domain.Message, error)
}

// WebhookHandler receives the carrier's form-encoded callbacks.
type WebhookHandler struct {
	inbound  InboundIngester
	statuses StatusApplier
	validate *validator.Validate
	logger   *slog.Logger
}

func NewWebhookHandler(inbound InboundIngester, statuses StatusApplier, validate *validator.Validate, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		inbound:  inbound,
		statuses: statuses,
		validate: validate,
		logger:   logger.With("handler", "webhook"),
	}
}

// RegisterRoutes registers the inbound and status webhooks.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/inbound", h.handleInbound)
	r.Post("/status", h.handleStatus)
}

func (h *WebhookHandler) handleInbound(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if err := r.ParseForm(); err != nil {
		writeError(w, r, logger, domain.BadRequestf("invalid form body: %v", err))
		return
	}
	form := InboundSMSForm{
		From:       r.PostForm.Get("From"),
		To:         r.PostForm.Get("To"),
		Body:       r.PostForm.Get("Body"),
		MessageSid: firstNonEmpty(r.PostForm.Get("MessageSid"), r.PostForm.Get("SmsSid")),
	}
	if err := h.validate.StructCtx(ctx, form); err != nil {
		writeError(w, r, logger, err)
		return
	}
	logger = logger.With("tracking_id", form.MessageSid)
	logger.InfoContext(ctx, "Received inbound SMS", "from", form.From, "to", form.To)

	res, err := h.inbound.Process(ctx, app.InboundEvent{
		From:       form.From,
		To:         form.To,
		Body:       form.Body,
		TrackingID: form.MessageSid,
	})
	if err != nil {
		writeError(w, r, logger, err)
		return
	}
	if res.Duplicate {
		logger.InfoContext(ctx, "Inbound SMS already processed")
	}
	writeTwiMLAck(w)
}

func (h *WebhookHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	if err := r.ParseForm(); err != nil {
		writeError(w, r, logger, domain.BadRequestf("invalid form body: %v", err))
		return
	}
	form := StatusCallbackForm{
		MessageSid:    firstNonEmpty(r.PostForm.Get("MessageSid"), r.PostForm.Get("SmsSid")),
		MessageStatus: firstNonEmpty(r.PostForm.Get("MessageStatus"), r.PostForm.Get("SmsStatus")),
		ErrorCode:     r.PostForm.Get("ErrorCode"),
		ErrorMessage:  r.PostForm.Get("ErrorMessage"),
		To:            r.PostForm.Get("To"),
		From:          r.PostForm.Get("From"),
	}
	if err := h.validate.StructCtx(ctx, form); err != nil {
		writeError(w, r, logger, err)
		return
	}

	m, err := h.statuses.Apply(ctx, domain.StatusEvent{
		TrackingID:     form.MessageSid,
		ProviderStatus: form.MessageStatus,
		ErrorCode:      form.ErrorCode,
		ErrorMessage:   form.ErrorMessage,
		To:             form.To,
		From:           form.From,
	})
	if err != nil {
		writeError(w, r, logger.With("tracking_id", form.MessageSid), err)
		return
	}
	logger.InfoContext(ctx, "Status callback applied", "tracking_id", form.MessageSid, "message_id", m.ID, "status", m.Status)
	writeTwiMLAck(w)
}

func writeTwiMLAck(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, EmptyTwiML)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
