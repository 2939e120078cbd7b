package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/pharmalink/golang_services/internal/messaging_service/app"
	"github.com/pharmalink/golang_services/internal/messaging_service/domain"
)

// MessageSender sends one outbound message.
type MessageSender interface {
	Send(ctx context.Context, req app.SendRequest) (*app.SendResult, error)
}

type MessageHandler struct {
	sender   MessageSender
	validate *validator.Validate
	logger   *slog.Logger
}

func NewMessageHandler(sender MessageSender, validate *validator.Validate, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		sender:   sender,
		validate: validate,
		logger:   logger.With("handler", "message"),
	}
}

// RegisterRoutes registers message routes with the given router.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/messages/send", h.handleSendMessage)
}

func (h *MessageHandler) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.With("request_id", chi_middleware.GetReqID(ctx))

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, logger, domain.BadRequestf("invalid JSON body: %v", err))
		return
	}
	if err := h.validate.StructCtx(ctx, req); err != nil {
		writeError(w, r, logger, err)
		return
	}

	sendReq := app.SendRequest{
		To:            req.To,
		Body:          req.Message,
		PatientID:     parseOptionalUUID(req.PatientID),
		PhoneNumberID: parseOptionalUUID(req.PhoneNumberID),
		MessageID:     parseOptionalUUID(req.MessageID),
	}

	res, err := h.sender.Send(ctx, sendReq)
	if err != nil {
		writeError(w, r, logger, err)
		return
	}

	resp := SendMessageResponse{
		Success:                true,
		MessageID:              res.TrackingID,
		Status:                 string(res.Status),
		PhoneNumberUsed:        res.PhoneNumberUsed,
		PhoneNumberDisplayName: res.PhoneNumberDisplayName,
	}
	recordID := ""
	if res.MessageID != nil {
		recordID = res.MessageID.String()
		resp.RecordID = &recordID
	}
	logger.InfoContext(ctx, "Message sent", "tracking_id", res.TrackingID, "record_id", recordID)
	writeJSON(w, http.StatusOK, resp)
}

// parseOptionalUUID expects input already checked by the validator.
func parseOptionalUUID(s string) *uuid.UUID {
	if s == "" {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}
