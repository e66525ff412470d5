package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"discount-codes/internal/coupon"
	"discount-codes/internal/model"
	"discount-codes/internal/notify"
	"discount-codes/internal/service"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const (
	msgUseFailed          = "Failed to use code"
	msgUseInternalFailure = "Failed to use code: internal error"
	msgInvalidMessage     = "Invalid message"
)

// wsMessage is a command sent by a websocket client.
type wsMessage struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Length int    `json:"length"`
	Code   string `json:"code"`
}

// CodeHandler handles discount code HTTP and websocket requests. Events are
// published only after the service call has returned.
type CodeHandler struct {
	service   service.CodeService
	publisher notify.Publisher
	hub       *notify.Hub
	now       func() time.Time
	logger    zerolog.Logger
}

// NewCodeHandler creates a new code handler. hub may be nil when websockets are not served.
func NewCodeHandler(svc service.CodeService, publisher notify.Publisher, hub *notify.Hub, logger zerolog.Logger) *CodeHandler {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	return &CodeHandler{
		service:   svc,
		publisher: publisher,
		hub:       hub,
		now:       time.Now,
		logger:    logger.With().Str("handler", "code").Logger(),
	}
}

// Generate handles POST /api/codes/generate requests.
func (h *CodeHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	var req model.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if err := coupon.ValidateRequest(req.Count, req.Length); err != nil {
		var de *model.DomainError
		if errors.As(err, &de) {
			writeError(w, r, http.StatusBadRequest, de.Code, de.Message, h.logger)
			return
		}
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, err.Error(), h.logger)
		return
	}

	ok := h.service.GenerateAndAdd(r.Context(), req.Count, req.Length)
	h.publish(r.Context(), model.CodeGeneratedEvent(ok, h.now()))

	writeJSON(w, http.StatusOK, model.GenerateResponse{Success: ok}, h.logger)
}

// Use handles POST /api/codes/use requests.
func (h *CodeHandler) Use(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	var req model.UseCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if req.Code == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeMissingField, "code is required", h.logger)
		return
	}

	result := h.service.UseCode(r.Context(), req.Code)
	resp := model.UseCodeResponse{Code: req.Code, Result: result}

	// Failed redemptions are reported to the caller only: over HTTP the
	// response body carries the Error message and nothing is published.
	switch result {
	case model.UseCodeSuccess:
		h.publish(r.Context(), model.CodeUsedEvent(req.Code, h.now()))
		writeJSON(w, http.StatusOK, resp, h.logger)
	case model.UseCodeFailure:
		resp.Message = msgUseFailed
		writeJSON(w, http.StatusConflict, resp, h.logger)
	default:
		resp.Message = msgUseInternalFailure
		writeJSON(w, http.StatusServiceUnavailable, resp, h.logger)
	}
}

// Stats handles GET /api/codes/stats requests.
func (h *CodeHandler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed", h.logger)
		return
	}

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeServiceUnavailable, "failed to retrieve stats", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, stats, h.logger)
}

// ServeWS handles GET /ws by attaching the connection to the hub.
func (h *CodeHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeError(w, r, http.StatusNotFound, "NOT_FOUND", "websocket notifications are disabled", h.logger)
		return
	}
	h.hub.ServeWS(w, r, h.handleMessage)
}

// handleMessage runs a websocket command. Generation outcomes and successful
// redemptions are broadcast; failed redemptions are reported to the caller only.
func (h *CodeHandler) handleMessage(ctx context.Context, client *notify.Client, data []byte) {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		h.reply(client, msgInvalidMessage)
		return
	}

	switch msg.Type {
	case "generate":
		ok := h.service.GenerateAndAdd(ctx, msg.Count, msg.Length)
		h.publish(ctx, model.CodeGeneratedEvent(ok, h.now()))
	case "use":
		switch h.service.UseCode(ctx, msg.Code) {
		case model.UseCodeSuccess:
			h.publish(ctx, model.CodeUsedEvent(msg.Code, h.now()))
		case model.UseCodeFailure:
			h.reply(client, msgUseFailed)
		default:
			h.reply(client, msgUseInternalFailure)
		}
	default:
		h.reply(client, msgInvalidMessage)
	}
}

func (h *CodeHandler) reply(client *notify.Client, message string) {
	if err := client.Send(model.ErrorEvent(message, h.now())); err != nil {
		h.logger.Warn().Err(err).Str("client_id", client.ID()).Msg("failed to reply to websocket client")
	}
}

func (h *CodeHandler) publish(ctx context.Context, event model.Event) {
	if err := h.publisher.Publish(ctx, event); err != nil {
		h.logger.Warn().Err(err).Str("event_type", string(event.Type)).Msg("failed to publish event")
	}
}
