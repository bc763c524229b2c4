package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/payments"
	"tickethub/internal/services"
	"tickethub/internal/status"
)

const signatureHeader = "X-Payment-Signature"

// WebhookHandler receives payment provider callbacks. Providers retry on
// non-2xx, so every outcome handler must stay safe to replay.
type WebhookHandler struct {
	settlement *services.SettlementService
	hmacKey    []byte
}

func NewWebhookHandler(settlement *services.SettlementService, hmacKey []byte) *WebhookHandler {
	return &WebhookHandler{settlement: settlement, hmacKey: hmacKey}
}

type webhookRequest struct {
	PaymentRef string `json:"payment_ref"`
}

// decode verifies the signature over the raw body before unmarshalling.
func (h *WebhookHandler) decode(e *core.RequestEvent) (*webhookRequest, error) {
	body, err := io.ReadAll(e.Request.Body)
	if err != nil {
		return nil, apis.NewBadRequestError("Invalid request", err)
	}

	if len(h.hmacKey) > 0 {
		sig := e.Request.Header.Get(signatureHeader)
		if !payments.VerifySignature(body, sig, h.hmacKey) {
			slog.Warn("webhook: rejected bad signature", "path", e.Request.URL.Path)
			return nil, apis.NewUnauthorizedError("Invalid signature", nil)
		}
	}

	var req webhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, apis.NewBadRequestError("Invalid request", err)
	}
	if req.PaymentRef == "" {
		return nil, apis.NewBadRequestError("payment_ref is required", nil)
	}
	return &req, nil
}

func (h *WebhookHandler) Succeeded(e *core.RequestEvent) error {
	req, err := h.decode(e)
	if err != nil {
		return err
	}

	if err := h.settlement.Settle(e.Request.Context(), req.PaymentRef); err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			return apis.NewNotFoundError("Unknown payment reference", nil)
		}
		slog.Error("h.settlement.Settle()", "payment_ref", req.PaymentRef, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"status": "settled"})
}

func (h *WebhookHandler) Failed(e *core.RequestEvent) error {
	req, err := h.decode(e)
	if err != nil {
		return err
	}

	if err := h.settlement.MarkFailed(e.Request.Context(), req.PaymentRef); err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			return apis.NewNotFoundError("Unknown payment reference", nil)
		}
		slog.Error("h.settlement.MarkFailed()", "payment_ref", req.PaymentRef, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"status": "pending"})
}

func (h *WebhookHandler) Refunded(e *core.RequestEvent) error {
	req, err := h.decode(e)
	if err != nil {
		return err
	}

	if err := h.settlement.Refund(e.Request.Context(), req.PaymentRef); err != nil {
		if errors.Is(err, status.ErrOrderNotFound) {
			return apis.NewNotFoundError("Unknown payment reference", nil)
		}
		slog.Error("h.settlement.Refund()", "payment_ref", req.PaymentRef, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{"status": "refunded"})
}
