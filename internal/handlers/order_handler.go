package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/services"
	"tickethub/internal/status"
	"tickethub/models"
)

type OrderHandler struct {
	orders  *services.OrderService
	coupons services.CouponStore
	counter services.OrderStore
}

func NewOrderHandler(orders *services.OrderService, coupons services.CouponStore, counter services.OrderStore) *OrderHandler {
	return &OrderHandler{orders: orders, coupons: coupons, counter: counter}
}

type createOrderRequest struct {
	Contact models.ContactDetails      `json:"contact"`
	Orders  []services.SubOrderRequest `json:"orders"`
}

// Create - build PENDING orders and request one combined payment
func (h *OrderHandler) Create(e *core.RequestEvent) error {
	var req createOrderRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	checkout, err := h.orders.Create(e.Request.Context(), req.Contact, req.Orders)
	if err != nil {
		switch {
		case errors.Is(err, status.ErrInvalidContact), errors.Is(err, status.ErrEmptyOrder),
			errors.Is(err, status.ErrNotResalable):
			return apis.NewBadRequestError(err.Error(), nil)
		case errors.Is(err, status.ErrEventNotFound):
			return apis.NewNotFoundError("Event not found", nil)
		case errors.Is(err, status.ErrSoldOut), errors.Is(err, status.ErrPurchaseLimit):
			// capacity exhaustion is a client-visible condition, not a fault
			return e.JSON(http.StatusConflict, map[string]any{
				"code":    "capacity_exceeded",
				"message": err.Error(),
			})
		default:
			slog.Error("h.orders.Create()", "error", err)
			return apis.NewInternalServerError("internal error", err)
		}
	}

	return e.JSON(http.StatusCreated, checkout)
}

// CouponInfo - advisory coupon validity; the checkout re-validates on its own
func (h *OrderHandler) CouponInfo(e *core.RequestEvent) error {
	code := e.Request.PathValue("code")
	eventID := e.Request.URL.Query().Get("event_id")

	coupon, err := h.coupons.FindByCode(e.Request.Context(), code)
	if err != nil {
		return apis.NewNotFoundError("Coupon not found", nil)
	}

	used, err := h.counter.CountSucceededByCoupon(e.Request.Context(), coupon.EventID, coupon.Code)
	if err != nil {
		slog.Error("h.counter.CountSucceededByCoupon()", "code", code, "error", err)
		return apis.NewInternalServerError("internal error", err)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"code":         coupon.Code,
		"event_id":     coupon.EventID,
		"discount_pct": coupon.DiscountPct,
		"usable":       coupon.Usable(eventID, used, time.Now()),
	})
}

// PromocodeInfo - advisory promocode validity
func (h *OrderHandler) PromocodeInfo(e *core.RequestEvent) error {
	code := e.Request.PathValue("code")
	eventID := e.Request.URL.Query().Get("event_id")

	promo, err := h.coupons.FindPromoByCode(e.Request.Context(), code)
	if err != nil {
		return apis.NewNotFoundError("Promocode not found", nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"code":     promo.Code,
		"event_id": promo.EventID,
		"valid":    promo.Valid(eventID),
	})
}
