package status

import "errors"

var (
	ErrTicketNotFound  = errors.New("ticket: ticket not found")
	ErrEventNotFound   = errors.New("event: event not found")
	ErrOrderNotFound   = errors.New("order: order not found")
	ErrCouponNotFound  = errors.New("coupon: coupon not found")
	ErrAccountNotFound = errors.New("account: account not found")

	// ErrInvalidState marks a transition the ticket's current status forbids.
	ErrInvalidState = errors.New("ticket: invalid state for transition")

	// ErrSoldOut and ErrPurchaseLimit are capacity rejections; handlers must
	// surface them distinctly from generic failures.
	ErrSoldOut       = errors.New("order: ticket type sold out")
	ErrPurchaseLimit = errors.New("order: per-account purchase limit exceeded")

	ErrEmptyOrder     = errors.New("order: no purchasable items")
	ErrInvalidContact = errors.New("order: invalid contact details")
	ErrNotResalable   = errors.New("order: referenced ticket is not listed for resale")

	// ErrPaymentProvider is fatal to order creation: no order may be left
	// requesting payment that cannot be collected.
	ErrPaymentProvider = errors.New("payment: payment intent creation failed")
)
