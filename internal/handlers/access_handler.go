package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"tickethub/internal/auth"
	"tickethub/internal/services"
)

type AccessHandler struct {
	access *services.AccessService
}

func NewAccessHandler(access *services.AccessService) *AccessHandler {
	return &AccessHandler{access: access}
}

// Validate - scan a ticket at the venue door
func (h *AccessHandler) Validate(e *core.RequestEvent) error {
	if e.Auth == nil {
		return apis.NewUnauthorizedError("Unauthorized", nil)
	}

	claims := auth.FromRecord(e.Auth)
	if err := claims.RequireScanScope(); err != nil {
		return apis.NewForbiddenError("Access denied", err)
	}

	var req struct {
		TicketID string `json:"ticket_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.TicketID == "" {
		return apis.NewBadRequestError("ticket_id is required", nil)
	}

	decision := h.access.Validate(e.Request.Context(), claims, req.TicketID)
	return e.JSON(http.StatusOK, decision)
}
