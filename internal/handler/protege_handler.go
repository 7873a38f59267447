package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/secthall/contribution-backend/internal/roles"
	"github.com/secthall/contribution-backend/internal/service"
)

type ProtegeHandler struct {
	svc          service.ProtegeService
	provider     roles.Provider
	granterRoles []string
}

func NewProtegeHandler(svc service.ProtegeService, provider roles.Provider, granterRoles []string) *ProtegeHandler {
	return &ProtegeHandler{svc: svc, provider: provider, granterRoles: granterRoles}
}

type proclaimRequest struct {
	ActorID       int64 `json:"actor_id"`
	BeneficiaryID int64 `json:"beneficiary_id"`
}

// Proclaim names a protégé. The granter-rank check happens here, in the
// command layer, before the core guard runs its own validations.
func (h *ProtegeHandler) Proclaim(c echo.Context) error {
	groupID, err := pathID(c, "groupID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid group id"))
	}
	var req proclaimRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if req.ActorID == 0 || req.BeneficiaryID == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "actor_id and beneficiary_id are required"))
	}

	actor, err := h.provider.Member(c.Request().Context(), groupID, req.ActorID)
	if err != nil {
		if errors.Is(err, roles.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("member_not_found", "actor is not a member of this group"))
		}
		return c.JSON(http.StatusBadGateway, NewErrorResponse("gateway_error", err.Error()))
	}
	if !holdsAnyRole(actor.Roles, h.granterRoles) {
		return c.JSON(http.StatusForbidden, NewErrorResponse("missing_rank", "you do not have the required rank to proclaim a protégé"))
	}

	res, err := h.svc.Proclaim(c.Request().Context(), groupID, req.ActorID, req.BeneficiaryID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAlreadyGranted):
			return c.JSON(http.StatusConflict, NewErrorResponse("already_granted", "this honor can only be bestowed once"))
		case errors.Is(err, service.ErrSelfTarget):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("self_target", "you cannot name yourself as your own protégé"))
		case errors.Is(err, service.ErrInvalidTarget):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_target", "bots cannot be named as protégés"))
		case errors.Is(err, service.ErrIneligibleTarget):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("ineligible_target", "the beneficiary does not hold an eligible rank"))
		case errors.Is(err, roles.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("member_not_found", "beneficiary is not a member of this group"))
		default:
			return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", err.Error()))
		}
	}
	return c.JSON(http.StatusOK, res)
}

func holdsAnyRole(held, wanted []string) bool {
	for _, w := range wanted {
		for _, h := range held {
			if h == w {
				return true
			}
		}
	}
	return false
}
