package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/secthall/contribution-backend/internal/service"
)

type RankHandler struct {
	svc service.RankService
}

func NewRankHandler(svc service.RankService) *RankHandler {
	return &RankHandler{svc: svc}
}

// Reconcile re-runs rank-role reconciliation for a member. Roles are a
// projection of the ledger; this is the repair path after a gateway
// failure left them stale.
func (h *RankHandler) Reconcile(c echo.Context) error {
	groupID, err := pathID(c, "groupID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid group id"))
	}
	userID, err := pathID(c, "userID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid user id"))
	}
	res, err := h.svc.Reconcile(c.Request().Context(), groupID, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("storage_error", err.Error()))
	}
	return c.JSON(http.StatusOK, res)
}
