package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/secthall/contribution-backend/internal/repository"
	"github.com/secthall/contribution-backend/internal/service"
)

type PointsHandler struct {
	svc service.LedgerService
}

func NewPointsHandler(svc service.LedgerService) *PointsHandler {
	return &PointsHandler{svc: svc}
}

type awardRequest struct {
	UserID int64  `json:"user_id"`
	Points int64  `json:"points"`
	Reason string `json:"reason"`
}

func (h *PointsHandler) Award(c echo.Context) error {
	groupID, err := pathID(c, "groupID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid group id"))
	}
	var req awardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "user_id is required"))
	}
	res, err := h.svc.Award(c.Request().Context(), groupID, req.UserID, req.Points, req.Reason)
	if err != nil {
		if errors.Is(err, repository.ErrDBNotReady) {
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("storage_unavailable", err.Error()))
		}
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("storage_error", err.Error()))
	}
	return c.JSON(http.StatusOK, res)
}

func (h *PointsHandler) Total(c echo.Context) error {
	groupID, err := pathID(c, "groupID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid group id"))
	}
	userID, err := pathID(c, "userID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid user id"))
	}
	since, err := sinceParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid since_days"))
	}
	total, err := h.svc.Total(c.Request().Context(), groupID, userID, since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("storage_error", err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"total":   total,
	})
}

func (h *PointsHandler) Leaderboard(c echo.Context) error {
	groupID, err := pathID(c, "groupID")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid group id"))
	}
	since, err := sinceParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid since_days"))
	}
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid limit"))
		}
	}
	rows, err := h.svc.Leaderboard(c.Request().Context(), groupID, limit, since)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, NewErrorResponse("storage_error", err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"group_id": groupID,
		"entries":  rows,
	})
}

func pathID(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// sinceParam converts an optional since_days query into a window start.
func sinceParam(c echo.Context) (*time.Time, error) {
	raw := c.QueryParam("since_days")
	if raw == "" {
		return nil, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil || days < 0 {
		return nil, errors.New("invalid since_days")
	}
	t := time.Now().UTC().AddDate(0, 0, -days)
	return &t, nil
}
