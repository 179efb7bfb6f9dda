package history

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mednet/mednet/internal/platform/auth"
)

type Handler struct {
	agg *Aggregator
}

func NewHandler(agg *Aggregator) *Handler {
	return &Handler{agg: agg}
}

// RegisterRoutes mounts the history endpoint. No role middleware: patients
// read their own history, so access is decided per-caller in the aggregator.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patients/:id/history", h.GetPatientHistory)
}

func (h *Handler) GetPatientHistory(c echo.Context) error {
	caller, ok := auth.CallerFromContext(c.Request().Context())
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	patientID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || patientID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}

	hist, err := h.agg.PatientHistory(c.Request().Context(), patientID, caller)
	if err != nil {
		switch {
		case errors.Is(err, ErrPatientNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "patient not found")
		case errors.Is(err, ErrAccessDenied):
			return echo.NewHTTPError(http.StatusForbidden, "access denied")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, hist)
}
