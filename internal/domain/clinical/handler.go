package clinical

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/mednet/mednet/internal/platform/auth"
	"github.com/mednet/mednet/internal/platform/registry"
	"github.com/mednet/mednet/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	staff := api.Group("", auth.RequireStaff())
	staff.GET("/consultations", h.ListConsultations)
	staff.GET("/consultations/:id", h.GetConsultation)
	staff.GET("/consultations/:id/diagnoses", h.ListDiagnosesByConsultation)
	staff.GET("/diagnoses/:id", h.GetDiagnosis)
	staff.GET("/diagnoses/:id/prescriptions", h.ListPrescriptionsByDiagnosis)
	staff.GET("/prescriptions/:id", h.GetPrescription)

	phys := api.Group("", auth.RequireRole(auth.RolePhysician))
	phys.POST("/consultations", h.CreateConsultation)
	phys.PUT("/consultations/:id", h.UpdateConsultation)
	phys.POST("/diagnoses", h.CreateDiagnosis)
	phys.PUT("/diagnoses/:id", h.UpdateDiagnosis)
	phys.DELETE("/diagnoses/:id", h.DeleteDiagnosis)
	phys.POST("/prescriptions", h.CreatePrescription)
	phys.PUT("/prescriptions/:id", h.UpdatePrescription)
	phys.DELETE("/prescriptions/:id", h.DeletePrescription)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.DELETE("/consultations/:id", h.DeleteConsultation)
}

// facilityFor selects the facility store the request operates on.
// Facility-bound staff always work in their own facility; facility-less
// admins must name one explicitly via the facility_id query parameter.
func facilityFor(c echo.Context) (int64, error) {
	caller, ok := auth.CallerFromContext(c.Request().Context())
	if !ok {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "missing identity")
	}
	switch v := caller.(type) {
	case auth.FacilityBoundStaff:
		return v.FacilityID, nil
	case auth.FacilitylessAdmin:
		raw := c.QueryParam("facility_id")
		if raw == "" {
			return 0, echo.NewHTTPError(http.StatusConflict,
				"administrative callers have no local store; pass facility_id")
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid facility_id")
		}
		return id, nil
	default:
		return 0, echo.NewHTTPError(http.StatusForbidden, "staff access required")
	}
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

// mapError translates service errors to HTTP status codes. fallback is used
// for untyped errors (validation failures on writes map to 400).
func mapError(err error, fallback int) error {
	var refErr *ReferenceNotFoundError
	var unknownFacility *registry.UnknownFacilityError
	switch {
	case errors.As(err, &refErr):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, refErr.Error())
	case errors.Is(err, ErrNoLocalStore):
		return echo.NewHTTPError(http.StatusConflict, ErrNoLocalStore.Error())
	case errors.As(err, &unknownFacility):
		return echo.NewHTTPError(http.StatusInternalServerError, unknownFacility.Error())
	case errors.Is(err, pgx.ErrNoRows):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return echo.NewHTTPError(fallback, err.Error())
}

// -- Consultation --

func (h *Handler) CreateConsultation(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	var con Consultation
	if err := c.Bind(&con); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateConsultation(c.Request().Context(), facilityID, &con); err != nil {
		return mapError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, con)
}

func (h *Handler) GetConsultation(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	con, err := h.svc.GetConsultation(c.Request().Context(), facilityID, id)
	if err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, con)
}

func (h *Handler) ListConsultations(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.ListConsultations(c.Request().Context(), facilityID, p.Limit, p.Offset)
	if err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) UpdateConsultation(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var con Consultation
	if err := c.Bind(&con); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	con.ID = id
	if err := h.svc.UpdateConsultation(c.Request().Context(), facilityID, &con); err != nil {
		return mapError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, con)
}

func (h *Handler) DeleteConsultation(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteConsultation(c.Request().Context(), facilityID, id); err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Diagnosis --

func (h *Handler) CreateDiagnosis(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateDiagnosis(c.Request().Context(), facilityID, &d); err != nil {
		return mapError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	d, err := h.svc.GetDiagnosis(c.Request().Context(), facilityID, id)
	if err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListDiagnosesByConsultation(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	consultationID, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListDiagnosesByConsultation(c.Request().Context(), facilityID, consultationID)
	if err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdateDiagnosis(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var d Diagnosis
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.ID = id
	if err := h.svc.UpdateDiagnosis(c.Request().Context(), facilityID, &d); err != nil {
		return mapError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) DeleteDiagnosis(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeleteDiagnosis(c.Request().Context(), facilityID, id); err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Prescription --

func (h *Handler) CreatePrescription(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePrescription(c.Request().Context(), facilityID, &p); err != nil {
		return mapError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.GetPrescription(c.Request().Context(), facilityID, id)
	if err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptionsByDiagnosis(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	diagnosisID, err := pathID(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListPrescriptionsByDiagnosis(c.Request().Context(), facilityID, diagnosisID)
	if err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var p Prescription
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePrescription(c.Request().Context(), facilityID, &p); err != nil {
		return mapError(err, http.StatusBadRequest)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	facilityID, err := facilityFor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), facilityID, id); err != nil {
		return mapError(err, http.StatusInternalServerError)
	}
	return c.NoContent(http.StatusNoContent)
}
