package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/service"
)

// FacilityHandler serves the facility list and the hostel information.
// Every write purges the matching cached GET responses.
type FacilityHandler struct {
	base
	Facilities *service.FacilityService
	Purge      Purger
}

func NewFacilityHandler(facilities *service.FacilityService, purge Purger, log *zap.Logger) *FacilityHandler {
	if facilities == nil {
		panic("nil facility service passed to NewFacilityHandler")
	}
	return &FacilityHandler{base: newBase(log), Facilities: facilities, Purge: purge}
}

// List handles GET /facilities.
func (h *FacilityHandler) List(c echo.Context) error {
	out, err := h.Facilities.ListFacilities(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Create handles POST /facilities.
func (h *FacilityHandler) Create(c echo.Context) error {
	var in service.FacilityInput
	if err := bindAndValidate(c, &in); err != nil {
		return h.fail(c, err)
	}
	f, err := h.Facilities.CreateFacility(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceFacilities)
	return c.JSON(http.StatusCreated, f)
}

// Update handles PUT /facilities/:id.
func (h *FacilityHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var in service.FacilityInput
	if err := bindAndValidate(c, &in); err != nil {
		return h.fail(c, err)
	}
	f, err := h.Facilities.UpdateFacility(c.Request().Context(), id, in)
	if err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceFacilities)
	return c.JSON(http.StatusOK, f)
}

// Delete handles DELETE /facilities/:id.
func (h *FacilityHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Facilities.DeleteFacility(c.Request().Context(), id); err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceFacilities)
	return c.NoContent(http.StatusNoContent)
}

// Reorder handles PUT /facilities/reorder {orderedIds}.
func (h *FacilityHandler) Reorder(c echo.Context) error {
	var body struct {
		OrderedIDs []uint64 `json:"orderedIds"`
	}
	if err := bindAndValidate(c, &body); err != nil {
		return h.fail(c, err)
	}
	out, err := h.Facilities.ReorderFacilities(c.Request().Context(), body.OrderedIDs)
	if err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceFacilities)
	return c.JSON(http.StatusOK, out)
}

// HostelInfo handles GET /hostel-info.
func (h *FacilityHandler) HostelInfo(c echo.Context) error {
	info, err := h.Facilities.GetHostelInfo(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// UpdateHostelInfo handles PUT /hostel-info.
func (h *FacilityHandler) UpdateHostelInfo(c echo.Context) error {
	var in service.HostelInfoInput
	if err := bindAndValidate(c, &in); err != nil {
		return h.fail(c, err)
	}
	info, err := h.Facilities.UpdateHostelInfo(c.Request().Context(), in)
	if err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceHostelInfo)
	return c.JSON(http.StatusOK, info)
}
