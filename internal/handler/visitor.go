package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/middleware"
	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/service"
)

// VisitorHandler exposes the visitor pass workflow under /api/visitors.
type VisitorHandler struct {
	base
	Visitors *service.VisitorService
}

func NewVisitorHandler(visitors *service.VisitorService, log *zap.Logger) *VisitorHandler {
	if visitors == nil {
		panic("nil visitor service passed to NewVisitorHandler")
	}
	return &VisitorHandler{base: newBase(log), Visitors: visitors}
}

// Register handles POST /visitors/register.
func (h *VisitorHandler) Register(c echo.Context) error {
	var in model.VisitorInput
	if err := bindAndValidate(c, &in); err != nil {
		return h.fail(c, err)
	}
	v, err := h.Visitors.RegisterVisitor(c.Request().Context(), middleware.CallerFrom(c).ID, in)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, v)
}

// Mine handles GET /visitors/my-visitors.
func (h *VisitorHandler) Mine(c echo.Context) error {
	out, err := h.Visitors.MyVisitors(c.Request().Context(), middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /visitors/:id for the owner or an admin.
func (h *VisitorHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.Visitors.GetVisitor(c.Request().Context(), id, middleware.CallerFrom(c))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Cancel handles PUT /visitors/:id/cancel.
func (h *VisitorHandler) Cancel(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.Visitors.CancelVisitor(c.Request().Context(), id, middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Pending handles GET /visitors/admin/pending.
func (h *VisitorHandler) Pending(c echo.Context) error {
	out, err := h.Visitors.PendingVisitors(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Active handles GET /visitors/admin/active.
func (h *VisitorHandler) Active(c echo.Context) error {
	out, err := h.Visitors.ActiveVisitors(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// All handles GET /visitors/admin/all.  Query parameters use the
// camelCase names of the public API.
func (h *VisitorHandler) All(c echo.Context) error {
	f := model.VisitorFilter{
		Status:       model.VisitorStatus(c.QueryParam("status")),
		StartDate:    c.QueryParam("startDate"),
		EndDate:      c.QueryParam("endDate"),
		StudentID:    c.QueryParam("studentId"),
		StudentEmail: c.QueryParam("studentEmail"),
	}
	out, err := h.Visitors.AllVisitors(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

type remarksBody struct {
	Remarks *string `json:"remarks"`
}

// Approve handles PUT /visitors/:id/approve with optional remarks.
func (h *VisitorHandler) Approve(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body remarksBody
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&body); err != nil {
			return h.fail(c, &model.ValidationError{Field: "body", Message: "invalid request body"})
		}
	}
	v, err := h.Visitors.ApproveVisitor(c.Request().Context(), id, middleware.CallerFrom(c).ID, body.Remarks)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Reject handles PUT /visitors/:id/reject; remarks are required.
func (h *VisitorHandler) Reject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body remarksBody
	if err := c.Bind(&body); err != nil {
		return h.fail(c, &model.ValidationError{Field: "body", Message: "invalid request body"})
	}
	remarks := ""
	if body.Remarks != nil {
		remarks = *body.Remarks
	}
	v, err := h.Visitors.RejectVisitor(c.Request().Context(), id, middleware.CallerFrom(c).ID, remarks)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// CheckIn handles PUT /visitors/:id/check-in.
func (h *VisitorHandler) CheckIn(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.Visitors.CheckInVisitor(c.Request().Context(), id, middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// CheckOut handles PUT /visitors/:id/check-out.
func (h *VisitorHandler) CheckOut(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	v, err := h.Visitors.CheckOutVisitor(c.Request().Context(), id, middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Verify handles GET /visitors/verify/:qrCode.
func (h *VisitorHandler) Verify(c echo.Context) error {
	v, err := h.Visitors.VerifyPass(c.Request().Context(), c.Param("qrCode"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, v)
}
