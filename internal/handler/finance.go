package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/middleware"
	"github.com/iliyamo/smartstay/internal/model"
	"github.com/iliyamo/smartstay/internal/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// FinanceHandler exposes fee requests and payments under
// /api/services/payments.
type FinanceHandler struct {
	base
	Finance *service.FinanceService
}

func NewFinanceHandler(finance *service.FinanceService, log *zap.Logger) *FinanceHandler {
	if finance == nil {
		panic("nil finance service passed to NewFinanceHandler")
	}
	return &FinanceHandler{base: newBase(log), Finance: finance}
}

// All handles GET /services/payments/all?limit=.
func (h *FinanceHandler) All(c echo.Context) error {
	limit := 0
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return h.fail(c, &model.ValidationError{Field: "limit", Message: "limit must be a positive integer"})
		}
		limit = n
	}
	out, err := h.Finance.RecentPayments(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Student handles GET /services/payments/student/:id.
func (h *FinanceHandler) Student(c echo.Context) error {
	out, err := h.Finance.StudentPayments(c.Request().Context(), middleware.CallerFrom(c), c.Param("id"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Requests handles GET /services/payments/requests?status=.
func (h *FinanceHandler) Requests(c echo.Context) error {
	out, err := h.Finance.AllRequests(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Request handles POST /services/payments/request.
func (h *FinanceHandler) Request(c echo.Context) error {
	var in model.PaymentRequestInput
	if err := bindAndValidate(c, &in); err != nil {
		return h.fail(c, err)
	}
	pr, err := h.Finance.CreatePaymentRequest(c.Request().Context(), in, middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, pr)
}

// Record handles POST /services/payments/record.
func (h *FinanceHandler) Record(c echo.Context) error {
	var in model.RecordPaymentInput
	if err := bindAndValidate(c, &in); err != nil {
		return h.fail(c, err)
	}
	p, err := h.Finance.RecordPayment(c.Request().Context(), in, middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"payment": p, "receipt_number": p.ReceiptNumber})
}

// Verify handles PUT /services/payments/:id/verify.
func (h *FinanceHandler) Verify(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	p, err := h.Finance.VerifyPaymentRequest(c.Request().Context(), id, middleware.CallerFrom(c).ID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"payment": p, "receipt_number": p.ReceiptNumber})
}

// Pay handles PUT /services/payments/:id/pay for the owning student.
func (h *FinanceHandler) Pay(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	var body struct {
		Method string `json:"method" validate:"required"`
	}
	if err := bindAndValidate(c, &body); err != nil {
		return h.fail(c, err)
	}
	pr, err := h.Finance.PayRequest(c.Request().Context(), id, middleware.CallerFrom(c).ID, body.Method)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, pr)
}

// Delete handles DELETE /services/payments/:id.
func (h *FinanceHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return h.fail(c, err)
	}
	if err := h.Finance.DeletePayment(c.Request().Context(), id, middleware.CallerFrom(c).ID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Export handles GET /services/payments/export?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both dates are inclusive.  Without from the export starts on the first
// day of the current month; without to it ends today.
func (h *FinanceHandler) Export(c echo.Context) error {
	now := time.Now().UTC()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var err error
	if s := c.QueryParam("from"); s != "" {
		if from, err = time.Parse("2006-01-02", s); err != nil {
			return h.fail(c, &model.ValidationError{Field: "from", Message: "from must be YYYY-MM-DD"})
		}
	}
	if s := c.QueryParam("to"); s != "" {
		if to, err = time.Parse("2006-01-02", s); err != nil {
			return h.fail(c, &model.ValidationError{Field: "to", Message: "to must be YYYY-MM-DD"})
		}
	}
	data, err := h.Finance.ExportPayments(c.Request().Context(), from, to.AddDate(0, 0, 1))
	if err != nil {
		return h.fail(c, err)
	}
	name := fmt.Sprintf("payments_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxMIME, data)
}
