package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smartstay/internal/handler"
)

// registerFinance mounts fee requests and payments under
// /services/payments.  Students may read their own payments and pay their
// own requests; everything else is admin only.
func registerFinance(api *echo.Group, h *handler.FinanceHandler, student, admin, anyone echo.MiddlewareFunc) {
	g := api.Group("/services/payments")

	g.GET("/student/:id", h.Student, anyone)
	g.PUT("/:id/pay", h.Pay, student)

	g.GET("/all", h.All, admin)
	g.GET("/requests", h.Requests, admin)
	g.GET("/export", h.Export, admin)
	g.POST("/request", h.Request, admin)
	g.POST("/record", h.Record, admin)
	g.PUT("/:id/verify", h.Verify, admin)
	g.DELETE("/:id", h.Delete, admin)
}
