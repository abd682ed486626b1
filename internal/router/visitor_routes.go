package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smartstay/internal/handler"
)

// registerVisitors mounts the visitor pass workflow.  Students register,
// list and cancel their own visitors; admins decide, check visitors in and
// out and verify passes at the gate.
func registerVisitors(api *echo.Group, h *handler.VisitorHandler, student, admin, anyone echo.MiddlewareFunc) {
	g := api.Group("/visitors")

	g.POST("/register", h.Register, student)
	g.GET("/my-visitors", h.Mine, student)
	g.PUT("/:id/cancel", h.Cancel, student)

	g.GET("/admin/pending", h.Pending, admin)
	g.GET("/admin/active", h.Active, admin)
	g.GET("/admin/all", h.All, admin)
	g.PUT("/:id/approve", h.Approve, admin)
	g.PUT("/:id/reject", h.Reject, admin)
	g.PUT("/:id/check-in", h.CheckIn, admin)
	g.PUT("/:id/check-out", h.CheckOut, admin)
	g.GET("/verify/:qrCode", h.Verify, admin)

	g.GET("/:id", h.Get, anyone)
}
