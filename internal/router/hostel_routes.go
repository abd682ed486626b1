package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smartstay/internal/handler"
)

// registerHostel mounts facilities and hostel info.  Reads are open to
// every authenticated user and cached; writes are admin only and purge
// the cache.
func registerHostel(api *echo.Group, h *handler.FacilityHandler, admin, anyone echo.MiddlewareFunc, cache func(string) echo.MiddlewareFunc) {
	api.GET("/facilities", h.List, anyone, cache(handler.NamespaceFacilities))
	api.POST("/facilities", h.Create, admin)
	api.PUT("/facilities/reorder", h.Reorder, admin)
	api.PUT("/facilities/:id", h.Update, admin)
	api.DELETE("/facilities/:id", h.Delete, admin)

	api.GET("/hostel-info", h.HostelInfo, anyone, cache(handler.NamespaceHostelInfo))
	api.PUT("/hostel-info", h.UpdateHostelInfo, admin)
}

// registerRooms mounts the occupancy ledger for admins.
func registerRooms(api *echo.Group, h *handler.RoomHandler, admin echo.MiddlewareFunc) {
	g := api.Group("/rooms", admin)
	g.GET("", h.List)
	g.GET("/:number", h.Get)
	g.POST("/:number/allocate", h.Allocate)
	g.POST("/:number/deallocate", h.Deallocate)
	g.DELETE("/:number", h.Delete)
}
