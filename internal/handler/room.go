package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/service"
)

// Purger drops cached responses of a namespace after a write.
type Purger func(ctx context.Context, namespace string)

// Cache namespaces purged by write handlers.
const (
	NamespaceSearch     = "search"
	NamespaceFacilities = "facilities"
	NamespaceHostelInfo = "hostel-info"
)

func (p Purger) purge(ctx context.Context, namespace string) {
	if p != nil {
		p(context.WithoutCancel(ctx), namespace)
	}
}

// RoomHandler exposes the occupancy ledger under /api/rooms.
type RoomHandler struct {
	base
	Rooms *service.RoomService
	Purge Purger
}

func NewRoomHandler(rooms *service.RoomService, purge Purger, log *zap.Logger) *RoomHandler {
	if rooms == nil {
		panic("nil room service passed to NewRoomHandler")
	}
	return &RoomHandler{base: newBase(log), Rooms: rooms, Purge: purge}
}

type allocateBody struct {
	StudentID   string `json:"student_id" validate:"required"`
	StudentName string `json:"student_name"`
}

// List handles GET /rooms?status=.
func (h *RoomHandler) List(c echo.Context) error {
	out, err := h.Rooms.ListRooms(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /rooms/:number.
func (h *RoomHandler) Get(c echo.Context) error {
	room, err := h.Rooms.GetRoom(c.Request().Context(), c.Param("number"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, room)
}

// Allocate handles POST /rooms/:number/allocate.
func (h *RoomHandler) Allocate(c echo.Context) error {
	var body allocateBody
	if err := bindAndValidate(c, &body); err != nil {
		return h.fail(c, err)
	}
	room, err := h.Rooms.AllocateRoom(c.Request().Context(), c.Param("number"), body.StudentID, body.StudentName)
	if err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceSearch)
	return c.JSON(http.StatusOK, room)
}

// Deallocate handles POST /rooms/:number/deallocate.
func (h *RoomHandler) Deallocate(c echo.Context) error {
	var body allocateBody
	if err := bindAndValidate(c, &body); err != nil {
		return h.fail(c, err)
	}
	room, err := h.Rooms.DeallocateRoom(c.Request().Context(), c.Param("number"), body.StudentID)
	if err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceSearch)
	return c.JSON(http.StatusOK, room)
}

// Delete handles DELETE /rooms/:number.
func (h *RoomHandler) Delete(c echo.Context) error {
	if err := h.Rooms.DeleteRoom(c.Request().Context(), c.Param("number")); err != nil {
		return h.fail(c, err)
	}
	h.Purge.purge(c.Request().Context(), NamespaceSearch)
	return c.NoContent(http.StatusNoContent)
}
