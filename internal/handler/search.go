package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/smartstay/internal/service"
)

// SearchHandler serves GET /search?q=.
type SearchHandler struct {
	base
	Search *service.SearchService
}

func NewSearchHandler(search *service.SearchService, log *zap.Logger) *SearchHandler {
	return &SearchHandler{base: newBase(log), Search: search}
}

func (h *SearchHandler) Global(c echo.Context) error {
	res, err := h.Search.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
