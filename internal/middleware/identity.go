package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/smartstay/internal/model"
)

// Context keys written by JWTAuth.
const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// CallerFrom returns the authenticated caller stored by JWTAuth.  Both
// fields are empty on unauthenticated routes.
func CallerFrom(c echo.Context) model.Caller {
	id, _ := c.Get(ctxUserID).(string)
	role, _ := c.Get(ctxRole).(string)
	return model.Caller{ID: id, Role: role}
}

// userID is the caller id used in rate limit keys, "anon" when no token
// was presented.
func userID(c echo.Context) string {
	if id := CallerFrom(c).ID; id != "" {
		return id
	}
	return "anon"
}
