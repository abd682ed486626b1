package model

// Roles carried in the "role" claim of the bearer token.
const (
	RoleStudent = "STUDENT"
	RoleAdmin   = "ADMIN"
)

// Caller identifies the authenticated user behind a request.  Tokens are
// issued by the identity provider; this service only verifies them.
//
// Fields:
//
//   - ID: the token subject (student id or admin id).
//   - Role: STUDENT or ADMIN.
type Caller struct {
	ID   string
	Role string
}

// IsAdmin reports whether the caller holds the ADMIN role.
func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
