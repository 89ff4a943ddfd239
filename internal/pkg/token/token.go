// internal/pkg/token/token.go
package token

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// msRoleClaim is the role claim emitted by ASP.NET identity backends.
const msRoleClaim = "http://schemas.microsoft.com/ws/2008/06/identity/claims/role"

// Claims is the identity projection of a credential token.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
	Exp   int64  `json:"exp"` // seconds since epoch, 0 when absent
}

type rawClaims struct {
	Role   string `json:"role,omitempty"`
	MSRole string `json:"http://schemas.microsoft.com/ws/2008/06/identity/claims/role,omitempty"`
	jwt.RegisteredClaims
}

// Decode extracts identity claims from a credential token without verifying
// its signature; the upstream issued and signed it, this side only reads it.
// Any malformation (wrong segment count, bad base64, non-JSON payload) fails
// closed with an error.
func Decode(raw string) (*Claims, error) {
	var rc rawClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &rc); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	role := rc.Role
	if role == "" {
		role = rc.MSRole
	}

	id := rc.ID
	if id == "" {
		id = rc.Subject
	}

	c := &Claims{
		ID:    id,
		Email: rc.Subject,
		Role:  role,
	}
	if rc.ExpiresAt != nil {
		c.Exp = rc.ExpiresAt.Unix()
	}
	return c, nil
}

// Expired reports whether the claims are past their expiry at the given
// instant. A missing expiry counts as expired. No clock-skew tolerance is
// applied.
func (c *Claims) Expired(now time.Time) bool {
	return c.Exp*1000 <= now.UnixMilli()
}

// IsTeacher reports whether the role claim names the teacher role.
func (c *Claims) IsTeacher() bool {
	return strings.EqualFold(c.Role, "teacher")
}

// IsStudent reports whether the role claim names the student role.
func (c *Claims) IsStudent() bool {
	return strings.EqualFold(c.Role, "student")
}
