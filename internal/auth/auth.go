package auth

import (
	"errors"
	"strings"
)

const (
	RoleStaff    = "staff"
	RoleProvider = "provider"

	MethodPassword = "password"
	MethodToken    = "token"
)

var (
	// ErrInvalidCredentials covers unknown emails, wrong passwords, and
	// disabled accounts when the caller must not learn which it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned where the API contract reports the
	// disabled state explicitly.
	ErrAccountDisabled = errors.New("account disabled")
)

type Principal struct {
	UserID int64
	Email  string
	Role   string // "staff" or "provider"
	Method string // "password" for the web UI, "token" for the API
}

func (p Principal) IsStaff() bool {
	return p.Role == RoleStaff
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail applies the same lenient shape check the registration and
// reset endpoints advertise: something before and after one "@", and a dot
// in the domain part.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return false
	}
	local, domain := email[:at], email[at+1:]
	if local == "" || domain == "" {
		return false
	}
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && dot < len(domain)-1 && !strings.ContainsAny(email, " \t")
}
