package cart

import "strings"

// Scope is the identity partition a cart is stored under.
type Scope string

// Guest is the scope of a shopper who is not logged in.
const Guest Scope = "guest"

const userPrefix = "user:"

// UserScope is the scope of an authenticated user.
func UserScope(userID string) Scope {
	return Scope(userPrefix + userID)
}

// UserID returns the user a scope belongs to; ok is false for Guest.
func (s Scope) UserID() (string, bool) {
	id, ok := strings.CutPrefix(string(s), userPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Valid reports whether s is Guest or a well-formed user scope.
func (s Scope) Valid() bool {
	if s == Guest {
		return true
	}
	_, ok := s.UserID()
	return ok
}
