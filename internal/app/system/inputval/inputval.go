// internal/app/system/inputval/inputval.go
package inputval

import (
	"net/mail"
	"strings"
)

// IsValidEmail reports whether s is a bare address (no display name) with a
// well-formed local part and domain. Single-label domains are accepted.
func IsValidEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s || strings.ContainsAny(s, " \t\r\n") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Name != "" || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 || at == len(s)-1 {
		return false
	}
	return dotAtomOK(s[:at]) && dotAtomOK(s[at+1:])
}

// dotAtomOK rejects leading, trailing and doubled dots.
func dotAtomOK(part string) bool {
	return !strings.HasPrefix(part, ".") &&
		!strings.HasSuffix(part, ".") &&
		!strings.Contains(part, "..")
}
