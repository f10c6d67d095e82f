package auth

import (
	"net/http"
	"strings"
)

const (
	HeaderName = "X-Visitor-Token"
	CookieName = "visitor_token"
)

// TokenFromRequest returns the visitor token from the header, falling back to the
// cookie. An empty result means the caller is anonymous.
func TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := strings.TrimSpace(r.Header.Get(HeaderName)); header != "" {
		return header
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie == nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}

// ValidateRequest extracts and validates the visitor token of r.
func (i *TokenIssuer) ValidateRequest(r *http.Request) (VisitorClaims, error) {
	token := TokenFromRequest(r)
	if token == "" {
		return VisitorClaims{}, ErrMissingToken
	}
	return i.ValidateToken(token)
}
