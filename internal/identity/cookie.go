package identity

import (
	"net/http"
)

// TokenFromRequest returns the session token carried by r, if any.
func (p *Provider) TokenFromRequest(r *http.Request) (string, bool) {
	c, err := r.Cookie(p.cookie.CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

// SetSessionCookie writes the cookie for a freshly issued token.
func (p *Provider) SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, p.newCookie(token, int(p.cookie.TTL.Seconds())))
}

// ClearSessionCookie expires the session cookie in the browser.
func (p *Provider) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, p.newCookie("", -1))
}

func (p *Provider) newCookie(value string, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if p.cookie.CookieSecure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     p.cookie.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   p.cookie.CookieDomain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   p.cookie.CookieSecure,
		SameSite: sameSite,
	}
}
