package http

import (
	"errors"
	stdhttp "net/http"
	"strings"

	"github.com/vovakirdan/ramadan-assistant/internal/auth"
)

const (
	sessionCookieName = "ramadan_session"
	tokenQueryParam   = "token"
)

var errNoToken = errors.New("no session token")

// sessionTokens issues and resolves the signed tokens that bind a visitor to a hub session.
type sessionTokens struct {
	jwt *auth.JWTConfig
}

func newSessionTokens(jwt *auth.JWTConfig) *sessionTokens {
	return &sessionTokens{jwt: jwt}
}

func (s *sessionTokens) issue(sessionID string) (string, error) {
	return auth.GenerateToken(s.jwt, sessionID)
}

// resolve reads the session id from the Authorization header, the cookie or the token query parameter, in that order.
func (s *sessionTokens) resolve(r *stdhttp.Request) (string, error) {
	token := tokenFromRequest(r)
	if token == "" {
		return "", errNoToken
	}
	claims, err := auth.ValidateToken(s.jwt, token)
	if err != nil {
		return "", err
	}
	return claims.SessionID, nil
}

func (s *sessionTokens) setCookie(w stdhttp.ResponseWriter, token string, secure bool) {
	stdhttp.SetCookie(w, &stdhttp.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.jwt.TTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: stdhttp.SameSiteLaxMode,
	})
}

func tokenFromRequest(r *stdhttp.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1]
		}
	}
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return r.URL.Query().Get(tokenQueryParam)
}

func isTokenError(err error) bool {
	return errors.Is(err, auth.ErrInvalidToken)
}
