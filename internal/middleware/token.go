package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TokenStore keeps the opaque backend auth token in an HttpOnly cookie.
// The token is never inspected here.
type TokenStore struct {
	cfg CookieConfig
}

func NewTokenStore(cfg CookieConfig) *TokenStore {
	return &TokenStore{cfg: cfg}
}

func (t *TokenStore) Get(c *gin.Context) string {
	token, err := c.Cookie(t.cfg.TokenName)
	if err != nil {
		return ""
	}
	return token
}

func (t *TokenStore) Set(c *gin.Context, token string) {
	t.cfg.set(c, t.cfg.TokenName, token, t.cfg.TokenMaxAge)
}

func (t *TokenStore) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(t.cfg.TokenName, "", -1, "/", t.cfg.Domain, t.cfg.Secure, true)
}
