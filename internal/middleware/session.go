package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ContextSessionID = "session_id"

type CookieConfig struct {
	SessionName string        `mapstructure:"cookie_name"`
	TokenName   string        `mapstructure:"token_cookie_name"`
	Domain      string        `mapstructure:"cookie_domain"`
	Secure      bool          `mapstructure:"secure"`
	MaxAge      time.Duration `mapstructure:"ttl"`
	TokenMaxAge time.Duration `mapstructure:"token_ttl"`
}

func (cfg CookieConfig) set(c *gin.Context, name, value string, maxAge time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, int(maxAge.Seconds()), "/", cfg.Domain, cfg.Secure, true)
}

// Session makes sure every browser carries a session id cookie.
func Session(cfg CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(cfg.SessionName)
		if _, perr := uuid.Parse(sid); err != nil || perr != nil {
			sid = uuid.New().String()
		}
		// sliding expiry
		cfg.set(c, cfg.SessionName, sid, cfg.MaxAge)
		c.Set(ContextSessionID, sid)
		c.Next()
	}
}

func SessionID(c *gin.Context) string {
	return c.GetString(ContextSessionID)
}
