package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/model"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/httputil"
	"github.com/jwalitptl/medbook-web/pkg/metrics"
)

const (
	ContextAuthState = "auth_state"
	ContextSession   = "session"
)

type TokenVerifier interface {
	Verify(ctx context.Context, token string) model.VerifyResult
}

type SessionUpdater interface {
	Update(ctx context.Context, id string, fn func(*model.Session)) (model.Session, error)
}

// AuthGate guards protected routes. It validates the token cookie with the
// backend on every protected request and keeps Session.UserName in step with
// the result. Nothing downstream runs until the state is resolved.
type AuthGate struct {
	verifier TokenVerifier
	sessions SessionUpdater
	tokens   *TokenStore
	metrics  *metrics.Metrics
}

func NewAuthGate(verifier TokenVerifier, sessions SessionUpdater, tokens *TokenStore, m *metrics.Metrics) *AuthGate {
	return &AuthGate{verifier: verifier, sessions: sessions, tokens: tokens, metrics: m}
}

func (g *AuthGate) resolve(c *gin.Context) (model.AuthState, error) {
	c.Set(ContextAuthState, model.AuthPending)
	sid := SessionID(c)

	res := g.verifier.Verify(c.Request.Context(), g.tokens.Get(c))
	state := model.AuthUnauthenticated
	name := ""
	if res.Valid {
		state = model.AuthAuthenticated
		name = res.Decoded.Username
	}

	sess, err := g.sessions.Update(c.Request.Context(), sid, func(s *model.Session) {
		s.UserName = name
	})
	if err != nil {
		return model.AuthPending, err
	}

	g.metrics.Gate(state.String())
	c.Set(ContextAuthState, state)
	c.Set(ContextSession, sess)
	return state, nil
}

// Protect redirects unauthenticated browsers to the login page.
func (g *AuthGate) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := g.resolve(c)
		if err != nil {
			c.Abort()
			_ = c.Error(apperrors.Internal(err))
			return
		}
		if state != model.AuthAuthenticated {
			log.Debug().Str("path", c.Request.URL.Path).Msg("auth gate redirect")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// ProtectAPI answers 401 instead of redirecting.
func (g *AuthGate) ProtectAPI() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := g.resolve(c)
		if err != nil {
			c.Abort()
			_ = c.Error(apperrors.Internal(err))
			return
		}
		if state != model.AuthAuthenticated {
			c.Abort()
			httputil.RespondWithError(c, apperrors.Unauthorized("", nil))
			return
		}
		c.Next()
	}
}

func AuthStateFrom(c *gin.Context) model.AuthState {
	if v, ok := c.Get(ContextAuthState); ok {
		if s, ok := v.(model.AuthState); ok {
			return s
		}
	}
	return model.AuthPending
}

// SessionFrom returns the session resolved by the gate.
func SessionFrom(c *gin.Context) model.Session {
	if v, ok := c.Get(ContextSession); ok {
		if s, ok := v.(model.Session); ok {
			return s
		}
	}
	return model.Session{}
}

func UserNameFrom(c *gin.Context) string {
	return SessionFrom(c).UserName
}
