package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/handler"
	"github.com/jwalitptl/medbook-web/internal/middleware"
	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/service/auth"
	"github.com/jwalitptl/medbook-web/internal/service/session"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

const registeredNotice = "Registration successful. Please log in."

type Handler struct {
	svc      *auth.Service
	sessions *session.Service
	tokens   *middleware.TokenStore
}

func NewHandler(svc *auth.Service, sessions *session.Service, tokens *middleware.TokenStore) *Handler {
	return &Handler{svc: svc, sessions: sessions, tokens: tokens}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.ShowLogin)
	r.POST("/", h.Login)
	r.GET("/register", h.ShowRegister)
	r.POST("/register", h.Register)
	r.POST("/logout", h.Logout)
}

func (h *Handler) ShowLogin(c *gin.Context) {
	data := gin.H{"Form": model.LoginRequest{}}
	if c.Query("registered") != "" {
		data["Notice"] = model.Success(registeredNotice)
	}
	handler.Render(c, http.StatusOK, handler.PageLogin, data)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid login form.", err))
		return
	}

	token, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		status := http.StatusUnauthorized
		if apperrors.HasCode(err, apperrors.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		handler.Render(c, status, handler.PageLogin, gin.H{
			"Form":   model.LoginRequest{Username: req.Username},
			"Fields": apperrors.FieldsOf(err),
			"Error":  loginError(err),
		})
		return
	}

	h.tokens.Set(c, token)
	log.Info().Str("username", req.Username).Msg("user logged in")
	handler.SeeOther(c, "/doctors")
}

func (h *Handler) ShowRegister(c *gin.Context) {
	handler.Render(c, http.StatusOK, handler.PageRegister, gin.H{"Form": model.SignupRequest{}})
}

func (h *Handler) Register(c *gin.Context) {
	var req model.SignupRequest
	if err := c.ShouldBind(&req); err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid registration form.", err))
		return
	}

	token, err := h.svc.Register(c.Request.Context(), req)
	if errors.Is(err, auth.ErrLoginAfterSignup) {
		log.Warn().Err(err).Str("username", req.Username).Msg("registered without session")
		handler.SeeOther(c, "/?registered=1")
		return
	}
	if err != nil {
		status := http.StatusBadRequest
		if apperrors.HasCode(err, apperrors.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		req.Password = ""
		handler.Render(c, status, handler.PageRegister, gin.H{
			"Form":   req,
			"Fields": apperrors.FieldsOf(err),
			"Error":  registerError(err),
		})
		return
	}

	h.tokens.Set(c, token)
	log.Info().Str("username", req.Username).Msg("user registered")
	handler.SeeOther(c, "/doctors")
}

func (h *Handler) Logout(c *gin.Context) {
	h.tokens.Clear(c)
	if err := h.sessions.Clear(c.Request.Context(), middleware.SessionID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	handler.SeeOther(c, "/")
}

func loginError(err error) string {
	if apperrors.HasCode(err, apperrors.ErrValidation) {
		return ""
	}
	return apperrors.MessageOf(err, "Invalid credentials. Please try again.")
}

func registerError(err error) string {
	if apperrors.HasCode(err, apperrors.ErrValidation) {
		return ""
	}
	return apperrors.MessageOf(err, "Registration failed. Please try again.")
}
