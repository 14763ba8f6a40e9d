package dashboard

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-web/internal/handler"
	"github.com/jwalitptl/medbook-web/internal/middleware"
	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/service/dashboard"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

type Handler struct {
	svc    *dashboard.Service
	tokens *middleware.TokenStore
}

func NewHandler(svc *dashboard.Service, tokens *middleware.TokenStore) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	d := r.Group("/dashboard")
	{
		d.GET("", h.Show)
		d.POST("/appointments/:id/delete", h.Delete)
		d.GET("/appointments/:id/edit", h.Edit)
		d.POST("/appointments/:id", h.Save)
		d.POST("/modal/close", h.CloseModal)
	}
}

func (h *Handler) render(c *gin.Context, status int, state model.DashboardState, fields map[string]string) {
	handler.Render(c, status, handler.PageDashboard, gin.H{
		"State":  state,
		"Notice": state.Notice,
		"Fields": fields,
	})
}

func (h *Handler) view(c *gin.Context, refresh bool) (model.DashboardState, error) {
	return h.svc.View(c.Request.Context(), middleware.SessionID(c), middleware.SessionFrom(c), h.tokens.Get(c), refresh)
}

func (h *Handler) Show(c *gin.Context) {
	state, err := h.view(c, c.Query("refresh") != "")
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.render(c, http.StatusOK, state, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	err := h.svc.Delete(c.Request.Context(), middleware.SessionID(c), middleware.SessionFrom(c), h.tokens.Get(c), c.Param("id"))
	if err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}
	handler.SeeOther(c, "/dashboard")
}

type editQuery struct {
	Date string `form:"date"`
}

// Edit opens the modal, or moves it to another date when ?date= is given.
func (h *Handler) Edit(c *gin.Context) {
	var q editQuery
	_ = c.ShouldBindQuery(&q)
	if _, err := model.ParseDate(q.Date); err != nil {
		q.Date = ""
	}

	ctx := c.Request.Context()
	sid := middleware.SessionID(c)
	sess := middleware.SessionFrom(c)

	// the list must be loaded before an entry can be edited
	if _, err := h.view(c, false); err != nil {
		_ = c.Error(err)
		return
	}

	state, err := h.svc.OpenEdit(ctx, sid, sess, c.Param("id"), q.Date)
	if errors.Is(err, dashboard.ErrStaleResponse) {
		state, err = h.view(c, false)
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.render(c, http.StatusOK, state, nil)
}

type saveForm struct {
	Date string `form:"date"`
	Slot string `form:"slot"`
}

func (h *Handler) Save(c *gin.Context) {
	var form saveForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid form.", err))
		return
	}

	state, err := h.svc.Save(c.Request.Context(), middleware.SessionID(c), middleware.SessionFrom(c),
		h.tokens.Get(c), c.Param("id"), form.Date, form.Slot)
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			_ = c.Error(apperrors.Internal(err))
			return
		}
		h.render(c, appErr.StatusCode(), state, appErr.Fields)
		return
	}

	handler.SeeOther(c, "/dashboard")
}

func (h *Handler) CloseModal(c *gin.Context) {
	if err := h.svc.CloseEdit(c.Request.Context(), middleware.SessionID(c), middleware.SessionFrom(c)); err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}
	handler.SeeOther(c, "/dashboard")
}
