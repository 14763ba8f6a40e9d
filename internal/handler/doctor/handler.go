package doctor

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-web/internal/handler"
	"github.com/jwalitptl/medbook-web/internal/middleware"
	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/service/doctor"
	"github.com/jwalitptl/medbook-web/internal/service/session"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

type Handler struct {
	svc      *doctor.Service
	sessions *session.Service
}

func NewHandler(svc *doctor.Service, sessions *session.Service) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/doctors", h.List)
	r.POST("/doctors/book", h.Book)
}

func (h *Handler) List(c *gin.Context) {
	var q doctor.Query
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.BadRequest("Invalid search.", err))
		return
	}

	view := h.svc.Browse(c.Request.Context(), q)
	handler.Render(c, http.StatusOK, handler.PageDoctors, gin.H{"View": view})
}

type bookForm struct {
	DoctorID string `form:"doctorId" binding:"required"`
	Date     string `form:"date"`
}

// Book hands the chosen date over to the booking page through the session.
func (h *Handler) Book(c *gin.Context) {
	var form bookForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(apperrors.BadRequest("Please choose a doctor.", err))
		return
	}

	date := form.Date
	if _, err := model.ParseDate(date); err != nil {
		date = h.svc.Today()
	}
	if err := h.sessions.SetSelectedBookingDate(c.Request.Context(), middleware.SessionID(c), date); err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}

	handler.SeeOther(c, "/book-appointment?"+url.Values{"doctor": {form.DoctorID}}.Encode())
}
