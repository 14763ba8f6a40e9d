package booking

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medbook-web/internal/handler"
	"github.com/jwalitptl/medbook-web/internal/middleware"
	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/service/booking"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/httputil"
)

type Handler struct {
	svc    *booking.Service
	tokens *middleware.TokenStore
}

func NewHandler(svc *booking.Service, tokens *middleware.TokenStore) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/book-appointment", h.Show)
	r.POST("/book-appointment", h.Submit)
}

func (h *Handler) RegisterAPIRoutes(r *gin.RouterGroup) {
	r.GET("/slots", h.Slots)
}

type slotQuery struct {
	DoctorID string `form:"doctor" binding:"required"`
	Date     string `form:"date"`
}

func (q slotQuery) date() string {
	if _, err := model.ParseDate(q.Date); err != nil {
		return ""
	}
	return q.Date
}

func (h *Handler) open(c *gin.Context, q slotQuery) (model.BookingState, error) {
	sid := middleware.SessionID(c)
	state, err := h.svc.Open(c.Request.Context(), sid, middleware.SessionFrom(c), q.DoctorID, q.date())
	if errors.Is(err, booking.ErrStaleResponse) {
		// a newer request owns the form; show what it stored
		return h.svc.State(c.Request.Context(), sid)
	}
	return state, err
}

func (h *Handler) Show(c *gin.Context) {
	var q slotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperrors.BadRequest("A doctor must be selected.", err))
		return
	}

	state, err := h.open(c, q)
	if err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}
	handler.Render(c, http.StatusOK, handler.PageBooking, gin.H{"State": state})
}

type bookForm struct {
	DoctorID string `form:"doctor" binding:"required"`
	Date     string `form:"date"`
	Slot     string `form:"slot"`
}

func (h *Handler) Submit(c *gin.Context) {
	var form bookForm
	if err := c.ShouldBind(&form); err != nil {
		_ = c.Error(apperrors.BadRequest("A doctor must be selected.", err))
		return
	}

	ctx := c.Request.Context()
	sid := middleware.SessionID(c)
	current, err := h.svc.State(ctx, sid)
	if err != nil {
		_ = c.Error(apperrors.Internal(err))
		return
	}
	if current.DoctorID != form.DoctorID {
		// the form belongs to another doctor; reload it first
		handler.SeeOther(c, "/book-appointment?"+url.Values{"doctor": {form.DoctorID}}.Encode())
		return
	}

	state, err := h.svc.Book(ctx, sid, middleware.SessionFrom(c), h.tokens.Get(c), form.Date, form.Slot)
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			_ = c.Error(apperrors.Internal(err))
			return
		}
		handler.Render(c, appErr.StatusCode(), handler.PageBooking, gin.H{
			"State":  state,
			"Fields": appErr.Fields,
		})
		return
	}

	handler.SeeOther(c, "/dashboard")
}

// Slots is the JSON variant of a date change. A superseded request answers 409.
func (h *Handler) Slots(c *gin.Context) {
	var q slotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithError(c, apperrors.BadRequest("doctor is required", err))
		return
	}

	sid := middleware.SessionID(c)
	state, err := h.svc.Open(c.Request.Context(), sid, middleware.SessionFrom(c), q.DoctorID, q.date())
	if errors.Is(err, booking.ErrStaleResponse) {
		httputil.RespondWithError(c, apperrors.Conflict("superseded by a newer request", err))
		return
	}
	if err != nil {
		httputil.RespondWithError(c, apperrors.Internal(err))
		return
	}

	httputil.RespondWithSuccess(c, gin.H{
		"doctorId": state.DoctorID,
		"date":     state.Date,
		"slots":    state.Slots,
		"slot":     state.Slot,
		"error":    state.Error,
	})
}
