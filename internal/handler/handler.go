package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/jwalitptl/medbook-web/internal/middleware"
)

const (
	PageLogin     = "login"
	PageRegister  = "register"
	PageDoctors   = "doctors"
	PageBooking   = "booking"
	PageDashboard = "dashboard"
)

// Render writes page through the "base" layout. The CSRF field, the user
// name for the navigation and an empty Fields map are filled in.
func Render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Page"] = page
	data["CSRFField"] = csrf.TemplateField(c.Request)
	if _, ok := data["UserName"]; !ok {
		data["UserName"] = middleware.UserNameFrom(c)
	}
	if data["Fields"] == nil {
		data["Fields"] = map[string]string{}
	}
	c.HTML(status, "base", data)
}

// SeeOther is the redirect after a successful form post.
func SeeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}
