package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog/log"

	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
	"github.com/jwalitptl/medbook-web/pkg/httputil"
)

// ErrorHandler renders the last error attached with c.Error, unless the
// handler already wrote a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		for _, e := range c.Errors {
			log.Error().
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("path", c.Request.URL.Path).
				Str("method", c.Request.Method).
				Msg("Request error")
		}

		if c.Writer.Written() {
			return
		}
		respondError(c, c.Errors.Last().Err)
	}
}

// WantsJSON reports whether the response should be JSON rather than a page.
func WantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return c.NegotiateFormat(gin.MIMEHTML, gin.MIMEJSON) == gin.MIMEJSON
}

func respondError(c *gin.Context, err error) {
	if WantsJSON(c) {
		httputil.RespondWithError(c, err)
		return
	}

	status := http.StatusInternalServerError
	message := "Something went wrong. Please try again."
	var appErr *apperrors.AppError
	if stderrors.As(err, &appErr) {
		status = appErr.StatusCode()
		if status < http.StatusInternalServerError && appErr.Message != "" {
			message = appErr.Message
		}
	}

	c.HTML(status, "base", gin.H{
		"Page":      "error",
		"Status":    status,
		"Message":   message,
		"UserName":  UserNameFrom(c),
		"CSRFField": csrf.TemplateField(c.Request),
		"TraceID":   c.GetString(ContextRequestID),
	})
}
