package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

type SizeLimitConfig struct {
	MaxBodySize   int64 `mapstructure:"max_body_size"`
	MaxHeaderSize int   `mapstructure:"max_header_size"`
}

func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxBodySize:   64 << 10, // forms only, no uploads
		MaxHeaderSize: 1 << 14,
	}
}

// SizeLimit refuses oversized requests and caps how much of the body a
// handler can read.
func SizeLimit(config SizeLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.MaxBodySize > 0 {
			if c.Request.ContentLength > config.MaxBodySize {
				c.Abort()
				respondError(c, apperrors.PayloadTooLarge())
				return
			}
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxBodySize)
		}

		if config.MaxHeaderSize > 0 {
			size := 0
			for name, values := range c.Request.Header {
				size += len(name)
				for _, v := range values {
					size += len(v)
				}
			}
			if size > config.MaxHeaderSize {
				c.Abort()
				respondError(c, apperrors.PayloadTooLarge())
				return
			}
		}

		c.Next()
	}
}
