package router

import (
	"html/template"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/jwalitptl/medbook-web/internal/handler/health"
	"github.com/jwalitptl/medbook-web/internal/handler/prometheus"
	"github.com/jwalitptl/medbook-web/internal/middleware"
	apperrors "github.com/jwalitptl/medbook-web/pkg/errors"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type APIHandler interface {
	RegisterAPIRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	Mode           string
	TrustedProxies []string
	Cookies        middleware.CookieConfig
	RateLimit      middleware.RateLimiterConfig
	Security       middleware.SecurityConfig
	SizeLimit      middleware.SizeLimitConfig
	CORSOrigins    []string
	CORSMaxAge     time.Duration
	CSRFKey        []byte
}

type Router struct {
	engine     *gin.Engine
	config     RouterConfig
	gate       *middleware.AuthGate
	authH      Handler
	doctorH    Handler
	bookingH   Handler
	slotsH     APIHandler
	dashboardH Handler
	healthH    *health.Handler
	metrics    *prometheus.Handler
}

func NewRouter(
	config RouterConfig,
	templates *template.Template,
	gate *middleware.AuthGate,
	authH Handler,
	doctorH Handler,
	bookingH interface {
		Handler
		APIHandler
	},
	dashboardH Handler,
	healthH *health.Handler,
	metrics *prometheus.Handler,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}

	engine := gin.New()
	_ = engine.SetTrustedProxies(config.TrustedProxies)
	engine.SetHTMLTemplate(templates)

	r := &Router{
		engine:     engine,
		config:     config,
		gate:       gate,
		authH:      authH,
		doctorH:    doctorH,
		bookingH:   bookingH,
		slotsH:     bookingH,
		dashboardH: dashboardH,
		healthH:    healthH,
		metrics:    metrics,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Recovery(),
		middleware.Logger(),
		metrics.Middleware(),
		middleware.ErrorHandler(),
		middleware.SecurityHeaders(config.Security),
		middleware.NewRateLimiter(config.RateLimit).RateLimit(),
		middleware.SizeLimit(config.SizeLimit),
	)

	return r
}

func (r *Router) Setup() {
	root := r.engine.Group("")

	r.healthH.RegisterRoutes(root)
	root.GET("/health/metrics", r.metrics.Handler())

	pages := root.Group("", middleware.Session(r.config.Cookies))
	r.authH.RegisterRoutes(pages)

	protected := pages.Group("", r.gate.Protect())
	r.doctorH.RegisterRoutes(protected)
	r.bookingH.RegisterRoutes(protected)
	r.dashboardH.RegisterRoutes(protected)

	api := root.Group("/api",
		cors.New(cors.Config{
			AllowOrigins:     r.config.CORSOrigins,
			AllowMethods:     []string{http.MethodGet},
			AllowHeaders:     []string{"Origin", "Accept", "Content-Type", middleware.HeaderXRequestID},
			ExposeHeaders:    []string{middleware.HeaderXRequestID},
			AllowCredentials: true,
			MaxAge:           r.config.CORSMaxAge,
		}),
		middleware.Session(r.config.Cookies),
		r.gate.ProtectAPI(),
	)
	r.slotsH.RegisterAPIRoutes(api)

	r.engine.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NotFound("page", nil))
	})
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Handler wraps the engine with CSRF protection for every state changing request.
func (r *Router) Handler() http.Handler {
	protect := csrf.Protect(r.config.CSRFKey,
		csrf.Secure(r.config.Cookies.Secure),
		csrf.Path("/"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)(r.engine)

	if r.config.Cookies.Secure {
		return protect
	}
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		protect.ServeHTTP(w, csrf.PlaintextHTTPRequest(req))
	})
}

func csrfFailure(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("Forbidden - the form has expired, please go back and try again.\n"))
}
