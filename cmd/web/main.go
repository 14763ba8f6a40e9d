package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/config"
	authHandler "github.com/jwalitptl/medbook-web/internal/handler/auth"
	bookingHandler "github.com/jwalitptl/medbook-web/internal/handler/booking"
	dashboardHandler "github.com/jwalitptl/medbook-web/internal/handler/dashboard"
	doctorHandler "github.com/jwalitptl/medbook-web/internal/handler/doctor"
	"github.com/jwalitptl/medbook-web/internal/handler/health"
	"github.com/jwalitptl/medbook-web/internal/handler/prometheus"
	"github.com/jwalitptl/medbook-web/internal/middleware"
	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
	"github.com/jwalitptl/medbook-web/internal/repository/backend"
	sessionStore "github.com/jwalitptl/medbook-web/internal/repository/session"
	"github.com/jwalitptl/medbook-web/internal/router"
	authService "github.com/jwalitptl/medbook-web/internal/service/auth"
	bookingService "github.com/jwalitptl/medbook-web/internal/service/booking"
	dashboardService "github.com/jwalitptl/medbook-web/internal/service/dashboard"
	doctorService "github.com/jwalitptl/medbook-web/internal/service/doctor"
	sessionService "github.com/jwalitptl/medbook-web/internal/service/session"
	"github.com/jwalitptl/medbook-web/internal/web"
	"github.com/jwalitptl/medbook-web/pkg/logger"
	"github.com/jwalitptl/medbook-web/pkg/metrics"
	"github.com/jwalitptl/medbook-web/pkg/reqseq"
	"github.com/jwalitptl/medbook-web/pkg/validator"
)

type stores struct {
	sessions   repository.Store[model.Session]
	bookings   repository.Store[model.BookingState]
	dashboards repository.Store[model.DashboardState]
	seq        *reqseq.Sequencer
	close      func() error
}

func newStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	ttl := cfg.Session.MaxAge
	if cfg.Session.Driver == "memory" {
		return &stores{
			sessions:   sessionStore.NewMemoryStore[model.Session](ttl, 2*ttl),
			bookings:   sessionStore.NewMemoryStore[model.BookingState](ttl, 2*ttl),
			dashboards: sessionStore.NewMemoryStore[model.DashboardState](ttl, 2*ttl),
			seq:        reqseq.New(ttl),
			close:      func() error { return nil },
		}, nil
	}

	client, err := sessionStore.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	return &stores{
		sessions:   sessionStore.NewRedisStore[model.Session](client, "medbook:session:"),
		bookings:   sessionStore.NewRedisStore[model.BookingState](client, "medbook:view:"),
		dashboards: sessionStore.NewRedisStore[model.DashboardState](client, "medbook:view:"),
		seq:        reqseq.NewRedis(client, "medbook:seq:", ttl),
		close:      client.Close,
	}, nil
}

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger.Setup(cfg.Log)

	ctx := context.Background()

	// Metrics
	prom := prometheus.New(cfg.Monitoring.MetricsPrefix)
	m := metrics.NewMetrics(cfg.Monitoring.MetricsPrefix, "web", prom.Registerer())

	// Backend repositories
	client := backend.NewClient(cfg.Backend, m)
	authRepo := backend.NewAuthRepository(client)
	doctorRepo := backend.NewDoctorRepository(client)
	appointmentRepo := backend.NewAppointmentRepository(client)

	// Session stores
	st, err := newStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Session.Driver).Msg("failed to initialize session store")
	}
	defer func() {
		if err := st.close(); err != nil {
			log.Error().Err(err).Msg("failed to close session store")
		}
	}()

	// Initialize services
	sessionSvc := sessionService.NewService(st.sessions, cfg.Session.MaxAge, m)
	authSvc := authService.NewService(authRepo, validator.New())
	doctorSvc := doctorService.NewService(doctorRepo, cfg.App.Location())
	bookingSvc := bookingService.NewService(doctorRepo, appointmentRepo, st.bookings, sessionSvc, st.seq, cfg.App.Location(), cfg.Session.MaxAge, m)
	dashboardSvc := dashboardService.NewService(appointmentRepo, doctorRepo, st.dashboards, st.seq, cfg.Session.MaxAge, m)

	// Initialize middleware
	tokens := middleware.NewTokenStore(cfg.Session.CookieConfig)
	gate := middleware.NewAuthGate(authSvc, sessionSvc, tokens, m)

	templates, err := web.Templates()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	// Setup router
	r := router.NewRouter(
		router.RouterConfig{
			Mode:           cfg.Server.Mode,
			TrustedProxies: cfg.Server.TrustedProxies,
			Cookies:        cfg.Session.CookieConfig,
			RateLimit:      cfg.RateLimit,
			Security:       cfg.Security,
			SizeLimit:      cfg.SizeLimit,
			CORSOrigins:    cfg.CORS.AllowedOrigins,
			CORSMaxAge:     cfg.CORS.MaxAge,
			CSRFKey:        []byte(cfg.Secrets.CSRFKey),
		},
		templates,
		gate,
		authHandler.NewHandler(authSvc, sessionSvc, tokens),
		doctorHandler.NewHandler(doctorSvc, sessionSvc),
		bookingHandler.NewHandler(bookingSvc, tokens),
		dashboardHandler.NewHandler(dashboardSvc, tokens),
		health.NewHandler(sessionSvc, client),
		prom,
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Backend.BaseURL).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}
