// Package httpserver manages server creation and api routing.
package httpserver

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/go-petr/bankist/internal/accountrepo"
	"github.com/go-petr/bankist/internal/dashboarddelivery"
	"github.com/go-petr/bankist/internal/metrics"
	"github.com/go-petr/bankist/internal/middleware"
	"github.com/go-petr/bankist/internal/sessionservice"
	"github.com/go-petr/bankist/pkg/configpkg"
	"github.com/go-petr/bankist/pkg/formatpkg"
	"github.com/go-petr/bankist/pkg/schedulepkg"
)

// Server holds the accounts, the session service, handlers router and configuration.
type Server struct {
	Accounts *accountrepo.RepoMem
	Service  *sessionservice.Service
	Engine   *gin.Engine
	Config   configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

var (
	setupOnce sync.Once
	setupErr  error
)

// setup configures the process wide gin state once.
func setup() error {
	setupOnce.Do(func() {
		gin.SetMode(gin.ReleaseMode)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := v.RegisterValidation("amount", dashboarddelivery.ValidAmount); err != nil {
				setupErr = errors.New("cannot register amount validator")
			}
		}
	})

	return setupErr
}

// New creates Server type with instantiated domains and routes.
func New(
	accounts *accountrepo.RepoMem,
	scheduler schedulepkg.Scheduler,
	registry *prometheus.Registry,
	logger zerolog.Logger,
	config configpkg.Config,
) (*Server, error) {
	if err := setup(); err != nil {
		return nil, err
	}

	recorder := metrics.New(registry)
	sessionService := sessionservice.New(accounts, config, scheduler, recorder)
	dashboardHandler := dashboarddelivery.NewHandler(sessionService, formatpkg.Locale{}, scheduler)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/login", dashboardHandler.Login)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	sessionRoutes := engine.Group("/").Use(middleware.RequireSession(sessionService))

	sessionRoutes.GET("/dashboard", dashboardHandler.Dashboard)
	sessionRoutes.POST("/logout", dashboardHandler.Logout)
	sessionRoutes.POST("/transfers", dashboardHandler.Transfer)
	sessionRoutes.POST("/loans", dashboardHandler.RequestLoan)
	sessionRoutes.POST("/close", dashboardHandler.Close)
	sessionRoutes.POST("/sort", dashboardHandler.ToggleSort)

	server := &Server{
		Accounts: accounts,
		Service:  sessionService,
		Engine:   engine,
		Config:   config,
	}

	return server, nil
}
