// Package httpapp wires the echo server: public JSON API, token-guarded
// provider API, and the session-guarded staff pages.
package httpapp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/providerhub/providerhub/internal/config"
	"github.com/providerhub/providerhub/internal/directory"
	"github.com/providerhub/providerhub/internal/http/authn"
	"github.com/providerhub/providerhub/internal/http/handlers"
	"github.com/providerhub/providerhub/internal/mail"
	"github.com/providerhub/providerhub/internal/metrics"
	"github.com/providerhub/providerhub/internal/store"
)

// EchoServer is the HTTP server wrapper.
type EchoServer struct {
	h   *handlers.Handlers
	e   *echo.Echo
	srv *http.Server
}

// NewEchoServer creates a new HTTP server.
func NewEchoServer(cfg config.Config, s store.Store, sessions *scs.SessionManager, mailer mail.Mailer) (*EchoServer, error) {
	h := &handlers.Handlers{
		Cfg:       cfg,
		Store:     s,
		Sessions:  sessions,
		Mailer:    mailer,
		Directory: directory.New(s),
	}
	es := &EchoServer{h: h, e: echo.New()}
	es.registerRoutes()
	return es, nil
}

func (es *EchoServer) registerRoutes() {
	es.e.Use(middleware.RequestID())
	es.e.Use(propagateRequestID)
	es.e.Use(observeRequest)

	es.e.GET("/healthz", func(c *echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// Public JSON API: registration, login, account recovery, lookups.
	api := es.e.Group("/api")
	api.POST("/login/", es.h.HandleAPILogin)
	api.POST("/providers/", es.h.HandleAPIRegisterProvider)
	api.POST("/activate/", es.h.HandleAPIActivate)
	api.POST("/resend-activation-link/", es.h.HandleAPIResendActivation)
	api.POST("/password-reset-request/", es.h.HandleAPIPasswordResetRequest)
	api.POST("/password-reset-check/", es.h.HandleAPIPasswordResetCheck)
	api.POST("/password-reset/", es.h.HandleAPIPasswordReset)
	api.GET("/providers/", es.h.HandleAPIListProviders)
	api.GET("/providers/:id/", es.h.HandleAPIGetProvider)
	api.GET("/provider-types/", es.h.HandleAPIProviderTypes)
	api.GET("/service-types/", es.h.HandleAPIServiceTypes)
	api.GET("/service-areas/", es.h.HandleAPIServiceAreas)
	api.GET("/directory/", es.h.HandleAPIListDirectory)

	// Token-guarded provider API.
	authed := es.e.Group("/api", authn.RequireToken(es.h.Store))
	authed.GET("/providers/me/", es.h.HandleAPICurrentProvider)
	authed.POST("/services/", es.h.HandleAPISubmitService)
	authed.GET("/services/", es.h.HandleAPIListOwnServices)
	authed.POST("/services/:id/cancel/", es.h.HandleAPICancelService)

	// Staff web UI: session cookie plus CSRF.
	web := es.e.Group("")
	if es.h.Sessions != nil {
		web.Use(echo.WrapMiddleware(es.h.Sessions.LoadAndSave))
	}
	web.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:" + echo.HeaderXCSRFToken + ",form:csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   es.h.Cfg.AuthCookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	}))
	web.GET("/login", es.h.HandleLoginGet)
	web.POST("/login", es.h.HandleLoginPost)
	web.POST("/logout", es.h.HandleLogoutPost)

	staff := web.Group("", authn.RequireSession(es.h.Sessions, es.h.Store), authn.RequireStaff())
	staff.GET("/", es.h.HandleDashboard)
	staff.POST("/services/:id/approve", es.h.HandleApproveService)
	staff.POST("/services/:id/reject", es.h.HandleRejectService)

	es.e.Static("/static", "web/static")
}

func propagateRequestID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
			c.Set(handlers.ContextKeyRequestID, id)
		}
		return next(c)
	}
}

func observeRequest(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c *echo.Context) error {
		start := time.Now()
		err := next(c)

		path := c.Path()
		if path == "" {
			path = c.Request().URL.Path
		}
		status := http.StatusOK
		if res, uerr := echo.UnwrapResponse(c.Response()); uerr == nil {
			status = res.Status
		}
		if err != nil {
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			} else if status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
		}
		metrics.RequestDuration.
			WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

// ServeHTTP lets tests drive the router without a listener.
func (es *EchoServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	es.e.ServeHTTP(w, r)
}

// Start starts the HTTP server.
func (es *EchoServer) Start(addr string) error {
	return es.e.Start(addr)
}

// StartServer starts the HTTP server with a custom http.Server.
func (es *EchoServer) StartServer(server *http.Server) error {
	server.Handler = es.e
	es.srv = server
	return server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server.
func (es *EchoServer) Shutdown(ctx context.Context) error {
	if es.srv == nil {
		return nil
	}
	return es.srv.Shutdown(ctx)
}
