// Package web is the server rendered JoaliStay front end. Every browser gets
// a visitor cookie; the visitor owns a joalistay.Client whose session lives
// in the shared store under the visitor's prefix.
package web

import (
	"context"
	"embed"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/django/v3"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/activitymap"
	"github.com/goliatone/go-joalistay/config"
	"github.com/goliatone/go-joalistay/metrics"
	"github.com/goliatone/go-joalistay/storage"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed views
var viewsFS embed.FS

const (
	localsVisitor   = "joalistay.visitor"
	localsNavigator = "joalistay.navigator"
	localsSession   = "joalistay.session"
	localsCSRF      = "joalistay.csrf"

	csrfField = "_token"

	headerRequestID = "X-Request-ID"
)

// Options wires the server. Config and Store are required.
type Options struct {
	Config     *config.Config
	Store      storage.KV
	Logger     joalistay.Logger
	Registry   *prometheus.Registry
	HTTPClient *http.Client
	Policy     *joalistay.RouteAccessPolicy
}

type Server struct {
	app      *fiber.App
	cfg      *config.Config
	logger   joalistay.Logger
	metrics  *metrics.Metrics
	visitors *visitors
}

// New builds the fiber app and registers every route.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("web server requires a config", errors.CategoryBadInput)
	}
	if opts.Store == nil {
		return nil, errors.New("web server requires a session store", errors.CategoryBadInput)
	}

	registry := opts.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	policy := opts.Policy
	if policy == nil {
		policy = joalistay.DefaultRoutePolicy()
	}

	s := &Server{
		cfg:     opts.Config,
		logger:  opts.Logger,
		metrics: metrics.New(registry),
	}
	if s.logger == nil {
		s.logger = silentLogger{}
	}

	s.visitors = newVisitors(s.visitorTTL(), func(id string) *visitor {
		store := storage.NewPrefixed(opts.Store, "visitor:"+id)
		client := joalistay.NewClientWithPolicy(opts.Config, store, policy).
			WithLogger(s.logger).
			WithObserver(s.metrics).
			WithActivitySink(activitymap.NewLogSink(s.logger, activitymap.WithChannel("web"), activitymap.WithVisitor(id))).
			WithDebug(opts.Config.Debug)
		if opts.HTTPClient != nil {
			client.WithHTTPClient(opts.HTTPClient)
		}
		return newVisitor(id, client, s.logger)
	})

	engine := django.NewPathForwardingFileSystem(http.FS(viewsFS), "/views", ".html")

	s.app = fiber.New(fiber.Config{
		AppName:               "joalistay",
		Views:                 engine,
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	s.app.Use(recover.New())
	s.app.Use(s.requestLog)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.app.Use(s.bindVisitor)
	s.app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfField,
		CookieName:     s.cookieName() + "_csrf",
		CookieSameSite: "Lax",
		CookieSecure:   opts.Config.Server.Secure,
		CookieHTTPOnly: true,
		Expiration:     s.visitorTTL(),
		ContextKey:     localsCSRF,
	}))

	s.routes()

	return s, nil
}

// App exposes the fiber app, mostly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves until ctx is done.
func (s *Server) Listen(ctx context.Context, addr string) error {
	if addr == "" {
		addr = s.cfg.Server.Listen
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Front end listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (s *Server) requestLog(c *fiber.Ctx) error {
	id := c.Get(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(headerRequestID, id)

	start := time.Now()
	err := c.Next()
	s.logger.Debug("Request served",
		"id", id,
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration", time.Since(start),
	)
	return err
}

// bindVisitor resolves the visitor from its cookie and arms a navigator for
// the request. When the gateway forces a logout mid request the response
// turns into a redirect to the navigated route.
func (s *Server) bindVisitor(c *fiber.Ctx) error {
	id := c.Cookies(s.cookieName())
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
		c.Cookie(&fiber.Cookie{
			Name:     s.cookieName(),
			Value:    id,
			Path:     "/",
			HTTPOnly: true,
			Secure:   s.cfg.Server.Secure,
			SameSite: fiber.CookieSameSiteLaxMode,
			Expires:  time.Now().Add(s.visitorTTL()),
		})
	}

	v := s.visitors.get(id)
	nav := &pageNavigator{}

	c.SetUserContext(joalistay.WithNavigator(c.UserContext(), nav))
	c.Locals(localsVisitor, v)
	c.Locals(localsNavigator, nav)

	err := c.Next()
	if target := nav.Target(); target != "" {
		c.Response().ResetBody()
		return c.Redirect(target, fiber.StatusSeeOther)
	}
	return err
}

func (s *Server) cookieName() string {
	if s.cfg.Server.CookieName == "" {
		return config.DefaultCookieName
	}
	return s.cfg.Server.CookieName
}

func (s *Server) visitorTTL() time.Duration {
	if s.cfg.Server.VisitorTTL <= 0 {
		return config.DefaultVisitorTTL
	}
	return s.cfg.Server.VisitorTTL
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := joalistay.MessageOrFallback(err, "Something went wrong")

	var ferr *fiber.Error
	var rich *errors.Error
	switch {
	case errors.As(err, &ferr):
		code = ferr.Code
	case errors.As(err, &rich) && rich.Code >= 400:
		code = rich.Code
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("Request failed", "path", c.Path(), "error", err)
	}

	c.Status(code)
	return c.Render("error", map[string]any{
		"title":   "Error",
		"code":    code,
		"message": message,
		"nav":     joalistay.NewNavBar(sessionOf(c)),
	})
}

// pageNavigator records the first navigation of a request.
type pageNavigator struct {
	target string
}

func (n *pageNavigator) Navigate(path string) {
	if n.target == "" {
		n.target = path
	}
}

func (n *pageNavigator) Target() string {
	return n.target
}

type silentLogger struct{}

func (silentLogger) Debug(string, ...any) {}
func (silentLogger) Info(string, ...any)  {}
func (silentLogger) Warn(string, ...any)  {}
func (silentLogger) Error(string, ...any) {}
