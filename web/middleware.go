package web

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-joalistay"
)

type viewData map[string]any

// render adds the layout values every page needs.
func (s *Server) render(c *fiber.Ctx, name, title string, data viewData) error {
	if data == nil {
		data = viewData{}
	}
	session := sessionOf(c)
	data["title"] = title
	data["nav"] = joalistay.NewNavBar(session)
	data["session"] = session
	data["path"] = c.Path()
	if token, ok := c.Locals(localsCSRF).(string); ok {
		data["csrf"] = token
	}
	if v := visitorOf(c); v != nil {
		if msg := v.TakeFlash(); msg != "" {
			data["flash"] = msg
		}
	}
	return c.Render(name, map[string]any(data))
}

// renderDashboard adds the sidebar to render.
func (s *Server) renderDashboard(c *fiber.Ctx, name, title string, data viewData) error {
	if data == nil {
		data = viewData{}
	}
	data["menu"] = joalistay.DashboardMenu(sessionOf(c))
	return s.render(c, name, title, data)
}

// requireSession runs the route guard for the request path. Anonymous
// visitors go to the login route, visitors without a matching role to the
// unauthorized route.
func (s *Server) requireSession(c *fiber.Ctx) error {
	v := visitorOf(c)
	decision := v.client.Guard.Check(c.UserContext(), c.Path())
	s.metrics.ObserveGuard(decision.State.String())

	if !decision.Authorized() {
		s.logger.Debug("Route guard redirect", "path", c.Path(), "state", decision.State.String(), "to", decision.Redirect)
		return c.Redirect(decision.Redirect, fiber.StatusSeeOther)
	}

	c.Locals(localsSession, decision.Session)
	c.SetUserContext(joalistay.WithSession(c.UserContext(), decision.Session))
	return c.Next()
}

// requireBooking renders the booking required page in place when the
// session carries no booking.
func (s *Server) requireBooking(c *fiber.Ctx) error {
	v := visitorOf(c)
	decision := v.client.Booking.Check(c.UserContext())
	if decision.Allowed() {
		return c.Next()
	}

	c.Status(fiber.StatusForbidden)
	return s.render(c, "booking_required", "Booking Required", viewData{
		"links": joalistay.BookingRequiredLinks(),
	})
}

// redirectWithFlash queues msg and sends the visitor to path.
func (s *Server) redirectWithFlash(c *fiber.Ctx, path, msg string) error {
	if v := visitorOf(c); v != nil && msg != "" {
		v.Flash(msg)
	}
	return c.Redirect(path, fiber.StatusSeeOther)
}

// afterAction finishes a dashboard form post: the outcome is flashed and the
// visitor goes back to the listing.
func (s *Server) afterAction(c *fiber.Ctx, path, success string, err error) error {
	if err != nil {
		if joalistay.IsUnauthorized(err) {
			return s.toLogin(c)
		}
		return s.redirectWithFlash(c, path, joalistay.MessageOrFallback(err, "Request failed"))
	}
	return s.redirectWithFlash(c, path, success)
}

// toLogin ends a request whose backend call was rejected. The gateway has
// already navigated in the common case; otherwise the login route is set
// here so the visitor never gets an empty page.
func (s *Server) toLogin(c *fiber.Ctx) error {
	if nav, ok := c.Locals(localsNavigator).(*pageNavigator); ok {
		nav.Navigate(s.cfg.GetLoginRoute())
		return nil
	}
	return c.Redirect(s.cfg.GetLoginRoute(), fiber.StatusSeeOther)
}
