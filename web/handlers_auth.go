package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/services"
)

func (s *Server) loginForm(c *fiber.Ctx) error {
	session := sessionOf(c)
	if !session.IsAnonymous() {
		return c.Redirect(joalistay.LandingPath(session), fiber.StatusSeeOther)
	}

	data := viewData{}
	switch {
	case c.Query("reset") != "":
		data["notice"] = "Your password is set, please sign in."
	case c.Query("registered") != "":
		data["notice"] = "Account created, please sign in."
	}
	return s.render(c, "login", "Sign in", data)
}

func (s *Server) login(c *fiber.Ctx) error {
	var req joalistay.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid login form")
	}

	v := visitorOf(c)
	res, err := v.client.Auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		c.Status(fiber.StatusUnauthorized)
		return s.render(c, "login", "Sign in", viewData{
			"email": req.Email,
			"error": joalistay.MessageOrFallback(err, joalistay.ErrLoginFailed.Message),
		})
	}

	return c.Redirect(res.Landing(), fiber.StatusSeeOther)
}

func (s *Server) logout(c *fiber.Ctx) error {
	v := visitorOf(c)
	if err := v.client.Auth.Logout(c.UserContext()); err != nil {
		s.logger.Warn("Logout call failed, local session cleared", "error", err)
	}
	return c.Redirect(s.cfg.GetLoginRoute(), fiber.StatusSeeOther)
}

func (s *Server) initialPasswordForm(c *fiber.Ctx) error {
	return s.render(c, "initial_password", "Set your password", viewData{
		"email": c.Query("email"),
		"code":  c.Query("code"),
	})
}

func (s *Server) initialPassword(c *fiber.Ctx) error {
	var req joalistay.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid password form")
	}

	if req.NewPassword != c.FormValue("confirm_password") {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "initial_password", "Set your password", viewData{
			"email": req.Email,
			"code":  req.TemporaryKey,
			"error": "Passwords do not match.",
		})
	}

	v := visitorOf(c)
	if err := v.client.Auth.ResetInitialPassword(c.UserContext(), req.Email, req.TemporaryKey, req.NewPassword); err != nil {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "initial_password", "Set your password", viewData{
			"email":  req.Email,
			"code":   req.TemporaryKey,
			"error":  joalistay.MessageOrFallback(err, "Failed to set password"),
			"fields": fieldErrors(err),
		})
	}

	return c.Redirect(s.cfg.GetLoginRoute()+"?reset=1", fiber.StatusSeeOther)
}

func (s *Server) registerForm(c *fiber.Ctx) error {
	return s.render(c, "register", "Create account", nil)
}

func (s *Server) register(c *fiber.Ctx) error {
	var req services.CustomerRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid registration form")
	}

	v := visitorOf(c)
	if _, err := v.services.Users.Register(c.UserContext(), req); err != nil {
		c.Status(fiber.StatusBadRequest)
		return s.render(c, "register", "Create account", viewData{
			"form":   req,
			"error":  joalistay.MessageOrFallback(err, "Registration failed"),
			"fields": fieldErrors(err),
		})
	}

	return c.Redirect(s.cfg.GetLoginRoute()+"?registered=1", fiber.StatusSeeOther)
}

func (s *Server) unauthorized(c *fiber.Ctx) error {
	c.Status(fiber.StatusForbidden)
	return s.render(c, "unauthorized", "Access denied", viewData{
		"countdown": int(joalistay.UnauthorizedCountdown.Seconds()),
		"target":    joalistay.UnauthorizedRedirectTarget(sessionOf(c), s.cfg.GetLoginRoute()),
	})
}

// fieldErrors flattens validation errors into "field: message" lines.
func fieldErrors(err error) []string {
	var rich *errors.Error
	if !errors.As(err, &rich) {
		return nil
	}

	var out []string
	for _, fe := range rich.ValidationErrors {
		out = append(out, strings.TrimSpace(fe.Field+": "+fe.Message))
	}
	return out
}
