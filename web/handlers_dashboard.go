package web

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/services"
)

// option is a select entry for templates, which print ints without their
// String method.
type option struct {
	Value int
	Label string
}

func statusOptions() []option {
	out := []option{}
	for _, st := range services.OrderStatuses() {
		out = append(out, option{Value: int(st), Label: st.String()})
	}
	return out
}

func roleOptions() []option {
	out := []option{}
	for _, r := range []services.StaffRole{services.StaffRoleAdmin, services.StaffRoleManager, services.StaffRoleStaff} {
		out = append(out, option{Value: int(r), Label: r.String()})
	}
	return out
}

func (s *Server) dashboard(c *fiber.Ctx) error {
	return s.renderDashboard(c, "dashboard", "Dashboard", nil)
}

func (s *Server) users(c *fiber.Ctx) error {
	v := visitorOf(c)
	return s.renderDashboard(c, "dashboard_users", "Users", viewData{
		"users": v.services.Users.All(c.UserContext()),
	})
}

func (s *Server) toggleUser(c *fiber.Ctx) error {
	v := visitorOf(c)
	_, err := v.services.Users.Toggle(c.UserContext(), c.FormValue("email"))
	return s.afterAction(c, "/dashboard/users", "User updated", err)
}

func (s *Server) staffs(c *fiber.Ctx) error {
	v := visitorOf(c)
	ctx := c.UserContext()

	var staff []services.User
	for _, u := range v.services.Users.All(ctx) {
		if !strings.EqualFold(u.Role, joalistay.RoleCustomer.String()) {
			staff = append(staff, u)
		}
	}

	return s.renderDashboard(c, "dashboard_staffs", "Staffs", viewData{
		"staff":         staff,
		"organizations": v.services.Organizations.List(ctx, nil),
		"roles":         roleOptions(),
	})
}

func (s *Server) createStaff(c *fiber.Ctx) error {
	var req services.CreateStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid staff form")
	}
	// managers add staff to their own organization
	if req.OrgID == nil || *req.OrgID == 0 {
		req.OrgID = sessionOf(c).OrgID
	}

	v := visitorOf(c)
	_, err := v.services.Users.CreateStaff(c.UserContext(), req)
	return s.afterAction(c, "/dashboard/staffs", "Staff member created", err)
}

func (s *Server) setStaffRole(c *fiber.Ctx) error {
	role, err := services.ParseStaffRole(c.FormValue("role"))
	if err != nil {
		return s.afterAction(c, "/dashboard/staffs", "", err)
	}

	v := visitorOf(c)
	_, err = v.services.Users.SetStaffRole(c.UserContext(), c.FormValue("email"), role)
	return s.afterAction(c, "/dashboard/staffs", "Role updated", err)
}

func (s *Server) organizations(c *fiber.Ctx) error {
	v := visitorOf(c)
	return s.renderDashboard(c, "dashboard_organizations", "Organizations", viewData{
		"organizations": v.services.Organizations.List(c.UserContext(), nil),
	})
}

func (s *Server) createOrganization(c *fiber.Ctx) error {
	var req services.CreateOrganizationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid organization form")
	}

	v := visitorOf(c)
	_, err := v.services.Organizations.Create(c.UserContext(), req)
	return s.afterAction(c, "/dashboard/organizations", "Organization created", err)
}

func (s *Server) toggleOrganization(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}

	v := visitorOf(c)
	_, err = v.services.Organizations.Toggle(c.UserContext(), id)
	return s.afterAction(c, "/dashboard/organizations", "Organization updated", err)
}

func (s *Server) serviceTypes(c *fiber.Ctx) error {
	v := visitorOf(c)
	return s.renderDashboard(c, "dashboard_service_types", "Service Types", viewData{
		"types": v.services.Catalog.ServiceTypes(c.UserContext()),
	})
}

func (s *Server) createServiceType(c *fiber.Ctx) error {
	var t services.ServiceType
	if err := c.BodyParser(&t); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid service type form")
	}

	v := visitorOf(c)
	_, err := v.services.Catalog.CreateServiceType(c.UserContext(), t)
	return s.afterAction(c, "/dashboard/service-types", "Service type created", err)
}

func (s *Server) catalog(c *fiber.Ctx) error {
	v := visitorOf(c)
	ctx := c.UserContext()

	filters := services.ServiceFilters{}
	if orgID := c.QueryInt("orgId"); orgID > 0 {
		filters.OrgID = &orgID
	} else if session := sessionOf(c); session.StaffRoleLabel == joalistay.RoleManager.String() {
		filters.OrgID = session.OrgID
	}

	return s.renderDashboard(c, "dashboard_services", "Services", viewData{
		"services":      v.services.Catalog.Services(ctx, filters),
		"types":         v.services.Catalog.ServiceTypes(ctx),
		"organizations": v.services.Organizations.List(ctx, nil),
	})
}

func (s *Server) createService(c *fiber.Ctx) error {
	var svc services.Service
	if err := c.BodyParser(&svc); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid service form")
	}
	if svc.OrgID == 0 {
		if org := sessionOf(c).OrgID; org != nil {
			svc.OrgID = *org
		}
	}

	v := visitorOf(c)
	_, err := v.services.Catalog.CreateService(c.UserContext(), svc)
	return s.afterAction(c, "/dashboard/services", "Service created", err)
}

func (s *Server) toggleService(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}

	v := visitorOf(c)
	_, err = v.services.Catalog.ToggleService(c.UserContext(), id)
	return s.afterAction(c, "/dashboard/services", "Service updated", err)
}

// manageBookings lists the orders of the session's organization, optionally
// narrowed by status and a search term.
func (s *Server) manageBookings(c *fiber.Ctx) error {
	v := visitorOf(c)
	ctx := c.UserContext()
	session := sessionOf(c)

	var status *services.OrderStatus
	if raw := c.Query("status"); raw != "" {
		if st, err := services.ParseOrderStatus(raw); err == nil {
			status = &st
		}
	}

	data := viewData{
		"statuses": statusOptions(),
		"status":   c.Query("status"),
		"q":        c.Query("q"),
	}

	if session.OrgID == nil {
		data["error"] = "Your account is not linked to an organization."
		data["orders"] = []orderRow{}
		return s.renderDashboard(c, "dashboard_bookings", "Manage Bookings", data)
	}

	orders, err := v.services.Orders.ForOrganization(ctx, session.OrgID, status)
	if err != nil {
		if joalistay.IsUnauthorized(err) {
			return s.toLogin(c)
		}
		data["error"] = joalistay.MessageOrFallback(err, "Failed to fetch all orders")
	}

	users := services.UserNames(v.services.Users.All(ctx))
	data["orders"] = orderRows(services.SearchOrders(orders, c.Query("q"), users), users)
	return s.renderDashboard(c, "dashboard_bookings", "Manage Bookings", data)
}

func (s *Server) updateBookingStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return fiber.ErrNotFound
	}

	status, err := services.ParseOrderStatus(c.FormValue("status"))
	if err != nil {
		return s.afterAction(c, "/dashboard/manage-bookings", "", err)
	}

	v := visitorOf(c)
	_, err = v.services.Orders.UpdateStatus(c.UserContext(), id, status)
	return s.afterAction(c, "/dashboard/manage-bookings", "Order #"+c.Params("id")+" marked "+status.String(), err)
}
