package web

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/services"
)

// Organization type of resorts, and the service types sold on each page.
const (
	hotelOrgType = 1

	roomServiceType = 1
)

type ticketKind struct {
	Slug        string
	Title       string
	ServiceType int
}

var ticketKinds = []ticketKind{
	{Slug: "ferry-booking", Title: "Ferry Tickets", ServiceType: 3},
	{Slug: "themepark", Title: "Theme Park", ServiceType: 2},
	{Slug: "beach-events", Title: "Beach Events", ServiceType: 4},
}

func findTicketKind(slug string) (ticketKind, bool) {
	for _, k := range ticketKinds {
		if k.Slug == slug {
			return k, true
		}
	}
	return ticketKind{}, false
}

func (s *Server) landing(c *fiber.Ctx) error {
	return s.render(c, "index", "JoaliStay", nil)
}

func (s *Server) about(c *fiber.Ctx) error {
	return s.render(c, "about", "About", nil)
}

func (s *Server) hotels(c *fiber.Ctx) error {
	v := visitorOf(c)
	orgType := hotelOrgType
	return s.render(c, "hotels", "Hotels", viewData{
		"hotels": v.services.Organizations.List(c.UserContext(), &orgType),
	})
}

func (s *Server) rooms(c *fiber.Ctx) error {
	hotelID, err := c.ParamsInt("hotelId")
	if err != nil || hotelID <= 0 {
		return fiber.ErrNotFound
	}

	v := visitorOf(c)
	typeID := roomServiceType
	hotel, _ := v.services.Organizations.Get(c.UserContext(), hotelID)

	return s.render(c, "rooms", "Rooms", viewData{
		"hotel":   hotel,
		"hotelId": hotelID,
		"rooms":   v.services.Catalog.Services(c.UserContext(), services.ServiceFilters{OrgID: &hotelID, TypeID: &typeID}),
	})
}

func (s *Server) bookRoom(c *fiber.Ctx) error {
	return s.placeOrder(c, c.Path())
}

func (s *Server) tickets(c *fiber.Ctx) error {
	return s.render(c, "tickets", "Tickets", viewData{
		"kinds": ticketKinds,
	})
}

func (s *Server) ticketPage(c *fiber.Ctx) error {
	kind, ok := findTicketKind(c.Params("kind"))
	if !ok {
		return fiber.ErrNotFound
	}

	v := visitorOf(c)
	typeID := kind.ServiceType
	return s.render(c, "ticket", kind.Title, viewData{
		"kind":     kind,
		"services": v.services.Catalog.Services(c.UserContext(), services.ServiceFilters{TypeID: &typeID}),
	})
}

func (s *Server) bookTicket(c *fiber.Ctx) error {
	if _, ok := findTicketKind(c.Params("kind")); !ok {
		return fiber.ErrNotFound
	}
	return s.placeOrder(c, c.Path())
}

type orderForm struct {
	ServiceID    int    `form:"service_id"`
	Quantity     int    `form:"quantity"`
	ScheduledFor string `form:"scheduled_for"`
}

// placeOrder books the posted service and continues to payment.
func (s *Server) placeOrder(c *fiber.Ctx, back string) error {
	var form orderForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid booking form")
	}

	when, err := time.Parse("2006-01-02", strings.TrimSpace(form.ScheduledFor))
	if err != nil {
		return s.redirectWithFlash(c, back, "Please pick a valid date")
	}
	if form.Quantity <= 0 {
		form.Quantity = 1
	}

	v := visitorOf(c)
	id, err := v.services.Orders.Place(c.UserContext(), services.NewPlaceOrderRequest(form.ServiceID, form.Quantity, when))
	if err != nil {
		return s.afterAction(c, back, "", err)
	}

	return c.Redirect("/payment?bookingId="+strconv.Itoa(id), fiber.StatusSeeOther)
}

func (s *Server) home(c *fiber.Ctx) error {
	session := sessionOf(c)
	if c.Params("id") != session.UserID && session.UserID != "" {
		return c.Redirect(joalistay.HomePath(session.UserID), fiber.StatusSeeOther)
	}

	v := visitorOf(c)
	orders, err := v.services.Orders.Mine(c.UserContext())

	data := viewData{"orders": orderRows(orders, nil)}
	if err != nil {
		if joalistay.IsUnauthorized(err) {
			return s.toLogin(c)
		}
		data["error"] = joalistay.MessageOrFallback(err, "Failed to fetch your orders")
	}
	return s.render(c, "home", "My bookings", data)
}

func (s *Server) paymentForm(c *fiber.Ctx) error {
	bookingID := strings.TrimSpace(c.Query("bookingId"))
	data := viewData{"bookingId": bookingID}

	if bookingID != "" {
		v := visitorOf(c)
		orders, err := v.services.Orders.Mine(c.UserContext())
		if err != nil && joalistay.IsUnauthorized(err) {
			return s.toLogin(c)
		}
		for _, row := range orderRows(orders, nil) {
			if strconv.Itoa(row.ID) == bookingID {
				data["order"] = row
				break
			}
		}
	}

	return s.render(c, "payment", "Payment", data)
}

type paymentForm struct {
	BookingID  string `form:"booking_id"`
	CardName   string `form:"name"`
	CardNumber string `form:"card_number"`
	Expiry     string `form:"expiry"`
	CVV        string `form:"cvv"`
}

func (s *Server) pay(c *fiber.Ctx) error {
	var form paymentForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payment form")
	}

	back := "/payment?bookingId=" + form.BookingID
	if strings.TrimSpace(form.BookingID) == "" {
		return s.redirectWithFlash(c, "/payment", "Booking ID is missing.")
	}
	if form.CardName == "" || form.CardNumber == "" || form.Expiry == "" || form.CVV == "" {
		return s.redirectWithFlash(c, back, "Please fill in all fields.")
	}

	v := visitorOf(c)
	if _, err := v.services.Orders.Pay(c.UserContext(), form.BookingID); err != nil {
		return s.afterAction(c, back, "", err)
	}

	next := joalistay.PublicLandingPath
	if id := sessionOf(c).UserID; id != "" {
		next = joalistay.HomePath(id)
	}
	return s.redirectWithFlash(c, next, "Payment successful!")
}

// orderRow is an order flattened for templates.
type orderRow struct {
	ID           int
	Service      string
	Organization string
	Customer     string
	Quantity     int
	Price        float64
	ScheduledFor string
	Status       int
	StatusLabel  string
}

func orderRows(orders []services.ServiceOrder, users map[int]string) []orderRow {
	rows := make([]orderRow, 0, len(orders))
	for _, o := range orders {
		row := orderRow{
			ID:           o.ID,
			Service:      o.ServiceName(),
			Customer:     users[o.UserID],
			Quantity:     o.Quantity,
			ScheduledFor: o.ScheduledFor,
			Status:       int(o.Status),
			StatusLabel:  o.Status.String(),
		}
		if o.Service != nil {
			row.Price = o.Service.Price
			if o.Service.Organization != nil {
				row.Organization = o.Service.Organization.Name
			}
		}
		if row.Organization == "" && o.Organization != nil {
			row.Organization = o.Organization.Name
		}
		rows = append(rows, row)
	}
	return rows
}
