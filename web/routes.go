package web

func (s *Server) routes() {
	app := s.app

	app.Get("/", s.landing)
	app.Get("/about", s.about)
	app.Get("/login", s.loginForm)
	app.Post("/login", s.login)
	app.Post("/logout", s.logout)
	app.Get("/register", s.registerForm)
	app.Post("/register", s.register)
	app.Get("/initial-password-setup", s.initialPasswordForm)
	app.Post("/initial-password-setup", s.initialPassword)
	app.Get("/unauthorized", s.unauthorized)

	app.Get("/hotels", s.hotels)
	app.Get("/hotels/:hotelId/rooms", s.rooms)
	app.Post("/hotels/:hotelId/rooms", s.requireSession, s.bookRoom)

	app.Get("/tickets", s.tickets)
	app.Get("/tickets/:kind", s.requireSession, s.requireBooking, s.ticketPage)
	app.Post("/tickets/:kind", s.requireSession, s.requireBooking, s.bookTicket)

	app.Get("/home/:id", s.requireSession, s.home)
	app.Get("/payment", s.requireSession, s.paymentForm)
	app.Post("/payment", s.requireSession, s.pay)

	dash := app.Group("/dashboard", s.requireSession)
	dash.Get("/", s.dashboard)

	dash.Get("/users", s.users)
	dash.Post("/users/toggle", s.toggleUser)

	dash.Get("/staffs", s.staffs)
	dash.Post("/staffs", s.createStaff)
	dash.Post("/staffs/role", s.setStaffRole)

	dash.Get("/organizations", s.organizations)
	dash.Post("/organizations", s.createOrganization)
	dash.Post("/organizations/:id/toggle", s.toggleOrganization)

	dash.Get("/service-types", s.serviceTypes)
	dash.Post("/service-types", s.createServiceType)

	dash.Get("/services", s.catalog)
	dash.Post("/services", s.createService)
	dash.Post("/services/:id/toggle", s.toggleService)

	dash.Get("/manage-bookings", s.manageBookings)
	dash.Post("/manage-bookings/:id/status", s.updateBookingStatus)
}
