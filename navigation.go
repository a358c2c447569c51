package joalistay

// MenuItem is a link shown in a navigation bar.
type MenuItem struct {
	Label string
	Path  string
}

type menuEntry struct {
	item    MenuItem
	visible func(role, staffRole string) bool
}

func always(string, string) bool { return true }

// adminArea is shown to admins and to anybody whose primary role is neither
// staff nor customer.
func adminArea(role, staffRole string) bool {
	return staffRole == string(RoleAdmin) ||
		(role != string(RoleStaff) && role != string(RoleCustomer))
}

func staffArea(role, staffRole string) bool {
	return staffRole == string(RoleManager) || adminArea(role, staffRole)
}

func servicesArea(role, staffRole string) bool {
	return staffRole == string(RoleAdmin) ||
		(role != string(RoleCustomer) && staffRole != string(RoleStaff))
}

var dashboardMenu = []menuEntry{
	{MenuItem{Label: "Users", Path: "/dashboard/users"}, adminArea},
	{MenuItem{Label: "Staffs", Path: "/dashboard/staffs"}, staffArea},
	{MenuItem{Label: "Organizations", Path: "/dashboard/organizations"}, adminArea},
	{MenuItem{Label: "Service Types", Path: "/dashboard/service-types"}, adminArea},
	{MenuItem{Label: "Services", Path: "/dashboard/services"}, servicesArea},
	{MenuItem{Label: "Manage Bookings", Path: "/dashboard/manage-bookings"}, always},
}

// DashboardMenu returns the sidebar entries visible to s. The menu is a
// convenience, the route policy still decides what opens.
func DashboardMenu(s Session) []MenuItem {
	var items []MenuItem
	for _, entry := range dashboardMenu {
		if entry.visible(s.Role, s.StaffRoleLabel) {
			items = append(items, entry.item)
		}
	}
	return items
}

// NavBar describes the top navigation for a session.
type NavBar struct {
	LoggedIn      bool
	HomeURL       string
	ShowDashboard bool
	Items         []MenuItem
}

// NewNavBar builds the top navigation for s.
func NewNavBar(s Session) NavBar {
	nav := NavBar{
		LoggedIn: !s.IsAnonymous(),
		HomeURL:  PublicLandingPath,
		Items: []MenuItem{
			{Label: "Home", Path: "/"},
			{Label: "Hotels", Path: "/hotels"},
			{Label: "About", Path: "/about"},
		},
	}

	if s.UserID != "" {
		nav.HomeURL = HomePath(s.UserID)
	}

	for _, role := range s.Roles() {
		if role.IsDashboardRole() {
			nav.ShowDashboard = true
		}
	}

	if nav.ShowDashboard {
		nav.Items = append(nav.Items, MenuItem{Label: "Dashboard", Path: "/dashboard"})
	}
	nav.Items = append(nav.Items, MenuItem{Label: "Ferry & Activities", Path: "/tickets"})
	return nav
}
