package joalistay_test

import (
	"testing"

	"github.com/goliatone/go-joalistay"
	"github.com/stretchr/testify/assert"
)

func TestRouteAccessPolicy_DefaultAllow(t *testing.T) {
	policy := joalistay.DefaultRoutePolicy()

	paths := []string{"/", "/hotels", "/tickets/themepark", "/home/42", "/payment", "/about"}
	roles := []string{"", "Admin", "Manager", "Staff", "Customer", "Unknown"}

	for _, path := range paths {
		for _, role := range roles {
			assert.True(t, policy.IsAllowed(path, role, ""), "path=%s role=%s", path, role)
			assert.True(t, policy.IsAllowed(path, "", role), "path=%s staffRole=%s", path, role)
		}
	}
}

func TestRouteAccessPolicy_IsAllowed(t *testing.T) {
	policy := joalistay.DefaultRoutePolicy()

	tests := []struct {
		name      string
		path      string
		role      string
		staffRole string
		expected  bool
	}{
		{"admin opens users", "/dashboard/users", "Admin", "", true},
		{"manager denied users", "/dashboard/users", "Manager", "", false},
		{"staff role label grants users", "/dashboard/users", "Staff", "Admin", true},
		{"customer denied dashboard", "/dashboard", "Customer", "", false},
		{"customer denied bookings", "/dashboard/manage-bookings", "Customer", "", false},
		{"staff opens bookings", "/dashboard/manage-bookings", "Staff", "", true},
		{"manager opens staffs", "/dashboard/staffs", "Manager", "", true},
		{"staff denied staffs", "/dashboard/staffs", "Staff", "Staff", false},
		{"manager opens services", "/dashboard/services", "Staff", "Manager", true},
		{"manager denied organizations", "/dashboard/organizations", "Manager", "Manager", false},
		{"anonymous denied dashboard", "/dashboard", "", "", false},
		{"role values ignore case", "/dashboard", "admin", "", true},
		{"lower case admin opens users", "/dashboard/users", "admin", "", true},
		{"padded staff role label", "/dashboard/staffs", "Staff", " manager ", true},
		{"lower case customer denied", "/dashboard", "customer", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, policy.IsAllowed(tt.path, tt.role, tt.staffRole))
		})
	}
}

func TestRouteAccessPolicy_AllMatchesMustPass(t *testing.T) {
	policy := joalistay.DefaultRoutePolicy()

	// matches both dashboard and dashboard/service-types, the latter only
	// admits admins
	assert.False(t, policy.IsAllowed("/dashboard/service-types", "Manager", ""))
	assert.True(t, policy.IsAllowed("/dashboard/service-types", "Admin", ""))

	matched := policy.Matching("/dashboard/service-types")
	prefixes := make([]string, 0, len(matched))
	for _, rule := range matched {
		prefixes = append(prefixes, rule.Prefix)
	}
	assert.Equal(t, []string{"dashboard", "dashboard/service-types"}, prefixes)
}

func TestRouteAccessPolicy_DeniedWhenNoRoleMatches(t *testing.T) {
	policy := joalistay.DefaultRoutePolicy()

	for _, rule := range policy.Rules() {
		path := "/" + rule.Prefix
		for _, role := range joalistay.GetAllRoles() {
			inRule := false
			for _, allowed := range rule.Roles {
				if allowed == role {
					inRule = true
				}
			}
			if inRule {
				continue
			}
			assert.False(t, policy.IsAllowed(path, string(role), string(role)), "path=%s role=%s", path, role)
		}
	}
}

func TestRouteAccessPolicy_Custom(t *testing.T) {
	policy := joalistay.NewRouteAccessPolicy(
		joalistay.RouteRule{Prefix: "reports", Roles: []joalistay.UserRole{joalistay.RoleManager}},
	)

	assert.True(t, policy.IsAllowed("/reports/daily", "Manager", ""))
	assert.False(t, policy.IsAllowed("/reports/daily", "Staff", ""))
	assert.True(t, policy.IsAllowed("/dashboard/users", "Customer", ""))
}

func TestRouteAccessPolicy_AllowsSession(t *testing.T) {
	policy := joalistay.DefaultRoutePolicy()
	s := joalistay.Session{AccessToken: "t", Role: "Staff", StaffRoleLabel: "Manager"}

	assert.True(t, policy.AllowsSession("/dashboard/staffs", s))
	assert.False(t, policy.AllowsSession("/dashboard/users", s))
}
