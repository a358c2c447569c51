package joalistay

import "strings"

// RouteRule gates every path containing Prefix to Roles.
type RouteRule struct {
	Prefix string
	Roles  []UserRole
}

// Allows reports whether either role value names one of the rule roles.
// Values are matched with ParseRole, the same rule landing and navigation use.
func (r RouteRule) Allows(role, staffRoleLabel string) bool {
	for _, candidate := range []string{role, staffRoleLabel} {
		parsed, ok := ParseRole(candidate)
		if !ok {
			continue
		}
		for _, allowed := range r.Roles {
			if parsed == allowed {
				return true
			}
		}
	}
	return false
}

// RouteAccessPolicy is an ordered list of route rules. Paths no rule matches
// are allowed. A path matching several rules must pass all of them.
//
// The policy shapes navigation only. The backend authorizes every call on
// its own, so a page reachable here is not a grant.
type RouteAccessPolicy struct {
	rules []RouteRule
}

// NewRouteAccessPolicy builds a policy from rules, kept in the given order.
func NewRouteAccessPolicy(rules ...RouteRule) *RouteAccessPolicy {
	return &RouteAccessPolicy{rules: append([]RouteRule(nil), rules...)}
}

// DefaultRoutePolicy returns the dashboard access table.
func DefaultRoutePolicy() *RouteAccessPolicy {
	return NewRouteAccessPolicy(
		RouteRule{Prefix: "dashboard", Roles: []UserRole{RoleAdmin, RoleStaff, RoleManager}},
		RouteRule{Prefix: "dashboard/staffs", Roles: []UserRole{RoleAdmin, RoleManager}},
		RouteRule{Prefix: "dashboard/manage-bookings", Roles: []UserRole{RoleAdmin, RoleStaff, RoleManager}},
		RouteRule{Prefix: "dashboard/organizations", Roles: []UserRole{RoleAdmin}},
		RouteRule{Prefix: "dashboard/services", Roles: []UserRole{RoleAdmin, RoleManager}},
		RouteRule{Prefix: "dashboard/service-types", Roles: []UserRole{RoleAdmin}},
		RouteRule{Prefix: "dashboard/users", Roles: []UserRole{RoleAdmin}},
	)
}

// Rules returns a copy of the policy rules.
func (p *RouteAccessPolicy) Rules() []RouteRule {
	return append([]RouteRule(nil), p.rules...)
}

// Matching returns the rules whose prefix is contained in path.
func (p *RouteAccessPolicy) Matching(path string) []RouteRule {
	var out []RouteRule
	for _, rule := range p.rules {
		if strings.Contains(path, rule.Prefix) {
			out = append(out, rule)
		}
	}
	return out
}

// IsAllowed evaluates path for the given role and staff role label.
func (p *RouteAccessPolicy) IsAllowed(path, role, staffRoleLabel string) bool {
	for _, rule := range p.Matching(path) {
		if !rule.Allows(role, staffRoleLabel) {
			return false
		}
	}
	return true
}

// AllowsSession evaluates path for the roles held by s.
func (p *RouteAccessPolicy) AllowsSession(path string, s Session) bool {
	return p.IsAllowed(path, s.Role, s.StaffRoleLabel)
}
