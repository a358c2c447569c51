package joalistay

import "strings"

// UserRole is the coarse access category carried by the access token.
type UserRole string

const (
	RoleAdmin    UserRole = "Admin"
	RoleManager  UserRole = "Manager"
	RoleStaff    UserRole = "Staff"
	RoleCustomer UserRole = "Customer"
)

// IsValid checks if the role is one of the predefined valid roles
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleCustomer:
		return true
	default:
		return false
	}
}

// IsDashboardRole reports whether the role belongs to resort personnel, the
// roles that land on the dashboard after login.
func (r UserRole) IsDashboardRole() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff:
		return true
	default:
		return false
	}
}

func (r UserRole) String() string {
	return string(r)
}

// GetAllRoles returns all predefined roles
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleAdmin,
		RoleManager,
		RoleStaff,
		RoleCustomer,
	}
}

// ParseRole parses a claim value into a UserRole. Matching ignores case and
// surrounding blanks since backends are not consistent about either.
func ParseRole(roleStr string) (UserRole, bool) {
	roleStr = strings.TrimSpace(roleStr)
	for _, role := range GetAllRoles() {
		if strings.EqualFold(roleStr, string(role)) {
			return role, true
		}
	}
	return UserRole(roleStr), false
}

// StaffRoleCode maps a staff role to the numeric code the user API expects
// when assigning it: 0 Admin, 1 Manager, 2 Staff.
func StaffRoleCode(r UserRole) (int, bool) {
	switch r {
	case RoleAdmin:
		return 0, true
	case RoleManager:
		return 1, true
	case RoleStaff:
		return 2, true
	default:
		return -1, false
	}
}
