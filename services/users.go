package services

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
)

const (
	CustomerRegisterEndpoint = "/api/User/CustomerRegister"
	AllUsersEndpoint         = "/api/User/AllUsers"
	ToggleUserEndpoint       = "/api/User/ToggleUser"
	NewStaffEndpoint         = "/api/User/NewStaff"
	SetStaffRoleEndpoint     = "/api/User/SetStaffRole"
)

// StaffRole is the code SetStaffRole expects.
type StaffRole int

const (
	StaffRoleAdmin StaffRole = iota
	StaffRoleManager
	StaffRoleStaff
)

var staffRoleLabels = map[StaffRole]joalistay.UserRole{
	StaffRoleAdmin:   joalistay.RoleAdmin,
	StaffRoleManager: joalistay.RoleManager,
	StaffRoleStaff:   joalistay.RoleStaff,
}

func (r StaffRole) String() string {
	if label, ok := staffRoleLabels[r]; ok {
		return label.String()
	}
	return "Unknown"
}

// ParseStaffRole accepts the numeric code or the role label.
func ParseStaffRole(raw string) (StaffRole, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if _, ok := staffRoleLabels[StaffRole(n)]; ok {
			return StaffRole(n), nil
		}
	}
	if role, ok := joalistay.ParseRole(raw); ok {
		if code, ok := joalistay.StaffRoleCode(role); ok {
			return StaffRole(code), nil
		}
	}
	return 0, errors.New("unknown staff role", errors.CategoryBadInput).
		WithMetadata(map[string]any{"role": raw})
}

type User struct {
	ID             int     `json:"id"`
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	IsActive       bool    `json:"isActive"`
	CreatedAt      string  `json:"createdAt,omitempty"`
	UpdatedAt      *string `json:"updatedAt,omitempty"`
	OrganizationID *int    `json:"organizationId,omitempty"`
	Role           string  `json:"role,omitempty"`
}

// UserNames maps user ids to display names.
func UserNames(users []User) map[int]string {
	out := make(map[int]string, len(users))
	for _, u := range users {
		out[u.ID] = u.Name
	}
	return out
}

type CustomerRegisterRequest struct {
	Name            string `json:"name" form:"name"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	Password        string `json:"password" form:"password"`
	PasswordConfirm string `json:"passwordConfirm" form:"password_confirm"`
}

func (r CustomerRegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.Password, validation.Required, validation.Length(6, 100)),
		validation.Field(&r.PasswordConfirm,
			validation.Required,
			validation.In(r.Password).Error("passwords do not match"),
		),
	)
}

type CreateStaffRequest struct {
	Name        string `json:"name" form:"name"`
	Email       string `json:"email" form:"email"`
	PhoneNumber string `json:"phoneNumber" form:"phone"`
	OrgID       *int   `json:"orgId,omitempty" form:"org_id"`
}

func (r CreateStaffRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.PhoneNumber, validation.Required),
	)
}

// Users wraps the user administration endpoints. All of them carry the
// client api key.
type Users struct {
	base
}

func NewUsers(gateway *joalistay.Gateway) *Users {
	return &Users{base: newBase(gateway)}
}

func (u *Users) WithLogger(logger joalistay.Logger) *Users {
	u.setLogger(logger)
	return u
}

// Register creates a customer account. The phone number is normalized to
// E.164 before it is sent.
func (u *Users) Register(ctx context.Context, req CustomerRegisterRequest) (APIResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return APIResponse{}, errors.FromOzzoValidation(err, "Invalid registration details")
	}

	phone, err := NormalizePhone(req.Phone, "")
	if err != nil {
		return APIResponse{}, err
	}
	req.Phone = phone

	var res APIResponse
	err = u.gateway.Post(ctx, CustomerRegisterEndpoint, req, &res,
		joalistay.WithAPIKey(),
		joalistay.WithoutSessionReset(),
		joalistay.WithFallbackMessage("Registration failed"),
	)
	return res, err
}

// All lists every user. Failures yield an empty list.
func (u *Users) All(ctx context.Context) []User {
	var users []User
	if err := u.gateway.Get(ctx, AllUsersEndpoint, &users, joalistay.WithAPIKey()); err != nil {
		u.logger.Error("Error fetching users", "error", err)
		return []User{}
	}
	return nonNil(users)
}

func (u *Users) Toggle(ctx context.Context, email string) (APIResponse, error) {
	var res APIResponse
	err := u.gateway.Put(ctx, ToggleUserEndpoint, nil, &res,
		joalistay.WithAPIKey(),
		joalistay.WithQuery(url.Values{"email": {strings.TrimSpace(email)}}),
		joalistay.WithFallbackMessage("Failed to toggle user"),
	)
	return res, err
}

func (u *Users) CreateStaff(ctx context.Context, req CreateStaffRequest) (APIResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return APIResponse{}, errors.FromOzzoValidation(err, "Invalid staff details")
	}

	phone, err := NormalizePhone(req.PhoneNumber, "")
	if err != nil {
		return APIResponse{}, err
	}
	req.PhoneNumber = phone

	var res APIResponse
	err = u.gateway.Post(ctx, NewStaffEndpoint, req, &res,
		joalistay.WithAPIKey(),
		joalistay.WithFallbackMessage("Failed to create staff"),
	)
	return res, err
}

func (u *Users) SetStaffRole(ctx context.Context, email string, role StaffRole) (APIResponse, error) {
	if _, ok := staffRoleLabels[role]; !ok {
		return APIResponse{}, errors.New("unknown staff role", errors.CategoryBadInput)
	}

	var res APIResponse
	err := u.gateway.Get(ctx, SetStaffRoleEndpoint, &res,
		joalistay.WithAPIKey(),
		joalistay.WithQuery(url.Values{
			"email": {strings.TrimSpace(email)},
			"role":  {itoa(int(role))},
		}),
		joalistay.WithFallbackMessage("Failed to set staff role"),
	)
	return res, err
}
