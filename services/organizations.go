package services

import (
	"context"
	"net/url"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
)

const (
	OrganizationsEndpoint      = "/api/Organization/"
	CreateOrganizationEndpoint = "/api/Organization/create"
	ToggleOrganizationEndpoint = "/api/Organization/toggle/"
)

type Organization struct {
	ID                   int     `json:"id"`
	Name                 string  `json:"name"`
	RegistrationNumber   string  `json:"registrationNumber"`
	Email                string  `json:"email"`
	Phone                string  `json:"phone"`
	Address              string  `json:"address"`
	Country              string  `json:"country"`
	Website              string  `json:"website,omitempty"`
	LogoURL              string  `json:"logoUrl,omitempty"`
	IsActive             bool    `json:"isActive"`
	CreatedAt            string  `json:"createdAt,omitempty"`
	UpdatedAt            *string `json:"updatedAt,omitempty"`
	ParentOrganizationID *int    `json:"parentOrganizationId,omitempty"`
	Type                 int     `json:"type"`
}

// CreateOrganizationRequest registers an organization together with the
// email of its first manager.
type CreateOrganizationRequest struct {
	Name               string `json:"name" form:"name"`
	RegistrationNumber string `json:"registrationNumber" form:"registration_number"`
	Email              string `json:"email" form:"email"`
	Phone              string `json:"phone" form:"phone"`
	Address            string `json:"address" form:"address"`
	Country            string `json:"country" form:"country"`
	LogoURL            string `json:"logoUrl" form:"logo_url"`
	Website            string `json:"website" form:"website"`
	OrgType            int    `json:"orgType" form:"org_type"`
	InitialManager     string `json:"initialManager" form:"initial_manager"`
}

func (r CreateOrganizationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&r.RegistrationNumber, validation.Required),
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Phone, validation.Required),
		validation.Field(&r.Country, validation.Required),
		validation.Field(&r.Website, is.URL),
		validation.Field(&r.LogoURL, is.URL),
		validation.Field(&r.OrgType, validation.Min(0)),
		validation.Field(&r.InitialManager, validation.Required, is.EmailFormat),
	)
}

// Organizations wraps the organization endpoints.
type Organizations struct {
	base
}

func NewOrganizations(gateway *joalistay.Gateway) *Organizations {
	return &Organizations{base: newBase(gateway)}
}

func (o *Organizations) WithLogger(logger joalistay.Logger) *Organizations {
	o.setLogger(logger)
	return o
}

// List returns the organizations, optionally of one type. Failures are
// logged and yield an empty list.
func (o *Organizations) List(ctx context.Context, orgType *int) []Organization {
	q := url.Values{}
	optInt(q, "orgType", orgType)

	var orgs []Organization
	if err := o.gateway.Get(ctx, OrganizationsEndpoint, &orgs, joalistay.WithQuery(q)); err != nil {
		o.logger.Error("Error fetching organizations", "error", err)
		return []Organization{}
	}
	return nonNil(orgs)
}

// Get returns one organization, or false when it cannot be fetched.
func (o *Organizations) Get(ctx context.Context, id int) (Organization, bool) {
	var org Organization
	if err := o.gateway.Get(ctx, OrganizationsEndpoint+itoa(id), &org); err != nil {
		o.logger.Error("Error fetching organization", "id", id, "error", err)
		return Organization{}, false
	}
	return org, org.ID != 0
}

func (o *Organizations) Create(ctx context.Context, req CreateOrganizationRequest) (APIResponse, error) {
	if err := req.Validate(); err != nil {
		return APIResponse{}, errors.FromOzzoValidation(err, "Invalid organization details")
	}

	phone, err := NormalizePhone(req.Phone, "")
	if err != nil {
		return APIResponse{}, err
	}
	req.Phone = phone

	var res APIResponse
	err = o.gateway.Post(ctx, CreateOrganizationEndpoint, req, &res, joalistay.WithFallbackMessage("Failed to create organization"))
	return res, err
}

func (o *Organizations) Toggle(ctx context.Context, id int) (APIResponse, error) {
	var res APIResponse
	err := o.gateway.Put(ctx, ToggleOrganizationEndpoint+itoa(id), nil, &res, joalistay.WithFallbackMessage("Failed to toggle organization"))
	return res, err
}
