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
	ServicesEndpoint          = "/api/Service/all"
	CreateServiceEndpoint     = "/api/Service/create"
	ToggleServiceEndpoint     = "/api/Service/toggle/"
	ServiceTypesEndpoint      = "/api/Service/all-service-types"
	CreateServiceTypeEndpoint = "/api/Service/create-service-type"
)

type Service struct {
	ID                int           `json:"id,omitempty"`
	Name              string        `json:"name" form:"name"`
	Description       string        `json:"description" form:"description"`
	Price             float64       `json:"price" form:"price"`
	OrgID             int           `json:"orgId" form:"org_id"`
	Organization      *Organization `json:"organization,omitempty" form:"-"`
	ServiceTypeID     int           `json:"serviceTypeId" form:"service_type_id"`
	ServiceType       *ServiceType  `json:"serviceType,omitempty" form:"-"`
	Capacity          int           `json:"capacity,omitempty" form:"capacity"`
	DurationInMinutes int           `json:"durationInMinutes,omitempty" form:"duration"`
	ImageURL          string        `json:"imageUrl" form:"image_url"`
	IsActive          *bool         `json:"isActive,omitempty" form:"-"`
	CreatedAt         string        `json:"createdAt,omitempty" form:"-"`
}

func (s Service) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Name, validation.Required, validation.Length(2, 200)),
		validation.Field(&s.Description, validation.Required),
		validation.Field(&s.Price, validation.Min(0.0)),
		validation.Field(&s.OrgID, validation.Required),
		validation.Field(&s.ServiceTypeID, validation.Required),
		validation.Field(&s.Capacity, validation.Min(0)),
		validation.Field(&s.DurationInMinutes, validation.Min(0)),
		validation.Field(&s.ImageURL, is.URL),
	)
}

type ServiceType struct {
	ID          int    `json:"id,omitempty"`
	Name        string `json:"name" form:"name"`
	Description string `json:"description" form:"description"`
	IsActive    *bool  `json:"isActive,omitempty" form:"-"`
}

func (t ServiceType) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Name, validation.Required, validation.Length(2, 100)),
	)
}

// ServiceFilters narrows List. Nil fields are not sent.
type ServiceFilters struct {
	OrgID  *int
	TypeID *int
}

// Catalog wraps the service and service type endpoints.
type Catalog struct {
	base
}

func NewCatalog(gateway *joalistay.Gateway) *Catalog {
	return &Catalog{base: newBase(gateway)}
}

func (c *Catalog) WithLogger(logger joalistay.Logger) *Catalog {
	c.setLogger(logger)
	return c
}

// Services lists services. Failures and non array answers yield an empty
// list.
func (c *Catalog) Services(ctx context.Context, filters ServiceFilters) []Service {
	q := url.Values{}
	optInt(q, "orgId", filters.OrgID)
	optInt(q, "typeId", filters.TypeID)

	var items []Service
	if err := c.gateway.Get(ctx, ServicesEndpoint, &items, joalistay.WithQuery(q)); err != nil {
		c.logger.Error("Error fetching services", "error", err)
		return []Service{}
	}
	return nonNil(items)
}

func (c *Catalog) CreateService(ctx context.Context, svc Service) (APIResponse, error) {
	if err := svc.Validate(); err != nil {
		return APIResponse{}, errors.FromOzzoValidation(err, "Invalid service details")
	}

	var res APIResponse
	err := c.gateway.Post(ctx, CreateServiceEndpoint, svc, &res, joalistay.WithFallbackMessage("Failed to create service"))
	return res, err
}

func (c *Catalog) ToggleService(ctx context.Context, id int) (APIResponse, error) {
	var res APIResponse
	err := c.gateway.Post(ctx, ToggleServiceEndpoint+itoa(id), nil, &res, joalistay.WithFallbackMessage("Failed to toggle service"))
	return res, err
}

// ServiceTypes lists service types. Failures yield an empty list.
func (c *Catalog) ServiceTypes(ctx context.Context) []ServiceType {
	var items []ServiceType
	if err := c.gateway.Get(ctx, ServiceTypesEndpoint, &items); err != nil {
		c.logger.Error("Error fetching service types", "error", err)
		return []ServiceType{}
	}
	return nonNil(items)
}

func (c *Catalog) CreateServiceType(ctx context.Context, t ServiceType) (APIResponse, error) {
	if err := t.Validate(); err != nil {
		return APIResponse{}, errors.FromOzzoValidation(err, "Invalid service type")
	}

	var res APIResponse
	err := c.gateway.Post(ctx, CreateServiceTypeEndpoint, t, &res, joalistay.WithFallbackMessage("Failed to create service type"))
	return res, err
}
