// Package services wraps the JoaliStay domain endpoints: orders and
// payments, organizations, the service catalog and user administration.
// Every call goes through the session aware gateway, so a 401 from any of
// them ends the session the same way.
package services

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/goliatone/go-joalistay"
)

// APIResponse is the envelope most write endpoints answer with.
type APIResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Errors  []string        `json:"errors,omitempty"`
}

// Services bundles every domain wrapper over one gateway.
type Services struct {
	Orders        *Orders
	Organizations *Organizations
	Catalog       *Catalog
	Users         *Users
}

// New builds the domain wrappers on top of gateway.
func New(gateway *joalistay.Gateway) *Services {
	return &Services{
		Orders:        NewOrders(gateway),
		Organizations: NewOrganizations(gateway),
		Catalog:       NewCatalog(gateway),
		Users:         NewUsers(gateway),
	}
}

// WithLogger sets the logger on every wrapper.
func (s *Services) WithLogger(logger joalistay.Logger) *Services {
	s.Orders.WithLogger(logger)
	s.Organizations.WithLogger(logger)
	s.Catalog.WithLogger(logger)
	s.Users.WithLogger(logger)
	return s
}

type base struct {
	gateway *joalistay.Gateway
	logger  joalistay.Logger
}

func newBase(gateway *joalistay.Gateway) base {
	return base{gateway: gateway, logger: gateway.Logger()}
}

func (b *base) setLogger(logger joalistay.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// optInt adds key to q when v is set.
func optInt(q url.Values, key string, v *int) {
	if v != nil {
		q.Set(key, strconv.Itoa(*v))
	}
}
