package services

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay"
)

const (
	PayEndpoint          = "/api/service/pay"
	PlaceOrderEndpoint   = "/api/ServiceOrder/place"
	MyOrdersEndpoint     = "/api/ServiceOrder/my-orders"
	AllOrdersEndpoint    = "/api/ServiceOrder/all"
	UpdateStatusEndpoint = "/api/ServiceOrder/update-status/"
)

// OrderStatus is the backend's numeric order state.
type OrderStatus int

const (
	OrderPending OrderStatus = iota
	OrderConfirmed
	OrderCancelled
	OrderCompleted
)

var orderStatusLabels = map[OrderStatus]string{
	OrderPending:   "Pending",
	OrderConfirmed: "Confirmed",
	OrderCancelled: "Cancelled",
	OrderCompleted: "Completed",
}

func (s OrderStatus) String() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// OrderStatuses lists every known status in code order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{OrderPending, OrderConfirmed, OrderCancelled, OrderCompleted}
}

// ParseOrderStatus accepts the numeric code or the label, case insensitive.
func ParseOrderStatus(raw string) (OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		if s := OrderStatus(n); s.Valid() {
			return s, nil
		}
	}
	for s, label := range orderStatusLabels {
		if strings.EqualFold(label, raw) {
			return s, nil
		}
	}
	return 0, errors.New("unknown order status", errors.CategoryBadInput).
		WithMetadata(map[string]any{"status": raw})
}

type OrgRef struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type UserRef struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ServiceOrder is a booking as returned by the order endpoints.
type ServiceOrder struct {
	ID           int         `json:"id"`
	ServiceID    int         `json:"serviceId"`
	Service      *Service    `json:"service,omitempty"`
	UserID       int         `json:"userId"`
	User         *UserRef    `json:"user,omitempty"`
	OrgID        int         `json:"orgId"`
	Organization *OrgRef     `json:"organization,omitempty"`
	Quantity     int         `json:"quantity"`
	CreatedAt    string      `json:"createdAt,omitempty"`
	ScheduledFor string      `json:"scheduledFor"`
	OrderType    int         `json:"orderType"`
	Status       OrderStatus `json:"status"`
}

// ServiceName returns the booked service name, if the backend embedded it.
func (o ServiceOrder) ServiceName() string {
	if o.Service == nil {
		return ""
	}
	return o.Service.Name
}

// PlaceOrderRequest books quantity units of a service.
type PlaceOrderRequest struct {
	ServiceID    int    `json:"serviceId"`
	Quantity     int    `json:"quantity"`
	ScheduledFor string `json:"scheduledFor"`
}

// NewPlaceOrderRequest formats when the way the backend expects it.
func NewPlaceOrderRequest(serviceID, quantity int, when time.Time) PlaceOrderRequest {
	return PlaceOrderRequest{
		ServiceID:    serviceID,
		Quantity:     quantity,
		ScheduledFor: when.UTC().Format(time.RFC3339),
	}
}

// OrderFilters narrows AllOrders. Nil and empty fields are not sent.
type OrderFilters struct {
	OrgID  *int
	Status *OrderStatus
	From   string
	To     string
}

func (f OrderFilters) query() url.Values {
	q := url.Values{}
	optInt(q, "orgId", f.OrgID)
	if f.Status != nil {
		q.Set("status", itoa(int(*f.Status)))
	}
	q.Set("from", f.From)
	q.Set("to", f.To)
	return q
}

// Orders wraps booking and payment endpoints.
type Orders struct {
	base
}

func NewOrders(gateway *joalistay.Gateway) *Orders {
	return &Orders{base: newBase(gateway)}
}

func (o *Orders) WithLogger(logger joalistay.Logger) *Orders {
	o.setLogger(logger)
	return o
}

// Pay settles a booking. The backend expects the bare id as the body.
func (o *Orders) Pay(ctx context.Context, bookingID string) (APIResponse, error) {
	bookingID = strings.TrimSpace(bookingID)
	if bookingID == "" {
		return APIResponse{}, errors.New("booking id is required", errors.CategoryBadInput)
	}

	body, err := json.Marshal(bookingID)
	if err != nil {
		return APIResponse{}, errors.Wrap(err, errors.CategoryBadInput, "encode booking id")
	}

	var res APIResponse
	err = o.gateway.Post(ctx, PayEndpoint, body, &res, joalistay.WithFallbackMessage("Payment failed"))
	return res, err
}

// Place books a service and returns the new booking id.
func (o *Orders) Place(ctx context.Context, req PlaceOrderRequest) (int, error) {
	if req.ServiceID <= 0 || req.Quantity <= 0 {
		return 0, errors.New("service and quantity are required", errors.CategoryBadInput)
	}

	var res struct {
		Data struct {
			ID int `json:"id"`
		} `json:"data"`
	}
	if err := o.gateway.Post(ctx, PlaceOrderEndpoint, req, &res, joalistay.WithFallbackMessage("Failed to place order")); err != nil {
		return 0, err
	}
	return res.Data.ID, nil
}

// Mine lists the caller's own bookings.
func (o *Orders) Mine(ctx context.Context) ([]ServiceOrder, error) {
	var orders []ServiceOrder
	if err := o.gateway.Get(ctx, MyOrdersEndpoint, &orders, joalistay.WithFallbackMessage("Failed to fetch your orders")); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

// All lists bookings across users, for staff.
func (o *Orders) All(ctx context.Context, filters OrderFilters) ([]ServiceOrder, error) {
	var orders []ServiceOrder
	if err := o.gateway.Get(ctx, AllOrdersEndpoint, &orders,
		joalistay.WithQuery(filters.query()),
		joalistay.WithFallbackMessage("Failed to fetch all orders"),
	); err != nil {
		return nil, err
	}
	return nonNil(orders), nil
}

// ForOrganization lists the bookings of orgID, as the manage bookings page
// does with the organization stored in the session.
func (o *Orders) ForOrganization(ctx context.Context, orgID *int, status *OrderStatus) ([]ServiceOrder, error) {
	if orgID == nil || *orgID <= 0 {
		return nil, errors.New("session has no organization", errors.CategoryBadInput)
	}
	return o.All(ctx, OrderFilters{OrgID: orgID, Status: status})
}

// UpdateStatus moves an order to status.
func (o *Orders) UpdateStatus(ctx context.Context, id int, status OrderStatus) (APIResponse, error) {
	if !status.Valid() {
		return APIResponse{}, errors.New("unknown order status", errors.CategoryBadInput).
			WithMetadata(map[string]any{"status": int(status)})
	}

	var res APIResponse
	err := o.gateway.Put(ctx, UpdateStatusEndpoint+itoa(id), nil, &res,
		joalistay.WithQuery(url.Values{"status": {itoa(int(status))}}),
		joalistay.WithFallbackMessage("Failed to update order status"),
	)
	return res, err
}

// SearchOrders keeps orders whose id, service name or customer name contains
// term. Customer names come from users, keyed by user id.
func SearchOrders(orders []ServiceOrder, term string, users map[int]string) []ServiceOrder {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return orders
	}

	out := make([]ServiceOrder, 0, len(orders))
	for _, order := range orders {
		switch {
		case strings.Contains(itoa(order.ID), term):
		case strings.Contains(strings.ToLower(order.ServiceName()), term):
		case strings.Contains(strings.ToLower(users[order.UserID]), term):
		default:
			continue
		}
		out = append(out, order)
	}
	return out
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
