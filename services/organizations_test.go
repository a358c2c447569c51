package services_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-joalistay/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrganizations_List(t *testing.T) {
	svc, _, b := newServices(t, map[string]http.HandlerFunc{
		"GET /api/Organization/": jsonReply(http.StatusOK, []map[string]any{
			{"id": 1, "name": "Joali", "isActive": true, "type": 0},
			{"id": 2, "name": "Joali Being", "isActive": false, "type": 1, "parentOrganizationId": 1},
		}),
	})

	orgs := svc.Organizations.List(context.Background(), nil)
	require.Len(t, orgs, 2)
	require.NotNil(t, orgs[1].ParentOrganizationID)
	assert.Equal(t, 1, *orgs[1].ParentOrganizationID)
	assert.Empty(t, b.last(t).Query)

	svc.Organizations.List(context.Background(), intPtr(1))
	assert.Equal(t, "1", b.last(t).Query["orgType"])
}

func TestOrganizations_ListFailure(t *testing.T) {
	svc, _, _ := newServices(t, map[string]http.HandlerFunc{
		"GET /api/Organization/": jsonReply(http.StatusInternalServerError, nil),
	})
	orgs := svc.Organizations.List(context.Background(), nil)
	assert.NotNil(t, orgs)
	assert.Empty(t, orgs)
}

func TestOrganizations_Get(t *testing.T) {
	svc, _, _ := newServices(t, map[string]http.HandlerFunc{
		"GET /api/Organization/4": jsonReply(http.StatusOK, map[string]any{"id": 4, "name": "Joali Maldives"}),
	})

	org, ok := svc.Organizations.Get(context.Background(), 4)
	assert.True(t, ok)
	assert.Equal(t, "Joali Maldives", org.Name)

	_, ok = svc.Organizations.Get(context.Background(), 5)
	assert.False(t, ok)
}

func TestOrganizations_Create(t *testing.T) {
	svc, _, b := newServices(t, map[string]http.HandlerFunc{
		"POST /api/Organization/create": jsonReply(http.StatusOK, map[string]any{"success": true}),
	})

	req := services.CreateOrganizationRequest{
		Name:               "Joali Being",
		RegistrationNumber: "C-123",
		Email:              "info@joali.com",
		Phone:              "+1 650-253-0000",
		Country:            "Maldives",
		OrgType:            1,
		InitialManager:     "manager@joali.com",
	}

	_, err := svc.Organizations.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Contains(t, b.last(t).Body, `"phone":"+16502530000"`)
	assert.Contains(t, b.last(t).Body, `"initialManager":"manager@joali.com"`)

	req.InitialManager = "not-an-email"
	_, err = svc.Organizations.Create(context.Background(), req)
	assert.True(t, errors.IsValidation(err))
}

func TestOrganizations_Toggle(t *testing.T) {
	svc, _, b := newServices(t, map[string]http.HandlerFunc{
		"PUT /api/Organization/toggle/3": jsonReply(http.StatusOK, map[string]any{"success": true, "message": "Toggled"}),
	})

	res, err := svc.Organizations.Toggle(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Toggled", res.Message)
	assert.Equal(t, http.MethodPut, b.last(t).Method)
}
