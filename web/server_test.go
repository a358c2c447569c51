package web_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-joalistay/config"
	"github.com/goliatone/go-joalistay/storage"
	"github.com/goliatone/go-joalistay/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	claims["exp"] = time.Now().Add(time.Hour).Unix()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)
	return signed
}

func managerToken(t *testing.T) string {
	return mintToken(t, jwt.MapClaims{
		"name":      "Aishath",
		"userId":    "42",
		"email":     "aishath@joali.mv",
		"role":      "Staff",
		"staffRole": "Manager",
		"OrgId":     "7",
	})
}

func customerToken(t *testing.T, hasBooking bool) string {
	return mintToken(t, jwt.MapClaims{
		"name":       "Guest",
		"userId":     "9",
		"email":      "guest@example.com",
		"role":       "Customer",
		"hasBooking": hasBooking,
	})
}

// backend fakes the JoaliStay API. Routes are keyed by path.
type backend struct {
	mu     sync.Mutex
	token  string
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	token := b.token
	h, ok := b.routes[r.URL.Path]
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/api/Auth/Login" && !ok {
		if token == "" {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"success":false,"message":"Invalid email or password"}`)
			return
		}
		io.WriteString(w, `{"accessToken":"`+token+`","refreshToken":"refresh"}`)
		return
	}
	if !ok {
		io.WriteString(w, `[]`)
		return
	}
	h(w, r)
}

func (b *backend) hit(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

type harness struct {
	t       *testing.T
	server  *web.Server
	backend *backend
	cookie  *http.Cookie
	csrf    string
}

func newHarness(t *testing.T, routes map[string]http.HandlerFunc) *harness {
	t.Helper()
	if routes == nil {
		routes = map[string]http.HandlerFunc{}
	}
	b := &backend{routes: routes, hits: map[string]int{}}
	api := httptest.NewServer(b)
	t.Cleanup(api.Close)

	cfg := config.Defaults()
	cfg.BaseURL = api.URL
	cfg.APIKey = "test-api-key"

	srv, err := web.New(web.Options{
		Config:   cfg,
		Store:    storage.NewMemory(),
		Registry: prometheus.NewRegistry(),
	})
	require.NoError(t, err)

	return &harness{t: t, server: srv, backend: b}
}

func (h *harness) do(method, path string, form url.Values) (*http.Response, string) {
	h.t.Helper()
	var body io.Reader
	if form != nil {
		if form.Get("_token") == "" && h.csrf != "" {
			form.Set("_token", h.csrf)
		}
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}
	if h.csrf != "" {
		req.AddCookie(&http.Cookie{Name: config.DefaultCookieName + "_csrf", Value: h.csrf})
	}

	res, err := h.server.App().Test(req, -1)
	require.NoError(h.t, err)
	for _, c := range res.Cookies() {
		switch c.Name {
		case config.DefaultCookieName:
			h.cookie = c
		case config.DefaultCookieName + "_csrf":
			h.csrf = c.Value
		}
	}

	raw, err := io.ReadAll(res.Body)
	require.NoError(h.t, err)
	return res, string(raw)
}

func (h *harness) login(token string) *http.Response {
	h.t.Helper()
	h.backend.mu.Lock()
	h.backend.token = token
	h.backend.mu.Unlock()

	h.do(http.MethodGet, "/login", nil)
	res, _ := h.do(http.MethodPost, "/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"secret"},
	})
	return res
}

func TestServer_IssuesVisitorCookie(t *testing.T) {
	h := newHarness(t, nil)

	res, body := h.do(http.MethodGet, "/about", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, "About JoaliStay")
	require.NotNil(t, h.cookie)
	assert.True(t, h.cookie.HttpOnly)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))

	first := h.cookie.Value
	h.do(http.MethodGet, "/", nil)
	assert.Equal(t, first, h.cookie.Value)
}

func TestServer_RejectsPostsWithoutCSRFToken(t *testing.T) {
	h := newHarness(t, nil)
	h.backend.token = customerToken(t, true)

	res, _ := h.do(http.MethodPost, "/login", url.Values{
		"email":    {"user@example.com"},
		"password": {"secret"},
	})
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.Equal(t, 0, h.backend.hit("/api/Auth/Login"))

	_, body := h.do(http.MethodGet, "/login", nil)
	require.NotEmpty(t, h.csrf)
	assert.Contains(t, body, `name="_token" value="`+h.csrf+`"`)
}

func TestServer_AnonymousIsSentToLogin(t *testing.T) {
	h := newHarness(t, nil)

	for _, path := range []string{"/dashboard", "/dashboard/users", "/payment", "/home/1"} {
		res, _ := h.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode, path)
		assert.Equal(t, "/login", res.Header.Get("Location"), path)
	}
}

func TestServer_LoginLandsByRole(t *testing.T) {
	t.Run("manager", func(t *testing.T) {
		h := newHarness(t, nil)
		res := h.login(managerToken(t))
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/dashboard/manage-bookings", res.Header.Get("Location"))

		res, body := h.do(http.MethodGet, "/dashboard/manage-bookings", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Manage Bookings")
		assert.NotContains(t, body, `class="error"`)
		assert.Equal(t, 1, h.backend.hit("/api/ServiceOrder/all"))

		// managers have no user administration
		res, _ = h.do(http.MethodGet, "/dashboard/users", nil)
		assert.Equal(t, http.StatusSeeOther, res.StatusCode)
		assert.Equal(t, "/unauthorized", res.Header.Get("Location"))
	})

	t.Run("customer", func(t *testing.T) {
		h := newHarness(t, nil)
		res := h.login(customerToken(t, true))
		assert.Equal(t, "/home/9", res.Header.Get("Location"))

		res, _ = h.do(http.MethodGet, "/dashboard", nil)
		assert.Equal(t, "/unauthorized", res.Header.Get("Location"))

		res, body := h.do(http.MethodGet, "/unauthorized", nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.Contains(t, body, `url=/home/9`)
	})
}

func TestServer_LoginFailureRendersForm(t *testing.T) {
	h := newHarness(t, nil)

	res := h.login("")
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res, _ = h.do(http.MethodGet, "/dashboard", nil)
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

func TestServer_ForcedLogoutRedirectsToLogin(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/ServiceOrder/my-orders": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		},
	})
	h.login(customerToken(t, true))

	res, body := h.do(http.MethodGet, "/home/9", nil)
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))
	assert.NotContains(t, body, "Welcome")

	// the session is gone for the next request too
	res, _ = h.do(http.MethodGet, "/home/9", nil)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	_, metricsBody := h.do(http.MethodGet, "/metrics", nil)
	assert.Contains(t, metricsBody, "joalistay_forced_logouts_total 1")
}

func TestServer_EveryUnauthorizedResponseRedirects(t *testing.T) {
	t.Run("anonymous visitor", func(t *testing.T) {
		h := newHarness(t, map[string]http.HandlerFunc{
			"/api/Organization/": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		})

		for i := 0; i < 2; i++ {
			res, body := h.do(http.MethodGet, "/hotels", nil)
			assert.Equal(t, http.StatusSeeOther, res.StatusCode, "load %d", i+1)
			assert.Equal(t, "/login", res.Header.Get("Location"), "load %d", i+1)
			assert.NotContains(t, body, "Hotels")
		}
		assert.Equal(t, 2, h.backend.hit("/api/Organization/"))
	})

	t.Run("second login in the same visitor", func(t *testing.T) {
		h := newHarness(t, map[string]http.HandlerFunc{
			"/api/ServiceOrder/my-orders": func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		})

		for i := 0; i < 2; i++ {
			h.login(customerToken(t, true))
			res, _ := h.do(http.MethodGet, "/home/9", nil)
			assert.Equal(t, http.StatusSeeOther, res.StatusCode, "round %d", i+1)
			assert.Equal(t, "/login", res.Header.Get("Location"), "round %d", i+1)
		}

		_, metricsBody := h.do(http.MethodGet, "/metrics", nil)
		assert.Contains(t, metricsBody, "joalistay_forced_logouts_total 2")
	})
}

func TestServer_LogoutRequiresPost(t *testing.T) {
	h := newHarness(t, nil)
	h.login(customerToken(t, true))

	res, _ := h.do(http.MethodGet, "/logout", nil)
	assert.NotEqual(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, 0, h.backend.hit("/api/Auth/Logout"))

	res, _ = h.do(http.MethodGet, "/home/9", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)

	res, _ = h.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	res, _ = h.do(http.MethodGet, "/home/9", nil)
	assert.Equal(t, "/login", res.Header.Get("Location"))
}

func TestServer_InitialPasswordConfirmation(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodGet, "/initial-password-setup?email=a@b.com&code=123456", nil)

	res, body := h.do(http.MethodPost, "/initial-password-setup", url.Values{
		"email":            {"a@b.com"},
		"code":             {"123456"},
		"new_password":     {"secret-one"},
		"confirm_password": {"secret-two"},
	})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body, "Passwords do not match.")
	assert.Contains(t, body, `name="confirm_password"`)
	assert.Equal(t, 0, h.backend.hit("/api/Auth/ResetPassword"))

	res, _ = h.do(http.MethodPost, "/initial-password-setup", url.Values{
		"email":            {"a@b.com"},
		"code":             {"123456"},
		"new_password":     {"secret-one"},
		"confirm_password": {"secret-one"},
	})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login?reset=1", res.Header.Get("Location"))
	assert.Equal(t, 1, h.backend.hit("/api/Auth/ResetPassword"))
}

func TestServer_TicketsRequireBooking(t *testing.T) {
	t.Run("blocked", func(t *testing.T) {
		h := newHarness(t, nil)
		h.login(customerToken(t, false))

		res, body := h.do(http.MethodGet, "/tickets/themepark", nil)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.Contains(t, body, "Booking required")
		assert.Contains(t, body, `href="/hotels"`)
	})

	t.Run("allowed", func(t *testing.T) {
		h := newHarness(t, nil)
		h.login(customerToken(t, true))

		res, body := h.do(http.MethodGet, "/tickets/themepark", nil)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Contains(t, body, "Theme Park")
	})

	t.Run("unknown kind", func(t *testing.T) {
		h := newHarness(t, nil)
		h.login(customerToken(t, true))

		res, _ := h.do(http.MethodGet, "/tickets/zoo", nil)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
}

func TestServer_PlaceOrderGoesToPayment(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/ServiceOrder/place": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":true,"data":{"id":55}}`)
		},
	})
	h.login(customerToken(t, true))

	res, _ := h.do(http.MethodPost, "/hotels/1/rooms", url.Values{
		"service_id":    {"3"},
		"quantity":      {"2"},
		"scheduled_for": {"2030-01-02"},
	})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/payment?bookingId=55", res.Header.Get("Location"))

	res, _ = h.do(http.MethodPost, "/hotels/1/rooms", url.Values{
		"service_id":    {"3"},
		"scheduled_for": {"not a date"},
	})
	assert.Equal(t, "/hotels/1/rooms", res.Header.Get("Location"))
	assert.Equal(t, 1, h.backend.hit("/api/ServiceOrder/place"))
}

func TestServer_DashboardActionFlashes(t *testing.T) {
	h := newHarness(t, map[string]http.HandlerFunc{
		"/api/ServiceOrder/update-status/12": func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{"success":true,"message":"updated"}`)
		},
	})
	h.login(managerToken(t))

	res, _ := h.do(http.MethodPost, "/dashboard/manage-bookings/12/status", url.Values{"status": {"1"}})
	assert.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/dashboard/manage-bookings", res.Header.Get("Location"))

	_, body := h.do(http.MethodGet, "/dashboard/manage-bookings", nil)
	assert.Contains(t, body, "Order #12 marked Confirmed")

	// flashes are shown once
	_, body = h.do(http.MethodGet, "/dashboard/manage-bookings", nil)
	assert.NotContains(t, body, "Order #12 marked")
}

func TestServer_Metrics(t *testing.T) {
	h := newHarness(t, nil)
	h.do(http.MethodGet, "/dashboard", nil)

	res, body := h.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, body, `joalistay_guard_decisions_total{state="redirect_login"} 1`)
}

func TestNew_RequiresConfigAndStore(t *testing.T) {
	_, err := web.New(web.Options{Store: storage.NewMemory()})
	assert.Error(t, err)

	_, err = web.New(web.Options{Config: config.Defaults()})
	assert.Error(t, err)
}
