package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-joalistay"
	"github.com/goliatone/go-joalistay/services"
	"github.com/patrickmn/go-cache"
)

// visitor is one browser. The client is cached, the session itself lives in
// the store so an evicted visitor is rebuilt with its login intact.
type visitor struct {
	id       string
	client   *joalistay.Client
	services *services.Services

	mu    sync.Mutex
	flash string
}

func newVisitor(id string, client *joalistay.Client, logger joalistay.Logger) *visitor {
	return &visitor{
		id:       id,
		client:   client,
		services: services.New(client.Gateway).WithLogger(logger),
	}
}

// Flash queues a one shot message for the next rendered page.
func (v *visitor) Flash(msg string) {
	v.mu.Lock()
	v.flash = msg
	v.mu.Unlock()
}

// TakeFlash returns and clears the queued message.
func (v *visitor) TakeFlash() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	msg := v.flash
	v.flash = ""
	return msg
}

type visitors struct {
	mu    sync.Mutex
	cache *cache.Cache
	build func(id string) *visitor
}

func newVisitors(ttl time.Duration, build func(id string) *visitor) *visitors {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &visitors{
		cache: cache.New(ttl, 10*time.Minute),
		build: build,
	}
}

// get returns the visitor for id, creating it on first sight. Every hit
// extends the visitor's lifetime.
func (vs *visitors) get(id string) *visitor {
	vs.mu.Lock()
	defer vs.mu.Unlock()

	if x, ok := vs.cache.Get(id); ok {
		v := x.(*visitor)
		vs.cache.SetDefault(id, v)
		return v
	}

	v := vs.build(id)
	vs.cache.SetDefault(id, v)
	return v
}

func visitorOf(c *fiber.Ctx) *visitor {
	v, _ := c.Locals(localsVisitor).(*visitor)
	return v
}

// sessionOf returns the session the guard settled on, or a fresh snapshot.
func sessionOf(c *fiber.Ctx) joalistay.Session {
	if s, ok := c.Locals(localsSession).(joalistay.Session); ok {
		return s
	}
	v := visitorOf(c)
	if v == nil {
		return joalistay.Session{}
	}
	return v.client.Sessions.Snapshot(c.UserContext())
}
