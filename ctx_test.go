package joalistay_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-joalistay"
	"github.com/stretchr/testify/assert"
)

func TestNavigatorFromContext(t *testing.T) {
	_, ok := joalistay.NavigatorFromContext(context.Background())
	assert.False(t, ok)

	var target string
	ctx := joalistay.WithNavigator(context.Background(), joalistay.NavigatorFunc(func(path string) {
		target = path
	}))

	nav, ok := joalistay.NavigatorFromContext(ctx)
	assert.True(t, ok)
	nav.Navigate("/login")
	assert.Equal(t, "/login", target)

	ctx = joalistay.WithNavigator(context.Background(), nil)
	_, ok = joalistay.NavigatorFromContext(ctx)
	assert.False(t, ok)
}

func TestSessionFromContext(t *testing.T) {
	_, ok := joalistay.SessionFromContext(context.Background())
	assert.False(t, ok)

	s := joalistay.Session{AccessToken: "t", UserID: "1"}
	got, ok := joalistay.SessionFromContext(joalistay.WithSession(context.Background(), s))
	assert.True(t, ok)
	assert.Equal(t, s, got)
}
