package cli

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/dmitrijs2005/wheelvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubSecret(t *testing.T, token string) {
	t.Helper()
	orig := getSecret
	getSecret = func(string, io.Writer) ([]byte, error) {
		return []byte(token), nil
	}
	t.Cleanup(func() { getSecret = orig })
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, newFakeCars())
	app.userName = ""
	require.False(t, app.isLoggedIn())

	stubSecret(t, "  bogus \n")
	require.ErrorIs(t, app.Login(ctx), common.ErrInvalidToken)
	require.False(t, app.isLoggedIn())

	stubSecret(t, "expired")
	require.ErrorIs(t, app.Login(ctx), common.ErrTokenExpired)

	stubSecret(t, "")
	require.Error(t, app.Login(ctx))

	stubSecret(t, "good\n")
	require.NoError(t, app.Login(ctx))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(u-1 online)", app.getStatus())
	assert.Contains(t, app.out.String(), "Logged in as u-1")
}

func TestLogout_PushesThenClears(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, newFakeCars())
	app.cars.pushErr = errors.New("down")

	require.NoError(t, app.Logout(ctx))
	assert.Equal(t, 1, app.cars.pushes)
	assert.True(t, app.session.signedOut)
	assert.False(t, app.isLoggedIn())
	assert.Contains(t, app.out.String(), "could not be pushed")
	assert.Equal(t, "(online)", app.getStatus())
}

func TestCheckOnline_SwitchesModeAndPushesOnReconnect(t *testing.T) {
	ctx := context.Background()
	app := newTestApp(t, newFakeCars())

	app.session.pingErr = common.ErrUnavailable
	app.checkOnline(ctx)
	assert.Equal(t, ModeOffline, app.Mode())
	assert.Equal(t, "Switched to offline mode\n", app.out.String())

	app.out.Reset()
	app.checkOnline(ctx)
	assert.Empty(t, app.out.String(), "no message without a mode change")

	app.session.pingErr = nil
	app.checkOnline(ctx)
	assert.Equal(t, ModeOnline, app.Mode())
	assert.Equal(t, "Switched to online mode\n", app.out.String())
	assert.Equal(t, 1, app.cars.pushes)

	app.checkOnline(ctx)
	assert.Equal(t, 1, app.cars.pushes)
	assert.Equal(t, 4, app.session.pings)
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	app := newTestApp(t, newFakeCars())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, app.config.OnlineCheckInterval)
		close(done)
	}()
	cancel()
	<-done
}

func TestRun_ClosesSession(t *testing.T) {
	capturePrints(t)
	app := newTestApp(t, newFakeCars(), "exit")

	app.Run(context.Background())
	assert.True(t, app.session.closed)
	assert.Contains(t, app.out.String(), "Welcome to Wheel Vault")
}
