package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/wheelvault/internal/common"
)

// getSecret is an indirection used to facilitate testing.
var getSecret = GetSecret

// Login reads an access token issued by the backend without echo and makes
// it the current session. The token is kept for the next start.
func (a *App) Login(ctx context.Context) error {
	raw, err := getSecret("Paste access token", a.out)
	if err != nil {
		return err
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return errors.New("empty token")
	}

	s, err := a.session.SignIn(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return fmt.Errorf("token expired, request a new one: %w", err)
		}
		return err
	}

	a.mu.Lock()
	a.userName = s.UserID
	a.mu.Unlock()

	fmt.Fprintf(a.out, "Logged in as %s\n", s.UserID)
	return nil
}

// Logout forgets the session and clears the local cache. Changes that were
// not pushed yet are reported before they are lost.
func (a *App) Logout(ctx context.Context) error {
	if err := a.cars.PushPending(ctx); err != nil {
		a.logger.Warn(ctx, "push before logout failed", "error", err)
		fmt.Fprintln(a.out, "Some local changes could not be pushed and will be lost")
	}
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	a.userName = ""
	a.mu.Unlock()

	a.carPager = a.cars.Pager()
	a.newsPager = a.news.Pager()
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
