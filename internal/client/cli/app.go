package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/client"
	"github.com/dmitrijs2005/wheelvault/internal/client/config"
	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/client/paging"
	"github.com/dmitrijs2005/wheelvault/internal/client/remote"
	"github.com/dmitrijs2005/wheelvault/internal/client/services"
	"github.com/dmitrijs2005/wheelvault/internal/logging"
	"golang.org/x/term"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// Session is the part of client.Client the REPL drives directly.
type Session interface {
	SignIn(ctx context.Context, token string) (*remote.Session, error)
	SignOut(ctx context.Context) error
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

type App struct {
	config  *config.Config
	session Session
	brands  services.BrandService
	cars    services.CarService
	news    services.NewsService
	trades  services.TradeService

	carPager  *paging.Pager[models.Car]
	newsPager *paging.Pager[models.News]

	mu       sync.Mutex
	mode     Mode
	userName string

	reader *bufio.Reader
	out    io.Writer
	pretty bool
	logger logging.Logger
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	cl, err := client.New(ctx, c, logger)
	if err != nil {
		logger.Error(ctx, "error initializing client", "error", err)
		return nil, err
	}

	a := newApp(c, cl, cl.Brands, cl.Cars, cl.News, cl.Trades, logger)
	a.reader = bufio.NewReader(os.Stdin)
	a.out = os.Stdout
	a.pretty = term.IsTerminal(int(os.Stdout.Fd()))
	if s := cl.Auth.Session(); s != nil {
		a.userName = s.UserID
	}
	return a, nil
}

func newApp(c *config.Config, s Session, brands services.BrandService, cars services.CarService,
	news services.NewsService, trades services.TradeService, logger logging.Logger) *App {
	return &App{
		config:    c,
		session:   s,
		brands:    brands,
		cars:      cars,
		news:      news,
		trades:    trades,
		carPager:  cars.Pager(),
		newsPager: news.Pager(),
		logger:    logger,
	}
}

func (a *App) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// setMode records mode and reports whether it changed.
func (a *App) setMode(mode Mode) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.mode == mode {
		return false
	}
	a.mode = mode
	return true
}

func (a *App) offline() bool {
	return a.Mode() == ModeOffline
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName != ""
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		if err := a.session.Close(); err != nil {
			a.logger.Error(ctx, "close failed", "error", err)
		}
	}()
	a.Root(ctx)
}

// checkOnline pings the backend once and prints a line on a mode switch.
// Coming back online pushes queued changes.
func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.session.Ping(pctx)
	cancel()

	if err != nil {
		if a.setMode(ModeOffline) {
			fmt.Fprintf(a.out, "Switched to %s mode\n", ModeOffline)
			a.logger.Debug(ctx, "backend unreachable", "error", err)
		}
		return
	}

	if a.setMode(ModeOnline) {
		fmt.Fprintf(a.out, "Switched to %s mode\n", ModeOnline)
		if a.isLoggedIn() {
			if err := a.cars.PushPending(ctx); err != nil {
				a.logger.Warn(ctx, "push after reconnect failed", "error", err)
			}
		}
	}
}

func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
