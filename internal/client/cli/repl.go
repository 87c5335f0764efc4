package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Logout(ctx context.Context) error

	Brands(ctx context.Context, args []string) error
	Cars(ctx context.Context, args []string) error
	More(ctx context.Context) error
	Car(ctx context.Context, args []string) error
	Photo(ctx context.Context, args []string) error
	Favorites(ctx context.Context) error
	Fav(ctx context.Context, args []string) error
	Tradeable(ctx context.Context, args []string) error
	Counts(ctx context.Context) error
	Add(ctx context.Context) error
	Delete(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error

	News(ctx context.Context, args []string) error
	MoreNews(ctx context.Context) error

	Trades(ctx context.Context) error
	Market(ctx context.Context) error
	Propose(ctx context.Context) error
	Respond(ctx context.Context, args []string) error

	Sync(ctx context.Context) error
	Migrate(ctx context.Context) error
}

const (
	helpAnonymous = "Available commands: login, brands, news, migrate, exit"
	helpSignedIn  = "Available commands: brands [refresh], cars [refresh], more, car <id>, photo <id>, " +
		"favorites, fav <id>, tradeable <id> on|off, counts, add, delete <id>, search <q>, " +
		"news [refresh], morenews, trades, market, propose, respond <id> accept|reject, " +
		"sync, migrate, logout, exit"
)

// runREPL reads commands line by line and dispatches them to a until EOF,
// "exit" or "quit". Command errors are printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("wv %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if cmd == "exit" || cmd == "quit" {
			printlnFn("Bye!")
			return
		}

		if err := dispatch(ctx, a, cmd, args); err != nil {
			printlnFn("Error:", err)
		}
	}
}

func dispatch(ctx context.Context, a execIface, cmd string, args []string) error {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpSignedIn)
		} else {
			printlnFn(helpAnonymous)
		}
		return nil
	case "login":
		return a.Login(ctx)
	case "brands":
		return a.Brands(ctx, args)
	case "news":
		return a.News(ctx, args)
	case "morenews":
		return a.MoreNews(ctx)
	case "migrate":
		return a.Migrate(ctx)
	}

	if !a.isLoggedIn() {
		printlnFn("Please log in first (type 'login')")
		return nil
	}

	switch cmd {
	case "logout":
		return a.Logout(ctx)
	case "cars", "l":
		return a.Cars(ctx, args)
	case "more":
		return a.More(ctx)
	case "car":
		return a.Car(ctx, args)
	case "photo":
		return a.Photo(ctx, args)
	case "favorites":
		return a.Favorites(ctx)
	case "fav":
		return a.Fav(ctx, args)
	case "tradeable":
		return a.Tradeable(ctx, args)
	case "counts":
		return a.Counts(ctx)
	case "add":
		return a.Add(ctx)
	case "delete":
		return a.Delete(ctx, args)
	case "search":
		return a.Search(ctx, args)
	case "trades":
		return a.Trades(ctx)
	case "market":
		return a.Market(ctx)
	case "propose":
		return a.Propose(ctx)
	case "respond":
		return a.Respond(ctx, args)
	case "sync":
		return a.Sync(ctx)
	default:
		printlnFn("Unknown command:", cmd)
		return nil
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.userName
	if a.mode != "" {
		if s != "" {
			s += " "
		}
		s += string(a.mode)
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root runs the interactive session until the user exits.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to Wheel Vault (type 'help' for commands)")
	a.checkOnline(ctx)

	if !a.isLoggedIn() {
		if err := a.Login(ctx); err != nil {
			printlnFn("Error:", err)
		}
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
