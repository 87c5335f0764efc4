package cli

import (
	"context"
	"fmt"
)

// Brands lists the shared brand catalog.
func (a *App) Brands(ctx context.Context, args []string) error {
	brands, err := a.brands.List(ctx, a.wantsRefresh(args, "brands"))
	if err != nil {
		return err
	}
	return a.printBrands(brands)
}

// News shows the first page of the video feed.
func (a *App) News(ctx context.Context, args []string) error {
	var err error
	if a.wantsRefresh(args, "news") {
		err = a.newsPager.Refresh(ctx)
	} else {
		err = a.newsPager.Init(ctx)
	}

	items := a.newsPager.Items()
	if perr := a.printNews(items); perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("could not refresh, showing cached news: %w", err)
	}
	a.pageFooter(len(items), a.newsPager.EndReached(), "morenews")
	return nil
}

func (a *App) MoreNews(ctx context.Context) error {
	before := len(a.newsPager.Items())
	err := a.newsPager.LoadMore(ctx)

	items := a.newsPager.Items()
	if perr := a.printNews(items[before:]); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	a.pageFooter(len(items), a.newsPager.EndReached(), "morenews")
	return nil
}

// Trades lists trades the user proposed or received.
func (a *App) Trades(ctx context.Context) error {
	trades, err := a.trades.List(ctx)
	if err != nil {
		return err
	}
	return a.printTrades(trades)
}

// Market lists other collectors' cars open for trade.
func (a *App) Market(ctx context.Context) error {
	cars, err := a.trades.TradeableCars(ctx)
	if err != nil {
		return err
	}
	return a.printCars(cars)
}

func (a *App) Propose(ctx context.Context) error {
	offered, err := GetSimpleText(a.reader, "Your car id", a.out)
	if err != nil {
		return err
	}
	requested, err := GetSimpleText(a.reader, "Requested car id", a.out)
	if err != nil {
		return err
	}
	msg, err := GetMultiline(a.reader, "Message", a.out)
	if err != nil {
		return err
	}

	id, err := a.trades.Propose(ctx, offered, requested, msg)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Trade %s proposed\n", id)
	return nil
}

func (a *App) Respond(ctx context.Context, args []string) error {
	const usage = "respond <id> accept|reject"
	id, err := arg(args, 0, usage)
	if err != nil {
		return err
	}
	v, err := arg(args, 1, usage)
	if err != nil {
		return err
	}
	if v != "accept" && v != "reject" {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	if err := a.trades.Respond(ctx, id, v == "accept"); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Trade %s %sed\n", id, v)
	return nil
}
