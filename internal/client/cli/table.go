package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
)

// table writes tab-separated rows, aligned when the output is a terminal.
type table struct {
	w     io.Writer
	flush func() error
}

func (a *App) table(header ...string) *table {
	t := &table{w: a.out, flush: func() error { return nil }}
	if a.pretty {
		tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
		t.w, t.flush = tw, tw.Flush
	}
	if len(header) > 0 {
		t.row(toAny(header)...)
	}
	return t
}

func (t *table) row(cols ...any) {
	s := make([]string, len(cols))
	for i, c := range cols {
		s[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(t.w, strings.Join(s, "\t"))
}

func (t *table) done() error {
	return t.flush()
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

func flag(set bool, s string) string {
	if set {
		return s
	}
	return ""
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateOnly)
}

func (a *App) printCars(cars []models.Car) error {
	t := a.table("ID", "MODEL", "BRAND", "YEAR", "QTY", "FLAGS", "STATUS")
	for _, c := range cars {
		flags := strings.TrimSpace(flag(c.IsFavorite, "*") + " " + flag(c.AvailableForTrade, "T"))
		t.row(c.IDRemote, c.Model, c.BrandID, c.Year, c.Quantity, flags, c.SyncStatus)
	}
	return t.done()
}

func (a *App) printBrands(brands []models.Brand) error {
	t := a.table("ID", "NAME", "COUNTRY", "FOUNDED")
	for _, b := range brands {
		t.row(b.IDRemote, b.Name, b.Country, b.FoundedYear)
	}
	return t.done()
}

func (a *App) printNews(items []models.News) error {
	t := a.table("ID", "PUBLISHED", "TITLE", "VIDEO")
	for _, n := range items {
		t.row(n.IDRemote, day(n.PublishedAt), n.Title, n.VideoURL)
	}
	return t.done()
}

func (a *App) printTrades(trades []models.Trade) error {
	t := a.table("ID", "STATUS", "OFFERED", "REQUESTED", "CREATED", "MESSAGE")
	for _, tr := range trades {
		t.row(tr.ID, tr.Status, tr.OfferedCarID, tr.RequestedCarID, day(tr.CreatedAt), tr.Message)
	}
	return t.done()
}
