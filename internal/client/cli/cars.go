package cli

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/dmitrijs2005/wheelvault/internal/client/models"
	"github.com/dmitrijs2005/wheelvault/internal/filex"
)

var errUsage = errors.New("usage")

// arg returns args[i] or an error that prints usage.
func arg(args []string, i int, usage string) (string, error) {
	if len(args) <= i {
		return "", fmt.Errorf("%w: %s", errUsage, usage)
	}
	return args[i], nil
}

// wantsRefresh reports whether "refresh" was asked for and can be honored.
func (a *App) wantsRefresh(args []string, what string) bool {
	if len(args) == 0 || args[0] != "refresh" {
		return false
	}
	if a.offline() {
		fmt.Fprintf(a.out, "Offline: showing cached %s\n", what)
		return false
	}
	return true
}

// Cars shows the first page of the collection.
func (a *App) Cars(ctx context.Context, args []string) error {
	var err error
	if a.wantsRefresh(args, "cars") {
		err = a.carPager.Refresh(ctx)
	} else {
		err = a.carPager.Init(ctx)
	}

	items := a.carPager.Items()
	if perr := a.printCars(items); perr != nil {
		return perr
	}
	if err != nil {
		return fmt.Errorf("could not refresh, showing cached cars: %w", err)
	}
	a.pageFooter(len(items), a.carPager.EndReached(), "more")
	return nil
}

// More appends the next page of the collection and prints it.
func (a *App) More(ctx context.Context) error {
	before := len(a.carPager.Items())
	err := a.carPager.LoadMore(ctx)

	items := a.carPager.Items()
	if perr := a.printCars(items[before:]); perr != nil {
		return perr
	}
	if err != nil {
		return err
	}
	a.pageFooter(len(items), a.carPager.EndReached(), "more")
	return nil
}

func (a *App) pageFooter(shown int, end bool, next string) {
	if end {
		fmt.Fprintf(a.out, "%d shown, end of list\n", shown)
		return
	}
	fmt.Fprintf(a.out, "%d shown, type '%s' for the next page\n", shown, next)
}

func (a *App) Car(ctx context.Context, args []string) error {
	id, err := arg(args, 0, "car <id>")
	if err != nil {
		return err
	}
	c, err := a.cars.Get(ctx, id, false)
	if err != nil {
		return err
	}

	t := a.table()
	t.row("ID", c.IDRemote)
	t.row("Model", c.Model)
	t.row("Brand", c.BrandID)
	t.row("Year", c.Year)
	t.row("Manufacturer", c.Manufacturer)
	t.row("Category", c.Category)
	t.row("Quantity", c.Quantity)
	t.row("Favorite", c.IsFavorite)
	t.row("For trade", c.AvailableForTrade)
	t.row("Updated", c.UpdatedAt.Local().Format("2006-01-02 15:04"))
	t.row("Status", c.SyncStatus)
	if c.Description != "" {
		t.row("Description", strings.ReplaceAll(c.Description, "\n", " "))
	}
	if err := t.done(); err != nil {
		return err
	}

	imgs, err := a.cars.Images(ctx, id, false)
	if err != nil {
		a.logger.Warn(ctx, "images unavailable", "car", id, "error", err)
		return nil
	}
	if len(imgs) == 0 {
		return nil
	}
	t = a.table("IMAGE", "KEY", "PRIMARY")
	for _, img := range imgs {
		t.row(img.IDRemote, img.StorageKey, flag(img.IsPrimary, "yes"))
	}
	return t.done()
}

// Photo saves the primary photo of a car under ./photos.
func (a *App) Photo(ctx context.Context, args []string) error {
	id, err := arg(args, 0, "photo <id>")
	if err != nil {
		return err
	}
	b, err := a.cars.Photo(ctx, id)
	if err != nil {
		return err
	}
	if b == nil {
		fmt.Fprintln(a.out, "No photo")
		return nil
	}

	dir, err := filex.EnsureSubdDir("photos")
	if err != nil {
		return err
	}
	path, err := filex.SavePhoto(dir, id, b)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Photo saved to: %s\n", path)
	return nil
}

func (a *App) Favorites(ctx context.Context) error {
	cars, err := a.cars.Favorites(ctx, false)
	if err != nil {
		return err
	}
	return a.printCars(cars)
}

func (a *App) Fav(ctx context.Context, args []string) error {
	id, err := arg(args, 0, "fav <id>")
	if err != nil {
		return err
	}
	c, err := a.cars.ToggleFavorite(ctx, id)
	if err != nil {
		return err
	}
	if c.IsFavorite {
		fmt.Fprintf(a.out, "%s added to favorites\n", c.Model)
	} else {
		fmt.Fprintf(a.out, "%s removed from favorites\n", c.Model)
	}
	return nil
}

func (a *App) Tradeable(ctx context.Context, args []string) error {
	const usage = "tradeable <id> on|off"
	id, err := arg(args, 0, usage)
	if err != nil {
		return err
	}
	v, err := arg(args, 1, usage)
	if err != nil {
		return err
	}
	if v != "on" && v != "off" {
		return fmt.Errorf("%w: %s", errUsage, usage)
	}

	c, err := a.cars.SetTradeAvailability(ctx, id, v == "on")
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s open for trade: %t\n", c.Model, c.AvailableForTrade)
	return nil
}

// Counts prints how many cars the collection holds per brand.
func (a *App) Counts(ctx context.Context) error {
	counts, err := a.cars.CountByBrand(ctx, false)
	if err != nil {
		return err
	}

	names := map[string]string{}
	if brands, err := a.brands.List(ctx, false); err == nil {
		for _, b := range brands {
			names[b.IDRemote] = b.Name
		}
	}

	t := a.table("BRAND", "NAME", "CARS")
	for _, id := range slices.Sorted(maps.Keys(counts)) {
		t.row(id, names[id], counts[id])
	}
	return t.done()
}

// Add asks for the fields of a new car and its photos. The first photo
// becomes the primary one.
func (a *App) Add(ctx context.Context) error {
	var car models.Car
	var err error

	if car.BrandID, err = GetSimpleText(a.reader, "Brand id", a.out); err != nil {
		return err
	}
	if car.Model, err = GetSimpleText(a.reader, "Model", a.out); err != nil {
		return err
	}
	if car.Year, err = GetInt(a.reader, "Year (empty if unknown)", 0, a.out); err != nil {
		return err
	}
	if car.Manufacturer, err = GetSimpleText(a.reader, "Manufacturer", a.out); err != nil {
		return err
	}
	if car.Category, err = GetSimpleText(a.reader, "Category", a.out); err != nil {
		return err
	}
	if car.Quantity, err = GetInt(a.reader, "Quantity (default 1)", 1, a.out); err != nil {
		return err
	}
	if car.Description, err = GetMultiline(a.reader, "Description", a.out); err != nil {
		return err
	}

	paths, err := GetLines(a.reader, "Photo file paths, one per line", a.out)
	if err != nil {
		return err
	}
	photos, err := filex.ReadPhotos(paths)
	if err != nil {
		return err
	}

	saved, err := a.cars.Add(ctx, car, photos)
	if err != nil {
		return err
	}
	if saved.NeedsPush() {
		fmt.Fprintf(a.out, "Saved %s locally, it will be pushed on the next sync\n", saved.IDRemote)
	} else {
		fmt.Fprintf(a.out, "Added %s\n", saved.IDRemote)
	}
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := arg(args, 0, "delete <id>")
	if err != nil {
		return err
	}
	if err := a.cars.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", id)
	return nil
}

func (a *App) Search(ctx context.Context, args []string) error {
	q := strings.TrimSpace(strings.Join(args, " "))
	if q == "" {
		return fmt.Errorf("%w: search <query>", errUsage)
	}
	cars, err := a.cars.Search(ctx, q)
	if err != nil {
		return err
	}
	return a.printCars(cars)
}

// Sync pushes every queued change to the backend.
func (a *App) Sync(ctx context.Context) error {
	if a.offline() {
		fmt.Fprintln(a.out, "Offline: changes stay queued until the backend is reachable")
		return nil
	}

	st, err := a.cars.Push(ctx)
	fmt.Fprintf(a.out, "Inserted %d, updated %d, deleted %d, conflicts %d, pulled %d, failed %d\n",
		st.Inserted, st.Updated, st.Deleted, st.Conflicts, st.Pulled, st.Errors)
	if err != nil {
		return err
	}

	if last, err := a.cars.LastPush(ctx); err == nil && !last.IsZero() {
		fmt.Fprintf(a.out, "Last sync: %s\n", last.Local().Format("2006-01-02 15:04:05"))
	}
	return nil
}

// Migrate applies the backend schema.
func (a *App) Migrate(ctx context.Context) error {
	if err := a.session.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Backend schema is up to date")
	return nil
}
