package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"devevent/internal/adapters/feed"
	"devevent/internal/adapters/ical"
	"devevent/internal/domain"
)

// app holds everything a subcommand needs.
type app struct {
	events   domain.EventService
	bookings domain.BookingService
	fileFeed domain.EventFeed
	httpFeed domain.EventFeed
	migrate  func(context.Context) error
	out      io.Writer
	logger   *slog.Logger
	now      func() time.Time
}

var errUsage = errors.New("usage")

type command struct {
	name    string
	summary string
	run     func(a *app, ctx context.Context, args []string) error
}

var commands = []command{
	{"migrate", "create tables and indexes", (*app).cmdMigrate},
	{"create-event", "create an event from -file (JSON or YAML, - for stdin)", (*app).cmdCreateEvent},
	{"update-event", "replace event -id with the contents of -file", (*app).cmdUpdateEvent},
	{"get-event", "show the event with -slug or -id", (*app).cmdGetEvent},
	{"list-events", "list all events, newest first", (*app).cmdListEvents},
	{"similar", "list up to three events sharing a tag with -slug", (*app).cmdSimilar},
	{"book", "book -email onto -event", (*app).cmdBook},
	{"bookings", "list bookings for -event", (*app).cmdBookings},
	{"count", "count bookings for -event", (*app).cmdCount},
	{"import", "create every event in -file or -url", (*app).cmdImport},
	{"export-ics", "write the catalog as iCalendar to stdout or -out", (*app).cmdExportICS},
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: devevent <command> [flags]")
	fmt.Fprintln(w)
	for _, c := range commands {
		fmt.Fprintf(w, "  %-13s %s\n", c.name, c.summary)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(a, ctx, args[1:])
		}
	}
	usage(os.Stderr)
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

// exitCode maps an error to a process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage), domain.IsValidation(err):
		return 2
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrEventNotExist):
		return 3
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrDuplicateBooking):
		return 4
	case errors.Is(err, domain.ErrStoreUnavailable):
		return 5
	}
	return 1
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func required(fs *flag.FlagSet, names ...string) error {
	for _, n := range names {
		if f := fs.Lookup(n); f == nil || strings.TrimSpace(f.Value.String()) == "" {
			return fmt.Errorf("%w: %s: -%s is required", errUsage, fs.Name(), n)
		}
	}
	return nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readEventFile(path string) (*domain.RawEvent, error) {
	if path == "-" {
		return feed.ReadEvent(os.Stdin, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return feed.ReadEvent(f, path)
}

func (a *app) cmdMigrate(ctx context.Context, args []string) error {
	if err := parse(newFlags("migrate"), args); err != nil {
		return err
	}
	if err := a.migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return a.print(map[string]string{"status": "ok"})
}

func (a *app) cmdCreateEvent(ctx context.Context, args []string) error {
	fs := newFlags("create-event")
	file := fs.String("file", "", "event file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "file"); err != nil {
		return err
	}
	raw, err := readEventFile(*file)
	if err != nil {
		return err
	}
	ev, err := a.events.CreateEvent(ctx, raw)
	if err != nil {
		return err
	}
	return a.print(ev)
}

func (a *app) cmdUpdateEvent(ctx context.Context, args []string) error {
	fs := newFlags("update-event")
	id := fs.String("id", "", "event id")
	file := fs.String("file", "", "event file")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "id", "file"); err != nil {
		return err
	}
	raw, err := readEventFile(*file)
	if err != nil {
		return err
	}
	ev, err := a.events.UpdateEvent(ctx, *id, raw)
	if err != nil {
		return err
	}
	return a.print(ev)
}

func (a *app) cmdGetEvent(ctx context.Context, args []string) error {
	fs := newFlags("get-event")
	slug := fs.String("slug", "", "event slug")
	id := fs.String("id", "", "event id")
	if err := parse(fs, args); err != nil {
		return err
	}
	var (
		ev  *domain.Event
		err error
	)
	switch {
	case *id != "":
		ev, err = a.events.GetEventByID(ctx, *id)
	default:
		ev, err = a.events.GetEventBySlug(ctx, *slug)
	}
	if err != nil {
		return err
	}
	return a.print(ev)
}

func (a *app) cmdListEvents(ctx context.Context, args []string) error {
	if err := parse(newFlags("list-events"), args); err != nil {
		return err
	}
	events, err := a.events.ListEvents(ctx)
	if err != nil {
		return err
	}
	return a.print(events)
}

func (a *app) cmdSimilar(ctx context.Context, args []string) error {
	fs := newFlags("similar")
	slug := fs.String("slug", "", "source event slug")
	if err := parse(fs, args); err != nil {
		return err
	}
	events, err := a.events.GetSimilarEvents(ctx, *slug)
	if err != nil {
		return err
	}
	return a.print(events)
}

func (a *app) cmdBook(ctx context.Context, args []string) error {
	fs := newFlags("book")
	eventID := fs.String("event", "", "event id")
	email := fs.String("email", "", "attendee email")
	if err := parse(fs, args); err != nil {
		return err
	}
	b, err := a.bookings.CreateBooking(ctx, *eventID, *email)
	if err != nil {
		return err
	}
	return a.print(b)
}

func (a *app) cmdBookings(ctx context.Context, args []string) error {
	fs := newFlags("bookings")
	eventID := fs.String("event", "", "event id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "event"); err != nil {
		return err
	}
	list, err := a.bookings.ListBookingsForEvent(ctx, *eventID)
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) cmdCount(ctx context.Context, args []string) error {
	fs := newFlags("count")
	eventID := fs.String("event", "", "event id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := required(fs, "event"); err != nil {
		return err
	}
	n, err := a.bookings.CountBookingsForEvent(ctx, *eventID)
	if err != nil {
		return err
	}
	return a.print(map[string]any{"event_id": *eventID, "count": n})
}

type importResult struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	ID    string `json:"id,omitempty"`
	Slug  string `json:"slug,omitempty"`
	Error string `json:"error,omitempty"`
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := newFlags("import")
	file := fs.String("file", "", "JSON or YAML file with a list of events")
	url := fs.String("url", "", "URL serving a list of events")
	if err := parse(fs, args); err != nil {
		return err
	}
	if (*file == "") == (*url == "") {
		return fmt.Errorf("%w: import: exactly one of -file or -url is required", errUsage)
	}

	var (
		raws []*domain.RawEvent
		err  error
	)
	if *file != "" {
		raws, err = a.fileFeed.Fetch(ctx, *file)
	} else {
		raws, err = a.httpFeed.Fetch(ctx, *url)
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	results := make([]importResult, 0, len(raws))
	failed := 0
	for i, raw := range raws {
		res := importResult{Index: i, Title: raw.Title}
		ev, err := a.events.CreateEvent(ctx, raw)
		if err != nil {
			failed++
			res.Error = err.Error()
			a.logger.Warn("import: event rejected", "index", i, "title", raw.Title, "error", err)
		} else {
			res.ID, res.Slug = ev.ID, ev.Slug
		}
		results = append(results, res)
	}
	if err := a.print(results); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("import: %d of %d events rejected", failed, len(raws))
	}
	return nil
}

func (a *app) cmdExportICS(ctx context.Context, args []string) error {
	fs := newFlags("export-ics")
	out := fs.String("out", "", "output file (default stdout)")
	if err := parse(fs, args); err != nil {
		return err
	}
	events, err := a.events.ListEvents(ctx)
	if err != nil {
		return err
	}

	w := a.out
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return ical.Export(w, events, a.now())
}
