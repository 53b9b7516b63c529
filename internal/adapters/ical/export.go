// Package ical renders the event catalog as an iCalendar feed.
package ical

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"devevent/internal/domain"
)

const productID = "-//devevent//catalog//EN"

// Export writes one VEVENT per event to w. Start times are the event's
// canonical date and time read as UTC. now stamps DTSTAMP.
func Export(w io.Writer, events []*domain.Event, now time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	for _, e := range events {
		start, err := StartTime(e)
		if err != nil {
			return fmt.Errorf("event %s: %w", e.Slug, err)
		}
		ve := cal.AddEvent(e.ID + "@devevent")
		ve.SetDtStampTime(now.UTC())
		ve.SetCreatedTime(e.CreatedAt.UTC())
		ve.SetModifiedAt(e.UpdatedAt.UTC())
		ve.SetStartAt(start)
		ve.SetSummary(e.Title)
		ve.SetDescription(e.Description)
		ve.SetLocation(where(e))
		for _, tag := range e.Tags {
			ve.AddProperty(ical.ComponentPropertyCategories, tag)
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// StartTime combines an event's canonical Date and Time into a UTC instant.
func StartTime(e *domain.Event) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", e.Date+" "+e.Time, time.UTC)
}

func where(e *domain.Event) string {
	if e.Mode == domain.ModeOnline {
		return "Online"
	}
	if e.Venue == "" {
		return e.Location
	}
	return e.Venue + ", " + e.Location
}
