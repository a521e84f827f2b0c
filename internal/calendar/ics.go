// Package calendar exports published events as iCalendar files so users
// can add a listing to their own calendar apps.
package calendar

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/mutiny19/indy-events/internal/event"
)

// DefaultDuration is assumed when an event has no end time; the front end
// applies the same rule, so exports and the site agree.
const DefaultDuration = 2 * time.Hour

// GenerateICS renders one event as an iCalendar document.
func GenerateICS(evt *event.Event) string {
	cal := newCalendar()
	addEvent(cal, evt, time.Now().UTC())
	return cal.Serialize()
}

// GenerateCalendarICS renders a set of events as one calendar document,
// used by the export subcommand to dump the whole published dataset.
func GenerateCalendarICS(events []event.Event) string {
	cal := newCalendar()
	stamp := time.Now().UTC()
	for i := range events {
		addEvent(cal, &events[i], stamp)
	}
	return cal.Serialize()
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Indy Events//indy-events//EN")
	return cal
}

func addEvent(cal *ics.Calendar, evt *event.Event, stamp time.Time) {
	e := cal.AddEvent(fmt.Sprintf("%s@indy-events", evt.ID))
	e.SetDtStampTime(stamp)
	e.SetStartAt(evt.Start)
	if evt.End != nil {
		e.SetEndAt(*evt.End)
	} else {
		e.SetEndAt(evt.Start.Add(DefaultDuration))
	}

	e.SetSummary(evt.Title)
	if evt.Description != "" {
		e.SetDescription(evt.Description)
	}
	if loc := formatLocation(evt.Location); loc != "" {
		e.SetLocation(loc)
	}
	if evt.URL != "" {
		e.SetURL(evt.URL)
	}
	if evt.Organizer != "" {
		e.SetOrganizer(evt.Organizer)
	}
}

func formatLocation(loc event.Location) string {
	switch {
	case loc.Name != "" && loc.Address != "" && loc.Name != loc.Address:
		return loc.Name + ", " + loc.Address
	case loc.Name != "":
		return loc.Name
	default:
		return loc.Address
	}
}
