package services

import (
	"fmt"
	"time"
)

const (
	DateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var timeLayouts = []string{"15:04", "15:04:05"}

// BookingPolicy holds the business-hour and booking-window rules.
type BookingPolicy struct {
	OpenHour    int
	CloseHour   int
	HorizonDays int
	LeadWindow  time.Duration
	Location    *time.Location
}

func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		OpenHour:    11,
		CloseHour:   22,
		HorizonDays: 7,
		LeadWindow:  30 * time.Minute,
		Location:    time.Local,
	}
}

func (p BookingPolicy) Validate() error {
	if p.OpenHour < 0 || p.CloseHour > 23 || p.OpenHour > p.CloseHour {
		return fmt.Errorf("operating hours %d-%d are not a valid range", p.OpenHour, p.CloseHour)
	}
	if p.HorizonDays < 1 {
		return fmt.Errorf("booking horizon must be at least one day, got %d", p.HorizonDays)
	}
	if p.LeadWindow < 0 {
		return fmt.Errorf("lead window must not be negative, got %s", p.LeadWindow)
	}
	return nil
}

func (p BookingPolicy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Slot is a validated one-hour booking slot.
type Slot struct {
	Date  string
	Time  string
	Hour  int
	Start time.Time
}

// Key identifies the slot across tables, e.g. "2024-06-10T18:00".
func (s Slot) Key() string {
	return s.Date + "T" + s.Time
}

func (s Slot) String() string {
	return s.Date + " " + s.Time
}

// Today returns midnight of the current day in the policy's location.
func (p BookingPolicy) Today(now time.Time) time.Time {
	y, m, d := now.In(p.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, p.location())
}

// LastBookableDay is the final day of the booking horizon.
func (p BookingPolicy) LastBookableDay(now time.Time) time.Time {
	return p.Today(now).AddDate(0, 0, p.HorizonDays-1)
}

func (p BookingPolicy) parseDate(date string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, date, p.location())
	if err != nil {
		return time.Time{}, newError(ErrInvalidDate, "date", "date %q must use the YYYY-MM-DD format", date)
	}
	return d, nil
}

// ValidateDate checks that date lies inside the booking horizon.
func (p BookingPolicy) ValidateDate(now time.Time, date string) (time.Time, error) {
	d, err := p.parseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	first, last := p.Today(now), p.LastBookableDay(now)
	if d.Before(first) || d.After(last) {
		return time.Time{}, newError(ErrInvalidDate, "date",
			"date %s is outside the booking window %s to %s",
			date, first.Format(DateLayout), last.Format(DateLayout))
	}
	return d, nil
}

func (p BookingPolicy) parseHour(clock string) (int, error) {
	var (
		t   time.Time
		err error
	)
	for _, layout := range timeLayouts {
		if t, err = time.Parse(layout, clock); err == nil {
			break
		}
	}
	if err != nil {
		return 0, newError(ErrInvalidTime, "time", "time %q must use the HH:MM format", clock)
	}
	if t.Minute() != 0 || t.Second() != 0 {
		return 0, newError(ErrInvalidTime, "time", "time %s is not on the hour", clock)
	}
	if t.Hour() < p.OpenHour || t.Hour() > p.CloseHour {
		return 0, newError(ErrInvalidTime, "time",
			"time %s is outside operating hours %02d:00 to %02d:00", clock, p.OpenHour, p.CloseHour)
	}
	return t.Hour(), nil
}

// SlotAt builds the slot for a stored date and time without checking it
// against the clock.
func (p BookingPolicy) SlotAt(date, clock string) (Slot, error) {
	d, err := p.parseDate(date)
	if err != nil {
		return Slot{}, err
	}
	hour, err := p.parseHour(clock)
	if err != nil {
		return Slot{}, err
	}
	return p.slot(d, hour), nil
}

func (p BookingPolicy) slot(day time.Time, hour int) Slot {
	start := time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, p.location())
	return Slot{
		Date:  start.Format(DateLayout),
		Time:  start.Format(timeLayout),
		Hour:  hour,
		Start: start,
	}
}

// ValidateSlot applies every date and time rule: the booking horizon, the
// operating hours on whole hours only, and for today a start strictly after
// now.
func (p BookingPolicy) ValidateSlot(now time.Time, date, clock string) (Slot, error) {
	d, err := p.ValidateDate(now, date)
	if err != nil {
		return Slot{}, err
	}
	hour, err := p.parseHour(clock)
	if err != nil {
		return Slot{}, err
	}
	s := p.slot(d, hour)
	if !s.Start.After(now) {
		return Slot{}, newError(ErrInvalidTime, "time",
			"time %s has already passed, the earliest bookable time today is %s",
			s.Time, p.EarliestTime(now))
	}
	return s, nil
}

// EarliestTime is the first full hour after now, capped at closing time.
func (p BookingPolicy) EarliestTime(now time.Time) string {
	local := now.In(p.location())
	hour := local.Hour() + 1
	if hour < p.OpenHour {
		hour = p.OpenHour
	}
	if hour > p.CloseHour {
		hour = p.CloseHour
	}
	return fmt.Sprintf("%02d:00", hour)
}

// OpenSlots lists the slots of date that can still be booked.
func (p BookingPolicy) OpenSlots(now time.Time, date string) ([]Slot, error) {
	d, err := p.ValidateDate(now, date)
	if err != nil {
		return nil, err
	}
	var slots []Slot
	for hour := p.OpenHour; hour <= p.CloseHour; hour++ {
		s := p.slot(d, hour)
		if s.Start.After(now) {
			slots = append(slots, s)
		}
	}
	return slots, nil
}

// LeadWindowOpen reports whether now falls in the lead window of s, i.e. at
// or after s.Start-LeadWindow and before s.Start.
func (p BookingPolicy) LeadWindowOpen(now time.Time, s Slot) bool {
	return !now.Before(s.Start.Add(-p.LeadWindow)) && now.Before(s.Start)
}
