// Package scheduling holds the appointment calendar: slot derivation,
// availability and booking against a single shared service bay.
package scheduling

import (
	"fmt"
	"time"
)

// BusinessHours is the bookable window of a weekday. End is exclusive.
type BusinessHours struct {
	Start        int
	End          int
	SlotDuration time.Duration
}

// DefaultHours is 9:00 AM to 5:00 PM in one hour slots.
var DefaultHours = BusinessHours{Start: 9, End: 17, SlotDuration: time.Hour}

func (b BusinessHours) step() int {
	step := int(b.SlotDuration / time.Hour)
	if step < 1 {
		return 1
	}
	return step
}

// Slots returns the start hour of every slot, ascending.
func (b BusinessHours) Slots() []int {
	slots := make([]int, 0, max(b.End-b.Start, 0))
	for hour := b.Start; hour < b.End; hour += b.step() {
		slots = append(slots, hour)
	}
	return slots
}

// Contains reports whether hour is a bookable start hour.
func (b BusinessHours) Contains(hour int) bool {
	return hour >= b.Start && hour < b.End
}

// LastSlot is the latest start hour that can still be booked.
func (b BusinessHours) LastSlot() int {
	slots := b.Slots()
	if len(slots) == 0 {
		return b.Start
	}
	return slots[len(slots)-1]
}

// IsWeekday is true Monday through Friday.
func IsWeekday(t time.Time) bool {
	day := t.Weekday()
	return day >= time.Monday && day <= time.Friday
}

// FormatSlot renders an hour of the day on a 12-hour clock, e.g. "1:00 PM".
func FormatSlot(hour int) string {
	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	display := hour
	switch {
	case hour == 0:
		display = 12
	case hour > 12:
		display = hour - 12
	}
	return fmt.Sprintf("%d:00 %s", display, period)
}

func formatDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}
