package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Iyzyman/facility-booking/common"
)

// overlaps reports whether the half-open minute ranges [s1, e1) and [s2, e2)
// intersect.
func overlaps(s1, e1, s2, e2 int) bool {
	return !(e1 <= s2 || s1 >= e2)
}

// allDays is the day list used for monitor updates.
var allDays = []uint8{0, 1, 2, 3, 4, 5, 6}

type minuteRange struct {
	start, end int
}

// Availability returns the free intervals of each requested day, in the order
// the days were given. Every active booking that overlaps a day counts
// against it, clipped to that day.
func (f *Facility) Availability(days []uint8) []common.DayAvailability {
	result := make([]common.DayAvailability, 0, len(days))
	for _, day := range days {
		result = append(result, common.DayAvailability{
			Day:   day,
			Slots: f.freeSlots(day),
		})
	}
	return result
}

// freeSlots counts a booking on every day it overlaps, not only the day it
// starts, so a booking that crosses midnight also blocks the next morning.
func (f *Facility) freeSlots(day uint8) []common.Interval {
	dayStart := int(day) * common.MinutesPerDay
	dayEnd := dayStart + common.MinutesPerDay

	var busy []minuteRange
	for _, bk := range f.Bookings {
		if bk.Cancelled() {
			continue
		}
		s, e := bk.Start.Minutes(), bk.End.Minutes()
		if !overlaps(s, e, dayStart, dayEnd) {
			continue
		}
		busy = append(busy, minuteRange{start: max(s, dayStart), end: min(e, dayEnd)})
	}
	sort.Slice(busy, func(i, j int) bool {
		return busy[i].start < busy[j].start
	})

	slots := []common.Interval{}
	current := dayStart
	for _, r := range busy {
		if current < r.start {
			slots = append(slots, common.Interval{
				Start: slotAt(day, current),
				End:   slotAt(day, r.start),
			})
		}
		current = max(current, r.end)
	}
	if current < dayEnd {
		slots = append(slots, common.Interval{
			Start: slotAt(day, current),
			End:   common.DayEnd(day),
		})
	}
	return slots
}

// slotAt converts an absolute minute within day to a TimeSlot on that day.
func slotAt(day uint8, minute int) common.TimeSlot {
	if minute-int(day)*common.MinutesPerDay == common.MinutesPerDay {
		return common.DayEnd(day)
	}
	return common.TimeSlotFromMinutes(minute)
}

// formatAvailability renders availability compactly, e.g.
// "Mon 00:00-09:00 10:00-24:00; Tue none".
func formatAvailability(days []common.DayAvailability) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		var sb strings.Builder
		sb.WriteString(common.DayName(d.Day))
		if len(d.Slots) == 0 {
			sb.WriteString(" none")
		}
		for _, slot := range d.Slots {
			fmt.Fprintf(&sb, " %02d:%02d-%02d:%02d",
				slot.Start.Hour, slot.Start.Minute, slot.End.Hour, slot.End.Minute)
		}
		parts = append(parts, sb.String())
	}
	return strings.Join(parts, "; ")
}
