package common

import "fmt"

const (
	DaysPerWeek    = 7
	MinutesPerDay  = 24 * 60
	MinutesPerWeek = DaysPerWeek * MinutesPerDay
)

var dayNames = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// TimeSlot is a point in the booking week, Monday 00:00 being zero.
// Hour 24 is only produced as a computed end-of-day bound.
type TimeSlot struct {
	Day    uint8
	Hour   uint8
	Minute uint8
}

// Minutes returns the minutes elapsed since the start of the week.
func (t TimeSlot) Minutes() int {
	return int(t.Day)*MinutesPerDay + int(t.Hour)*60 + int(t.Minute)
}

func (t TimeSlot) Before(o TimeSlot) bool {
	return t.Minutes() < o.Minutes()
}

func (t TimeSlot) Equal(o TimeSlot) bool {
	return t.Minutes() == o.Minutes()
}

// Valid reports whether t is acceptable as client input.
func (t TimeSlot) Valid() bool {
	return t.Day < DaysPerWeek && t.Hour < 24 && t.Minute < 60
}

func (t TimeSlot) String() string {
	return fmt.Sprintf("%s %02d:%02d", DayName(t.Day), t.Hour, t.Minute)
}

// TimeSlotFromMinutes is the inverse of Minutes for m in [0, MinutesPerWeek].
// The end of the week maps to Sunday 24:00.
func TimeSlotFromMinutes(m int) TimeSlot {
	if m == MinutesPerWeek {
		return DayEnd(DaysPerWeek - 1)
	}
	return TimeSlot{
		Day:    uint8(m / MinutesPerDay),
		Hour:   uint8((m / 60) % 24),
		Minute: uint8(m % 60),
	}
}

func DayStart(day uint8) TimeSlot {
	return TimeSlot{Day: day}
}

// DayEnd is the exclusive upper bound of day.
func DayEnd(day uint8) TimeSlot {
	return TimeSlot{Day: day, Hour: 24}
}

// DayName returns the short English name of day, or "Day<n>" when out of range.
func DayName(day uint8) string {
	if int(day) < DaysPerWeek {
		return dayNames[day]
	}
	return fmt.Sprintf("Day%d", day)
}
