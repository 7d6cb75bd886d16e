package main

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/Iyzyman/facility-booking/common"
)

func interval(start, end common.TimeSlot) common.Interval {
	return common.Interval{Start: start, End: end}
}

func TestOverlaps(t *testing.T) {
	c := qt.New(t)
	c.Assert(overlaps(0, 10, 5, 15), qt.IsTrue)
	c.Assert(overlaps(5, 15, 0, 10), qt.IsTrue)
	c.Assert(overlaps(0, 10, 2, 3), qt.IsTrue)
	c.Assert(overlaps(0, 10, 10, 20), qt.IsFalse)
	c.Assert(overlaps(10, 20, 0, 10), qt.IsFalse)
	c.Assert(overlaps(0, 10, 11, 20), qt.IsFalse)
}

func TestAvailabilityEmptyFacility(t *testing.T) {
	c := qt.New(t)
	fac, err := newTestStore().Facility("Meeting Room A")
	c.Assert(err, qt.IsNil)

	got := fac.Availability(allDays)
	c.Assert(got, qt.HasLen, common.DaysPerWeek)
	for i, day := range got {
		c.Assert(day.Day, qt.Equals, uint8(i))
		c.Assert(day.Slots, qt.DeepEquals, []common.Interval{
			interval(common.DayStart(uint8(i)), common.DayEnd(uint8(i))),
		})
	}
}

func TestAvailabilityGaps(t *testing.T) {
	c := qt.New(t)
	s := newTestStore()
	mustBook(c, s, "Conference Hall", slot(0, 13, 0), slot(0, 14, 0))
	mustBook(c, s, "Conference Hall", slot(0, 9, 0), slot(0, 10, 0))
	mustBook(c, s, "Conference Hall", slot(0, 10, 0), slot(0, 10, 30))
	fac, _ := s.Facility("Conference Hall")

	got := fac.Availability([]uint8{0})
	c.Assert(got, qt.DeepEquals, []common.DayAvailability{{
		Day: 0,
		Slots: []common.Interval{
			interval(slot(0, 0, 0), slot(0, 9, 0)),
			interval(slot(0, 10, 30), slot(0, 13, 0)),
			interval(slot(0, 14, 0), common.DayEnd(0)),
		},
	}})
}

func TestAvailabilityFullyBookedDay(t *testing.T) {
	c := qt.New(t)
	s := newTestStore()
	mustBook(c, s, "Seminar Room B", slot(2, 0, 0), slot(2, 12, 0))
	mustBook(c, s, "Seminar Room B", slot(2, 12, 0), slot(3, 0, 0))
	fac, _ := s.Facility("Seminar Room B")

	got := fac.Availability([]uint8{2, 3})
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0].Slots, qt.HasLen, 0)
	c.Assert(got[1].Slots, qt.DeepEquals, []common.Interval{
		interval(common.DayStart(3), common.DayEnd(3)),
	})
}

func TestAvailabilityClipsAcrossMidnight(t *testing.T) {
	c := qt.New(t)
	s := newTestStore()
	mustBook(c, s, "Meeting Room A", slot(0, 22, 0), slot(1, 2, 0))
	fac, _ := s.Facility("Meeting Room A")

	got := fac.Availability([]uint8{1, 0})
	c.Assert(got, qt.DeepEquals, []common.DayAvailability{{
		Day:   1,
		Slots: []common.Interval{interval(slot(1, 2, 0), common.DayEnd(1))},
	}, {
		Day:   0,
		Slots: []common.Interval{interval(slot(0, 0, 0), slot(0, 22, 0))},
	}})
}

func TestAvailabilityIgnoresCancelled(t *testing.T) {
	c := qt.New(t)
	s := newTestStore()
	bk := mustBook(c, s, "Lecture Theatre 1", slot(4, 8, 0), slot(4, 18, 0))
	_, err := s.Cancel(bk.ConfirmationID)
	c.Assert(err, qt.IsNil)
	fac, _ := s.Facility("Lecture Theatre 1")

	got := fac.Availability([]uint8{4})
	c.Assert(got[0].Slots, qt.DeepEquals, []common.Interval{
		interval(common.DayStart(4), common.DayEnd(4)),
	})
}

func TestAvailabilityEndOfWeek(t *testing.T) {
	c := qt.New(t)
	s := newTestStore()
	mustBook(c, s, "Meeting Room A", slot(6, 23, 0), slot(6, 23, 30))
	fac, _ := s.Facility("Meeting Room A")

	got := fac.Availability([]uint8{6})
	c.Assert(got[0].Slots, qt.DeepEquals, []common.Interval{
		interval(slot(6, 0, 0), slot(6, 23, 0)),
		interval(slot(6, 23, 30), common.TimeSlot{Day: 6, Hour: 24}),
	})
}

func TestFormatAvailability(t *testing.T) {
	c := qt.New(t)
	got := formatAvailability([]common.DayAvailability{{
		Day: 0,
		Slots: []common.Interval{
			interval(slot(0, 0, 0), slot(0, 9, 0)),
			interval(slot(0, 10, 0), common.DayEnd(0)),
		},
	}, {
		Day: 1,
	}})
	c.Assert(got, qt.Equals, "Mon 00:00-09:00 10:00-24:00; Tue none")
}
