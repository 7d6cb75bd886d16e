package main

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-hclog"

	"github.com/Iyzyman/facility-booking/common"
)

// BookingStatus is write-once: an active booking may become cancelled, never
// the reverse.
type BookingStatus int

const (
	BookingActive BookingStatus = iota
	BookingCancelled
)

func (s BookingStatus) String() string {
	if s == BookingCancelled {
		return "cancelled"
	}
	return "active"
}

// Booking is one reservation of a facility. Cancelled bookings stay in the
// store so repeated operations on them resolve to the right error.
type Booking struct {
	ConfirmationID string
	FacilityName   string
	Start          common.TimeSlot
	End            common.TimeSlot

	// OriginalEnd is captured at creation and anchors Extend.
	OriginalEnd common.TimeSlot

	Status BookingStatus
}

func (b *Booking) Cancelled() bool {
	return b.Status == BookingCancelled
}

// Overlaps reports whether an active b intersects [start, end).
func (b *Booking) Overlaps(start, end common.TimeSlot) bool {
	if b.Cancelled() {
		return false
	}
	return overlaps(b.Start.Minutes(), b.End.Minutes(), start.Minutes(), end.Minutes())
}

// Facility owns every booking ever made against it, in insertion order.
type Facility struct {
	Name     string
	Bookings []*Booking
}

// IsAvailable reports whether no active booking other than except overlaps
// [start, end). except may be nil.
func (f *Facility) IsAvailable(start, end common.TimeSlot, except *Booking) bool {
	for _, bk := range f.Bookings {
		if bk == except {
			continue
		}
		if bk.Overlaps(start, end) {
			return false
		}
	}
	return true
}

var confirmationIDPattern = regexp.MustCompile(`^CONF[0-9]{6,}$`)

// BookingStore is the in-memory registry of facilities and bookings. The set
// of facilities is fixed at construction. It is not safe for concurrent use;
// the serve loop is its only caller.
type BookingStore struct {
	logger     hclog.Logger
	facilities map[string]*Facility
	names      []string
	bookings   map[string]*Booking
	nextID     int
}

// NewBookingStore seeds one empty facility per name. Duplicate names are
// collapsed.
func NewBookingStore(names []string, logger hclog.Logger) *BookingStore {
	s := &BookingStore{
		logger:     logger,
		facilities: make(map[string]*Facility),
		bookings:   make(map[string]*Booking),
		nextID:     1,
	}
	for _, name := range names {
		if _, ok := s.facilities[name]; ok {
			continue
		}
		s.facilities[name] = &Facility{Name: name}
		s.names = append(s.names, name)
	}
	return s
}

// FacilityNames returns the seeded facility names in seed order.
func (s *BookingStore) FacilityNames() []string {
	return append([]string(nil), s.names...)
}

func (s *BookingStore) Facility(name string) (*Facility, error) {
	fac, ok := s.facilities[name]
	if !ok {
		return nil, replyErrorf(common.ErrFacilityNotFound, "Facility '%s' not found", name)
	}
	return fac, nil
}

// Booking resolves a confirmation id, cancelled or not.
func (s *BookingStore) Booking(id string) (*Booking, error) {
	if !confirmationIDPattern.MatchString(id) {
		return nil, replyErrorf(common.ErrInvalidConfirmationID, "Malformed confirmation ID '%s'", id)
	}
	bk, ok := s.bookings[id]
	if !ok {
		return nil, replyErrorf(common.ErrInvalidConfirmationID, "Invalid confirmation ID '%s'", id)
	}
	return bk, nil
}

// ActiveBookings counts bookings that have not been cancelled.
func (s *BookingStore) ActiveBookings() int {
	n := 0
	for _, bk := range s.bookings {
		if !bk.Cancelled() {
			n++
		}
	}
	return n
}

func (s *BookingStore) generateConfirmationID() string {
	id := fmt.Sprintf("CONF%06d", s.nextID)
	s.nextID++
	return id
}

// Book creates a new booking. Every successful call allocates a new
// confirmation id.
func (s *BookingStore) Book(facilityName string, start, end common.TimeSlot) (*Booking, error) {
	fac, err := s.Facility(facilityName)
	if err != nil {
		return nil, err
	}
	if !start.Valid() || !end.Valid() {
		return nil, replyErrorf(common.ErrInvalidTimeRange, "Invalid time %s - %s", start, end)
	}
	if !start.Before(end) {
		return nil, replyErrorf(common.ErrInvalidTimeRange, "Start time must be before end time")
	}
	if !fac.IsAvailable(start, end, nil) {
		return nil, replyErrorf(common.ErrFacilityUnavailable, "Facility is not available during requested period")
	}

	bk := &Booking{
		ConfirmationID: s.generateConfirmationID(),
		FacilityName:   facilityName,
		Start:          start,
		End:            end,
		OriginalEnd:    end,
	}
	fac.Bookings = append(fac.Bookings, bk)
	s.bookings[bk.ConfirmationID] = bk

	s.logger.Info("booking created", "id", bk.ConfirmationID, "facility", facilityName,
		"start", start.String(), "end", end.String())
	return bk, nil
}

// activeBooking resolves id and rejects cancelled bookings.
func (s *BookingStore) activeBooking(id string) (*Booking, *Facility, error) {
	bk, err := s.Booking(id)
	if err != nil {
		return nil, nil, err
	}
	if bk.Cancelled() {
		return nil, nil, replyErrorf(common.ErrBookingNotFound, "Booking has been cancelled")
	}
	return bk, s.facilities[bk.FacilityName], nil
}

// Change shifts both ends of a booking by offset minutes. Applying the same
// offset twice shifts twice.
func (s *BookingStore) Change(id string, offset int32) (*Booking, error) {
	bk, fac, err := s.activeBooking(id)
	if err != nil {
		return nil, err
	}

	startMin := bk.Start.Minutes() + int(offset)
	endMin := bk.End.Minutes() + int(offset)
	if startMin < 0 || endMin > common.MinutesPerWeek {
		return nil, replyErrorf(common.ErrInvalidTimeRange, "New time range is outside the week")
	}
	newStart := common.TimeSlotFromMinutes(startMin)
	newEnd := common.TimeSlotFromMinutes(endMin)

	if !fac.IsAvailable(newStart, newEnd, bk) {
		return nil, replyErrorf(common.ErrFacilityUnavailable, "Facility is not available during new requested period")
	}

	s.logger.Info("booking changed", "id", id, "offset", offset,
		"from", bk.Start.String(), "to", newStart.String())
	bk.Start = newStart
	bk.End = newEnd
	return bk, nil
}

// Extend sets the end of a booking to its original end plus extension
// minutes. The target depends only on the original end, so repeating a call
// converges on the same state; changed is false when the booking already
// ended at the target.
func (s *BookingStore) Extend(id string, extension uint32) (bk *Booking, changed bool, err error) {
	bk, fac, err := s.activeBooking(id)
	if err != nil {
		return nil, false, err
	}

	endMin := bk.OriginalEnd.Minutes() + int(extension)
	if endMin > common.MinutesPerWeek {
		return nil, false, replyErrorf(common.ErrInvalidTimeRange, "Extended time exceeds the week")
	}
	newEnd := common.TimeSlotFromMinutes(endMin)
	if !bk.Start.Before(newEnd) {
		return nil, false, replyErrorf(common.ErrInvalidTimeRange, "Extended end %s is not after start %s", newEnd, bk.Start)
	}

	if bk.End.Equal(newEnd) {
		s.logger.Debug("booking already at target end", "id", id, "end", newEnd.String())
		return bk, false, nil
	}

	// Only the stretch between the current and the target end can collide.
	checkStart, checkEnd := bk.End, newEnd
	if newEnd.Before(bk.End) {
		checkStart, checkEnd = newEnd, bk.End
	}
	if !fac.IsAvailable(checkStart, checkEnd, bk) {
		return nil, false, replyErrorf(common.ErrFacilityUnavailable, "Cannot extend: facility unavailable during extension period")
	}

	s.logger.Info("booking extended", "id", id, "from", bk.End.String(), "to", newEnd.String())
	bk.End = newEnd
	return bk, true, nil
}

// Cancel flips a booking to cancelled. Only the first call succeeds.
func (s *BookingStore) Cancel(id string) (*Booking, error) {
	bk, err := s.Booking(id)
	if err != nil {
		return nil, err
	}
	if bk.Cancelled() {
		return nil, replyErrorf(common.ErrAlreadyCancelled, "Booking has already been cancelled")
	}
	bk.Status = BookingCancelled
	s.logger.Info("booking cancelled", "id", id, "facility", bk.FacilityName)
	return bk, nil
}
