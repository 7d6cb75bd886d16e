package common

import (
	"fmt"
	"time"
)

// MessageType is the first byte of every datagram.
type MessageType uint8

// Request types
const (
	OpQueryAvailability   MessageType = 1
	OpBookFacility        MessageType = 2
	OpChangeBooking       MessageType = 3
	OpMonitorAvailability MessageType = 4
	OpExtendBooking       MessageType = 5 // idempotent
	OpCancelBooking       MessageType = 6 // non-idempotent
)

// Reply types are the request type plus 100.
const (
	ReplyQueryAvailability   MessageType = 101
	ReplyBookFacility        MessageType = 102
	ReplyChangeBooking       MessageType = 103
	ReplyMonitorAvailability MessageType = 104
	ReplyExtendBooking       MessageType = 105
	ReplyCancelBooking       MessageType = 106

	MsgMonitorUpdate MessageType = 200
	MsgError         MessageType = 255
)

// IsRequest reports whether t is one of the six request types.
func (t MessageType) IsRequest() bool {
	return t >= OpQueryAvailability && t <= OpCancelBooking
}

// ReplyType returns the success reply type for a request type.
func (t MessageType) ReplyType() MessageType {
	return t + 100
}

func (t MessageType) String() string {
	switch t {
	case OpQueryAvailability:
		return "query"
	case OpBookFacility:
		return "book"
	case OpChangeBooking:
		return "change"
	case OpMonitorAvailability:
		return "monitor"
	case OpExtendBooking:
		return "extend"
	case OpCancelBooking:
		return "cancel"
	case ReplyQueryAvailability, ReplyBookFacility, ReplyChangeBooking,
		ReplyMonitorAvailability, ReplyExtendBooking, ReplyCancelBooking:
		return (t - 100).String() + "-reply"
	case MsgMonitorUpdate:
		return "monitor-update"
	case MsgError:
		return "error"
	}
	return fmt.Sprintf("type-%d", uint8(t))
}

// ErrorCode is carried in every Error reply.
type ErrorCode uint8

const (
	ErrFacilityNotFound      ErrorCode = 1
	ErrFacilityUnavailable   ErrorCode = 2
	ErrInvalidConfirmationID ErrorCode = 3
	ErrInvalidTimeRange      ErrorCode = 4
	ErrInvalidRequest        ErrorCode = 5
	ErrBookingNotFound       ErrorCode = 6
	ErrAlreadyCancelled      ErrorCode = 7
)

func (c ErrorCode) String() string {
	switch c {
	case ErrFacilityNotFound:
		return "facility-not-found"
	case ErrFacilityUnavailable:
		return "facility-unavailable"
	case ErrInvalidConfirmationID:
		return "invalid-confirmation-id"
	case ErrInvalidTimeRange:
		return "invalid-time-range"
	case ErrInvalidRequest:
		return "invalid-request"
	case ErrBookingNotFound:
		return "booking-not-found"
	case ErrAlreadyCancelled:
		return "already-cancelled"
	}
	return fmt.Sprintf("code-%d", uint8(c))
}

const (
	// MaxMessageSize is the largest UDP payload over IPv4.
	MaxMessageSize = 65507

	// HeaderSize is the type byte plus the request id of a request.
	HeaderSize = 5

	DefaultTimeout      = 5 * time.Second
	MaxAttempts         = 3
	MonitorPollInterval = time.Second
)

// RequestMessage holds all possible input fields for any operation.
type RequestMessage struct {
	OpCode    MessageType
	RequestID uint32

	// Query, Book, Monitor
	FacilityName string

	// Query
	DaysList []uint8

	// Book
	Start TimeSlot
	End   TimeSlot

	// Change, Extend, Cancel
	ConfirmationID string

	// Change
	OffsetMinutes int32

	// Monitor
	MonitorPeriod uint32

	// Extend
	ExtensionMinutes uint32
}

// Interval is a half-open range [Start, End).
type Interval struct {
	Start TimeSlot
	End   TimeSlot
}

// DayAvailability lists the free intervals of one day in start order.
type DayAvailability struct {
	Day   uint8
	Slots []Interval
}

// ReplyMessage is any datagram sent by the server. Which fields are
// meaningful depends on OpCode.
type ReplyMessage struct {
	OpCode MessageType

	// Query reply, monitor update
	FacilityName string
	Availability []DayAvailability

	// Book reply
	ConfirmationID string

	// Change, monitor, extend and cancel replies
	Success bool
	// Monitor, extend and cancel replies; error text for MsgError
	Message string

	// Error
	ErrorCode ErrorCode
}

// IsError reports whether the reply is an application-level error.
func (r ReplyMessage) IsError() bool {
	return r.OpCode == MsgError
}
