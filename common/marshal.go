package common

import (
	"github.com/juju/errors"
)

// MarshalRequest encodes a request: type byte, 4-byte request id, payload.
func MarshalRequest(req RequestMessage) ([]byte, error) {
	buf := make([]byte, 0, 64)

	// 1) OpCode (1 byte)
	buf = AppendUint8(buf, uint8(req.OpCode))

	// 2) RequestID (4 bytes)
	buf = AppendUint32(buf, req.RequestID)

	// 3) Payload
	switch req.OpCode {
	case OpQueryAvailability:
		buf = AppendString(buf, req.FacilityName)
		buf = AppendDays(buf, req.DaysList)

	case OpBookFacility:
		buf = AppendString(buf, req.FacilityName)
		buf = AppendTime(buf, req.Start)
		buf = AppendTime(buf, req.End)

	case OpChangeBooking:
		buf = AppendString(buf, req.ConfirmationID)
		buf = AppendInt32(buf, req.OffsetMinutes)

	case OpMonitorAvailability:
		buf = AppendString(buf, req.FacilityName)
		buf = AppendUint32(buf, req.MonitorPeriod)

	case OpExtendBooking:
		buf = AppendString(buf, req.ConfirmationID)
		buf = AppendUint32(buf, req.ExtensionMinutes)

	case OpCancelBooking:
		buf = AppendString(buf, req.ConfirmationID)

	default:
		return nil, errors.Annotatef(ErrUnknownMessageType, "op code %d", uint8(req.OpCode))
	}

	if len(buf) > MaxMessageSize {
		return nil, errors.Errorf("request of %d bytes exceeds one datagram", len(buf))
	}
	return buf, nil
}

// DecodeHeader reads the type byte and request id of a request datagram and
// returns the offset of the payload.
func DecodeHeader(data []byte) (MessageType, uint32, int, error) {
	op, offset, err := ReadUint8(data, 0)
	if err != nil {
		return 0, 0, 0, errors.Annotate(err, "opcode")
	}
	id, offset, err := ReadUint32(data, offset)
	if err != nil {
		return MessageType(op), 0, 0, errors.Annotate(err, "request id")
	}
	return MessageType(op), id, offset, nil
}

// UnmarshalRequest decodes a request datagram. When the header decodes but
// the payload does not, the returned request still carries OpCode and
// RequestID.
func UnmarshalRequest(data []byte) (RequestMessage, error) {
	var req RequestMessage

	// 1) Header
	op, id, offset, err := DecodeHeader(data)
	if err != nil {
		return req, err
	}
	req.OpCode = op
	req.RequestID = id

	// 2) Payload
	switch req.OpCode {
	case OpQueryAvailability:
		if req.FacilityName, offset, err = ReadString(data, offset); err != nil {
			return req, errors.Annotate(err, "facility name")
		}
		if req.DaysList, _, err = ReadDays(data, offset); err != nil {
			return req, errors.Annotate(err, "days")
		}

	case OpBookFacility:
		if req.FacilityName, offset, err = ReadString(data, offset); err != nil {
			return req, errors.Annotate(err, "facility name")
		}
		if req.Start, offset, err = ReadTime(data, offset); err != nil {
			return req, errors.Annotate(err, "start time")
		}
		if req.End, _, err = ReadTime(data, offset); err != nil {
			return req, errors.Annotate(err, "end time")
		}

	case OpChangeBooking:
		if req.ConfirmationID, offset, err = ReadString(data, offset); err != nil {
			return req, errors.Annotate(err, "confirmation id")
		}
		if req.OffsetMinutes, _, err = ReadInt32(data, offset); err != nil {
			return req, errors.Annotate(err, "offset")
		}

	case OpMonitorAvailability:
		if req.FacilityName, offset, err = ReadString(data, offset); err != nil {
			return req, errors.Annotate(err, "facility name")
		}
		if req.MonitorPeriod, _, err = ReadUint32(data, offset); err != nil {
			return req, errors.Annotate(err, "monitor period")
		}

	case OpExtendBooking:
		if req.ConfirmationID, offset, err = ReadString(data, offset); err != nil {
			return req, errors.Annotate(err, "confirmation id")
		}
		if req.ExtensionMinutes, _, err = ReadUint32(data, offset); err != nil {
			return req, errors.Annotate(err, "extension")
		}

	case OpCancelBooking:
		if req.ConfirmationID, _, err = ReadString(data, offset); err != nil {
			return req, errors.Annotate(err, "confirmation id")
		}

	default:
		return req, errors.Annotatef(ErrUnknownMessageType, "op code %d", uint8(req.OpCode))
	}

	return req, nil
}

func appendAvailability(buf []byte, facility string, days []DayAvailability) []byte {
	buf = AppendString(buf, facility)
	buf = AppendUint32(buf, uint32(len(days)))
	for _, d := range days {
		buf = AppendUint8(buf, d.Day)
		buf = AppendUint32(buf, uint32(len(d.Slots)))
		for _, slot := range d.Slots {
			buf = AppendTime(buf, slot.Start)
			buf = AppendTime(buf, slot.End)
		}
	}
	return buf
}

func readAvailability(data []byte, offset int) (string, []DayAvailability, int, error) {
	facility, offset, err := ReadString(data, offset)
	if err != nil {
		return "", nil, offset, errors.Annotate(err, "facility name")
	}
	dayCount, offset, err := ReadUint32(data, offset)
	if err != nil {
		return "", nil, offset, errors.Annotate(err, "day count")
	}
	// Each day needs at least 5 bytes; reject counts the buffer cannot hold
	// before allocating.
	if uint64(dayCount)*5 > uint64(len(data)-offset) {
		return "", nil, offset, errors.Annotatef(ErrMalformed, "%d days", dayCount)
	}
	days := make([]DayAvailability, 0, dayCount)
	for i := uint32(0); i < dayCount; i++ {
		var d DayAvailability
		if d.Day, offset, err = ReadUint8(data, offset); err != nil {
			return "", nil, offset, errors.Annotate(err, "day")
		}
		var slotCount uint32
		if slotCount, offset, err = ReadUint32(data, offset); err != nil {
			return "", nil, offset, errors.Annotate(err, "slot count")
		}
		if uint64(slotCount)*6 > uint64(len(data)-offset) {
			return "", nil, offset, errors.Annotatef(ErrMalformed, "%d slots", slotCount)
		}
		d.Slots = make([]Interval, 0, slotCount)
		for j := uint32(0); j < slotCount; j++ {
			var slot Interval
			if slot.Start, offset, err = ReadTime(data, offset); err != nil {
				return "", nil, offset, errors.Annotate(err, "slot start")
			}
			if slot.End, offset, err = ReadTime(data, offset); err != nil {
				return "", nil, offset, errors.Annotate(err, "slot end")
			}
			d.Slots = append(d.Slots, slot)
		}
		days = append(days, d)
	}
	return facility, days, offset, nil
}

// MarshalReply encodes any server-to-client datagram. Replies carry no
// request id.
func MarshalReply(rep ReplyMessage) ([]byte, error) {
	buf := make([]byte, 0, 64)

	// OpCode (1 byte)
	buf = AppendUint8(buf, uint8(rep.OpCode))

	switch rep.OpCode {
	case ReplyQueryAvailability, MsgMonitorUpdate:
		buf = appendAvailability(buf, rep.FacilityName, rep.Availability)

	case ReplyBookFacility:
		buf = AppendString(buf, rep.ConfirmationID)

	case ReplyChangeBooking:
		buf = AppendBool(buf, rep.Success)

	case ReplyMonitorAvailability, ReplyExtendBooking, ReplyCancelBooking:
		buf = AppendBool(buf, rep.Success)
		buf = AppendString(buf, rep.Message)

	case MsgError:
		buf = AppendUint8(buf, uint8(rep.ErrorCode))
		buf = AppendString(buf, rep.Message)

	default:
		return nil, errors.Annotatef(ErrUnknownMessageType, "reply op code %d", uint8(rep.OpCode))
	}

	if len(buf) > MaxMessageSize {
		return nil, errors.Errorf("reply of %d bytes exceeds one datagram", len(buf))
	}
	return buf, nil
}

// UnmarshalReply decodes any server-to-client datagram.
func UnmarshalReply(data []byte) (ReplyMessage, error) {
	var rep ReplyMessage

	op, offset, err := ReadUint8(data, 0)
	if err != nil {
		return rep, errors.Annotate(err, "reply opcode")
	}
	rep.OpCode = MessageType(op)

	switch rep.OpCode {
	case ReplyQueryAvailability, MsgMonitorUpdate:
		rep.FacilityName, rep.Availability, _, err = readAvailability(data, offset)
		if err != nil {
			return rep, err
		}

	case ReplyBookFacility:
		if rep.ConfirmationID, _, err = ReadString(data, offset); err != nil {
			return rep, errors.Annotate(err, "confirmation id")
		}

	case ReplyChangeBooking:
		if rep.Success, _, err = ReadBool(data, offset); err != nil {
			return rep, errors.Annotate(err, "success")
		}

	case ReplyMonitorAvailability, ReplyExtendBooking, ReplyCancelBooking:
		if rep.Success, offset, err = ReadBool(data, offset); err != nil {
			return rep, errors.Annotate(err, "success")
		}
		if rep.Message, _, err = ReadString(data, offset); err != nil {
			return rep, errors.Annotate(err, "message")
		}

	case MsgError:
		var code uint8
		if code, offset, err = ReadUint8(data, offset); err != nil {
			return rep, errors.Annotate(err, "error code")
		}
		rep.ErrorCode = ErrorCode(code)
		if rep.Message, _, err = ReadString(data, offset); err != nil {
			return rep, errors.Annotate(err, "error message")
		}

	default:
		return rep, errors.Annotatef(ErrUnknownMessageType, "reply op code %d", op)
	}

	return rep, nil
}
