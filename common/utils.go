package common

import (
	"encoding/binary"

	"github.com/juju/errors"
)

// All multi-byte integers are big-endian. Every Read* takes the buffer and a
// cursor and returns the value with the advanced cursor.

func AppendUint8(buf []byte, v uint8) []byte {
	return append(buf, v)
}

func AppendUint32(buf []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(buf, v)
}

func AppendInt32(buf []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(buf, uint32(v))
}

func AppendBool(buf []byte, v bool) []byte {
	if v {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// AppendString writes a 4-byte length followed by the UTF-8 bytes.
func AppendString(buf []byte, s string) []byte {
	buf = AppendUint32(buf, uint32(len(s)))
	return append(buf, s...)
}

// AppendTime writes day, hour and minute as one byte each.
func AppendTime(buf []byte, t TimeSlot) []byte {
	return append(buf, t.Day, t.Hour, t.Minute)
}

// AppendDays writes a 4-byte count followed by one byte per day.
func AppendDays(buf []byte, days []uint8) []byte {
	buf = AppendUint32(buf, uint32(len(days)))
	return append(buf, days...)
}

func need(data []byte, offset, n int, field string) error {
	if offset < 0 || n < 0 || offset+n > len(data) {
		return errors.Annotatef(ErrMalformed, "not enough bytes for %s at offset %d", field, offset)
	}
	return nil
}

func ReadUint8(data []byte, offset int) (uint8, int, error) {
	if err := need(data, offset, 1, "uint8"); err != nil {
		return 0, offset, err
	}
	return data[offset], offset + 1, nil
}

func ReadUint32(data []byte, offset int) (uint32, int, error) {
	if err := need(data, offset, 4, "uint32"); err != nil {
		return 0, offset, err
	}
	return binary.BigEndian.Uint32(data[offset : offset+4]), offset + 4, nil
}

func ReadInt32(data []byte, offset int) (int32, int, error) {
	v, next, err := ReadUint32(data, offset)
	return int32(v), next, err
}

// ReadBool treats any non-zero byte as true.
func ReadBool(data []byte, offset int) (bool, int, error) {
	v, next, err := ReadUint8(data, offset)
	return v != 0, next, err
}

func ReadString(data []byte, offset int) (string, int, error) {
	length, next, err := ReadUint32(data, offset)
	if err != nil {
		return "", offset, err
	}
	if uint64(length) > uint64(len(data)-next) {
		return "", offset, errors.Annotatef(ErrMalformed, "string of %d bytes at offset %d", length, next)
	}
	end := next + int(length)
	return string(data[next:end]), end, nil
}

// ReadTime does not range-check its fields.
func ReadTime(data []byte, offset int) (TimeSlot, int, error) {
	if err := need(data, offset, 3, "time"); err != nil {
		return TimeSlot{}, offset, err
	}
	t := TimeSlot{Day: data[offset], Hour: data[offset+1], Minute: data[offset+2]}
	return t, offset + 3, nil
}

func ReadDays(data []byte, offset int) ([]uint8, int, error) {
	count, next, err := ReadUint32(data, offset)
	if err != nil {
		return nil, offset, err
	}
	if uint64(count) > uint64(len(data)-next) {
		return nil, offset, errors.Annotatef(ErrMalformed, "list of %d days at offset %d", count, next)
	}
	end := next + int(count)
	days := make([]uint8, count)
	copy(days, data[next:end])
	return days, end, nil
}
