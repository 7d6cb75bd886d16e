package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/juju/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Iyzyman/facility-booking/common"
)

// handlePacket runs one request datagram through the dispatcher and returns
// the encoded reply. It never fails: anything that goes wrong becomes an
// Error reply.
func (s *ServerState) handlePacket(ctx context.Context, data []byte, clientAddr *net.UDPAddr) []byte {
	// 1) Header
	op, requestID, _, err := common.DecodeHeader(data)
	if err != nil {
		s.logger.Warn("undecodable datagram", "from", clientAddr, "size", len(data), "error", err)
		s.metrics.requests.WithLabelValues("unknown", "error").Inc()
		return s.encodeReply(errorReply(replyErrorf(common.ErrInvalidRequest, "Malformed request header")))
	}
	logger := s.logger.With("type", op.String(), "request_id", requestID, "from", clientAddr.String())
	logger.Debug("received request")

	// 2) Duplicate check
	key := RequestKey{
		Addr:      clientAddr.String(),
		RequestID: requestID,
	}
	if s.semantics == SemanticsAtMostOnce {
		if cached, found := s.history.Lookup(key); found {
			s.metrics.duplicateReplies.Inc()
			logger.Debug("duplicate request, resending cached reply")
			return cached
		}
	}

	ctx, span := s.tracer.Start(ctx, "booking."+op.String(),
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.Int("booking.message_type", int(op)),
			attribute.Int64("booking.request_id", int64(requestID)),
			attribute.String("booking.client", clientAddr.String()),
			attribute.String("booking.semantics", s.semantics),
		),
	)
	defer span.End()

	// 3) Execute
	reply := s.processOperation(ctx, op, data, clientAddr)
	raw := s.encodeReply(reply)

	outcome := "ok"
	if reply.IsError() {
		outcome = "error"
		span.SetStatus(codes.Error, reply.Message)
		span.SetAttributes(attribute.String("booking.error_code", reply.ErrorCode.String()))
		logger.Debug("request failed", "code", reply.ErrorCode.String(), "message", reply.Message)
	}
	s.metrics.requests.WithLabelValues(op.String(), outcome).Inc()
	s.metrics.activeBookings.Set(float64(s.store.ActiveBookings()))

	// 4) Remember the reply
	if s.semantics == SemanticsAtMostOnce {
		s.history.Store(key, raw)
		s.metrics.historyEntries.Set(float64(s.history.Len()))
	}
	return raw
}

// processOperation decodes the payload and routes it to its handler. A panic
// inside a handler is reported as an invalid request.
func (s *ServerState) processOperation(ctx context.Context, op common.MessageType, data []byte, clientAddr *net.UDPAddr) (reply common.ReplyMessage) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panicked", "type", op.String(), "panic", r)
			reply = errorReply(errors.Errorf("internal error: %v", r))
		}
	}()

	if !op.IsRequest() {
		return errorReply(replyErrorf(common.ErrInvalidRequest, "Unknown request type: %d", uint8(op)))
	}
	req, err := common.UnmarshalRequest(data)
	if err != nil {
		return errorReply(replyErrorf(common.ErrInvalidRequest, "Malformed %s request: %v", op, err))
	}

	var result common.ReplyMessage
	switch req.OpCode {
	case common.OpQueryAvailability:
		result, err = s.handleQuery(req)
	case common.OpBookFacility:
		result, err = s.handleBookFacility(req)
	case common.OpChangeBooking:
		result, err = s.handleChangeBooking(req)
	case common.OpMonitorAvailability:
		result, err = s.handleMonitorRegistration(clientAddr, req)
	case common.OpExtendBooking:
		result, err = s.handleExtendBooking(req)
	case common.OpCancelBooking:
		result, err = s.handleCancelBooking(req)
	}
	if err != nil {
		return errorReply(err)
	}
	trace.SpanFromContext(ctx).AddEvent("handled")
	return result
}

// errorReply converts err into an Error reply. Errors that are not a
// *ReplyError are reported as invalid requests.
func errorReply(err error) common.ReplyMessage {
	var replyErr *ReplyError
	if errors.As(err, &replyErr) {
		return common.ReplyMessage{
			OpCode:    common.MsgError,
			ErrorCode: replyErr.Code,
			Message:   replyErr.Message,
		}
	}
	return common.ReplyMessage{
		OpCode:    common.MsgError,
		ErrorCode: common.ErrInvalidRequest,
		Message:   err.Error(),
	}
}

func (s *ServerState) encodeReply(reply common.ReplyMessage) []byte {
	raw, err := common.MarshalReply(reply)
	if err == nil {
		return raw
	}
	s.logger.Error("encoding reply", "type", reply.OpCode.String(), "error", err)
	raw, err = common.MarshalReply(errorReply(err))
	if err != nil {
		// An Error reply with a short message always encodes.
		panic(err)
	}
	return raw
}

// normalizeDays rejects days outside the week and drops repeats, keeping the
// first occurrence.
func normalizeDays(days []uint8) ([]uint8, error) {
	seen := make(map[uint8]bool, len(days))
	out := make([]uint8, 0, len(days))
	for _, d := range days {
		if d >= common.DaysPerWeek {
			return nil, replyErrorf(common.ErrInvalidTimeRange, "Invalid day %d", d)
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// handleQuery returns the free slots of the facility on the requested days.
func (s *ServerState) handleQuery(req common.RequestMessage) (common.ReplyMessage, error) {
	fac, err := s.store.Facility(req.FacilityName)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	days, err := normalizeDays(req.DaysList)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	return common.ReplyMessage{
		OpCode:       common.ReplyQueryAvailability,
		FacilityName: fac.Name,
		Availability: fac.Availability(days),
	}, nil
}

// handleBookFacility creates a new booking if no overlap.
func (s *ServerState) handleBookFacility(req common.RequestMessage) (common.ReplyMessage, error) {
	bk, err := s.store.Book(req.FacilityName, req.Start, req.End)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	s.notifySubscribers(bk.FacilityName)
	return common.ReplyMessage{
		OpCode:         common.ReplyBookFacility,
		ConfirmationID: bk.ConfirmationID,
	}, nil
}

// handleChangeBooking shifts a booking by the requested offset.
func (s *ServerState) handleChangeBooking(req common.RequestMessage) (common.ReplyMessage, error) {
	bk, err := s.store.Change(req.ConfirmationID, req.OffsetMinutes)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	s.notifySubscribers(bk.FacilityName)
	return common.ReplyMessage{
		OpCode:  common.ReplyChangeBooking,
		Success: true,
	}, nil
}

// handleMonitorRegistration adds a registration and returns the facility's
// current week in the reply message.
func (s *ServerState) handleMonitorRegistration(clientAddr *net.UDPAddr, req common.RequestMessage) (common.ReplyMessage, error) {
	fac, err := s.store.Facility(req.FacilityName)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	// A zero duration registers a monitor that lapses on the next prune.
	s.monitors.Register(fac.Name, clientAddr, time.Duration(req.MonitorPeriod)*time.Second)
	msg := fmt.Sprintf("Monitoring '%s' for %d seconds. Current availability: %s",
		fac.Name, req.MonitorPeriod, formatAvailability(fac.Availability(allDays)))
	return common.ReplyMessage{
		OpCode:  common.ReplyMonitorAvailability,
		Success: true,
		Message: msg,
	}, nil
}

// handleExtendBooking moves a booking's end to its original end plus the
// extension. Monitors hear about it only if the end actually moved.
func (s *ServerState) handleExtendBooking(req common.RequestMessage) (common.ReplyMessage, error) {
	bk, changed, err := s.store.Extend(req.ConfirmationID, req.ExtensionMinutes)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	if changed {
		s.notifySubscribers(bk.FacilityName)
	}
	return common.ReplyMessage{
		OpCode:  common.ReplyExtendBooking,
		Success: true,
		Message: fmt.Sprintf("Booking extended to %s", bk.End),
	}, nil
}

// handleCancelBooking cancels a booking; non-idempotent operation.
func (s *ServerState) handleCancelBooking(req common.RequestMessage) (common.ReplyMessage, error) {
	bk, err := s.store.Cancel(req.ConfirmationID)
	if err != nil {
		return common.ReplyMessage{}, err
	}
	s.notifySubscribers(bk.FacilityName)
	return common.ReplyMessage{
		OpCode:  common.ReplyCancelBooking,
		Success: true,
		Message: "Booking cancelled successfully",
	}, nil
}
