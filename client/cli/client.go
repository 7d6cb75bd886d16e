package cli

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"

	"github.com/Iyzyman/facility-booking/common"
)

// ErrNoReply is returned when no reply arrived within the timeout.
const ErrNoReply = errors.ConstError("no reply before timeout")

// retransmitDelay separates a timeout from the retransmission it triggers.
const retransmitDelay = time.Millisecond

// Conn is the client side of a connected datagram socket. *net.UDPConn
// satisfies it.
type Conn interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	SetReadDeadline(t time.Time) error
}

// ServerError is an Error reply from the server.
type ServerError struct {
	Code    common.ErrorCode
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// ClientConfig holds the dependencies of a ClientState.
type ClientConfig struct {
	Conn         Conn
	Clock        clock.Clock
	Logger       hclog.Logger
	Timeout      time.Duration
	Attempts     int
	PollInterval time.Duration
	// ReplyLoss is the probability of discarding a received reply, to
	// demonstrate retransmission against a live server.
	ReplyLoss float64
	Rand      *rand.Rand
}

// Validate checks that the config is usable.
func (c ClientConfig) Validate() error {
	if c.Conn == nil {
		return errors.NotValidf("nil Conn")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if c.Timeout <= 0 {
		return errors.NotValidf("timeout %v", c.Timeout)
	}
	if c.Attempts < 1 {
		return errors.NotValidf("attempts %d", c.Attempts)
	}
	if c.PollInterval <= 0 {
		return errors.NotValidf("poll interval %v", c.PollInterval)
	}
	if c.ReplyLoss < 0 || c.ReplyLoss > 1 {
		return errors.NotValidf("reply loss %v", c.ReplyLoss)
	}
	if c.Rand == nil {
		return errors.NotValidf("nil Rand")
	}
	return nil
}

// ClientState represents the client side of one session with the server.
// It is not safe for concurrent use.
type ClientState struct {
	conn         Conn
	clock        clock.Clock
	logger       hclog.Logger
	timeout      time.Duration
	attempts     int
	pollInterval time.Duration
	replyLoss    float64
	rand         *rand.Rand

	nextReqID uint32
	buf       []byte
}

func NewClientState(cfg ClientConfig) (*ClientState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	session := uuid.New()
	return &ClientState{
		conn:         cfg.Conn,
		clock:        cfg.Clock,
		logger:       cfg.Logger.With("session", session.String()),
		timeout:      cfg.Timeout,
		attempts:     cfg.Attempts,
		pollInterval: cfg.PollInterval,
		replyLoss:    cfg.ReplyLoss,
		rand:         cfg.Rand,
		nextReqID:    cfg.Rand.Uint32(),
		buf:          make([]byte, common.MaxMessageSize),
	}, nil
}

// GetNextRequestID returns a fresh request id. Ids wrap around.
func (c *ClientState) GetNextRequestID() uint32 {
	id := c.nextReqID
	c.nextReqID++
	return id
}

// SendRequest sends req and waits for its reply, retransmitting the same
// datagram on timeout. Monitor updates that arrive meanwhile are skipped.
func (c *ClientState) SendRequest(ctx context.Context, req common.RequestMessage) (common.ReplyMessage, error) {
	data, err := common.MarshalRequest(req)
	if err != nil {
		return common.ReplyMessage{}, errors.Annotate(err, "encoding request")
	}
	logger := c.logger.With("type", req.OpCode.String(), "request_id", req.RequestID)

	var (
		reply   common.ReplyMessage
		lastErr error
	)
	err = retry.Call(retry.CallArgs{
		Func: func() error {
			if _, err := c.conn.Write(data); err != nil {
				return errors.Annotate(err, "sending request")
			}
			reply, lastErr = c.awaitReply()
			return lastErr
		},
		IsFatalError: func(err error) bool {
			return !errors.Is(err, ErrNoReply)
		},
		NotifyFunc: func(err error, attempt int) {
			logger.Debug("no reply", "attempt", attempt, "error", err)
		},
		Attempts: c.attempts,
		Delay:    retransmitDelay,
		Clock:    c.clock,
		Stop:     ctx.Done(),
	})
	if retry.IsAttemptsExceeded(err) {
		return common.ReplyMessage{}, errors.Annotatef(lastErr, "no reply after %d attempts", c.attempts)
	}
	if err != nil {
		return common.ReplyMessage{}, errors.Trace(err)
	}
	return reply, nil
}

// awaitReply reads until a reply other than a monitor update arrives or the
// timeout elapses.
func (c *ClientState) awaitReply() (common.ReplyMessage, error) {
	if err := c.conn.SetReadDeadline(c.clock.Now().Add(c.timeout)); err != nil {
		return common.ReplyMessage{}, errors.Trace(err)
	}
	for {
		n, err := c.conn.Read(c.buf)
		if isTimeout(err) {
			return common.ReplyMessage{}, ErrNoReply
		}
		if err != nil {
			return common.ReplyMessage{}, errors.Annotate(err, "reading reply")
		}
		reply, err := common.UnmarshalReply(c.buf[:n])
		if err != nil {
			c.logger.Warn("discarding undecodable datagram", "size", n, "error", err)
			continue
		}
		if reply.OpCode == common.MsgMonitorUpdate {
			c.logger.Debug("skipping monitor update while awaiting reply", "facility", reply.FacilityName)
			continue
		}
		if c.replyLoss > 0 && c.rand.Float64() < c.replyLoss {
			c.logger.Debug("simulating lost reply", "type", reply.OpCode.String())
			return common.ReplyMessage{}, errors.Annotate(ErrNoReply, "simulated reply loss")
		}
		return reply, nil
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// call sends a fresh request and checks the reply type. Error replies become
// a *ServerError.
func (c *ClientState) call(ctx context.Context, req common.RequestMessage) (common.ReplyMessage, error) {
	req.RequestID = c.GetNextRequestID()
	reply, err := c.SendRequest(ctx, req)
	if err != nil {
		return reply, err
	}
	if reply.IsError() {
		return reply, &ServerError{Code: reply.ErrorCode, Message: reply.Message}
	}
	if want := req.OpCode.ReplyType(); reply.OpCode != want {
		return reply, errors.Errorf("unexpected %s reply to %s request", reply.OpCode, req.OpCode)
	}
	return reply, nil
}

// QueryAvailability returns the free slots of facility on days.
func (c *ClientState) QueryAvailability(ctx context.Context, facility string, days []uint8) ([]common.DayAvailability, error) {
	reply, err := c.call(ctx, common.RequestMessage{
		OpCode:       common.OpQueryAvailability,
		FacilityName: facility,
		DaysList:     days,
	})
	if err != nil {
		return nil, err
	}
	return reply.Availability, nil
}

// BookFacility books facility for [start, end) and returns the confirmation
// id.
func (c *ClientState) BookFacility(ctx context.Context, facility string, start, end common.TimeSlot) (string, error) {
	reply, err := c.call(ctx, common.RequestMessage{
		OpCode:       common.OpBookFacility,
		FacilityName: facility,
		Start:        start,
		End:          end,
	})
	if err != nil {
		return "", err
	}
	return reply.ConfirmationID, nil
}

// ChangeBooking shifts a booking by offset minutes.
func (c *ClientState) ChangeBooking(ctx context.Context, confirmationID string, offset int32) error {
	reply, err := c.call(ctx, common.RequestMessage{
		OpCode:         common.OpChangeBooking,
		ConfirmationID: confirmationID,
		OffsetMinutes:  offset,
	})
	if err != nil {
		return err
	}
	if !reply.Success {
		return errors.New("change was not applied")
	}
	return nil
}

// RegisterMonitor registers this client for updates on facility and returns
// the server's message.
func (c *ClientState) RegisterMonitor(ctx context.Context, facility string, seconds uint32) (string, error) {
	reply, err := c.call(ctx, common.RequestMessage{
		OpCode:        common.OpMonitorAvailability,
		FacilityName:  facility,
		MonitorPeriod: seconds,
	})
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}

// ReceiveUpdates passes every monitor update to onUpdate until deadline or
// until ctx is cancelled. It never sends.
func (c *ClientState) ReceiveUpdates(ctx context.Context, deadline time.Time, onUpdate func(common.ReplyMessage)) error {
	for {
		if ctx.Err() != nil {
			c.logger.Debug("monitoring cancelled")
			return nil
		}
		now := c.clock.Now()
		if !now.Before(deadline) {
			c.logger.Debug("monitoring period over")
			return nil
		}
		wait := min(c.pollInterval, deadline.Sub(now))
		if err := c.conn.SetReadDeadline(now.Add(wait)); err != nil {
			return errors.Trace(err)
		}

		n, err := c.conn.Read(c.buf)
		if isTimeout(err) {
			continue
		}
		if err != nil {
			return errors.Annotate(err, "reading update")
		}
		update, err := common.UnmarshalReply(c.buf[:n])
		if err != nil {
			c.logger.Warn("discarding undecodable datagram", "size", n, "error", err)
			continue
		}
		if update.OpCode != common.MsgMonitorUpdate {
			c.logger.Debug("ignoring late reply while monitoring", "type", update.OpCode.String())
			continue
		}
		onUpdate(update)
	}
}

// ExtendBooking sets a booking's end to its original end plus minutes.
func (c *ClientState) ExtendBooking(ctx context.Context, confirmationID string, minutes uint32) (string, error) {
	reply, err := c.call(ctx, common.RequestMessage{
		OpCode:           common.OpExtendBooking,
		ConfirmationID:   confirmationID,
		ExtensionMinutes: minutes,
	})
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}

// CancelBooking cancels a booking.
func (c *ClientState) CancelBooking(ctx context.Context, confirmationID string) (string, error) {
	reply, err := c.call(ctx, common.RequestMessage{
		OpCode:         common.OpCancelBooking,
		ConfirmationID: confirmationID,
	})
	if err != nil {
		return "", err
	}
	return reply.Message, nil
}
