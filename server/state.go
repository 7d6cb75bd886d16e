package main

import (
	"net"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/Iyzyman/facility-booking/common"
)

// Invocation semantics
const (
	SemanticsAtLeastOnce = "at-least-once"
	SemanticsAtMostOnce  = "at-most-once"
)

const tracerName = "github.com/Iyzyman/facility-booking/server"

// DefaultFacilities are the facilities a server starts with when none are
// configured.
var DefaultFacilities = []string{
	"Meeting Room A",
	"Lecture Theatre 1",
	"Conference Hall",
	"Seminar Room B",
}

//go:generate go run go.uber.org/mock/mockgen -package main -destination sender_mock_test.go -write_package_comment=false . PacketSender

// PacketSender sends one datagram to a client endpoint. *net.UDPConn
// satisfies it.
type PacketSender interface {
	WriteToUDP(b []byte, addr *net.UDPAddr) (int, error)
}

// StateConfig holds the dependencies of a ServerState.
type StateConfig struct {
	Semantics  string
	Facilities []string
	Clock      clock.Clock
	Logger     hclog.Logger
	Sender     PacketSender
	Metrics    *Collector
}

// Validate checks that the config is usable.
func (c StateConfig) Validate() error {
	if c.Semantics != SemanticsAtLeastOnce && c.Semantics != SemanticsAtMostOnce {
		return errors.NotValidf("semantics %q", c.Semantics)
	}
	if len(c.Facilities) == 0 {
		return errors.NotValidf("empty facility list")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if c.Sender == nil {
		return errors.NotValidf("nil Sender")
	}
	if c.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	return nil
}

// ServerState holds all the data the server needs to operate. It is owned by
// the serve loop and is not safe for concurrent use.
type ServerState struct {
	semantics string
	logger    hclog.Logger
	metrics   *Collector
	tracer    trace.Tracer

	store    *BookingStore
	history  *RequestHistory
	monitors *MonitorRegistry
}

// NewServerState initializes everything.
func NewServerState(cfg StateConfig) (*ServerState, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &ServerState{
		semantics: cfg.Semantics,
		logger:    cfg.Logger.Named("dispatch"),
		metrics:   cfg.Metrics,
		tracer:    otel.Tracer(tracerName),
		store:     NewBookingStore(cfg.Facilities, cfg.Logger.Named("store")),
		history:   NewRequestHistory(cfg.Clock),
		monitors:  NewMonitorRegistry(cfg.Clock, cfg.Sender, cfg.Logger.Named("monitor"), cfg.Metrics),
	}, nil
}

func (s *ServerState) Semantics() string {
	return s.semantics
}

// notifySubscribers pushes the facility's full-week availability to every
// live registration for it. It runs before the triggering reply is sent.
func (s *ServerState) notifySubscribers(facility string) {
	s.monitors.Prune()
	if len(s.monitors.Registrations(facility)) == 0 {
		return
	}
	fac, err := s.store.Facility(facility)
	if err != nil {
		s.logger.Error("notify for unknown facility", "facility", facility)
		return
	}
	update, err := common.MarshalReply(common.ReplyMessage{
		OpCode:       common.MsgMonitorUpdate,
		FacilityName: fac.Name,
		Availability: fac.Availability(allDays),
	})
	if err != nil {
		s.logger.Error("encoding monitor update", "facility", facility, "error", err)
		return
	}
	sent := s.monitors.Deliver(facility, update)
	s.logger.Debug("notified monitors", "facility", facility, "sent", sent)
}
