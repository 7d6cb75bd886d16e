package main

import (
	"context"
	"math/rand"
	"net"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/errors"

	"github.com/Iyzyman/facility-booking/common"
)

// FaultInjector drops datagrams with fixed, independent probabilities. It
// exists to exercise client retransmission and duplicate handling.
type FaultInjector struct {
	RequestLoss float64
	ReplyLoss   float64
	Rand        *rand.Rand
}

func (f FaultInjector) drop(p float64) bool {
	return p > 0 && f.Rand != nil && f.Rand.Float64() < p
}

func (f FaultInjector) dropRequest() bool {
	return f.drop(f.RequestLoss)
}

func (f FaultInjector) dropReply() bool {
	return f.drop(f.ReplyLoss)
}

// Server reads request datagrams from one UDP socket and answers each on the
// same socket, one at a time.
type Server struct {
	conn    *net.UDPConn
	state   *ServerState
	faults  FaultInjector
	logger  hclog.Logger
	metrics *Collector
}

func NewServer(conn *net.UDPConn, state *ServerState, faults FaultInjector, logger hclog.Logger, metrics *Collector) *Server {
	return &Server{
		conn:    conn,
		state:   state,
		faults:  faults,
		logger:  logger,
		metrics: metrics,
	}
}

// Serve runs the read loop until ctx is cancelled, which closes the socket.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	s.logger.Info("server listening", "addr", s.conn.LocalAddr().String(), "semantics", s.state.Semantics())

	buf := make([]byte, common.MaxMessageSize)
	for {
		n, clientAddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				s.logger.Info("server stopped")
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return errors.Annotate(err, "reading request")
			}
			s.logger.Warn("read failed", "error", err)
			continue
		}
		s.handleDatagram(ctx, buf[:n], clientAddr)
	}
}

// handleDatagram processes one datagram to completion, monitor callbacks
// included, before the reply is written.
func (s *Server) handleDatagram(ctx context.Context, data []byte, clientAddr *net.UDPAddr) {
	if s.faults.dropRequest() {
		s.metrics.droppedDatagrams.WithLabelValues("request").Inc()
		s.logger.Warn("simulated request loss", "from", clientAddr.String(), "size", len(data))
		return
	}

	reply := s.state.handlePacket(ctx, data, clientAddr)

	if s.faults.dropReply() {
		s.metrics.droppedDatagrams.WithLabelValues("reply").Inc()
		s.logger.Warn("simulated reply loss", "to", clientAddr.String())
		return
	}
	if _, err := s.conn.WriteToUDP(reply, clientAddr); err != nil {
		s.logger.Warn("sending reply failed", "to", clientAddr.String(), "error", err)
	}
}
