package main

import (
	"net"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock/testclock"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/mock/gomock"
)

func newTestRegistry(t *testing.T) (*MonitorRegistry, *MockPacketSender, *testclock.Clock, *Collector) {
	ctrl := gomock.NewController(t)
	sender := NewMockPacketSender(ctrl)
	clk := testclock.NewClock(epoch)
	metrics := NewMetricsCollector()
	return NewMonitorRegistry(clk, sender, hclog.NewNullLogger(), metrics), sender, clk, metrics
}

func TestMonitorRegister(t *testing.T) {
	c := qt.New(t)
	r, _, _, metrics := newTestRegistry(t)
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6000}

	reg := r.Register("Conference Hall", addr, time.Minute)
	c.Assert(reg.ExpiresAt, qt.Equals, epoch.Add(time.Minute))
	c.Assert(reg.ClientAddr, qt.Equals, addr)
	c.Assert(reg.ID.String(), qt.Not(qt.Equals), "")

	// Repeated registrations from one endpoint are kept apart.
	again := r.Register("Conference Hall", addr, time.Minute)
	c.Assert(again.ID, qt.Not(qt.Equals), reg.ID)
	c.Assert(r.Registrations("Conference Hall"), qt.HasLen, 2)
	c.Assert(r.Registrations("Meeting Room A"), qt.HasLen, 0)
	c.Assert(testutil.ToFloat64(metrics.liveMonitors), qt.Equals, float64(2))
}

func TestMonitorPrune(t *testing.T) {
	c := qt.New(t)
	r, _, clk, metrics := newTestRegistry(t)
	addr := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6000}

	r.Register("Conference Hall", addr, 10*time.Second)
	r.Register("Conference Hall", addr, 20*time.Second)

	// A registration is live up to and including its deadline.
	clk.Advance(10 * time.Second)
	c.Assert(r.Prune(), qt.Equals, 0)
	clk.Advance(time.Nanosecond)
	c.Assert(r.Prune(), qt.Equals, 1)
	c.Assert(r.Len(), qt.Equals, 1)

	clk.Advance(time.Minute)
	c.Assert(r.Prune(), qt.Equals, 1)
	c.Assert(r.Len(), qt.Equals, 0)
	c.Assert(testutil.ToFloat64(metrics.liveMonitors), qt.Equals, float64(0))
}

func TestMonitorDeliver(t *testing.T) {
	c := qt.New(t)
	r, sender, _, metrics := newTestRegistry(t)
	first := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6000}
	second := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6001}
	elsewhere := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6002}

	r.Register("Conference Hall", first, time.Minute)
	r.Register("Conference Hall", first, time.Minute)
	r.Register("Conference Hall", second, time.Minute)
	r.Register("Meeting Room A", elsewhere, time.Minute)

	update := []byte{200, 1, 2, 3}
	sender.EXPECT().WriteToUDP(update, first).Return(len(update), nil).Times(2)
	sender.EXPECT().WriteToUDP(update, second).Return(len(update), nil)

	c.Assert(r.Deliver("Conference Hall", update), qt.Equals, 3)
	c.Assert(testutil.ToFloat64(metrics.callbacks.WithLabelValues("sent")), qt.Equals, float64(3))
}

func TestMonitorDeliverFailureKeepsRegistration(t *testing.T) {
	c := qt.New(t)
	r, sender, _, metrics := newTestRegistry(t)
	bad := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6000}
	good := &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 6001}

	r.Register("Seminar Room B", bad, time.Minute)
	r.Register("Seminar Room B", good, time.Minute)

	update := []byte{200}
	gomock.InOrder(
		sender.EXPECT().WriteToUDP(update, bad).Return(0, errors.New("network unreachable")),
		sender.EXPECT().WriteToUDP(update, good).Return(1, nil),
	)

	c.Assert(r.Deliver("Seminar Room B", update), qt.Equals, 1)
	c.Assert(r.Len(), qt.Equals, 2)
	c.Assert(testutil.ToFloat64(metrics.callbacks.WithLabelValues("failed")), qt.Equals, float64(1))
}
