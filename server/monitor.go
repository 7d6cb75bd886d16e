package main

import (
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"
)

// MonitorRegistration holds callback info for a monitoring client.
type MonitorRegistration struct {
	ID           uuid.UUID
	ClientAddr   *net.UDPAddr
	FacilityName string
	ExpiresAt    time.Time
}

// MonitorRegistry tracks monitor registrations and pushes updates to them.
// Registrations are never deduplicated: the same endpoint may hold several
// for one facility, and each receives its own updates until it expires.
type MonitorRegistry struct {
	clock   clock.Clock
	logger  hclog.Logger
	sender  PacketSender
	metrics *Collector
	subs    []MonitorRegistration
}

func NewMonitorRegistry(clk clock.Clock, sender PacketSender, logger hclog.Logger, metrics *Collector) *MonitorRegistry {
	return &MonitorRegistry{
		clock:   clk,
		logger:  logger,
		sender:  sender,
		metrics: metrics,
	}
}

// Register appends a registration expiring duration from now.
func (r *MonitorRegistry) Register(facility string, addr *net.UDPAddr, duration time.Duration) MonitorRegistration {
	reg := MonitorRegistration{
		ID:           uuid.New(),
		ClientAddr:   addr,
		FacilityName: facility,
		ExpiresAt:    r.clock.Now().Add(duration),
	}
	r.subs = append(r.subs, reg)
	r.metrics.liveMonitors.Set(float64(len(r.subs)))
	r.logger.Info("monitor registered", "id", reg.ID, "facility", facility,
		"client", addr, "expires", reg.ExpiresAt)
	return reg
}

// Prune drops registrations whose deadline has passed and returns how many
// were dropped.
func (r *MonitorRegistry) Prune() int {
	now := r.clock.Now()
	live := r.subs[:0]
	for _, sub := range r.subs {
		if now.After(sub.ExpiresAt) {
			r.logger.Debug("monitor expired", "id", sub.ID, "facility", sub.FacilityName, "client", sub.ClientAddr)
			continue
		}
		live = append(live, sub)
	}
	// Clear the tail so expired addresses are not retained.
	for i := len(live); i < len(r.subs); i++ {
		r.subs[i] = MonitorRegistration{}
	}
	pruned := len(r.subs) - len(live)
	r.subs = live
	r.metrics.liveMonitors.Set(float64(len(r.subs)))
	return pruned
}

// Registrations returns the current registrations for facility, expired or
// not.
func (r *MonitorRegistry) Registrations(facility string) []MonitorRegistration {
	var out []MonitorRegistration
	for _, sub := range r.subs {
		if sub.FacilityName == facility {
			out = append(out, sub)
		}
	}
	return out
}

func (r *MonitorRegistry) Len() int {
	return len(r.subs)
}

// Deliver sends update once to every registration for facility and returns
// the number of successful sends. Delivery is best effort: a failed send is
// logged and the registration is kept.
func (r *MonitorRegistry) Deliver(facility string, update []byte) int {
	sent := 0
	for _, sub := range r.subs {
		if sub.FacilityName != facility {
			continue
		}
		if _, err := r.sender.WriteToUDP(update, sub.ClientAddr); err != nil {
			r.metrics.callbacks.WithLabelValues("failed").Inc()
			r.logger.Warn("monitor callback failed", "id", sub.ID, "client", sub.ClientAddr, "error", err)
			continue
		}
		r.metrics.callbacks.WithLabelValues("sent").Inc()
		r.logger.Debug("sent monitor callback", "id", sub.ID, "client", sub.ClientAddr, "facility", facility)
		sent++
	}
	return sent
}
