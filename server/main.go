package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "booking-server: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return errors.Trace(err)
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       serviceName,
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
		Output:     os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := initTracer(ctx, cfg.OTelEndpoint)
	if err != nil {
		return errors.Trace(err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Warn("tracer shutdown", "error", err)
		}
	}()

	// Listen on UDP
	addr := net.UDPAddr{IP: net.IPv4zero, Port: cfg.Port}
	conn, err := net.ListenUDP("udp", &addr)
	if err != nil {
		return errors.Annotatef(err, "listening on UDP port %d", cfg.Port)
	}
	defer conn.Close()

	metrics := NewMetricsCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics, collectors.NewGoCollector())

	state, err := NewServerState(StateConfig{
		Semantics:  cfg.Semantics,
		Facilities: cfg.Facilities,
		Clock:      clock.WallClock,
		Logger:     logger,
		Sender:     conn,
		Metrics:    metrics,
	})
	if err != nil {
		return errors.Trace(err)
	}
	faults := FaultInjector{
		RequestLoss: cfg.RequestLoss,
		ReplyLoss:   cfg.ReplyLoss,
		Rand:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	srv := NewServer(conn, state, faults, logger.Named("udp"), metrics)

	logger.Info("starting", "semantics", cfg.Semantics, "facilities", cfg.Facilities,
		"request_loss", cfg.RequestLoss, "reply_loss", cfg.ReplyLoss)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Serve(ctx)
	})
	if cfg.AdminAddr != "" {
		g.Go(func() error {
			return runAdmin(ctx, cfg.AdminAddr, registry, logger.Named("admin"))
		})
	}
	return g.Wait()
}
