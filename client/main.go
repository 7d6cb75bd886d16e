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

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"
	"github.com/juju/errors"

	"github.com/Iyzyman/facility-booking/client/cli"
	"github.com/Iyzyman/facility-booking/client/utils"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "booking-client: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := cli.LoadConfig(args)
	if err != nil {
		return errors.Trace(err)
	}
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "booking-client",
		Level:  hclog.LevelFromString(cfg.LogLevel),
		Output: os.Stderr,
	})

	// Parse server address
	serverAddr, err := net.ResolveUDPAddr("udp", cfg.ServerAddr)
	if err != nil {
		return errors.Annotatef(err, "invalid server address %s", cfg.ServerAddr)
	}

	// Create UDP socket
	conn, err := net.DialUDP("udp", nil, serverAddr)
	if err != nil {
		return errors.Annotate(err, "connecting to server")
	}
	defer conn.Close()

	client, err := cli.NewClientState(cli.ClientConfig{
		Conn:         conn,
		Clock:        clock.WallClock,
		Logger:       logger,
		Timeout:      cfg.Timeout,
		Attempts:     cfg.Attempts,
		PollInterval: cfg.PollInterval,
		ReplyLoss:    cfg.ReplyLoss,
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		return errors.Trace(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := color.Output
	fmt.Fprintf(out, "Connected to server at %s\n", serverAddr)
	fmt.Fprintln(out, "Facility Booking System Client")
	fmt.Fprintln(out, "==============================")

	cli.NewCLI(client, utils.NewPrompter(os.Stdin, out), out).Run(ctx)
	return nil
}
