package main

import (
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "BOOKING"

// Config is read from BOOKING_* environment variables, optionally preloaded
// from a .env file, and then overridden by command-line flags.
type Config struct {
	Port         int      `envconfig:"PORT" default:"2222"`
	Semantics    string   `envconfig:"SEMANTICS" default:"at-most-once"`
	RequestLoss  float64  `envconfig:"REQUEST_LOSS" default:"0"`
	ReplyLoss    float64  `envconfig:"REPLY_LOSS" default:"0"`
	Facilities   []string `envconfig:"FACILITIES"`
	LogLevel     string   `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON      bool     `envconfig:"LOG_JSON" default:"false"`
	AdminAddr    string   `envconfig:"ADMIN_ADDR"`
	OTelEndpoint string   `envconfig:"OTEL_ENDPOINT"`
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NotValidf("port %d", c.Port)
	}
	if c.Semantics != SemanticsAtLeastOnce && c.Semantics != SemanticsAtMostOnce {
		return errors.NotValidf("semantics %q", c.Semantics)
	}
	if c.RequestLoss < 0 || c.RequestLoss > 1 {
		return errors.NotValidf("request loss %v", c.RequestLoss)
	}
	if c.ReplyLoss < 0 || c.ReplyLoss > 1 {
		return errors.NotValidf("reply loss %v", c.ReplyLoss)
	}
	if len(c.Facilities) == 0 {
		return errors.NotValidf("empty facility list")
	}
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return errors.NotValidf("log level %q", c.LogLevel)
	}
	return nil
}

// loadConfig builds the server config from the environment and args.
func loadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Annotate(err, "loading .env")
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, errors.Annotate(err, "reading environment")
	}
	if len(cfg.Facilities) == 0 {
		cfg.Facilities = DefaultFacilities
	}

	var facilities string
	fs := gnuflag.NewFlagSet("booking-server", gnuflag.ContinueOnError)
	fs.IntVar(&cfg.Port, "port", cfg.Port, "UDP port to listen on")
	fs.StringVar(&cfg.Semantics, "semantics", cfg.Semantics, "Invocation semantics: at-least-once or at-most-once")
	fs.Float64Var(&cfg.RequestLoss, "request-loss", cfg.RequestLoss, "Probability of dropping an incoming request")
	fs.Float64Var(&cfg.ReplyLoss, "reply-loss", cfg.ReplyLoss, "Probability of dropping an outgoing reply")
	fs.StringVar(&facilities, "facilities", strings.Join(cfg.Facilities, ","), "Comma-separated facility names")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn or error")
	fs.BoolVar(&cfg.LogJSON, "log-json", cfg.LogJSON, "Log in JSON")
	fs.StringVar(&cfg.AdminAddr, "admin-addr", cfg.AdminAddr, "Address for /healthz and /metrics; empty disables")
	fs.StringVar(&cfg.OTelEndpoint, "otel-endpoint", cfg.OTelEndpoint, "OTLP gRPC endpoint; empty disables tracing")
	if err := fs.Parse(true, args); err != nil {
		return Config{}, errors.Trace(err)
	}
	cfg.Semantics = strings.ToLower(cfg.Semantics)
	cfg.Facilities = splitFacilities(facilities)

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Trace(err)
	}
	return cfg, nil
}

func splitFacilities(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}
