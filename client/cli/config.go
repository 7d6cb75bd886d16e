package cli

import (
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/juju/gnuflag"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "BOOKING_CLIENT"

// Config is read from BOOKING_CLIENT_* environment variables, optionally
// preloaded from a .env file, and then overridden by command-line flags.
type Config struct {
	ServerAddr   string        `envconfig:"SERVER_ADDR" default:"localhost:2222"`
	Timeout      time.Duration `envconfig:"TIMEOUT" default:"5s"`
	Attempts     int           `envconfig:"ATTEMPTS" default:"3"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL" default:"1s"`
	ReplyLoss    float64       `envconfig:"REPLY_LOSS" default:"0"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"warn"`
}

// LoadConfig builds the client config from the environment and args.
func LoadConfig(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Annotate(err, "loading .env")
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, errors.Annotate(err, "reading environment")
	}

	fs := gnuflag.NewFlagSet("booking-client", gnuflag.ContinueOnError)
	fs.StringVar(&cfg.ServerAddr, "server-addr", cfg.ServerAddr, "Server address in host:port format")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "How long to wait for each reply")
	fs.IntVar(&cfg.Attempts, "attempts", cfg.Attempts, "Transmissions per request before giving up")
	fs.Float64Var(&cfg.ReplyLoss, "reply-loss", cfg.ReplyLoss, "Probability of discarding a received reply")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: trace, debug, info, warn or error")
	if err := fs.Parse(true, args); err != nil {
		return Config{}, errors.Trace(err)
	}

	if cfg.ServerAddr == "" {
		return Config{}, errors.NotValidf("empty server address")
	}
	if hclog.LevelFromString(cfg.LogLevel) == hclog.NoLevel {
		return Config{}, errors.NotValidf("log level %q", cfg.LogLevel)
	}
	return cfg, nil
}
