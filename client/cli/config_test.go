package cli

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	c := qt.New(t)
	cfg, err := LoadConfig(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, Config{
		ServerAddr:   "localhost:2222",
		Timeout:      5 * time.Second,
		Attempts:     3,
		PollInterval: time.Second,
		LogLevel:     "warn",
	})
}

func TestLoadConfigOverrides(t *testing.T) {
	c := qt.New(t)
	t.Setenv("BOOKING_CLIENT_SERVER_ADDR", "10.0.0.5:2222")
	t.Setenv("BOOKING_CLIENT_TIMEOUT", "2s")
	t.Setenv("BOOKING_CLIENT_REPLY_LOSS", "0.5")

	cfg, err := LoadConfig([]string{"--timeout=750ms", "--attempts=5"})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.ServerAddr, qt.Equals, "10.0.0.5:2222")
	c.Assert(cfg.Timeout, qt.Equals, 750*time.Millisecond)
	c.Assert(cfg.Attempts, qt.Equals, 5)
	c.Assert(cfg.ReplyLoss, qt.Equals, 0.5)
}

func TestLoadConfigInvalid(t *testing.T) {
	c := qt.New(t)
	_, err := LoadConfig([]string{"--server-addr="})
	c.Assert(err, qt.ErrorIs, errors.NotValid)
	_, err = LoadConfig([]string{"--log-level=chatty"})
	c.Assert(err, qt.ErrorIs, errors.NotValid)
}
