package main

import (
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/juju/errors"
)

func TestLoadConfigDefaults(t *testing.T) {
	c := qt.New(t)
	cfg, err := loadConfig(nil)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg, qt.DeepEquals, Config{
		Port:       2222,
		Semantics:  SemanticsAtMostOnce,
		Facilities: DefaultFacilities,
		LogLevel:   "info",
	})
}

func TestLoadConfigFlagsOverrideEnvironment(t *testing.T) {
	c := qt.New(t)
	t.Setenv("BOOKING_PORT", "3000")
	t.Setenv("BOOKING_SEMANTICS", "at-least-once")
	t.Setenv("BOOKING_REPLY_LOSS", "0.25")
	t.Setenv("BOOKING_FACILITIES", "Gym, Pool")

	cfg, err := loadConfig([]string{"--port=4000", "--request-loss=0.1", "--admin-addr=:9090"})
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Port, qt.Equals, 4000)
	c.Assert(cfg.Semantics, qt.Equals, SemanticsAtLeastOnce)
	c.Assert(cfg.RequestLoss, qt.Equals, 0.1)
	c.Assert(cfg.ReplyLoss, qt.Equals, 0.25)
	c.Assert(cfg.Facilities, qt.DeepEquals, []string{"Gym", "Pool"})
	c.Assert(cfg.AdminAddr, qt.Equals, ":9090")
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		about string
		args  []string
	}{{
		about: "semantics",
		args:  []string{"--semantics=exactly-once"},
	}, {
		about: "request loss",
		args:  []string{"--request-loss=1.5"},
	}, {
		about: "reply loss",
		args:  []string{"--reply-loss=-0.1"},
	}, {
		about: "facilities",
		args:  []string{"--facilities= , "},
	}, {
		about: "log level",
		args:  []string{"--log-level=loud"},
	}, {
		about: "port",
		args:  []string{"--port=70000"},
	}}
	for _, test := range tests {
		t.Run(test.about, func(t *testing.T) {
			c := qt.New(t)
			_, err := loadConfig(test.args)
			c.Assert(err, qt.ErrorIs, errors.NotValid)
		})
	}
}

func TestLoadConfigUnknownFlag(t *testing.T) {
	c := qt.New(t)
	_, err := loadConfig([]string{"--bogus"})
	c.Assert(err, qt.ErrorMatches, ".*bogus.*")
}
