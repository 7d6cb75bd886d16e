package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"
)

func TestAdminRouter(t *testing.T) {
	c := qt.New(t)
	metrics := NewMetricsCollector()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics)
	metrics.requests.WithLabelValues("book", "ok").Inc()
	metrics.duplicateReplies.Inc()

	srv := httptest.NewServer(newAdminRouter(registry))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	c.Assert(err, qt.IsNil)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	c.Assert(string(body), qt.Equals, "ok\n")

	resp, err = http.Get(srv.URL + "/metrics")
	c.Assert(err, qt.IsNil)
	body, err = io.ReadAll(resp.Body)
	resp.Body.Close()
	c.Assert(err, qt.IsNil)
	c.Assert(resp.StatusCode, qt.Equals, http.StatusOK)
	text := string(body)
	c.Assert(strings.Contains(text, `facility_booking_requests_total{outcome="ok",type="book"} 1`), qt.IsTrue, qt.Commentf("%s", text))
	c.Assert(strings.Contains(text, "facility_booking_duplicate_replies_total 1"), qt.IsTrue)

	resp, err = http.Get(srv.URL + "/bookings")
	c.Assert(err, qt.IsNil)
	resp.Body.Close()
	c.Assert(resp.StatusCode, qt.Equals, http.StatusNotFound)
}
