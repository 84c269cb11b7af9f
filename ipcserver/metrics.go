/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package ipcserver

import (
	"bytes"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the counters described by the MetricsSnapshot domain type:
// connections accepted/active, requests by method/route/status, rate-limit
// and firewall rejections, security events by kind. It registers on its own
// prometheus.Registry rather than the global DefaultRegisterer, so a daemon
// embedding this package never fights another component over metric names.
type Metrics struct {
	registry             *prometheus.Registry
	connectionsAccepted  prometheus.Counter
	connectionsActive    prometheus.Gauge
	requestsTotal        *prometheus.CounterVec
	rateLimitRejections  prometheus.Counter
	firewallRejections   prometheus.Counter
	securityEventsByKind *prometheus.CounterVec
}

// NewMetrics builds and registers the daemon's metric set.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linch_mind_daemon",
			Name:      "connections_accepted_total",
			Help:      "Total connections accepted by the IPC endpoint.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "linch_mind_daemon",
			Name:      "connections_active",
			Help:      "Connections currently open.",
		}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linch_mind_daemon",
			Name:      "requests_total",
			Help:      "Requests dispatched, by method, route and outcome.",
		}, []string{"method", "path", "success"}),
		rateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linch_mind_daemon",
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		firewallRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "linch_mind_daemon",
			Name:      "firewall_rejections_total",
			Help:      "Requests rejected by the firewall.",
		}),
		securityEventsByKind: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "linch_mind_daemon",
			Name:      "security_events_total",
			Help:      "Security events recorded, by kind.",
		}, []string{"kind"}),
	}

	m.registry.MustRegister(
		m.connectionsAccepted,
		m.connectionsActive,
		m.requestsTotal,
		m.rateLimitRejections,
		m.firewallRejections,
		m.securityEventsByKind,
	)
	return m
}

func (m *Metrics) connectionOpened() {
	m.connectionsAccepted.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) connectionClosed() {
	m.connectionsActive.Dec()
}

func (m *Metrics) observeRequest(method, path string, success bool) {
	m.requestsTotal.WithLabelValues(method, path, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) observeRateLimited() {
	m.rateLimitRejections.Inc()
}

func (m *Metrics) observeFirewallRejected() {
	m.firewallRejections.Inc()
}

func (m *Metrics) observeSecurityEvent(kind string) {
	m.securityEventsByKind.WithLabelValues(kind).Inc()
}

// Render encodes the registered metric families in Prometheus text
// exposition format, the shape GET /server/metrics hands back as response
// data.
func (m *Metrics) Render() (string, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}
