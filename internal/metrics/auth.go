// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	authEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfetch_auth_events_total",
		Help: "Authentication events (signup, signin, signout, verify) by result",
	}, []string{"event", "result"})

	rateLimitRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vidfetch_ratelimit_rejected_total",
		Help: "Requests rejected by a rate limiter by scope",
	}, []string{"scope"})
)

// IncAuthEvent records an authentication event.
func IncAuthEvent(event, result string) {
	authEventsTotal.WithLabelValues(event, result).Inc()
}

// IncRateLimitRejected records a rejected request for the given limiter scope.
func IncRateLimitRejected(scope string) {
	rateLimitRejectedTotal.WithLabelValues(scope).Inc()
}
