// Package metrics defines and registers all custom Prometheus metrics for the
// timesheet API. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry through
// promauto when the package is loaded; /metrics serves them.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "timesheet"

// ── Timesheet metrics ────────────────────────────────────────────────────────

// TimesheetsSavedTotal counts entries written through save/submit.
// Label:
//   - action: "save" or "submit"
var TimesheetsSavedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_saved_total",
		Help:      "Total number of timesheet entries saved or submitted.",
	},
	[]string{"action"},
)

// EffortsDuplicatedTotal counts entries created by effort duplication.
var EffortsDuplicatedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "efforts_duplicated_total",
		Help:      "Total number of timesheet entries created by duplicating a day.",
	},
)

// DuplicateReplaysTotal counts duplicate requests answered from the
// idempotency store instead of writing again.
var DuplicateReplaysTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_replays_total",
		Help:      "Total number of duplicate requests replayed by Idempotency-Key.",
	},
)

// ApprovalsTotal counts approve/reject requests.
// Labels:
//   - status: "approved" or "rejected"
//   - outcome: "applied", "noop" or "failed"
var ApprovalsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approvals_total",
		Help:      "Total number of approve/reject requests, by requested status and outcome.",
	},
	[]string{"status", "outcome"},
)

// ── HTTP metrics ─────────────────────────────────────────────────────────────

// HTTPRequestDuration measures request latency per route.
// Labels:
//   - method: HTTP method
//   - route: the matched echo route pattern (e.g. "/api/projects/:id")
//   - code: response status code
var HTTPRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests by method, route and status code.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"method", "route", "code"},
)

// Middleware records HTTPRequestDuration for every request. Errors are
// rendered through the echo error handler first so the recorded code is the
// one the client receives.
func Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			started := time.Now()
			if err := next(c); err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			HTTPRequestDuration.
				WithLabelValues(c.Request().Method, route, strconv.Itoa(c.Response().Status)).
				Observe(time.Since(started).Seconds())
			return nil
		}
	}
}
