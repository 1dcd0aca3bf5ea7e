// Package metrics defines all custom Prometheus metrics for the identity
// service. It is the single source of truth for metric names, labels, and
// help strings; metrics register themselves with the default registry at
// import time via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "identity"

// Flow label values for OTP metrics.
const (
	FlowSignup = "signup"
	FlowReset  = "reset"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultMismatch = "mismatch"
	ResultFailure  = "failure"
)

// OTPsIssuedTotal counts passcodes generated, delivered, and stored.
// Label:
//   - flow: "signup" or "reset"
var OTPsIssuedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otps_issued_total",
		Help:      "Total number of one-time passcodes issued, by flow.",
	},
	[]string{"flow"},
)

// OTPVerificationsTotal counts passcode checks.
// Labels:
//   - flow: "signup" or "reset"
//   - result: "success" or "mismatch" (expired and wrong codes are one bucket)
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by flow and result.",
	},
	[]string{"flow", "result"},
)

// SignupsCompletedTotal counts accounts created after OTP confirmation.
var SignupsCompletedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_completed_total",
		Help:      "Total number of accounts created.",
	},
)

// LoginsTotal counts authentication attempts.
// Label:
//   - result: "success" or "failure" (unknown email and wrong password are one bucket)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// PasswordsChangedTotal counts completed password resets.
var PasswordsChangedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "passwords_changed_total",
		Help:      "Total number of passwords overwritten via the reset flow.",
	},
)

// OTPDeliveryDuration measures outbound OTP email delivery time.
// Label:
//   - result: "success" or "failure"
var OTPDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "otp_delivery_duration_seconds",
		Help:      "Duration of OTP email delivery attempts.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// AuditQueueDepth tracks events waiting in each audit worker channel.
// Label:
//   - worker_id: numeric worker index ("0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of auth events pending in each audit worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsDroppedTotal counts events discarded because a worker channel
// was full. Audit is best-effort; drops are visible here rather than as
// request latency.
var AuditEventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_dropped_total",
		Help:      "Total number of auth events dropped due to a full audit queue.",
	},
)
