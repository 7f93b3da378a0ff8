package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TelegramCalls counts Bot API calls by method and outcome.
	TelegramCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_bot_telegram_calls_total",
			Help: "Total number of Telegram Bot API calls",
		},
		[]string{"method", "outcome"}, // outcome: ok, error
	)

	// WebhookUpdates counts incoming bot updates by routing outcome.
	WebhookUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_bot_webhook_updates_total",
			Help: "Total number of Telegram webhook updates received",
		},
		[]string{"outcome"}, // outcome: routed, ignored, send_failed, rejected
	)

	// SyncRuns counts participant-count synchronizations by outcome.
	SyncRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_bot_sync_runs_total",
			Help: "Total number of contest button synchronizations",
		},
		[]string{"outcome"}, // outcome: updated, incomplete, telegram_error, error
	)

	// MembershipChecks counts entry-condition checks by result.
	MembershipChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "contest_bot_membership_checks_total",
			Help: "Total number of membership condition checks",
		},
		[]string{"met"},
	)

	// PublishedContests counts contest posts sent to channels.
	PublishedContests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "contest_bot_published_contests_total",
			Help: "Total number of contest posts published",
		},
	)
)

// ObserveTelegramCall records the outcome of one Bot API call.
func ObserveTelegramCall(method string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	TelegramCalls.WithLabelValues(method, outcome).Inc()
}

// ObserveMembershipCheck records a membership result.
func ObserveMembershipCheck(met bool) {
	label := "false"
	if met {
		label = "true"
	}
	MembershipChecks.WithLabelValues(label).Inc()
}
