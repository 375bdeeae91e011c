// Package metrics records operational counters in Prometheus text format.
// The counters are exposed through the HTTP API's /metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/VictoriaMetrics/metrics"
)

// Handler serves the Prometheus text exposition.
func Handler(w http.ResponseWriter, _ *http.Request) {
	metrics.WritePrometheus(w, true)
}

// RecordCommand counts a handled bot command.
func RecordCommand(name string) {
	metrics.GetOrCreateCounter(`laundrybot_commands_total{command="` + name + `"}`).Inc()
}

// RecordCallback counts a handled component interaction by its id (the
// fixed prefix for parameterized ids).
func RecordCallback(id string) {
	metrics.GetOrCreateCounter(`laundrybot_callbacks_total{id="` + id + `"}`).Inc()
}

// RecordStatusMessage counts a posted status message.
func RecordStatusMessage() {
	metrics.GetOrCreateCounter(`laundrybot_status_messages_total`).Inc()
}

// RecordNotification counts a scheduled notification reaching a terminal
// state ("sent" or "failed").
func RecordNotification(outcome string) {
	metrics.GetOrCreateCounter(`laundrybot_notifications_total{outcome="` + outcome + `"}`).Inc()
}

// RecordPresenceUpdate counts an applied (non-deduplicated) presence change.
func RecordPresenceUpdate() {
	metrics.GetOrCreateCounter(`laundrybot_presence_updates_total`).Inc()
}

// RecordWebPush counts a web push delivery attempt by outcome.
func RecordWebPush(outcome string) {
	metrics.GetOrCreateCounter(`laundrybot_webpush_total{outcome="` + outcome + `"}`).Inc()
}
