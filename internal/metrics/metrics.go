package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	Registrations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_registrations_total",
		Help: "Registration attempts that produced an activation email",
	})
	Activations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_activations_total",
		Help: "Accounts created through activation",
	})
	Logins = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_logins_total",
		Help: "Successful logins, social auth included",
	})
	TokenRefreshes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_token_refreshes_total",
		Help: "Successful access token refreshes",
	})
	MailFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_mail_failures_total",
		Help: "Activation emails that could not be dispatched",
	})
	NotificationsSwept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notifications_swept_total",
		Help: "Read notifications removed by the daily sweep",
	})
)

func Init() {
	prometheus.MustRegister(
		Registrations,
		Activations,
		Logins,
		TokenRefreshes,
		MailFailures,
		NotificationsSwept,
	)
}
