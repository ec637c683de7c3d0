package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests counts requests by matched route, method and status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hangspot_http_requests_total",
		Help: "Total HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})

	// UpdateWrites counts create/edit/delete of updates by kind
	UpdateWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hangspot_update_writes_total",
		Help: "Update writes by kind and operation",
	}, []string{"kind", "operation"})

	// LikeToggles counts like toggles by kind and resulting state
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hangspot_like_toggles_total",
		Help: "Like toggles by kind and resulting state",
	}, []string{"kind", "state"})

	// Logins counts login attempts by result
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hangspot_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})
)
