package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var sendsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "notification_sends_total",
	Help: "Notification attempts by channel and result.",
}, []string{"channel", "result"})
