package inference

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "model_calls_total",
	Help: "Model endpoint calls by endpoint and result.",
}, []string{"endpoint", "result"})
