package azuredevops

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "azdo_management_requests_total",
		Help: "The total number of requests sent to Azure Devops",
	}, []string{"method", "endpoint", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "azdo_management_request_duration_seconds",
		Help:    "The duration of requests sent to Azure Devops",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})
)

// observeRequest records a finished request. A status code of 0 means the request never got a response.
func observeRequest(method string, route string, statusCode int, start time.Time) {
	code := "error"
	if statusCode > 0 {
		code = strconv.Itoa(statusCode)
	}
	requestCounter.WithLabelValues(method, route, code).Inc()
	requestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
