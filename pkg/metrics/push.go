package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ogmaresca/azdo-management/pkg/logging"
)

// Push sends every metric of the default registry to a Prometheus Pushgateway.
// Commands are short-lived, so metrics are pushed instead of scraped.
func Push(url string, job string) error {
	return PushGatherer(url, job, prometheus.DefaultGatherer)
}

// PushGatherer sends the metrics of a gatherer to a Prometheus Pushgateway
func PushGatherer(url string, job string, gatherer prometheus.Gatherer) error {
	logging.Logger.Tracef("Pushing metrics to %s as job %s", url, job)
	return push.New(url, job).Gatherer(gatherer).Push()
}
