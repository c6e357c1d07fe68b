package pipeline

import (
	"github.com/sirupsen/logrus"

	"github.com/EslamHany2002/Feedback-Report/internal/config"
	"github.com/EslamHany2002/Feedback-Report/internal/metrics"
	"github.com/EslamHany2002/Feedback-Report/internal/metrics/datadog"
	"github.com/EslamHany2002/Feedback-Report/internal/metrics/prompush"
)

// InstallMetrics installs the backend selected by cfg.Metrics and returns a
// function that flushes it. A backend that fails to initialize is logged and
// metrics stay disabled; a report run never fails because of metrics.
func InstallMetrics(cfg config.Config, log logrus.FieldLogger) (flush func()) {
	noop := func() {}
	m := cfg.Metrics

	switch m.Backend {
	case "", "none":
		log.Debug("metrics: disabled")
		return noop

	case "pushgateway":
		b, err := prompush.NewBackend(cfg.Job, m.PushgatewayURL)
		if err != nil {
			log.WithError(err).Warn("metrics: pushgateway backend unavailable; metrics disabled")
			return noop
		}
		metrics.SetBackend(b)
		log.WithField("url", m.PushgatewayURL).Info("metrics: pushgateway backend installed")

	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			GlobalTags: []string{"job:" + cfg.Job},
		})
		if err != nil {
			log.WithError(err).Warn("metrics: datadog backend unavailable; metrics disabled")
			return noop
		}
		metrics.SetBackend(b)
		log.WithField("addr", m.DatadogAddr).Info("metrics: datadog backend installed")

	default:
		log.WithField("backend", m.Backend).Warn("metrics: unknown backend; metrics disabled")
		return noop
	}

	return func() {
		if err := metrics.Flush(); err != nil {
			log.WithError(err).Warn("metrics: flush failed")
		}
	}
}
