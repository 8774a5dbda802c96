package sizer

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

const logSizeMetric = "kafka_log_log_size"

// PrometheusConfig configures a PrometheusProvider.
type PrometheusConfig struct {
	// Port is the port of the metrics endpoint on every broker. It's required.
	Port int

	// Path defaults to /metrics.
	Path string

	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// PrometheusProvider scrapes the kafka_log_log_size gauge from a metrics endpoint
// exposed by each broker.
type PrometheusProvider struct {
	config PrometheusConfig
	client *http.Client
	logger logrus.FieldLogger
}

var _ Provider = (*PrometheusProvider)(nil)

// NewPrometheusProvider returns a new PrometheusProvider.
func NewPrometheusProvider(config PrometheusConfig) *PrometheusProvider {
	if config.Path == "" {
		config.Path = "/metrics"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &PrometheusProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

// Sizes scrapes the broker's metrics endpoint.
func (p *PrometheusProvider) Sizes(ctx context.Context, broker *cluster.Broker) ([]Measurement, error) {
	if err := checkHost(broker); err != nil {
		return nil, err
	}
	if p.config.Port == 0 {
		return nil, fmt.Errorf("%w: no metrics port configured", ErrUnknownBroker)
	}

	url := fmt.Sprintf(
		"http://%s%s",
		net.JoinHostPort(broker.Hostname, strconv.Itoa(p.config.Port)),
		p.config.Path,
	)
	p.logger.Debugf("Scraping %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", string(expfmt.FmtText))

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Error scraping metrics of broker %d: %w", broker.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Metrics endpoint of broker %d returned status %d", broker.ID, resp.StatusCode)
	}

	return parseMetrics(resp.Body)
}

func parseMetrics(r io.Reader) ([]Measurement, error) {
	parser := expfmt.TextParser{}
	families, err := parser.TextToMetricFamilies(r)
	if err != nil {
		return nil, fmt.Errorf("Error parsing metrics: %w", err)
	}

	measurements := []Measurement{}
	family, ok := families[logSizeMetric]
	if !ok {
		return measurements, nil
	}

	for _, metric := range family.GetMetric() {
		labels := map[string]string{}
		for _, label := range metric.GetLabel() {
			labels[label.GetName()] = label.GetValue()
		}

		topic := labels["topic"]
		partition, err := strconv.Atoi(labels["partition"])
		if topic == "" || err != nil {
			continue
		}

		measurements = append(
			measurements,
			Measurement{
				Topic:     topic,
				Partition: partition,
				Size:      int64(metricValue(metric)),
			},
		)
	}

	return measurements, nil
}

func metricValue(metric *dto.Metric) float64 {
	switch {
	case metric.Gauge != nil:
		return metric.GetGauge().GetValue()
	case metric.Untyped != nil:
		return metric.GetUntyped().GetValue()
	case metric.Counter != nil:
		return metric.GetCounter().GetValue()
	default:
		return 0
	}
}
