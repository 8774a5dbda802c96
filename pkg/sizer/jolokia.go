package sizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

const logSizeBean = "kafka.log:type=Log,name=Size,topic=*,partition=*"

// JolokiaConfig configures a JolokiaProvider.
type JolokiaConfig struct {
	// Port is the jolokia agent port. If zero, the broker's JMX port is used.
	Port int

	// Path defaults to /jolokia/.
	Path string

	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// JolokiaProvider reads the size of every log from a jolokia agent running alongside
// the broker.
type JolokiaProvider struct {
	config JolokiaConfig
	client *http.Client
	logger logrus.FieldLogger
}

var _ Provider = (*JolokiaProvider)(nil)

// NewJolokiaProvider returns a new JolokiaProvider.
func NewJolokiaProvider(config JolokiaConfig) *JolokiaProvider {
	if config.Path == "" {
		config.Path = "/jolokia/"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &JolokiaProvider{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: logger,
	}
}

type jolokiaRequest struct {
	Type      string `json:"type"`
	MBean     string `json:"mbean"`
	Attribute string `json:"attribute"`
}

type jolokiaResponse struct {
	Status int                                `json:"status"`
	Error  string                             `json:"error"`
	Value  map[string]map[string]json.Number `json:"value"`
}

// Sizes reads the Size bean of every log on the broker.
func (p *JolokiaProvider) Sizes(ctx context.Context, broker *cluster.Broker) ([]Measurement, error) {
	if err := checkHost(broker); err != nil {
		return nil, err
	}
	port := p.config.Port
	if port == 0 {
		port = broker.JMXPort
	}
	if port == 0 {
		return nil, fmt.Errorf("%w: broker %d has no jolokia port", ErrUnknownBroker, broker.ID)
	}

	body, err := json.Marshal(
		jolokiaRequest{Type: "read", MBean: logSizeBean, Attribute: "Value"},
	)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"http://%s%s",
		net.JoinHostPort(broker.Hostname, strconv.Itoa(port)),
		p.config.Path,
	)
	p.logger.Debugf("Querying %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Error querying jolokia on broker %d: %w", broker.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Jolokia on broker %d returned status %d", broker.ID, resp.StatusCode)
	}

	return parseJolokia(resp.Body)
}

func parseJolokia(r io.Reader) ([]Measurement, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()

	response := jolokiaResponse{}
	if err := decoder.Decode(&response); err != nil {
		return nil, fmt.Errorf("Error parsing jolokia response: %w", err)
	}
	if response.Status != http.StatusOK {
		return nil, fmt.Errorf("Jolokia read failed with status %d: %s", response.Status, response.Error)
	}

	measurements := []Measurement{}
	for beanName, attributes := range response.Value {
		topic, partition, ok := parseBeanName(beanName)
		if !ok {
			continue
		}
		value, ok := attributes["Value"]
		if !ok {
			continue
		}
		size, err := value.Int64()
		if err != nil {
			return nil, fmt.Errorf("Bean %s has a non-integer size %s", beanName, value)
		}
		measurements = append(
			measurements,
			Measurement{Topic: topic, Partition: partition, Size: size},
		)
	}

	return measurements, nil
}

// parseBeanName reads the topic and partition keys of names like
// kafka.log:name=Size,partition=0,topic=events,type=Log.
func parseBeanName(name string) (string, int, bool) {
	colon := strings.Index(name, ":")
	if colon < 0 {
		return "", 0, false
	}

	props := map[string]string{}
	for _, pair := range strings.Split(name[colon+1:], ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) == 2 {
			props[kv[0]] = kv[1]
		}
	}

	topic, ok := props["topic"]
	if !ok || topic == "" {
		return "", 0, false
	}
	partition, err := strconv.Atoi(props["partition"])
	if err != nil {
		return "", 0, false
	}
	return topic, partition, true
}
