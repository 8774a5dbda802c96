// Package sizer measures the on-disk size of partitions, broker by broker, and records
// the results in the cluster model.
package sizer

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ErrUnknownBroker is returned by providers for brokers they can't reach, because the
// broker has no hostname or no port for the provider's endpoint.
var ErrUnknownBroker = fmt.Errorf("Cannot size broker: %w", cluster.ErrUnknownBroker)

// Measurement is the size of one replica of a partition, in bytes.
type Measurement struct {
	Topic     string
	Partition int
	Size      int64
}

// Provider returns the sizes of the partition replicas stored on a broker.
type Provider interface {
	Sizes(ctx context.Context, broker *cluster.Broker) ([]Measurement, error)
}

// Collect queries p for every broker of c concurrently, then records every measurement
// with Cluster.SetSize, so that each partition ends with the size of its largest replica.
// Measurements of topics or partitions that c doesn't have are skipped.
func Collect(ctx context.Context, c *cluster.Cluster, p Provider, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	brokers := c.Brokers()
	results := make([][]Measurement, len(brokers))

	group, groupCtx := errgroup.WithContext(ctx)
	for b, broker := range brokers {
		b, broker := b, broker
		group.Go(func() error {
			measurements, err := p.Sizes(groupCtx, broker)
			if err != nil {
				return fmt.Errorf("Error getting partition sizes of broker %d: %w", broker.ID, err)
			}
			logger.Debugf("Got %d measurements from broker %d", len(measurements), broker.ID)
			results[b] = measurements
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, measurements := range results {
		for _, measurement := range measurements {
			err := c.SetSize(measurement.Topic, measurement.Partition, measurement.Size)
			switch {
			case errors.Is(err, cluster.ErrUnknownTopic), errors.Is(err, cluster.ErrUnknownPartition):
				logger.Debugf(
					"Ignoring size of %s:%d: %+v",
					measurement.Topic,
					measurement.Partition,
					err,
				)
			case err != nil:
				return err
			}
		}
	}

	return nil
}

func checkHost(broker *cluster.Broker) error {
	if broker.Dead() {
		return fmt.Errorf("%w: broker %d has no hostname", ErrUnknownBroker, broker.ID)
	}
	return nil
}
