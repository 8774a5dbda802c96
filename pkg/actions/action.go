// Package actions contains the operations that a run applies to a cluster model, each
// built from command-line arguments and validated against the cluster before it runs.
package actions

import (
	"errors"
	"fmt"
	"io"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

var (
	// ErrConfiguration is returned by constructors for invalid arguments.
	ErrConfiguration = errors.New("Invalid action configuration")

	// ErrNotEnoughReplicas is returned when an action would leave a partition with no
	// usable replica.
	ErrNotEnoughReplicas = errors.New("Not enough replicas")
)

// Action changes the placement of a cluster model. Process may leave the cluster
// partially changed when it fails.
type Action interface {
	Name() string
	Process(c *cluster.Cluster) error

	// NeedsLeaderElection returns whether the preferred leaders of the partitions the
	// action moves should be elected after the moves are done.
	NeedsLeaderElection() bool
}

// Elector is implemented by actions that request leader elections for partitions
// independently of whether they were moved.
type Elector interface {
	ElectionPartitions(c *cluster.Cluster) []*cluster.Partition
}

func discardLogger(logger logrus.FieldLogger) logrus.FieldLogger {
	if logger != nil {
		return logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

func configErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// checkBrokers returns a configuration error if any id isn't a broker of c, or if an id
// is given more than once.
func checkBrokers(c *cluster.Cluster, ids []int, flag string) error {
	if len(ids) == 0 {
		return configErrorf("%s must list at least one broker", flag)
	}
	seen := map[int]struct{}{}
	for _, id := range ids {
		if _, ok := c.Broker(id); !ok {
			return fmt.Errorf("%w: %w: %d in %s", ErrConfiguration, cluster.ErrUnknownBroker, id, flag)
		}
		if _, ok := seen[id]; ok {
			return configErrorf("broker %d is listed more than once in %s", id, flag)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func checkDisjoint(sources []int, targets []int) error {
	sourceSet := idSet(sources)
	for _, id := range targets {
		if _, ok := sourceSet[id]; ok {
			return configErrorf("broker %d is both a source and a target", id)
		}
	}
	return nil
}

func idSet(ids []int) map[int]struct{} {
	set := map[int]struct{}{}
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// lookupBrokers resolves ids against c, which may be a clone of the cluster the ids were
// validated against.
func lookupBrokers(c *cluster.Cluster, ids []int) ([]*cluster.Broker, error) {
	brokers := []*cluster.Broker{}
	for _, id := range ids {
		broker, ok := c.Broker(id)
		if !ok {
			return nil, fmt.Errorf("%w: %d", cluster.ErrUnknownBroker, id)
		}
		brokers = append(brokers, broker)
	}
	return brokers, nil
}

func brokerSet(brokers []*cluster.Broker) map[*cluster.Broker]struct{} {
	set := map[*cluster.Broker]struct{}{}
	for _, broker := range brokers {
		set[broker] = struct{}{}
	}
	return set
}
