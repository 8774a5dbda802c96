package cluster

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// CheckConsistency verifies, in a single pass, that the partition replica lists and the
// broker position indices describe the same placement:
//
//  1. every replica of every partition is the cluster's broker with that id, and holds
//     the partition exactly once in its index at the replica's position
//  2. every partition in a broker's index at position p has that broker at position p
//  3. no partition lists the same broker twice
//
// All violations are returned together, wrapped in ErrClusterConsistency.
func CheckConsistency(c *Cluster) error {
	var errs *multierror.Error

	for _, partition := range c.Partitions() {
		seen := map[int]struct{}{}

		for pos, replica := range partition.replicas {
			if _, ok := seen[replica.ID]; ok {
				errs = multierror.Append(
					errs,
					fmt.Errorf("Partition %s lists broker %d more than once", partition, replica.ID),
				)
			}
			seen[replica.ID] = struct{}{}

			broker, ok := c.brokers[replica.ID]
			if !ok || broker != replica {
				errs = multierror.Append(
					errs,
					fmt.Errorf("Partition %s has replica %d that is not a cluster broker", partition, replica.ID),
				)
				continue
			}

			count := 0
			if pos < len(broker.partitions) {
				for _, indexed := range broker.partitions[pos] {
					if indexed == partition {
						count++
					}
				}
			}
			if count != 1 {
				errs = multierror.Append(
					errs,
					fmt.Errorf(
						"Broker %d indexes partition %s %d times at position %d, expected once",
						broker.ID,
						partition,
						count,
						pos,
					),
				)
			}
		}
	}

	for _, broker := range c.Brokers() {
		for pos, partitions := range broker.partitions {
			for _, partition := range partitions {
				if partition.Replica(pos) != broker {
					errs = multierror.Append(
						errs,
						fmt.Errorf(
							"Broker %d indexes partition %s at position %d, but it is not the replica there",
							broker.ID,
							partition,
							pos,
						),
					)
				}
				if partition.Topic == nil || c.topics[partition.TopicName()] != partition.Topic {
					errs = multierror.Append(
						errs,
						fmt.Errorf("Broker %d indexes partition %s of an unknown topic", broker.ID, partition),
					)
				}
			}
		}
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %v", ErrClusterConsistency, err)
	}
	return nil
}
