package cluster

import "fmt"

// ChangedPartitions returns the partitions of proposed whose replica lists differ from
// the same partition in baseline, in deterministic partition order. The results belong to
// proposed, so they carry the new replica lists.
//
// Every partition of proposed must exist in baseline, otherwise ErrClusterConsistency is
// returned.
func ChangedPartitions(baseline *Cluster, proposed *Cluster) ([]*Partition, error) {
	changed := []*Partition{}

	for _, partition := range proposed.Partitions() {
		original, err := baseline.Partition(partition.TopicName(), partition.Num)
		if err != nil {
			return nil, fmt.Errorf(
				"%w: partition %s is not in the baseline cluster",
				ErrClusterConsistency,
				partition,
			)
		}
		if !original.Equal(partition) {
			changed = append(changed, partition)
		}
	}

	return changed, nil
}
