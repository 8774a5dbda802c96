package balance

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

func init() {
	Register("topic_partition_in_rack", NewRackPartitionsBalancer)
}

// RackPartitionsBalancer evens out, topic by topic, how the replicas of a topic are spread
// over the live brokers of each rack. Replicas never leave their rack.
//
// The first pass evens out replica counts among the brokers of a rack. The second pass
// evens out leader counts; when it moves a leader to a broker outside the partition, it
// moves a follower of the same topic back the other way to keep the first pass's counts.
type RackPartitionsBalancer struct {
	logger        logrus.FieldLogger
	excludeTopics []string
}

var _ Balancer = (*RackPartitionsBalancer)(nil)

// NewRackPartitionsBalancer returns a new RackPartitionsBalancer.
func NewRackPartitionsBalancer(opts Options) (Balancer, error) {
	return &RackPartitionsBalancer{
		logger:        opts.logger(),
		excludeTopics: opts.ExcludeTopics,
	}, nil
}

func (b *RackPartitionsBalancer) Name() string {
	return "topic_partition_in_rack"
}

func (b *RackPartitionsBalancer) Balance(c *cluster.Cluster) error {
	excluded := map[string]struct{}{}
	for _, name := range b.excludeTopics {
		excluded[name] = struct{}{}
	}

	racks := brokersByRack(c.LiveBrokers())

	for _, topic := range c.Topics() {
		if _, ok := excluded[topic.Name]; ok {
			continue
		}

		before := topicCounts(topic)

		for _, rackBrokers := range racks {
			if err := b.balanceReplicas(topic, rackBrokers); err != nil {
				return err
			}
		}
		afterReplicas := topicCounts(topic)

		for _, rackBrokers := range racks {
			if err := b.balanceLeaders(topic, rackBrokers); err != nil {
				return err
			}
		}
		afterLeaders := topicCounts(topic)

		b.logger.Infof(
			"Rack placement of topic %s:\n%s",
			topic.Name,
			formatRackSummary(c.Brokers(), before, afterReplicas, afterLeaders),
		)
	}

	return nil
}

func (b *RackPartitionsBalancer) balanceReplicas(
	topic *cluster.Topic,
	rackBrokers []*cluster.Broker,
) error {
	if len(rackBrokers) < 2 {
		return nil
	}

	counts := topicCounts(topic).replicas
	maxCount := ceilDiv(sumCounts(counts, rackBrokers), len(rackBrokers))

	for {
		most, least := extremes(rackBrokers, counts)
		if counts[most.ID] <= maxCount {
			return nil
		}

		partition := movableReplica(topic, most, least)
		if partition == nil {
			b.logger.Debugf(
				"No replica of topic %s can move from broker %d to broker %d",
				topic.Name,
				most.ID,
				least.ID,
			)
			return nil
		}
		if err := partition.SwapReplicas(most, least); err != nil {
			return err
		}
		counts[most.ID]--
		counts[least.ID]++
	}
}

func (b *RackPartitionsBalancer) balanceLeaders(
	topic *cluster.Topic,
	rackBrokers []*cluster.Broker,
) error {
	if len(rackBrokers) < 2 {
		return nil
	}

	leaders := topicCounts(topic).leaders
	maxLeaders := ceilDiv(sumCounts(leaders, rackBrokers), len(rackBrokers))

	for {
		most, least := extremes(rackBrokers, leaders)
		if leaders[most.ID] <= maxLeaders {
			return nil
		}

		moved, err := b.moveLeader(topic, most, least)
		if err != nil {
			return err
		}
		if !moved {
			return nil
		}
		leaders[most.ID]--
		leaders[least.ID]++
	}
}

// moveLeader makes least the leader of a partition of topic that most leads. Exchanging
// positions within a partition is preferred, since it leaves replica counts alone.
func (b *RackPartitionsBalancer) moveLeader(
	topic *cluster.Topic,
	most *cluster.Broker,
	least *cluster.Broker,
) (bool, error) {
	for _, partition := range topic.Partitions {
		if partition.Leader() == most && partition.HasReplica(least) {
			return true, partition.SwapReplicaPositions(most, least)
		}
	}

	for _, partition := range topic.Partitions {
		if partition.Leader() != most || partition.HasReplica(least) {
			continue
		}
		if err := partition.SwapReplicas(most, least); err != nil {
			return false, err
		}

		// Give most a follower of least's in exchange.
		for _, other := range topic.Partitions {
			if other.Position(least) > 0 && !other.HasReplica(most) {
				if err := other.SwapReplicas(least, most); err != nil {
					return false, err
				}
				break
			}
		}
		return true, nil
	}

	return false, nil
}

// movableReplica returns a partition of topic that has a replica on from and none on to,
// preferring partitions that from doesn't lead.
func movableReplica(topic *cluster.Topic, from *cluster.Broker, to *cluster.Broker) *cluster.Partition {
	var leaderMatch *cluster.Partition
	for _, partition := range topic.Partitions {
		pos := partition.Position(from)
		if pos < 0 || partition.HasReplica(to) {
			continue
		}
		if pos > 0 {
			return partition
		}
		if leaderMatch == nil {
			leaderMatch = partition
		}
	}
	return leaderMatch
}

type placementCounts struct {
	replicas map[int]int
	leaders  map[int]int
}

func topicCounts(topic *cluster.Topic) placementCounts {
	counts := placementCounts{
		replicas: map[int]int{},
		leaders:  map[int]int{},
	}
	for _, partition := range topic.Partitions {
		for pos, replica := range partition.Replicas() {
			counts.replicas[replica.ID]++
			if pos == 0 {
				counts.leaders[replica.ID]++
			}
		}
	}
	return counts
}

func brokersByRack(brokers []*cluster.Broker) [][]*cluster.Broker {
	rackBrokers := map[string][]*cluster.Broker{}
	for _, broker := range brokers {
		rackBrokers[broker.Rack] = append(rackBrokers[broker.Rack], broker)
	}

	racks := []string{}
	for rack := range rackBrokers {
		racks = append(racks, rack)
	}
	sort.Strings(racks)

	results := [][]*cluster.Broker{}
	for _, rack := range racks {
		results = append(results, rackBrokers[rack])
	}
	return results
}

// extremes returns the brokers with the highest and lowest counts. Ties go to the lower
// broker id for the highest, the higher id for the lowest.
func extremes(brokers []*cluster.Broker, counts map[int]int) (*cluster.Broker, *cluster.Broker) {
	sorted := make([]*cluster.Broker, len(brokers))
	copy(sorted, brokers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return counts[sorted[i].ID] > counts[sorted[j].ID]
	})
	return sorted[0], sorted[len(sorted)-1]
}

func sumCounts(counts map[int]int, brokers []*cluster.Broker) int {
	total := 0
	for _, broker := range brokers {
		total += counts[broker.ID]
	}
	return total
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

func formatRackSummary(
	brokers []*cluster.Broker,
	before placementCounts,
	afterReplicas placementCounts,
	afterLeaders placementCounts,
) string {
	buf := &bytes.Buffer{}

	table := tablewriter.NewWriter(buf)
	table.SetHeader(
		[]string{
			"Rack",
			"Broker",
			"Replicas Before",
			"Replicas After",
			"Leaders Before",
			"Leaders After",
			"Replicas Final",
		},
	)
	table.SetAutoWrapText(false)
	table.SetBorders(
		tablewriter.Border{
			Left:   false,
			Top:    true,
			Right:  false,
			Bottom: true,
		},
	)

	for _, rackBrokers := range brokersByRack(brokers) {
		for _, broker := range rackBrokers {
			table.Append(
				[]string{
					broker.Rack,
					fmt.Sprintf("%d", broker.ID),
					fmt.Sprintf("%d", before.replicas[broker.ID]),
					fmt.Sprintf("%d", afterReplicas.replicas[broker.ID]),
					fmt.Sprintf("%d", before.leaders[broker.ID]),
					fmt.Sprintf("%d", afterLeaders.leaders[broker.ID]),
					fmt.Sprintf("%d", afterLeaders.replicas[broker.ID]),
				},
			)
		}
	}

	table.Render()
	return buf.String()
}
