package execute

import (
	"context"
	"fmt"
	"sort"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/segmentio/kassigner/pkg/util"
	"github.com/sirupsen/logrus"
)

// AdminClient is the subset of the kafka-go client used by BrokerExecutor.
type AdminClient interface {
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
	AlterPartitionReassignments(
		ctx context.Context,
		req *kafka.AlterPartitionReassignmentsRequest,
	) (*kafka.AlterPartitionReassignmentsResponse, error)
	ElectLeaders(
		ctx context.Context,
		req *kafka.ElectLeadersRequest,
	) (*kafka.ElectLeadersResponse, error)
}

var _ AdminClient = (*kafka.Client)(nil)

// BrokerExecutorConfig configures a BrokerExecutor.
type BrokerExecutorConfig struct {
	Poller Poller
	Logger logrus.FieldLogger
}

// BrokerExecutor applies batches through the kafka admin API, then polls the topic
// metadata until the cluster reflects them.
type BrokerExecutor struct {
	client AdminClient
	poller Poller
	logger logrus.FieldLogger
}

// NewBrokerExecutor returns a new BrokerExecutor.
func NewBrokerExecutor(client AdminClient, config BrokerExecutorConfig) *BrokerExecutor {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	poller := config.Poller
	if poller.Logger == nil {
		poller.Logger = logger
	}

	return &BrokerExecutor{
		client: client,
		poller: poller,
		logger: logger,
	}
}

func (e *BrokerExecutor) Execute(ctx context.Context, batch plan.Batch, num int, total int) error {
	description := fmt.Sprintf("Waiting for %s batch %d of %d", batch.Kind(), num, total)

	switch typedBatch := batch.(type) {
	case *plan.Reassignment:
		if err := e.reassign(ctx, typedBatch); err != nil {
			return err
		}
		return e.poller.Poll(ctx, description, func(ctx context.Context) (bool, error) {
			return e.reassignmentDone(ctx, typedBatch)
		})
	case *plan.LeaderElection:
		if err := e.elect(ctx, typedBatch); err != nil {
			return err
		}
		return e.poller.Poll(ctx, description, func(ctx context.Context) (bool, error) {
			return e.electionDone(ctx, typedBatch)
		})
	default:
		return fmt.Errorf("Unrecognized batch kind: %s", batch.Kind())
	}
}

func (e *BrokerExecutor) reassign(ctx context.Context, reassignment *plan.Reassignment) error {
	if len(reassignment.Partitions) == 0 {
		return nil
	}

	assignments := []kafka.AlterPartitionReassignmentsRequestAssignment{}
	for _, move := range reassignment.Partitions {
		assignments = append(
			assignments,
			kafka.AlterPartitionReassignmentsRequestAssignment{
				Topic:       move.Topic,
				PartitionID: move.Partition,
				BrokerIDs:   util.CopyInts(move.Replicas),
			},
		)
	}

	resp, err := e.client.AlterPartitionReassignments(
		ctx,
		&kafka.AlterPartitionReassignmentsRequest{
			Topic:       reassignment.Partitions[0].Topic,
			Assignments: assignments,
		},
	)
	if err != nil {
		return fmt.Errorf("Error altering partition reassignments: %w", err)
	}
	if resp.Error != nil {
		return fmt.Errorf("Error altering partition reassignments: %w", resp.Error)
	}
	for _, result := range resp.PartitionResults {
		if result.Error != nil {
			return fmt.Errorf(
				"Error reassigning %s:%d: %w",
				result.Topic,
				result.PartitionID,
				result.Error,
			)
		}
	}
	return nil
}

func (e *BrokerExecutor) elect(ctx context.Context, election *plan.LeaderElection) error {
	for _, topic := range electionTopics(election) {
		resp, err := e.client.ElectLeaders(
			ctx,
			&kafka.ElectLeadersRequest{
				Topic:      topic.name,
				Partitions: topic.partitions,
			},
		)
		if err != nil {
			return fmt.Errorf("Error electing leaders of topic %s: %w", topic.name, err)
		}
		for _, result := range resp.PartitionResults {
			if result.Error != nil {
				return fmt.Errorf(
					"Error electing leader of %s:%d: %w",
					topic.name,
					result.Partition,
					result.Error,
				)
			}
		}
	}
	return nil
}

func (e *BrokerExecutor) reassignmentDone(
	ctx context.Context,
	reassignment *plan.Reassignment,
) (bool, error) {
	topics := []string{}
	for _, move := range reassignment.Partitions {
		topics = append(topics, move.Topic)
	}

	partitions, err := e.partitions(ctx, topics)
	if err != nil {
		return false, err
	}

	notReady := 0
	for _, move := range reassignment.Partitions {
		partition, ok := partitions[partitionKey{move.Topic, move.Partition}]
		if !ok {
			return false, fmt.Errorf("Partition %s:%d is not in the metadata", move.Topic, move.Partition)
		}

		replicas := brokerIDs(partition.Replicas)
		isr := brokerIDs(partition.Isr)
		switch {
		case !util.IntsEqual(replicas, move.Replicas):
			e.logger.Debugf("Wrong replicas for %s:%d: %+v, %+v", move.Topic, move.Partition, replicas, move.Replicas)
			notReady++
		case !util.SameElements(replicas, isr):
			e.logger.Debugf("Out of sync: %s:%d %+v, %+v", move.Topic, move.Partition, replicas, isr)
			notReady++
		}
	}

	if notReady > 0 {
		e.logger.Infof(
			"%d/%d partitions have not picked up the update and/or have out-of-sync replicas",
			notReady,
			len(reassignment.Partitions),
		)
		return false, nil
	}
	return true, nil
}

func (e *BrokerExecutor) electionDone(
	ctx context.Context,
	election *plan.LeaderElection,
) (bool, error) {
	topics := []string{}
	for _, topic := range electionTopics(election) {
		topics = append(topics, topic.name)
	}

	partitions, err := e.partitions(ctx, topics)
	if err != nil {
		return false, err
	}

	notReady := 0
	for _, electionPartition := range election.Partitions {
		partition, ok := partitions[partitionKey{electionPartition.Topic, electionPartition.Partition}]
		if !ok || len(partition.Replicas) == 0 {
			continue
		}
		if partition.Leader.ID != partition.Replicas[0].ID {
			notReady++
		}
	}

	if notReady > 0 {
		e.logger.Infof(
			"%d/%d partitions are not led by their preferred replica yet",
			notReady,
			len(election.Partitions),
		)
		return false, nil
	}
	return true, nil
}

type partitionKey struct {
	topic     string
	partition int
}

func (e *BrokerExecutor) partitions(
	ctx context.Context,
	topics []string,
) (map[partitionKey]kafka.Partition, error) {
	resp, err := e.client.Metadata(ctx, &kafka.MetadataRequest{Topics: uniqueStrings(topics)})
	if err != nil {
		return nil, err
	}

	partitions := map[partitionKey]kafka.Partition{}
	for _, topic := range resp.Topics {
		if topic.Error != nil {
			return nil, fmt.Errorf("Error getting metadata of topic %s: %w", topic.Name, topic.Error)
		}
		for _, partition := range topic.Partitions {
			partitions[partitionKey{topic.Name, partition.ID}] = partition
		}
	}
	return partitions, nil
}

type electionTopic struct {
	name       string
	partitions []int
}

func electionTopics(election *plan.LeaderElection) []electionTopic {
	byTopic := map[string][]int{}
	for _, partition := range election.Partitions {
		byTopic[partition.Topic] = append(byTopic[partition.Topic], partition.Partition)
	}

	topics := []electionTopic{}
	for name, partitions := range byTopic {
		topics = append(topics, electionTopic{name: name, partitions: partitions})
	}
	sort.Slice(topics, func(a, b int) bool {
		return topics[a].name < topics[b].name
	})
	return topics
}

func brokerIDs(brokers []kafka.Broker) []int {
	ids := []int{}
	for _, broker := range brokers {
		ids = append(ids, broker.ID)
	}
	return ids
}

func uniqueStrings(values []string) []string {
	seen := map[string]struct{}{}
	unique := []string{}
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		unique = append(unique, value)
	}
	sort.Strings(unique)
	return unique
}
