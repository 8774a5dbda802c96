// Package planner runs actions against a clone of a cluster model and turns the
// resulting placement changes into batches for an executor.
package planner

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/segmentio/kassigner/pkg/util"
	"github.com/sirupsen/logrus"
)

// Executor applies a single batch to a cluster and waits for it to complete. num is the
// 1-based index of the batch among total batches of the same kind.
type Executor interface {
	Execute(ctx context.Context, batch plan.Batch, num int, total int) error
}

// Config configures a Planner.
type Config struct {
	Logger logrus.FieldLogger

	// Executor runs the batches. If it's nil, Run only plans.
	Executor Executor

	// BatchSize is the maximum number of partitions per reassignment batch; zero or less
	// puts everything into one batch.
	BatchSize int

	// PLEBatchSize is the maximum number of partitions per leader election batch.
	PLEBatchSize int

	// SkipPLE disables leader elections even for actions that ask for them.
	SkipPLE bool

	Metrics *util.RunMetrics

	// RunID identifies the run in logs and file names. A random id is used if empty.
	RunID string
}

// Planner turns actions into executed batches.
type Planner struct {
	config Config
	logger logrus.FieldLogger
}

// Result is the outcome of planning.
type Result struct {
	RunID         string
	Proposed      *cluster.Cluster
	Moves         []*cluster.Partition
	Reassignments []*plan.Reassignment
	Elections     []*plan.LeaderElection
}

// New returns a new Planner.
func New(config Config) *Planner {
	if config.RunID == "" {
		config.RunID = uuid.New().String()
	}

	logger := config.Logger
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	return &Planner{
		config: config,
		logger: logger.WithField("run", config.RunID),
	}
}

// RunID returns the id of the planner's run.
func (p *Planner) RunID() string {
	return p.config.RunID
}

// Apply runs a single action against a snapshot of working. On success the snapshot is
// returned; on failure working is returned as it was, along with the error.
func (p *Planner) Apply(working *cluster.Cluster, action actions.Action) (*cluster.Cluster, error) {
	start := time.Now()
	defer p.config.Metrics.ObserveAction(action.Name(), start)

	snapshot := working.Clone()

	p.logger.Infof("Processing action %s", action.Name())
	if err := action.Process(snapshot); err != nil {
		return working, fmt.Errorf("Action %s failed: %w", action.Name(), err)
	}
	if err := cluster.CheckConsistency(snapshot); err != nil {
		return working, fmt.Errorf("Action %s left the cluster inconsistent: %w", action.Name(), err)
	}

	p.logger.Debugf(
		"Action %s finished in %s",
		action.Name(),
		util.PrettyDuration(time.Since(start)),
	)
	return snapshot, nil
}

// Plan applies every action in order to a clone of baseline and splits the changed
// partitions into batches. Baseline is never modified.
func (p *Planner) Plan(baseline *cluster.Cluster, actionList ...actions.Action) (Result, error) {
	working := baseline.Clone()
	needsElection := false
	electionKeys := map[string]struct{}{}

	for _, action := range actionList {
		var err error
		working, err = p.Apply(working, action)
		if err != nil {
			return Result{}, err
		}

		if action.NeedsLeaderElection() {
			needsElection = true
		}
		if elector, ok := action.(actions.Elector); ok {
			for _, partition := range elector.ElectionPartitions(working) {
				electionKeys[partition.String()] = struct{}{}
			}
		}
	}

	moves, err := cluster.ChangedPartitions(baseline, working)
	if err != nil {
		return Result{}, err
	}

	if needsElection {
		for _, move := range moves {
			electionKeys[move.String()] = struct{}{}
		}
	}
	electionPartitions := []*cluster.Partition{}
	if !p.config.SkipPLE {
		for _, partition := range working.Partitions() {
			if _, ok := electionKeys[partition.String()]; ok {
				electionPartitions = append(electionPartitions, partition)
			}
		}
	}

	result := Result{
		RunID:         p.config.RunID,
		Proposed:      working,
		Moves:         moves,
		Reassignments: plan.SplitIntoBatches(moves, p.config.BatchSize, plan.NewReassignment),
		Elections: plan.SplitIntoBatches(
			electionPartitions,
			p.config.PLEBatchSize,
			plan.NewLeaderElection,
		),
	}

	if p.config.Metrics != nil {
		p.config.Metrics.MovesPlanned.Set(float64(len(moves)))
		p.config.Metrics.BatchesPlanned.WithLabelValues(string(plan.KindReassignment)).Set(
			float64(len(result.Reassignments)),
		)
		p.config.Metrics.BatchesPlanned.WithLabelValues(string(plan.KindLeaderElection)).Set(
			float64(len(result.Elections)),
		)
	}

	p.logger.Infof(
		"Planned %d partition moves in %d batches and %d leader election batches",
		len(moves),
		len(result.Reassignments),
		len(result.Elections),
	)
	return result, nil
}

// Execute hands the batches of result to the executor, one at a time: all reassignments
// first, then all leader elections. It stops at the first error, or between batches if
// ctx is done.
func (p *Planner) Execute(ctx context.Context, result Result) error {
	if p.config.Executor == nil {
		p.logger.Info("No executor configured, not executing")
		return nil
	}

	batches := []plan.Batch{}
	for _, reassignment := range result.Reassignments {
		batches = append(batches, reassignment)
	}
	for _, election := range result.Elections {
		batches = append(batches, election)
	}

	totals := map[plan.Kind]int{
		plan.KindReassignment:   len(result.Reassignments),
		plan.KindLeaderElection: len(result.Elections),
	}
	nums := map[plan.Kind]int{}

	roundScoreboard := color.New(color.FgYellow, color.Bold).SprintfFunc()
	start := time.Now()

	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return err
		}

		nums[batch.Kind()]++
		num, total := nums[batch.Kind()], totals[batch.Kind()]

		p.logger.Infof(
			"Executing %s batch %s (%d partitions)",
			batch.Kind(),
			roundScoreboard("%d of %d", num, total),
			batch.Len(),
		)
		if err := p.config.Executor.Execute(ctx, batch, num, total); err != nil {
			return fmt.Errorf("%s batch %d of %d failed: %w", batch.Kind(), num, total, err)
		}
		if p.config.Metrics != nil {
			p.config.Metrics.BatchesExecuted.WithLabelValues(string(batch.Kind())).Inc()
		}
	}

	p.logger.Infof(
		"Executed %d batches in %s (%s)",
		len(batches),
		util.PrettyDuration(time.Since(start)),
		util.PrettyRate(int64(len(result.Moves)), "partitions", time.Since(start)),
	)
	return nil
}

// Run plans and then executes.
func (p *Planner) Run(
	ctx context.Context,
	baseline *cluster.Cluster,
	actionList ...actions.Action,
) (Result, error) {
	result, err := p.Plan(baseline, actionList...)
	if err != nil {
		return result, err
	}
	return result, p.Execute(ctx, result)
}
