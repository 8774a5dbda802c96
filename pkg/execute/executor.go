// Package execute applies plan batches to a live cluster, or prints them for someone
// else to apply.
package execute

import (
	"context"
	"errors"

	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/segmentio/kassigner/pkg/planner"
)

// ErrInProgress is returned when the cluster is still working on a reassignment or
// election that was started elsewhere.
var ErrInProgress = errors.New("Another operation is in progress")

// Executor applies a single batch and waits for the cluster to finish it.
type Executor interface {
	Execute(ctx context.Context, batch plan.Batch, num int, total int) error
}

var (
	_ planner.Executor = (Executor)(nil)
	_ Executor         = (*ZKExecutor)(nil)
	_ Executor         = (*BrokerExecutor)(nil)
	_ Executor         = (*PrintExecutor)(nil)
)
