package execute

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/kassigner/pkg/plan"
	"github.com/sirupsen/logrus"
)

// PrintExecutorConfig configures a PrintExecutor.
type PrintExecutorConfig struct {
	// OutputDir, if set, is where batch files are written. Otherwise batches are only
	// logged.
	OutputDir string

	// Prefix starts the name of every batch file.
	Prefix string

	Logger logrus.FieldLogger
}

// PrintExecutor doesn't touch the cluster. It logs every batch, and can write each one
// to a file that can be applied later.
type PrintExecutor struct {
	config PrintExecutorConfig
	logger logrus.FieldLogger
}

// NewPrintExecutor returns a new PrintExecutor.
func NewPrintExecutor(config PrintExecutorConfig) *PrintExecutor {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if config.Prefix == "" {
		config.Prefix = "kassigner"
	}

	return &PrintExecutor{
		config: config,
		logger: logger,
	}
}

func (e *PrintExecutor) Execute(ctx context.Context, batch plan.Batch, num int, total int) error {
	data, err := batch.JSON()
	if err != nil {
		return err
	}

	if e.config.OutputDir == "" {
		e.logger.Infof("%s batch %d of %d: %s", batch.Kind(), num, total, string(data))
		return nil
	}

	if err := os.MkdirAll(e.config.OutputDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(e.config.OutputDir, BatchFileName(e.config.Prefix, batch.Kind(), num, total))
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("Error writing %s: %w", path, err)
	}

	e.logger.Infof("Wrote %s batch %d of %d (%d partitions) to %s", batch.Kind(), num, total, batch.Len(), path)
	return nil
}

// BatchFileName returns the name of the file a batch is written to.
func BatchFileName(prefix string, kind plan.Kind, num int, total int) string {
	return fmt.Sprintf("%s-%s-%d-of-%d.json", prefix, kind, num, total)
}
