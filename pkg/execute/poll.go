package execute

import (
	"context"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/sirupsen/logrus"
)

const (
	spinnerCharSet  = 36
	spinnerDuration = 200 * time.Millisecond

	defaultSleepLoopDuration = 10 * time.Second
)

// Poller calls a check function every Interval until it reports completion.
type Poller struct {
	Interval time.Duration

	// ShowSpinner shows a spinner on stderr while waiting.
	ShowSpinner bool

	Logger logrus.FieldLogger
}

// Poll sleeps, then calls check until it returns true or an error, or until ctx is done.
func (p Poller) Poll(ctx context.Context, description string, check func(ctx context.Context) (bool, error)) error {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultSleepLoopDuration
	}
	logger := p.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	var spinnerObj *spinner.Spinner
	if p.ShowSpinner {
		spinnerObj = spinner.New(
			spinner.CharSets[spinnerCharSet],
			spinnerDuration,
			spinner.WithWriter(os.Stderr),
			spinner.WithHiddenCursor(true),
		)
		spinnerObj.Prefix = description + ": "
		spinnerObj.Start()
		defer spinnerObj.Stop()
	}

	checkTimer := time.NewTicker(interval)
	defer checkTimer.Stop()

	logger.Debugf("Sleeping then entering check loop for %s", description)

	for {
		select {
		case <-checkTimer.C:
			done, err := check(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
			logger.Debugf("Sleeping for %s", interval.String())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
