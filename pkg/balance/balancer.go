// Package balance contains the strategies that move replicas around a cluster model to
// even out its load.
package balance

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBalance is returned when a strategy can't produce a valid placement.
	ErrBalance = errors.New("Balance is not feasible")

	// ErrUnknownStrategy is returned by New for names that aren't registered.
	ErrUnknownStrategy = errors.New("Unknown balance strategy")
)

// Balancer is a strategy that mutates a cluster in place.
//
// Balance leaves the cluster partially mutated when it returns an error; callers that
// need the original should run it on a clone.
type Balancer interface {
	Name() string
	Balance(c *cluster.Cluster) error
}

// Options are passed to every strategy constructor.
type Options struct {
	Logger logrus.FieldLogger

	// ExcludeTopics are left where they are by every strategy.
	ExcludeTopics []string

	// Seed seeds any randomized ordering a strategy uses. Runs with the same seed on the
	// same cluster produce the same result.
	Seed string
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// Constructor builds a strategy from options.
type Constructor func(opts Options) (Balancer, error)

var registry = map[string]Constructor{}

// Register makes a strategy available to New under the argument name. It panics if the
// name is already taken.
func Register(name string, constructor Constructor) {
	if _, ok := registry[name]; ok {
		panic(fmt.Sprintf("Balance strategy %s registered twice", name))
	}
	registry[name] = constructor
}

// New returns the strategy registered under name.
func New(name string, opts Options) (Balancer, error) {
	constructor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s (valid: %+v)", ErrUnknownStrategy, name, Names())
	}
	return constructor(opts)
}

// Names returns the names of all registered strategies, sorted.
func Names() []string {
	names := []string{}
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
