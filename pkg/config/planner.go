// Package config loads planner settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/segmentio/kassigner/pkg/sizer"
	"github.com/segmentio/kassigner/pkg/source"
	"github.com/sirupsen/logrus"
)

// SizerType is the name of a partition size provider.
type SizerType string

const (
	SizerTypeNone       SizerType = ""
	SizerTypeSSH        SizerType = "ssh"
	SizerTypeJolokia    SizerType = "jolokia"
	SizerTypePrometheus SizerType = "prometheus"
)

// PlannerConfig stores how to reach a cluster and how to plan moves in it.
type PlannerConfig struct {
	Meta PlannerMeta `json:"meta"`
	Spec PlannerSpec `json:"spec"`
}

// PlannerMeta contains (mostly immutable) metadata about the cluster. Inspired by the
// meta fields in Kubernetes objects.
type PlannerMeta struct {
	Name        string `json:"name"`
	Region      string `json:"region"`
	Environment string `json:"environment"`
	Description string `json:"description"`
}

// PlannerSpec contains the details necessary to read from and write to the cluster.
type PlannerSpec struct {
	// ZKAddrs is a list of one or more zookeeper addresses. If set, the topology is read
	// from zookeeper and batches are applied through its admin nodes.
	ZKAddrs []string `json:"zkAddrs"`

	// ZKPrefix is the prefix under which all zk nodes for the cluster are stored. If blank,
	// these are assumed to be under the zk root.
	ZKPrefix string `json:"zkPrefix"`

	// ZKLockPath is held while a batch is applied. If blank, no lock is used.
	ZKLockPath string `json:"zkLockPath"`

	// BootstrapAddrs is a list of one or more broker addresses, used when ZKAddrs is
	// empty.
	BootstrapAddrs []string `json:"bootstrapAddrs"`

	TLS  source.TLSConfig  `json:"tls"`
	SASL source.SASLConfig `json:"sasl"`

	Sizer SizerConfig `json:"sizer"`

	// ResolveRacksFromEC2 fills in missing broker racks with EC2 availability zones.
	ResolveRacksFromEC2 bool `json:"resolveRacksFromEC2"`

	BatchSize    int `json:"batchSize"`
	PLEBatchSize int `json:"pleBatchSize"`

	SleepLoopDurationStr string `json:"sleepLoopDuration"`

	ExcludeTopics []string `json:"excludeTopics"`
}

// SizerConfig picks and configures the partition size provider.
type SizerConfig struct {
	Type SizerType `json:"type"`

	DataDirs []string `json:"dataDirs"`
	SSHUser  string   `json:"sshUser"`
	SSHPort  int      `json:"sshPort"`

	JolokiaPort int `json:"jolokiaPort"`

	MetricsPort int    `json:"metricsPort"`
	MetricsPath string `json:"metricsPath"`
}

// Validate evaluates whether the planner config is valid.
func (c PlannerConfig) Validate() error {
	var err error

	if c.Meta.Name == "" {
		err = multierror.Append(err, errors.New("Name must be set"))
	}
	if len(c.Spec.ZKAddrs) == 0 && len(c.Spec.BootstrapAddrs) == 0 {
		err = multierror.Append(
			err,
			errors.New("At least one zookeeper address or bootstrap broker address must be set"),
		)
	}
	if c.Spec.BatchSize < 0 {
		err = multierror.Append(err, errors.New("batchSize cannot be negative"))
	}
	if c.Spec.PLEBatchSize < 0 {
		err = multierror.Append(err, errors.New("pleBatchSize cannot be negative"))
	}

	if _, parseErr := c.SleepLoopDuration(); parseErr != nil {
		err = multierror.Append(
			err,
			fmt.Errorf("Error parsing sleep loop duration: %+v", parseErr),
		)
	}

	if c.Spec.SASL.Enabled {
		if _, saslErr := source.SASLNameToMechanism(string(c.Spec.SASL.Mechanism)); saslErr != nil {
			err = multierror.Append(err, saslErr)
		}
		if c.Spec.SASL.SecretsManagerARN != "" &&
			(c.Spec.SASL.Username != "" || c.Spec.SASL.Password != "") {
			err = multierror.Append(
				err,
				errors.New("SASL username and password cannot be set along with secretsManagerArn"),
			)
		}
	}

	switch c.Spec.Sizer.Type {
	case SizerTypeNone, SizerTypeJolokia:
	case SizerTypeSSH:
		if len(c.Spec.Sizer.DataDirs) == 0 {
			err = multierror.Append(err, errors.New("The ssh sizer needs at least one data dir"))
		}
	case SizerTypePrometheus:
		if c.Spec.Sizer.MetricsPort == 0 {
			err = multierror.Append(err, errors.New("The prometheus sizer needs a metrics port"))
		}
	default:
		err = multierror.Append(
			err,
			fmt.Errorf(
				"Sizer type must be one of %s, %s, or %s",
				SizerTypeSSH,
				SizerTypeJolokia,
				SizerTypePrometheus,
			),
		)
	}

	return err
}

// SleepLoopDuration returns the parsed sleep loop duration, zero if unset.
func (c PlannerConfig) SleepLoopDuration() (time.Duration, error) {
	if c.Spec.SleepLoopDurationStr == "" {
		return 0, nil
	}
	return time.ParseDuration(c.Spec.SleepLoopDurationStr)
}

// NewSizer returns the size provider picked by the sizer config, or nil if there's none.
func (c SizerConfig) NewSizer(logger logrus.FieldLogger) (sizer.Provider, error) {
	switch c.Type {
	case SizerTypeNone:
		return nil, nil
	case SizerTypeSSH:
		return sizer.NewSSHProvider(
			sizer.SSHConfig{
				User:     c.SSHUser,
				Port:     c.SSHPort,
				DataDirs: c.DataDirs,
				Logger:   logger,
			},
		)
	case SizerTypeJolokia:
		return sizer.NewJolokiaProvider(
			sizer.JolokiaConfig{
				Port:   c.JolokiaPort,
				Logger: logger,
			},
		), nil
	case SizerTypePrometheus:
		return sizer.NewPrometheusProvider(
			sizer.PrometheusConfig{
				Port:   c.MetricsPort,
				Path:   c.MetricsPath,
				Logger: logger,
			},
		), nil
	default:
		return nil, fmt.Errorf("Unrecognized sizer type: %s", c.Type)
	}
}
