package subcmd

import (
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/segmentio/kassigner/pkg/config"
	"github.com/segmentio/kassigner/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedOptionsValidate(t *testing.T) {
	type testCase struct {
		description string
		options     sharedOptions
		expNumErrs  int
	}

	testCases := []testCase{
		{
			description: "zk address",
			options: sharedOptions{
				zkAddr: "localhost:2181",
			},
		},
		{
			description: "config file",
			options: sharedOptions{
				configPath: "testdata/planner.yaml",
				dryRun:     true,
				outputDir:  "out",
			},
		},
		{
			description: "no cluster",
			options:     sharedOptions{},
			expNumErrs:  1,
		},
		{
			description: "several problems",
			options: sharedOptions{
				zkAddr:        "localhost:2181",
				brokerAddr:    "localhost:9092",
				batchSize:     -1,
				outputDir:     "out",
				tlsCert:       "cert.pem",
				saslMechanism: "not-a-mechanism",
			},
			expNumErrs: 5,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.description, func(t *testing.T) {
			err := testCase.options.validate()
			if testCase.expNumErrs == 0 {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			merr, ok := err.(*multierror.Error)
			require.True(t, ok)
			assert.Len(t, merr.Errors, testCase.expNumErrs)
		})
	}
}

func TestSharedOptionsPlannerConfig(t *testing.T) {
	plannerConfig, err := sharedOptions{
		configPath: "testdata/planner.yaml",
	}.plannerConfig()
	require.NoError(t, err)
	assert.Equal(t, "local-cluster", plannerConfig.Meta.Name)
	assert.Equal(t, []string{"localhost:2181"}, plannerConfig.Spec.ZKAddrs)
	assert.Equal(t, 10, plannerConfig.Spec.BatchSize)
	assert.Equal(t, config.SizerTypeJolokia, plannerConfig.Spec.Sizer.Type)

	overridden, err := sharedOptions{
		configPath:        "testdata/planner.yaml",
		brokerAddr:        "localhost:9092",
		batchSize:         3,
		sleepLoopDuration: time.Minute,
		sizerType:         "prometheus",
		excludeTopics:     []string{"events"},
		saslMechanism:     "SCRAM-SHA-512",
		saslUsername:      "user",
		saslPassword:      "secret",
	}.plannerConfig()

	// The prometheus sizer needs a port, which the file doesn't have.
	require.Error(t, err)
	assert.Empty(t, overridden.Spec.ZKAddrs)
	assert.Equal(t, []string{"localhost:9092"}, overridden.Spec.BootstrapAddrs)
	assert.Equal(t, 3, overridden.Spec.BatchSize)
	assert.Equal(t, 20, overridden.Spec.PLEBatchSize)
	assert.Equal(t, []string{"__consumer_offsets", "events"}, overridden.Spec.ExcludeTopics)
	assert.Equal(
		t,
		source.SASLConfig{
			Enabled:   true,
			Mechanism: source.SASLMechanismScramSHA512,
			Username:  "user",
			Password:  "secret",
		},
		overridden.Spec.SASL,
	)

	duration, err := overridden.SleepLoopDuration()
	require.NoError(t, err)
	assert.Equal(t, time.Minute, duration)

	flagsOnly, err := sharedOptions{
		zkAddr: "localhost:2181",
	}.plannerConfig()
	require.NoError(t, err)
	assert.Equal(t, defaultClusterName, flagsOnly.Meta.Name)
}

func TestNeedsAWS(t *testing.T) {
	assert.False(t, needsAWS(config.PlannerConfig{}))
	assert.True(
		t,
		needsAWS(config.PlannerConfig{Spec: config.PlannerSpec{ResolveRacksFromEC2: true}}),
	)
	assert.False(
		t,
		needsAWS(
			config.PlannerConfig{
				Spec: config.PlannerSpec{
					ZKAddrs: []string{"localhost:2181"},
					SASL:    source.SASLConfig{Mechanism: source.SASLMechanismAWSMSKIAM},
				},
			},
		),
	)
	assert.True(
		t,
		needsAWS(
			config.PlannerConfig{
				Spec: config.PlannerSpec{
					BootstrapAddrs: []string{"localhost:9092"},
					SASL:           source.SASLConfig{SecretsManagerARN: "arn"},
				},
			},
		),
	)
}
