package subcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/segmentio/kassigner/pkg/actions"
	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/segmentio/kassigner/pkg/config"
	"github.com/segmentio/kassigner/pkg/execute"
	"github.com/segmentio/kassigner/pkg/planner"
	"github.com/segmentio/kassigner/pkg/sizer"
	"github.com/segmentio/kassigner/pkg/source"
	"github.com/segmentio/kassigner/pkg/util"
	"github.com/segmentio/kassigner/pkg/zk"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	defaultClusterName = "kassigner"
	metricsNamespace   = "kassigner"
)

type sharedOptions struct {
	batchSize         int
	brokerAddr        string
	configPath        string
	dryRun            bool
	excludeTopics     []string
	expandEnv         bool
	metricsFile       string
	outputDir         string
	pleBatchSize      int
	saslMechanism     string
	saslPassword      string
	saslUsername      string
	seed              string
	sizerType         string
	skipConfirm       bool
	skipPLE           bool
	sleepLoopDuration time.Duration
	tlsCACert         string
	tlsCert           string
	tlsEnabled        bool
	tlsKey            string
	zkAddr            string
	zkPrefix          string
}

// actionOptions are the settings that every action constructor can draw from.
type actionOptions struct {
	excludeTopics []string
	seed          string
	logger        log.FieldLogger
}

// actionBuilder returns the actions of a subcommand, validated against the baseline
// cluster.
type actionBuilder func(baseline *cluster.Cluster, opts actionOptions) ([]actions.Action, error)

func (s sharedOptions) validate() error {
	var err error

	if s.configPath == "" && s.zkAddr == "" && s.brokerAddr == "" {
		err = multierror.Append(
			err,
			errors.New("Must set either broker-addr, config, or zk-addr"),
		)
	}
	if s.zkAddr != "" && s.brokerAddr != "" {
		err = multierror.Append(
			err,
			errors.New("Cannot set both zk-addr and broker-addr"),
		)
	}
	if s.batchSize < 0 {
		err = multierror.Append(err, errors.New("batch-size cannot be negative"))
	}
	if s.pleBatchSize < 0 {
		err = multierror.Append(err, errors.New("ple-size cannot be negative"))
	}
	if s.outputDir != "" && !s.dryRun {
		err = multierror.Append(err, errors.New("output-dir can only be set with dry-run"))
	}

	useTLS := s.tlsEnabled || s.tlsCACert != "" || s.tlsCert != "" || s.tlsKey != ""
	useSASL := s.saslMechanism != "" || s.saslPassword != "" || s.saslUsername != ""

	if (useTLS || useSASL) && s.zkAddr != "" {
		log.Warn("TLS and SASL flags are ignored accessing cluster via zookeeper")
	}
	if (s.tlsCert != "") != (s.tlsKey != "") {
		err = multierror.Append(err, errors.New("Must set both tls-cert and tls-key, or neither"))
	}
	if useSASL {
		if _, saslErr := source.SASLNameToMechanism(s.saslMechanism); saslErr != nil {
			err = multierror.Append(err, saslErr)
		}
	}

	return err
}

// plannerConfig loads the config file, if any, and applies the flag overrides on top of
// it.
func (s sharedOptions) plannerConfig() (config.PlannerConfig, error) {
	plannerConfig := config.PlannerConfig{
		Meta: config.PlannerMeta{
			Name: defaultClusterName,
		},
	}

	if s.configPath != "" {
		var err error
		plannerConfig, err = config.LoadPlannerFile(s.configPath, s.expandEnv)
		if err != nil {
			return plannerConfig, err
		}
	}

	spec := &plannerConfig.Spec

	if s.zkAddr != "" {
		spec.ZKAddrs = []string{s.zkAddr}
		spec.BootstrapAddrs = nil
	}
	if s.brokerAddr != "" {
		spec.BootstrapAddrs = []string{s.brokerAddr}
		spec.ZKAddrs = nil
	}
	if s.zkPrefix != "" {
		spec.ZKPrefix = s.zkPrefix
	}
	if s.batchSize > 0 {
		spec.BatchSize = s.batchSize
	}
	if s.pleBatchSize > 0 {
		spec.PLEBatchSize = s.pleBatchSize
	}
	if s.sleepLoopDuration > 0 {
		spec.SleepLoopDurationStr = s.sleepLoopDuration.String()
	}
	if s.sizerType != "" {
		spec.Sizer.Type = config.SizerType(s.sizerType)
	}
	spec.ExcludeTopics = append(spec.ExcludeTopics, s.excludeTopics...)

	if s.tlsEnabled || s.tlsCACert != "" || s.tlsCert != "" || s.tlsKey != "" {
		spec.TLS = source.TLSConfig{
			Enabled:    true,
			CACertPath: s.tlsCACert,
			CertPath:   s.tlsCert,
			KeyPath:    s.tlsKey,
		}
	}
	if s.saslMechanism != "" {
		mechanism, err := source.SASLNameToMechanism(s.saslMechanism)
		if err != nil {
			return plannerConfig, err
		}
		spec.SASL.Enabled = true
		spec.SASL.Mechanism = mechanism
	}
	if s.saslUsername != "" || s.saslPassword != "" {
		spec.SASL.Enabled = true
		spec.SASL.Username = s.saslUsername
		spec.SASL.Password = s.saslPassword
		spec.SASL.SecretsManagerARN = ""
	}

	return plannerConfig, plannerConfig.Validate()
}

// runPlan loads the cluster, plans the actions returned by build, and, after
// confirmation, hands the batches to the executor.
func runPlan(s sharedOptions, build actionBuilder) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	plannerConfig, err := s.plannerConfig()
	if err != nil {
		return err
	}
	sleepLoopDuration, err := plannerConfig.SleepLoopDuration()
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	logger := log.WithFields(
		log.Fields{
			"cluster": plannerConfig.Meta.Name,
		},
	)

	var awsConfig aws.Config
	if needsAWS(plannerConfig) {
		opts := []func(*awsconfig.LoadOptions) error{}
		if plannerConfig.Meta.Region != "" {
			opts = append(opts, awsconfig.WithRegion(plannerConfig.Meta.Region))
		}
		awsConfig, err = awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("Error loading AWS config: %w", err)
		}
	}

	poller := execute.Poller{
		Interval:    sleepLoopDuration,
		ShowSpinner: !noSpinner,
		Logger:      logger,
	}

	var topologySource source.Source
	var executor planner.Executor

	if len(plannerConfig.Spec.ZKAddrs) > 0 {
		zkClient, err := zk.NewConnClient(
			zk.ClientConfig{
				Addrs:    plannerConfig.Spec.ZKAddrs,
				Prefix:   plannerConfig.Spec.ZKPrefix,
				ReadOnly: s.dryRun,
				Logger:   logger,
			},
		)
		if err != nil {
			return err
		}
		defer zkClient.Close()

		topologySource = source.NewZKSource(zkClient, logger)
		executor = execute.NewZKExecutor(
			zkClient,
			execute.ZKExecutorConfig{
				Poller:   poller,
				LockPath: plannerConfig.Spec.ZKLockPath,
				Logger:   logger,
			},
		)
	} else {
		saslConfig := plannerConfig.Spec.SASL
		if err := source.LoadSASLSecret(
			ctx,
			secretsmanager.NewFromConfig(awsConfig),
			&saslConfig,
		); err != nil {
			return err
		}

		kafkaClient, err := source.NewConnector(
			source.ConnectorConfig{
				BrokerAddr: plannerConfig.Spec.BootstrapAddrs[0],
				TLS:        plannerConfig.Spec.TLS,
				SASL:       saslConfig,
				AWSConfig:  awsConfig,
				Logger:     logger,
			},
		)
		if err != nil {
			return err
		}

		topologySource = source.NewBrokerSource(kafkaClient, logger)
		executor = execute.NewBrokerExecutor(
			kafkaClient,
			execute.BrokerExecutorConfig{
				Poller: poller,
				Logger: logger,
			},
		)
	}

	if s.dryRun {
		executor = execute.NewPrintExecutor(
			execute.PrintExecutorConfig{
				OutputDir: s.outputDir,
				Prefix:    fmt.Sprintf("%s-%s", defaultClusterName, runID),
				Logger:    logger,
			},
		)
	}

	baseline, err := loadCluster(ctx, plannerConfig, topologySource, awsConfig, logger)
	if err != nil {
		return err
	}

	actionList, err := build(
		baseline,
		actionOptions{
			excludeTopics: plannerConfig.Spec.ExcludeTopics,
			seed:          s.seed,
			logger:        logger,
		},
	)
	if err != nil {
		return err
	}

	metrics := util.NewRunMetrics(metricsNamespace)
	if s.metricsFile != "" {
		defer func() {
			if err := metrics.WriteTextfile(s.metricsFile); err != nil {
				log.Warnf("Error writing metrics to %s: %+v", s.metricsFile, err)
			}
		}()
	}

	runPlanner := planner.New(
		planner.Config{
			Logger:       logger,
			Executor:     executor,
			BatchSize:    plannerConfig.Spec.BatchSize,
			PLEBatchSize: plannerConfig.Spec.PLEBatchSize,
			SkipPLE:      s.skipPLE,
			Metrics:      metrics,
			RunID:        runID,
		},
	)

	result, err := runPlanner.Plan(baseline, actionList...)
	if err != nil {
		return err
	}

	if len(result.Reassignments) == 0 && len(result.Elections) == 0 {
		logger.Info("No partition moves or leader elections needed")
		return nil
	}

	if len(result.Moves) > 0 {
		logger.Infof("Proposed partition moves:\n%s", cluster.FormatDiffs(baseline, result.Moves))
		logger.Infof("Proposed broker placement:\n%s", cluster.FormatBrokerSummary(result.Proposed))
	}

	if !s.dryRun {
		ok := execute.Confirm(
			fmt.Sprintf(
				"OK to apply %d reassignment and %d leader election batches?",
				len(result.Reassignments),
				len(result.Elections),
			),
			s.skipConfirm,
		)
		if !ok {
			return errors.New("Stopping because of user response")
		}
	}

	return runPlanner.Execute(ctx, result)
}

func loadCluster(
	ctx context.Context,
	plannerConfig config.PlannerConfig,
	topologySource source.Source,
	awsConfig aws.Config,
	logger log.FieldLogger,
) (*cluster.Cluster, error) {
	topology, err := topologySource.Load(ctx)
	if err != nil {
		return nil, err
	}

	if plannerConfig.Spec.ResolveRacksFromEC2 {
		if err := source.NewEC2RackResolver(awsConfig, logger).Resolve(ctx, &topology); err != nil {
			return nil, err
		}
	}

	baseline, err := source.Build(topology)
	if err != nil {
		return nil, err
	}
	logger.Infof(
		"Loaded %d brokers and %d topics",
		baseline.NumBrokers(),
		len(baseline.TopicNames()),
	)

	provider, err := plannerConfig.Spec.Sizer.NewSizer(logger)
	if err != nil {
		return nil, err
	}
	if provider != nil {
		if err := sizer.Collect(ctx, baseline, provider, logger); err != nil {
			return nil, err
		}
	}

	logger.Infof("Current broker placement:\n%s", cluster.FormatBrokerSummary(baseline))
	return baseline, nil
}

func needsAWS(plannerConfig config.PlannerConfig) bool {
	if plannerConfig.Spec.ResolveRacksFromEC2 {
		return true
	}
	if len(plannerConfig.Spec.ZKAddrs) > 0 {
		return false
	}
	return plannerConfig.Spec.SASL.SecretsManagerARN != "" ||
		plannerConfig.Spec.SASL.Mechanism == source.SASLMechanismAWSMSKIAM
}

func addSharedFlags(cmd *cobra.Command, options *sharedOptions) {
	cmd.Flags().IntVar(
		&options.batchSize,
		"batch-size",
		0,
		"Maximum number of partitions per reassignment batch; overrides the config value",
	)
	cmd.Flags().StringVarP(
		&options.brokerAddr,
		"broker-addr",
		"b",
		"",
		"Broker address",
	)
	cmd.Flags().StringVar(
		&options.configPath,
		"config",
		os.Getenv("KASSIGNER_CONFIG"),
		"Planner config",
	)
	cmd.Flags().BoolVar(
		&options.dryRun,
		"dry-run",
		false,
		"Print the batches instead of applying them",
	)
	cmd.Flags().StringSliceVar(
		&options.excludeTopics,
		"exclude-topics",
		[]string{},
		"Topics to leave where they are",
	)
	cmd.Flags().BoolVar(
		&options.expandEnv,
		"expand-env",
		false,
		"Expand environment in planner config",
	)
	cmd.Flags().StringVar(
		&options.metricsFile,
		"metrics-file",
		"",
		"Path to write run metrics to, in the prometheus text format",
	)
	cmd.Flags().StringVar(
		&options.outputDir,
		"output-dir",
		"",
		"Directory to write dry-run batch files to",
	)
	cmd.Flags().IntVar(
		&options.pleBatchSize,
		"ple-size",
		0,
		"Maximum number of partitions per leader election batch; overrides the config value",
	)
	cmd.Flags().StringVar(
		&options.saslMechanism,
		"sasl-mechanism",
		"",
		"SASL mechanism if using SASL (choices: AWS-MSK-IAM, PLAIN, SCRAM-SHA-256, or SCRAM-SHA-512)",
	)
	cmd.Flags().StringVar(
		&options.saslPassword,
		"sasl-password",
		os.Getenv("KASSIGNER_SASL_PASSWORD"),
		"SASL password if using SASL; will override value set in config",
	)
	cmd.Flags().StringVar(
		&options.saslUsername,
		"sasl-username",
		os.Getenv("KASSIGNER_SASL_USERNAME"),
		"SASL username if using SASL; will override value set in config",
	)
	cmd.Flags().StringVar(
		&options.seed,
		"seed",
		"",
		"Seed for strategies that shuffle brokers",
	)
	cmd.Flags().StringVar(
		&options.sizerType,
		"sizer",
		"",
		"Partition size provider (choices: ssh, jolokia, prometheus)",
	)
	cmd.Flags().BoolVar(
		&options.skipConfirm,
		"skip-confirm",
		false,
		"Skip confirmation prompts",
	)
	cmd.Flags().BoolVar(
		&options.skipPLE,
		"skip-ple",
		false,
		"Skip preferred leader elections",
	)
	cmd.Flags().DurationVar(
		&options.sleepLoopDuration,
		"sleep-loop-duration",
		0,
		"Amount of time to wait between completion checks; overrides the config value",
	)
	cmd.Flags().StringVar(
		&options.tlsCACert,
		"tls-ca-cert",
		"",
		"Path to client CA cert PEM file if using TLS",
	)
	cmd.Flags().StringVar(
		&options.tlsCert,
		"tls-cert",
		"",
		"Path to client cert PEM file if using TLS",
	)
	cmd.Flags().BoolVar(
		&options.tlsEnabled,
		"tls-enabled",
		false,
		"Use TLS for communication with brokers",
	)
	cmd.Flags().StringVar(
		&options.tlsKey,
		"tls-key",
		"",
		"Path to client private key PEM file if using TLS",
	)
	cmd.Flags().StringVarP(
		&options.zkAddr,
		"zk-addr",
		"z",
		"",
		"ZooKeeper address",
	)
	cmd.Flags().StringVar(
		&options.zkPrefix,
		"zk-prefix",
		"",
		"Prefix for cluster-related nodes in zk",
	)
}
