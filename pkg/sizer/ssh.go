package sizer

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kassigner/pkg/cluster"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// SSHConfig configures an SSHProvider.
type SSHConfig struct {
	User     string
	Port     int
	DataDirs []string

	// KnownHostsPath is the known hosts file used to check host keys. It defaults to
	// ~/.ssh/known_hosts.
	KnownHostsPath string

	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// SSHProvider runs du on each broker over SSH, authenticating with the keys of the
// local SSH agent.
type SSHProvider struct {
	config       SSHConfig
	clientConfig *ssh.ClientConfig
	logger       logrus.FieldLogger
}

var _ Provider = (*SSHProvider)(nil)

// NewSSHProvider returns a new SSHProvider. It fails if there's no SSH agent to
// authenticate with.
func NewSSHProvider(config SSHConfig) (*SSHProvider, error) {
	if len(config.DataDirs) == 0 {
		return nil, fmt.Errorf("At least one data dir is required")
	}
	if config.Port == 0 {
		config.Port = 22
	}
	if config.User == "" {
		config.User = os.Getenv("USER")
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.KnownHostsPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		config.KnownHostsPath = filepath.Join(home, ".ssh", "known_hosts")
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK is not set; an SSH agent is required")
	}
	agentConn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("Error connecting to SSH agent: %w", err)
	}

	hostKeyCallback, err := knownhosts.New(config.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("Error loading known hosts from %s: %w", config.KnownHostsPath, err)
	}

	return &SSHProvider{
		config: config,
		clientConfig: &ssh.ClientConfig{
			User:            config.User,
			Auth:            []ssh.AuthMethod{ssh.PublicKeysCallback(agent.NewClient(agentConn).Signers)},
			HostKeyCallback: hostKeyCallback,
			Timeout:         config.Timeout,
		},
		logger: logger,
	}, nil
}

// Sizes runs du over every data dir of the broker.
func (p *SSHProvider) Sizes(ctx context.Context, broker *cluster.Broker) ([]Measurement, error) {
	if err := checkHost(broker); err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(broker.Hostname, strconv.Itoa(p.config.Port))
	p.logger.Debugf("Connecting to %s", addr)

	client, err := ssh.Dial("tcp", addr, p.clientConfig)
	if err != nil {
		return nil, fmt.Errorf("Error connecting to %s: %w", addr, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, err
	}
	defer session.Close()

	type result struct {
		output []byte
		err    error
	}
	resultChan := make(chan result, 1)
	go func() {
		output, err := session.Output(duCommand(p.config.DataDirs))
		resultChan <- result{output: output, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return nil, fmt.Errorf("Error running du on %s: %w", broker.Hostname, res.err)
		}
		return parseDU(string(res.output))
	}
}

func duCommand(dataDirs []string) string {
	globs := []string{}
	for _, dir := range dataDirs {
		globs = append(globs, strings.TrimRight(dir, "/")+"/*")
	}
	return "du -sk " + strings.Join(globs, " ")
}

// parseDU reads lines of `<kilobytes>\t<dir>/<topic>-<partition>`. Lines for anything
// that isn't a partition directory are skipped.
func parseDU(output string) ([]Measurement, error) {
	measurements := []Measurement{}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.SplitN(line, "\t", 2)
		if len(fields) != 2 {
			fields = strings.Fields(line)
			if len(fields) != 2 {
				return nil, fmt.Errorf("Unexpected du output line: %q", line)
			}
		}

		kilobytes, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("Unexpected du output line: %q", line)
		}

		topic, partition, ok := splitPartitionDir(filepath.Base(fields[1]))
		if !ok {
			continue
		}

		measurements = append(
			measurements,
			Measurement{
				Topic:     topic,
				Partition: partition,
				Size:      kilobytes * 1024,
			},
		)
	}

	return measurements, scanner.Err()
}

func splitPartitionDir(name string) (string, int, bool) {
	index := strings.LastIndex(name, "-")
	if index <= 0 {
		return "", 0, false
	}
	partition, err := strconv.Atoi(name[index+1:])
	if err != nil || partition < 0 {
		return "", 0, false
	}
	return name[:index], partition, true
}
