package source

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/aws_msk_iam_v2"
	"github.com/segmentio/kafka-go/sasl/plain"
	"github.com/segmentio/kafka-go/sasl/scram"
	"github.com/sirupsen/logrus"
)

// SASLMechanism is the name of a SASL mechanism used for client authentication.
type SASLMechanism string

const (
	SASLMechanismAWSMSKIAM   SASLMechanism = "aws-msk-iam"
	SASLMechanismPlain       SASLMechanism = "plain"
	SASLMechanismScramSHA256 SASLMechanism = "scram-sha-256"
	SASLMechanismScramSHA512 SASLMechanism = "scram-sha-512"
)

// ConnectorConfig contains the configuration used to construct a kafka client.
type ConnectorConfig struct {
	BrokerAddr string
	TLS        TLSConfig
	SASL       SASLConfig

	// AWSConfig is used for the aws-msk-iam mechanism.
	AWSConfig aws.Config

	Logger logrus.FieldLogger
}

// TLSConfig stores the TLS-related configuration for a connection.
type TLSConfig struct {
	Enabled    bool   `json:"enabled"`
	CertPath   string `json:"certPath"`
	KeyPath    string `json:"keyPath"`
	CACertPath string `json:"caCertPath"`
	ServerName string `json:"serverName"`
	SkipVerify bool   `json:"skipVerify"`
}

// SASLConfig stores the SASL-related configuration for a connection.
type SASLConfig struct {
	Enabled   bool          `json:"enabled"`
	Mechanism SASLMechanism `json:"mechanism"`
	Username  string        `json:"username"`
	Password  string        `json:"password"`

	// SecretsManagerARN, if set, is the secret that the username and password are read
	// from.
	SecretsManagerARN string `json:"secretsManagerArn"`
}

// NewConnector returns a kafka-go client for the cluster at config.BrokerAddr.
func NewConnector(config ConnectorConfig) (*kafka.Client, error) {
	logger := config.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	mechanism, err := saslMechanism(config)
	if err != nil {
		return nil, err
	}

	var tlsConfig *tls.Config
	if config.TLS.Enabled {
		tlsConfig, err = loadTLSConfig(config.TLS, logger)
		if err != nil {
			return nil, err
		}
	}

	logger.Debugf(
		"Connecting to cluster on address %s with TLS enabled=%v, SASL enabled=%v",
		config.BrokerAddr,
		config.TLS.Enabled,
		config.SASL.Enabled,
	)
	return &kafka.Client{
		Addr:    kafka.TCP(config.BrokerAddr),
		Timeout: 30 * time.Second,
		Transport: &kafka.Transport{
			DialTimeout: 10 * time.Second,
			SASL:        mechanism,
			TLS:         tlsConfig,
			MetadataTTL: 10 * time.Minute,
		},
	}, nil
}

func saslMechanism(config ConnectorConfig) (sasl.Mechanism, error) {
	if !config.SASL.Enabled {
		return nil, nil
	}

	switch config.SASL.Mechanism {
	case SASLMechanismAWSMSKIAM:
		return aws_msk_iam_v2.NewMechanism(config.AWSConfig), nil
	case SASLMechanismPlain:
		return plain.Mechanism{
			Username: config.SASL.Username,
			Password: config.SASL.Password,
		}, nil
	case SASLMechanismScramSHA256:
		return scram.Mechanism(scram.SHA256, config.SASL.Username, config.SASL.Password)
	case SASLMechanismScramSHA512:
		return scram.Mechanism(scram.SHA512, config.SASL.Username, config.SASL.Password)
	default:
		return nil, fmt.Errorf("Unrecognized SASL mechanism: %s", config.SASL.Mechanism)
	}
}

func loadTLSConfig(config TLSConfig, logger logrus.FieldLogger) (*tls.Config, error) {
	var certs []tls.Certificate
	var caCertPool *x509.CertPool

	if config.CertPath != "" && config.KeyPath != "" {
		logger.Debugf("Loading key pair from %s and %s", config.CertPath, config.KeyPath)
		cert, err := tls.LoadX509KeyPair(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	if config.CACertPath != "" {
		logger.Debugf("Adding CA certs from %s", config.CACertPath)
		caCertPool = x509.NewCertPool()
		caCertContents, err := os.ReadFile(config.CACertPath)
		if err != nil {
			return nil, err
		}
		if ok := caCertPool.AppendCertsFromPEM(caCertContents); !ok {
			return nil, fmt.Errorf("Could not append CA certs from %s", config.CACertPath)
		}
	}

	return &tls.Config{
		Certificates:       certs,
		RootCAs:            caCertPool,
		InsecureSkipVerify: config.SkipVerify,
		ServerName:         config.ServerName,
	}, nil
}

// SASLNameToMechanism converts the argument SASL mechanism name to one of the
// SASLMechanism values.
func SASLNameToMechanism(name string) (SASLMechanism, error) {
	normalizedName := strings.ReplaceAll(strings.ToLower(name), "_", "-")
	mechanism := SASLMechanism(normalizedName)

	switch mechanism {
	case SASLMechanismAWSMSKIAM,
		SASLMechanismPlain,
		SASLMechanismScramSHA256,
		SASLMechanismScramSHA512:
		return mechanism, nil
	default:
		return mechanism, fmt.Errorf(
			"SASL mechanism '%s' is not valid; choices are AWS-MSK-IAM, PLAIN, SCRAM-SHA-256, and SCRAM-SHA-512",
			mechanism,
		)
	}
}

// SecretsAPI is the subset of the Secrets Manager client used by LoadSASLSecret.
type SecretsAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

var _ SecretsAPI = (*secretsmanager.Client)(nil)

type saslSecret struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoadSASLSecret fills in the username and password of config from the JSON secret at
// config.SecretsManagerARN. It's a no-op if the ARN is empty.
func LoadSASLSecret(ctx context.Context, client SecretsAPI, config *SASLConfig) error {
	if config.SecretsManagerARN == "" {
		return nil
	}

	resp, err := client.GetSecretValue(
		ctx,
		&secretsmanager.GetSecretValueInput{
			SecretId: aws.String(config.SecretsManagerARN),
		},
	)
	if err != nil {
		return fmt.Errorf("Error getting secret %s: %w", config.SecretsManagerARN, err)
	}

	secret := saslSecret{}
	if err := json.Unmarshal([]byte(aws.ToString(resp.SecretString)), &secret); err != nil {
		return fmt.Errorf("Secret %s is not a username/password JSON object: %w", config.SecretsManagerARN, err)
	}
	if secret.Username == "" || secret.Password == "" {
		return fmt.Errorf("Secret %s is missing a username or password", config.SecretsManagerARN)
	}

	config.Username = secret.Username
	config.Password = secret.Password
	return nil
}
