package source

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSASLNameToMechanism(t *testing.T) {
	mechanism, err := SASLNameToMechanism("SCRAM_SHA_512")
	require.NoError(t, err)
	assert.Equal(t, SASLMechanismScramSHA512, mechanism)

	mechanism, err = SASLNameToMechanism("AWS-MSK-IAM")
	require.NoError(t, err)
	assert.Equal(t, SASLMechanismAWSMSKIAM, mechanism)

	_, err = SASLNameToMechanism("kerberos")
	assert.Error(t, err)
}

func TestNewConnector(t *testing.T) {
	client, err := NewConnector(
		ConnectorConfig{
			BrokerAddr: "localhost:9092",
			SASL: SASLConfig{
				Enabled:   true,
				Mechanism: SASLMechanismScramSHA256,
				Username:  "user",
				Password:  "pass",
			},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, "localhost:9092", client.Addr.String())

	_, err = NewConnector(
		ConnectorConfig{
			BrokerAddr: "localhost:9092",
			SASL:       SASLConfig{Enabled: true, Mechanism: "bogus"},
		},
	)
	assert.Error(t, err)

	_, err = NewConnector(
		ConnectorConfig{
			BrokerAddr: "localhost:9092",
			TLS:        TLSConfig{Enabled: true, CACertPath: "testdata/missing.pem"},
		},
	)
	assert.Error(t, err)
}

type fakeSecrets struct {
	value string
}

func (f *fakeSecrets) GetSecretValue(
	ctx context.Context,
	params *secretsmanager.GetSecretValueInput,
	optFns ...func(*secretsmanager.Options),
) (*secretsmanager.GetSecretValueOutput, error) {
	return &secretsmanager.GetSecretValueOutput{
		ARN:          params.SecretId,
		SecretString: aws.String(f.value),
	}, nil
}

func TestLoadSASLSecret(t *testing.T) {
	ctx := context.Background()

	config := SASLConfig{SecretsManagerARN: "arn:aws:secretsmanager:us-west-2:123:secret:kafka"}
	err := LoadSASLSecret(ctx, &fakeSecrets{value: `{"username":"user","password":"pass"}`}, &config)
	require.NoError(t, err)
	assert.Equal(t, "user", config.Username)
	assert.Equal(t, "pass", config.Password)

	config = SASLConfig{SecretsManagerARN: "arn"}
	assert.Error(t, LoadSASLSecret(ctx, &fakeSecrets{value: "not json"}, &config))
	assert.Error(t, LoadSASLSecret(ctx, &fakeSecrets{value: `{"username":"user"}`}, &config))

	config = SASLConfig{Username: "kept"}
	require.NoError(t, LoadSASLSecret(ctx, nil, &config))
	assert.Equal(t, "kept", config.Username)
}
