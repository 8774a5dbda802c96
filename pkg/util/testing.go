package util

import (
	"os"
	"testing"
)

// TestZKAddr returns a zookeeper address for integration tests. The test is skipped if
// KASSIGNER_TEST_ZK_ADDR isn't set.
func TestZKAddr(t *testing.T) string {
	testZkAddr, ok := os.LookupEnv("KASSIGNER_TEST_ZK_ADDR")
	if !ok || testZkAddr == "" {
		t.Skip("KASSIGNER_TEST_ZK_ADDR is not set")
	}
	return testZkAddr
}

// TestKafkaAddr returns a kafka bootstrap address for integration tests. The test is
// skipped if KASSIGNER_TEST_KAFKA_ADDR isn't set.
func TestKafkaAddr(t *testing.T) string {
	testKafkaAddr, ok := os.LookupEnv("KASSIGNER_TEST_KAFKA_ADDR")
	if !ok || testKafkaAddr == "" {
		t.Skip("KASSIGNER_TEST_KAFKA_ADDR is not set")
	}
	return testKafkaAddr
}
