//go:build integration

package integration

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/pipeliner"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	URL         string
	PipelineID  string
	APIToken    string
	Password    string
	AllowWrites bool
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		URL:         os.Getenv("PIPELINER_URL"),
		PipelineID:  os.Getenv("PIPELINER_PIPELINE_ID"),
		APIToken:    os.Getenv("PIPELINER_API_TOKEN"),
		Password:    os.Getenv("PIPELINER_PASSWORD"),
		AllowWrites: os.Getenv("PIPELINER_ALLOW_WRITES") == "true",
		Verbose:     os.Getenv("PIPELINER_VERBOSE") == "true",
	}
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.URL == "" || config.PipelineID == "" {
		t.Skip("PIPELINER_URL or PIPELINER_PIPELINE_ID not set, skipping integration test")
	}

	if config.APIToken == "" || config.Password == "" {
		t.Skip("PIPELINER_API_TOKEN or PIPELINER_PASSWORD not set, skipping integration test")
	}
}

// SkipIfReadOnly skips tests that create or delete entities
func (config *TestConfig) SkipIfReadOnly(t *testing.T) {
	t.Helper()

	if !config.AllowWrites {
		t.Skip("PIPELINER_ALLOW_WRITES not set, skipping write test")
	}
}

// NewTestClient connects to the configured team pipeline
func NewTestClient(ctx context.Context, t *testing.T, config *TestConfig) crm.Client {
	t.Helper()

	client, err := pipeliner.New(ctx, &crm.Config{
		URL:        config.URL,
		PipelineID: config.PipelineID,
		APIToken:   config.APIToken,
		Password:   config.Password,
		Debug:      config.Verbose,
		Logger:     &testLogger{t: t},
	})
	require.NoError(t, err)

	return client
}

// GenerateTestName generates a unique name for test entities
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

type testLogger struct {
	t *testing.T
}

func (l *testLogger) Debug(msg string, fields map[string]interface{}) { l.t.Logf("DEBUG %s %v", msg, fields) }
func (l *testLogger) Info(msg string, fields map[string]interface{})  { l.t.Logf("INFO %s %v", msg, fields) }
func (l *testLogger) Warn(msg string, fields map[string]interface{})  { l.t.Logf("WARN %s %v", msg, fields) }
func (l *testLogger) Error(msg string, fields map[string]interface{}) { l.t.Logf("ERROR %s %v", msg, fields) }
