package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

func TestParseCondition(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		conditions []string
		want       string
		wantErr    error
	}{
		{name: "equality shorthand", conditions: []string{"NAME:Joe"}, want: "NAME::Joe"},
		{name: "operator code", conditions: []string{"HEIGHT:gt:0"}, want: "HEIGHT::0::gt"},
		{name: "operator alias", conditions: []string{"NAME:startsWith:Jo"}, want: "NAME::Jo::ll"},
		{name: "value with colons", conditions: []string{"TIME:ge:2024-01-01 10:00:00"}, want: "TIME::2024-01-01 10:00:00::ge"},
		{name: "several", conditions: []string{"NAME:Joe", "AGE:lt:40"}, want: "NAME::Joe|AGE::40::lt"},
		{name: "no separator", conditions: []string{"NAME"}, wantErr: ErrInvalidCondition},
		{name: "empty field", conditions: []string{":x"}, wantErr: ErrInvalidCondition},
		{name: "unknown operator", conditions: []string{"NAME:like:Joe"}, wantErr: query.ErrInvalidOperator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filter := query.NewFilter("")

			var err error
			for _, condition := range tt.conditions {
				err = parseCondition(filter, condition)
				if err != nil {
					break
				}
			}

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, filter.String())
		})
	}
}

func TestParseAssignments(t *testing.T) {
	t.Parallel()

	fields, err := parseAssignments([]string{"ORGANIZATION=Acme Ltd", "NOTE=a=b", "EMPTY="})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ORGANIZATION": "Acme Ltd", "NOTE": "a=b", "EMPTY": ""}, fields)

	_, err = parseAssignments(nil)
	require.ErrorIs(t, err, ErrNoFields)

	_, err = parseAssignments([]string{"ORGANIZATION"})
	require.ErrorIs(t, err, ErrInvalidAssignment)

	_, err = parseAssignments([]string{"=x"})
	require.ErrorIs(t, err, ErrInvalidAssignment)
}

func testEntities() []*crm.Entity {
	return []*crm.Entity{
		crm.LoadEntity("Account", map[string]any{"ID": "A-1", "ORGANIZATION": "Acme", "PHONE1": "123"}),
		crm.LoadEntity("Account", map[string]any{"ID": "A-2", "ORGANIZATION": "Beta", "EMAIL1": "b@example.com"}),
	}
}

func TestEntityColumns(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"ID", "EMAIL1", "ORGANIZATION", "PHONE1"}, entityColumns(testEntities(), nil))
	assert.Equal(t, []string{"ORGANIZATION"}, entityColumns(testEntities(), []string{"ORGANIZATION"}))
	assert.Equal(t, []string{"ID"}, entityColumns(nil, nil))
}

func TestRenderEntities(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderEntities(&buf, constants.FormatJSON, testEntities(), []string{"ID", "ORGANIZATION"}))

		var records []map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &records))
		assert.Equal(t, []map[string]any{
			{"ID": "A-1", "ORGANIZATION": "Acme"},
			{"ID": "A-2", "ORGANIZATION": "Beta"},
		}, records)
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderEntities(&buf, constants.FormatYAML, testEntities(), nil))

		var records []map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &records))
		require.Len(t, records, 2)
		assert.Equal(t, "123", records[0]["PHONE1"])
	})

	t.Run("table", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		require.NoError(t, renderEntities(&buf, constants.FormatTable, testEntities(), nil))

		out := buf.String()
		assert.Contains(t, out, "ORGANIZATION")
		assert.Contains(t, out, "Acme")
		assert.Contains(t, out, "b@example.com")
	})
}

func TestRenderEntityTypes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, renderEntityTypes(&buf, constants.FormatJSON, map[string]string{"Account": "Accounts"}))
	assert.JSONEq(t, `{"Account":"Accounts"}`, buf.String())
}

func TestZapLogger(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Debug("HTTP Request", map[string]interface{}{"url": "http://x/Accounts", "method": "GET"})
	logger.Warn("Failed to publish entity event", nil)

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "HTTP Request", entries[0].Message)
	assert.Equal(t, map[string]interface{}{"url": "http://x/Accounts", "method": "GET"}, entries[0].ContextMap())

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Empty(t, entries[1].Context)
}

func TestZapFieldsAreSorted(t *testing.T) {
	t.Parallel()

	fields := zapFields(map[string]interface{}{"b": 1, "a": 2, "c": 3})
	require.Len(t, fields, 3)
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
}

func TestMaskSecrets(t *testing.T) {
	t.Parallel()

	config := &Config{URL: "https://eu.pipelinersales.com", APIToken: "token", Password: "secret"}
	masked := maskSecrets(config)

	assert.Equal(t, constants.MaskedSecret, masked.APIToken)
	assert.Equal(t, constants.MaskedSecret, masked.Password)
	assert.Equal(t, config.URL, masked.URL)
	assert.Equal(t, "secret", config.Password)

	assert.Empty(t, maskSecrets(&Config{}).Password)
}

func TestWriteConfigFile(t *testing.T) {
	t.Parallel()

	configFile := filepath.Join(t.TempDir(), ConfigDirName, "config.yml")

	err := writeConfigFile(configFile, &Config{
		URL:          "https://eu.pipelinersales.com",
		PipelineID:   "eu_test",
		DefaultLimit: 50,
		Events:       EventsConfig{NATSURL: "nats://localhost:4222"},
	})
	require.NoError(t, err)

	info, err := os.Stat(configFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(constants.ConfigFilePerm), info.Mode().Perm())

	data, err := os.ReadFile(configFile) // #nosec G304 -- test temp dir
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, yaml.Unmarshal(data, &raw))
	assert.Equal(t, "eu_test", raw["pipeline_id"])
	assert.Equal(t, 50, raw["default_limit"])
	assert.Equal(t, map[string]any{"nats_url": "nats://localhost:4222"}, raw["events"])
	assert.NotContains(t, raw, "password")
}

//nolint:paralleltest // mutates global viper state
func TestSetConfigValue(t *testing.T) {
	t.Cleanup(viper.Reset)

	config := &Config{}

	require.NoError(t, setConfigValue(config, KeyPipelineID, "eu_test"))
	assert.Equal(t, "eu_test", config.PipelineID)
	assert.Equal(t, "eu_test", viper.GetString(KeyPipelineID))

	require.NoError(t, setConfigValue(config, KeyEventsNATSURL, "nats://localhost:4222"))
	assert.Equal(t, "nats://localhost:4222", config.Events.NATSURL)

	require.NoError(t, setConfigValue(config, KeyDefaultLimit, "100"))
	assert.Equal(t, 100, config.DefaultLimit)

	require.ErrorIs(t, setConfigValue(config, KeyDefaultLimit, "0"), ErrInvalidConfigValue)

	require.NoError(t, setConfigValue(config, KeyRateLimit, "2.5"))
	assert.InDelta(t, 2.5, config.RateLimit, 0.0001)
	require.ErrorIs(t, setConfigValue(config, KeyRateLimit, "-1"), ErrInvalidConfigValue)
	require.ErrorIs(t, setConfigValue(config, KeyRateLimit, "fast"), ErrInvalidConfigValue)
	require.ErrorIs(t, setConfigValue(config, KeyOutput, "xml"), ErrInvalidOutputFormat)
	require.ErrorIs(t, setConfigValue(config, "colour", "blue"), ErrUnknownConfigKey)

	require.NoError(t, setConfigValue(config, KeyPipelineID, ""))
	assert.Empty(t, config.PipelineID)
}
