package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
)

// ConfigDirName is the directory under $HOME holding config.yml.
const ConfigDirName = ".pipeliner"

// Configuration keys.
const (
	KeyURL                 = "url"
	KeyPipelineID          = "pipeline_id"
	KeyAPIToken            = "api_token"
	KeyPassword            = "password"
	KeyOutput              = "output"
	KeyDefaultLimit        = "default_limit"
	KeyLogFormat           = "log_format"
	KeyRateLimit           = "rate_limit"
	KeyEventsNATSURL       = "events.nats_url"
	KeyEventsSubjectPrefix = "events.subject_prefix"
)

var configKeys = []string{
	KeyURL, KeyPipelineID, KeyAPIToken, KeyPassword, KeyOutput,
	KeyDefaultLimit, KeyLogFormat, KeyRateLimit, KeyEventsNATSURL, KeyEventsSubjectPrefix,
}

// Config represents the CLI configuration.
type Config struct {
	URL          string       `json:"url,omitempty"           yaml:"url,omitempty"`
	PipelineID   string       `json:"pipeline_id,omitempty"   yaml:"pipeline_id,omitempty"`
	APIToken     string       `json:"api_token,omitempty"     yaml:"api_token,omitempty"`
	Password     string       `json:"password,omitempty"      yaml:"password,omitempty"`
	Output       string       `json:"output,omitempty"        yaml:"output,omitempty"`
	DefaultLimit int          `json:"default_limit,omitempty" yaml:"default_limit,omitempty"`
	LogFormat    string       `json:"log_format,omitempty"    yaml:"log_format,omitempty"`
	RateLimit    float64      `json:"rate_limit,omitempty"    yaml:"rate_limit,omitempty"`
	Events       EventsConfig `json:"events,omitempty"        yaml:"events,omitempty"`
}

// EventsConfig holds the optional NATS event publishing settings.
type EventsConfig struct {
	NATSURL       string `json:"nats_url,omitempty"       yaml:"nats_url,omitempty"`
	SubjectPrefix string `json:"subject_prefix,omitempty" yaml:"subject_prefix,omitempty"`
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "Manage the Pipeliner CLI configuration stored in ~/.pipeliner/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long:  "Display the current CLI configuration with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := maskSecrets(loadConfig())
			out := cmd.OutOrStdout()

			switch viper.GetString(KeyOutput) {
			case constants.FormatJSON:
				return renderJSON(out, config)
			case constants.FormatYAML:
				return renderYAML(out, config)
			default:
				return displayConfigTable(out, config)
			}
		},
	}
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + fmt.Sprint(configKeys),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], args[1])
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			value := args[1]
			if isSecretKey(args[0]) {
				value = constants.MaskedSecret
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", args[0], value)

			return nil
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset KEY",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()

			err := setConfigValue(config, args[0], "")
			if err != nil {
				return err
			}

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Unset %s\n", args[0])

			return nil
		},
	}
}

func loadConfig() *Config {
	return &Config{
		URL:          viper.GetString(KeyURL),
		PipelineID:   viper.GetString(KeyPipelineID),
		APIToken:     viper.GetString(KeyAPIToken),
		Password:     viper.GetString(KeyPassword),
		Output:       viper.GetString(KeyOutput),
		DefaultLimit: viper.GetInt(KeyDefaultLimit),
		LogFormat:    viper.GetString(KeyLogFormat),
		RateLimit:    viper.GetFloat64(KeyRateLimit),
		Events: EventsConfig{
			NATSURL:       viper.GetString(KeyEventsNATSURL),
			SubjectPrefix: viper.GetString(KeyEventsSubjectPrefix),
		},
	}
}

// setConfigValue updates one key; an empty value clears it.
func setConfigValue(config *Config, key, value string) error {
	switch key {
	case KeyURL:
		config.URL = value
	case KeyPipelineID:
		config.PipelineID = value
	case KeyAPIToken:
		config.APIToken = value
	case KeyPassword:
		config.Password = value
	case KeyOutput:
		if value != "" && !slices.Contains([]string{constants.FormatTable, constants.FormatJSON, constants.FormatYAML}, value) {
			return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, value)
		}

		config.Output = value
	case KeyDefaultLimit:
		if value == "" {
			config.DefaultLimit = 0

			return nil
		}

		limit, err := strconv.Atoi(value)
		if err != nil || limit < 1 {
			return fmt.Errorf("%w: default_limit must be a positive integer", ErrInvalidConfigValue)
		}

		config.DefaultLimit = limit
	case KeyLogFormat:
		config.LogFormat = value
	case KeyRateLimit:
		if value == "" {
			config.RateLimit = 0

			return nil
		}

		limit, err := strconv.ParseFloat(value, 64)
		if err != nil || limit <= 0 {
			return fmt.Errorf("%w: rate_limit must be a positive number of requests per second", ErrInvalidConfigValue)
		}

		config.RateLimit = limit
	case KeyEventsNATSURL:
		config.Events.NATSURL = value
	case KeyEventsSubjectPrefix:
		config.Events.SubjectPrefix = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownConfigKey, key)
	}

	viper.Set(key, value)

	return nil
}

func isSecretKey(key string) bool {
	return key == KeyAPIToken || key == KeyPassword
}

func maskSecrets(config *Config) *Config {
	masked := *config

	if masked.APIToken != "" {
		masked.APIToken = constants.MaskedSecret
	}

	if masked.Password != "" {
		masked.Password = constants.MaskedSecret
	}

	return &masked
}

func configFilePath() (string, error) {
	configFile := viper.ConfigFileUsed()
	if configFile != "" {
		return configFile, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(home, ConfigDirName, "config.yml"), nil
}

func saveConfigStruct(config *Config) error {
	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	return writeConfigFile(configFile, config)
}

func writeConfigFile(configFile string, config *Config) error {
	err := os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func displayConfigTable(out io.Writer, config *Config) error {
	table := tablewriter.NewWriter(out)
	table.Header("Property", "Value")

	_ = table.Append("URL", valueOrNA(config.URL))
	_ = table.Append("Pipeline ID", valueOrNA(config.PipelineID))
	_ = table.Append("API Token", valueOrNA(config.APIToken))
	_ = table.Append("Password", valueOrNA(config.Password))
	_ = table.Append("Output", valueOrNA(config.Output))

	limit := constants.NotAvailable
	if config.DefaultLimit > 0 {
		limit = strconv.Itoa(config.DefaultLimit)
	}

	_ = table.Append("Default Limit", limit)

	rateLimit := constants.NotAvailable
	if config.RateLimit > 0 {
		rateLimit = strconv.FormatFloat(config.RateLimit, 'f', -1, 64) + "/s"
	}

	_ = table.Append("Rate Limit", rateLimit)
	_ = table.Append("NATS URL", valueOrNA(config.Events.NATSURL))
	_ = table.Append("Event Subject Prefix", valueOrNA(config.Events.SubjectPrefix))

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

func renderJSON(out io.Writer, data interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

func renderYAML(out io.Writer, data interface{}) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(defaultYAMLIndent)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("closing YAML encoder: %w", err)
	}

	return nil
}
