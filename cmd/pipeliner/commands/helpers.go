package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/internal/events"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
	"github.com/fivetwenty-io/pipeliner-client/pkg/pipeliner"
)

const defaultYAMLIndent = 2

// Common static errors used throughout the commands package.
var (
	ErrNotConfigured       = errors.New("no team pipeline configured, run 'pipeliner login' first")
	ErrUnknownConfigKey    = errors.New("unknown configuration key")
	ErrInvalidConfigValue  = errors.New("invalid configuration value")
	ErrInvalidOutputFormat = errors.New("invalid output format")
	ErrInvalidAssignment   = errors.New("invalid field assignment, expected FIELD=VALUE")
	ErrInvalidCondition    = errors.New("invalid condition, expected FIELD:OPERATOR:VALUE")
	ErrNoFields            = errors.New("at least one FIELD=VALUE is required")
)

// Session is a connected client plus the resources to release afterwards.
type Session struct {
	Client crm.Client
	logger *ZapLogger
	events *events.NATSPublisher
}

// Close releases the event connection and flushes logs.
func (s *Session) Close() {
	if s.events != nil {
		_ = s.events.Close()
	}

	if s.logger != nil {
		s.logger.Sync()
	}
}

// clientConfig builds the client configuration from viper.
func clientConfig() (*crm.Config, error) {
	config := loadConfig()

	if config.URL == "" || config.PipelineID == "" || config.APIToken == "" || config.Password == "" {
		return nil, ErrNotConfigured
	}

	return &crm.Config{
		URL:          config.URL,
		PipelineID:   config.PipelineID,
		APIToken:     config.APIToken,
		Password:     config.Password,
		DefaultLimit: config.DefaultLimit,
		RateLimit:    config.RateLimit,
		Debug:        viper.GetBool("debug"),
	}, nil
}

// CreateSession connects to the configured team pipeline.
func CreateSession(ctx context.Context) (*Session, error) {
	config, err := clientConfig()
	if err != nil {
		return nil, err
	}

	return connect(ctx, config)
}

func connect(ctx context.Context, config *crm.Config) (*Session, error) {
	zapLogger, err := newCLILogger(viper.GetBool("verbose") || config.Debug, viper.GetString(KeyLogFormat))
	if err != nil {
		return nil, err
	}

	session := &Session{logger: NewZapLogger(zapLogger)}
	config.Logger = session.logger
	config.Interceptors = crm.NewInterceptorChain().AddRequestInterceptor(crm.RequestIDInterceptor())

	natsURL := viper.GetString(KeyEventsNATSURL)
	if natsURL != "" {
		publisher, err := events.Connect(&events.NATSConfig{
			URL:           natsURL,
			SubjectPrefix: viper.GetString(KeyEventsSubjectPrefix),
		}, events.WithLogger(session.logger))
		if err != nil {
			session.Close()

			return nil, err
		}

		session.events = publisher
		config.Events = publisher
	}

	client, err := pipeliner.New(ctx, config)
	if err != nil {
		session.Close()

		return nil, err
	}

	session.Client = client

	return session, nil
}

// resolveRepository accepts an entity name (Account) or a collection name
// (accounts).
func resolveRepository(client crm.Client, name string) (crm.Repository, error) {
	repo, err := client.Repository(name)
	if err == nil {
		return repo, nil
	}

	repo, collErr := client.Collection(name)
	if collErr == nil {
		return repo, nil
	}

	return nil, err
}

// parseCondition parses FIELD:OPERATOR:VALUE, or FIELD:VALUE for equality,
// and appends it to filter.
func parseCondition(filter *query.Filter, condition string) error {
	parts := strings.SplitN(condition, ":", 3)

	switch len(parts) {
	case 2:
		if parts[0] == "" {
			return fmt.Errorf("%w: %q", ErrInvalidCondition, condition)
		}

		filter.Eq(parts[0], parts[1])

		return nil
	case 3:
		if parts[0] == "" {
			return fmt.Errorf("%w: %q", ErrInvalidCondition, condition)
		}

		_, err := filter.Apply(parts[1], parts[0], parts[2])
		if err != nil {
			return fmt.Errorf("condition %q: %w", condition, err)
		}

		return nil
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCondition, condition)
	}
}

// parseAssignments turns FIELD=VALUE arguments into a field map.
func parseAssignments(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, ErrNoFields
	}

	fields := make(map[string]any, len(args))

	for _, arg := range args {
		name, value, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, arg)
		}

		fields[name] = value
	}

	return fields, nil
}

// entityColumns returns ID followed by the other field names, sorted, unless
// columns are given explicitly.
func entityColumns(entities []*crm.Entity, columns []string) []string {
	if len(columns) > 0 {
		return columns
	}

	seen := map[string]struct{}{}

	for _, entity := range entities {
		for name := range entity.Fields() {
			seen[name] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))

	for name := range seen {
		if name != crm.IDField {
			names = append(names, name)
		}
	}

	sort.Strings(names)

	return append([]string{crm.IDField}, names...)
}

func renderEntities(out io.Writer, format string, entities []*crm.Entity, columns []string) error {
	switch format {
	case constants.FormatJSON, constants.FormatYAML:
		records := make([]map[string]any, 0, len(entities))

		for _, entity := range entities {
			records = append(records, selectFields(entity, columns))
		}

		if format == constants.FormatJSON {
			return renderJSON(out, records)
		}

		return renderYAML(out, records)
	default:
		cols := entityColumns(entities, columns)

		table := tablewriter.NewWriter(out)
		table.Header(toAny(cols)...)

		for _, entity := range entities {
			row := make([]string, 0, len(cols))
			for _, col := range cols {
				row = append(row, entity.StringField(col))
			}

			_ = table.Append(row)
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func selectFields(entity *crm.Entity, columns []string) map[string]any {
	fields := entity.Fields()
	if len(columns) == 0 {
		return fields
	}

	selected := make(map[string]any, len(columns))

	for name, value := range fields {
		if slices.Contains(columns, name) {
			selected[name] = value
		}
	}

	return selected
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
