package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// PipelineInfo summarizes the connected team pipeline.
type PipelineInfo struct {
	URL           string `json:"url"             yaml:"url"`
	Version       int    `json:"version"         yaml:"version"`
	ServerTimeUTC string `json:"server_time_utc" yaml:"server_time_utc"`
	EntityTypes   int    `json:"entity_types"    yaml:"entity_types"`
}

// NewInfoCommand creates the info command.
func NewInfoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Display team pipeline information",
		Long:  "Display the team pipeline URL, version and server time",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			info, err := pipelineInfo(cmd.Context(), session.Client)
			if err != nil {
				return err
			}

			return renderPipelineInfo(cmd.OutOrStdout(), viper.GetString(KeyOutput), info)
		},
	}

	cmd.AddCommand(newInfoDocumentCommand("fields ENTITY", "Display the fields of an entity type", cobra.ExactArgs(1),
		func(ctx context.Context, info crm.InfoClient, args []string) (any, error) {
			return info.EntityFields(ctx, args[0])
		}))
	cmd.AddCommand(newInfoDocumentCommand("error-codes", "Display the API error codes", cobra.NoArgs,
		func(ctx context.Context, info crm.InfoClient, _ []string) (any, error) {
			return info.ErrorCodes(ctx)
		}))
	cmd.AddCommand(newInfoDocumentCommand("collections", "Display the collections served by the API", cobra.NoArgs,
		func(ctx context.Context, info crm.InfoClient, _ []string) (any, error) {
			return info.Collections(ctx)
		}))
	cmd.AddCommand(newInfoDocumentCommand("entity-public", "Display the public entity descriptions", cobra.NoArgs,
		func(ctx context.Context, info crm.InfoClient, _ []string) (any, error) {
			return info.EntityPublic(ctx)
		}))

	return cmd
}

func pipelineInfo(ctx context.Context, client crm.Client) (*PipelineInfo, error) {
	url, err := client.Info().TeamPipelineURL(ctx)
	if err != nil {
		return nil, err
	}

	serverTime, err := client.Info().ServerUTCDateTime(ctx)
	if err != nil {
		return nil, err
	}

	return &PipelineInfo{
		URL:           url,
		Version:       client.PipelineVersion(),
		ServerTimeUTC: serverTime,
		EntityTypes:   len(client.EntityTypes()),
	}, nil
}

func renderPipelineInfo(out io.Writer, format string, info *PipelineInfo) error {
	switch format {
	case constants.FormatJSON:
		return renderJSON(out, info)
	case constants.FormatYAML:
		return renderYAML(out, info)
	default:
		table := tablewriter.NewWriter(out)
		table.Header("Property", "Value")
		_ = table.Append("URL", info.URL)
		_ = table.Append("Version", strconv.Itoa(info.Version))
		_ = table.Append("Server Time (UTC)", info.ServerTimeUTC)
		_ = table.Append("Entity Types", strconv.Itoa(info.EntityTypes))

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

type documentFetcher func(ctx context.Context, info crm.InfoClient, args []string) (any, error)

// newInfoDocumentCommand prints a document whose shape the API does not fix.
// Tables are not available, so YAML is used unless JSON is asked for.
func newInfoDocumentCommand(use, short string, positional cobra.PositionalArgs, fetch documentFetcher) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  positional,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			doc, err := fetch(cmd.Context(), session.Client.Info(), args)
			if err != nil {
				return err
			}

			if viper.GetString(KeyOutput) == constants.FormatJSON {
				return renderJSON(cmd.OutOrStdout(), doc)
			}

			return renderYAML(cmd.OutOrStdout(), doc)
		},
	}
}
