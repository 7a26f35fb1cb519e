package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// VersionInfo describes the CLI build.
type VersionInfo struct {
	Version         string `json:"version"          yaml:"version"`
	Commit          string `json:"commit"           yaml:"commit"`
	Built           string `json:"built"            yaml:"built"`
	PipelineVersion string `json:"pipeline_version" yaml:"pipeline_version"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the Pipeliner CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			versionInfo := VersionInfo{
				Version:         version,
				Commit:          commit,
				Built:           date,
				PipelineVersion: fmt.Sprintf("%d-%d", crm.EarliestVersion, crm.LatestVersion),
			}

			out := cmd.OutOrStdout()

			switch viper.GetString(KeyOutput) {
			case constants.FormatJSON:
				return renderJSON(out, versionInfo)
			case constants.FormatYAML:
				return renderYAML(out, versionInfo)
			default:
				table := tablewriter.NewWriter(out)
				table.Header("Property", "Value")
				_ = table.Append("Version", version)
				_ = table.Append("Commit", commit)
				_ = table.Append("Built", date)
				_ = table.Append("Pipeline Versions", versionInfo.PipelineVersion)

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}
			}

			return nil
		},
	}
}
