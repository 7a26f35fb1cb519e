package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
)

// NewLoginCommand creates the login command.
func NewLoginCommand() *cobra.Command {
	var (
		url        string
		pipelineID string
		apiToken   string
		password   string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Login to a team pipeline",
		Long: `Verify API credentials against a team pipeline and store them in the
configuration file. Missing values are prompted for; the password is read
without echo.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			url = firstNonEmpty(url, viper.GetString(KeyURL))
			if url == "" {
				url = prompt(reader, out, "Service URL (e.g. https://eu.pipelinersales.com): ")
			}

			pipelineID = firstNonEmpty(pipelineID, viper.GetString(KeyPipelineID))
			if pipelineID == "" {
				pipelineID = prompt(reader, out, "Team pipeline ID: ")
			}

			apiToken = firstNonEmpty(apiToken, viper.GetString(KeyAPIToken))
			if apiToken == "" {
				apiToken = prompt(reader, out, "API token: ")
			}

			password = firstNonEmpty(password, viper.GetString(KeyPassword))
			if password == "" {
				var err error

				password, err = readPassword(reader, out)
				if err != nil {
					return err
				}
			}

			session, err := connect(cmd.Context(), &crm.Config{
				URL:         url,
				PipelineID:  pipelineID,
				APIToken:    apiToken,
				Password:    password,
				HTTPTimeout: constants.ShortHTTPTimeout,
				Debug:       viper.GetBool("debug"),
			})
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}
			defer session.Close()

			config := loadConfig()
			config.URL = url
			config.PipelineID = pipelineID
			config.APIToken = apiToken
			config.Password = password

			err = saveConfigStruct(config)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(out, "Logged in to %s (pipeline version %d, %d entity types)\n",
				pipelineID, session.Client.PipelineVersion(), len(session.Client.EntityTypes()))

			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "service URL")
	cmd.Flags().StringVar(&pipelineID, "pipeline", "", "team pipeline ID")
	cmd.Flags().StringVar(&apiToken, "api-token", "", "API token")
	cmd.Flags().StringVar(&password, "password", "", "API password (prompted when omitted)")

	return cmd
}

func prompt(reader *bufio.Reader, out io.Writer, label string) string {
	_, _ = fmt.Fprint(out, label)

	value, _ := reader.ReadString('\n')

	return strings.TrimSpace(value)
}

// readPassword reads without echo from a terminal and falls back to a plain
// line read otherwise.
func readPassword(reader *bufio.Reader, out io.Writer) (string, error) {
	fd := int(os.Stdin.Fd()) // #nosec G115 -- file descriptors fit in int

	if !term.IsTerminal(fd) {
		return prompt(reader, out, "API password: "), nil
	}

	_, _ = fmt.Fprint(out, "API password: ")

	bytePassword, err := term.ReadPassword(fd)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	_, _ = fmt.Fprintln(out)

	return string(bytePassword), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
