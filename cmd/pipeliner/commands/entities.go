package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/pipeliner-client/internal/constants"
	"github.com/fivetwenty-io/pipeliner-client/internal/cursor"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm"
	"github.com/fivetwenty-io/pipeliner-client/pkg/crm/query"
)

// NewEntitiesCommand creates the entities command group.
func NewEntitiesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "entities",
		Aliases: []string{"entity", "e"},
		Short:   "Manage team pipeline entities",
		Long:    "List, inspect, create, update and delete the entities of a team pipeline",
	}

	cmd.AddCommand(newEntitiesTypesCommand())
	cmd.AddCommand(newEntitiesListCommand())
	cmd.AddCommand(newEntitiesGetCommand())
	cmd.AddCommand(newEntitiesCreateCommand())
	cmd.AddCommand(newEntitiesUpdateCommand())
	cmd.AddCommand(newEntitiesDeleteCommand())

	return cmd
}

func newEntitiesTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List entity types",
		Long:  "List the entity types of the team pipeline and their collection names",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			return renderEntityTypes(cmd.OutOrStdout(), viper.GetString(KeyOutput), session.Client.EntityTypes())
		},
	}
}

// listOptions holds the flags of the list command.
type listOptions struct {
	limit      int
	offset     int
	sort       string
	filter     string
	conditions []string
	after      string
	loadOnly   []string
	all        bool
	cursor     string
}

func (o *listOptions) criteria(cmd *cobra.Command) (*query.Criteria, error) {
	criteria := query.NewCriteria()

	if cmd.Flags().Changed("limit") {
		criteria.WithLimit(o.limit)
	} else if o.all {
		criteria.WithLimit(constants.StandardPageSize)
	}

	if o.offset > 0 {
		criteria.WithOffset(o.offset)
	}

	if o.sort != "" {
		criteria.WithSort(o.sort)
	}

	filter := query.NewFilter(o.filter)

	for _, condition := range o.conditions {
		err := parseCondition(filter, condition)
		if err != nil {
			return nil, err
		}
	}

	if filter.String() != "" {
		criteria.WithFilterBy(filter)
	}

	if o.after != "" {
		criteria.WithAfter(o.after)
	}

	if len(o.loadOnly) > 0 {
		criteria.WithLoadOnly(o.loadOnly...)
	}

	return criteria, nil
}

func newEntitiesListCommand() *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list ENTITY",
		Short: "List entities",
		Long: `List entities of one type. ENTITY is an entity name (Account) or a
collection name (accounts).

Conditions given with --where are FIELD:OPERATOR:VALUE, where OPERATOR is one
of eq, ne, gt, lt, ge, le, ll (starts with), rl (ends with) or fl (contains).
FIELD:VALUE means equality.`,
		Example: `  pipeliner entities list accounts --where ORGANIZATION:ll:Acme --sort ORGANIZATION
  pipeliner entities list Contact --limit 10 --load-only ID,FIRST_NAME,SURNAME
  pipeliner entities list Opportunity --all -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			criteria, err := opts.criteria(cmd)
			if err != nil {
				return err
			}

			session, err := CreateSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			result, err := listEntities(cmd.Context(), session.Client, args[0], criteria, opts)
			if err != nil {
				return err
			}

			format := viper.GetString(KeyOutput)

			err = renderEntities(cmd.OutOrStdout(), format, result.entities, opts.loadOnly)
			if err != nil {
				return err
			}

			if format == constants.FormatTable || format == "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d of %d entities\n", len(result.entities), result.total)
			}

			if result.next != "" {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Next page: pipeliner entities list %s --cursor %s\n",
					args[0], result.next)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&opts.limit, "limit", constants.DefaultLimit, "maximum number of entities per page (-1 for no limit)")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "index of the first entity")
	cmd.Flags().StringVar(&opts.sort, "sort", "", "sort string, e.g. NAME|-MODIFIED")
	cmd.Flags().StringVar(&opts.filter, "filter", "", "raw filter string, e.g. NAME::Joe|HEIGHT::0::gt")
	cmd.Flags().StringArrayVarP(&opts.conditions, "where", "w", nil, "condition FIELD:OPERATOR:VALUE (repeatable)")
	cmd.Flags().StringVar(&opts.after, "after", "", "only entities modified after this UTC time (YYYY-MM-DD HH:MM:SS)")
	cmd.Flags().StringSliceVar(&opts.loadOnly, "load-only", nil, "fields to load")
	cmd.Flags().BoolVar(&opts.all, "all", false, "fetch every page")
	cmd.Flags().StringVar(&opts.cursor, "cursor", "", "continue a previous listing; other criteria flags are ignored")

	return cmd
}

// listResult is one listing: the entities, the size of the full result set
// and the cursor of the following page, if any.
type listResult struct {
	entities []*crm.Entity
	total    int
	next     string
}

// listEntities loads one page, or with opts.all set every entity from the
// criteria offset onward. A cursor in opts replaces criteria.
func listEntities(
	ctx context.Context,
	client crm.Client,
	name string,
	criteria *query.Criteria,
	opts *listOptions,
) (*listResult, error) {
	repo, err := resolveRepository(client, name)
	if err != nil {
		return nil, err
	}

	if opts.cursor != "" {
		c, err := cursor.Decode(opts.cursor)
		if err != nil {
			return nil, err
		}

		criteria, err = c.Criteria(repo.EntityType())
		if err != nil {
			return nil, err
		}
	}

	page, err := repo.Get(ctx, criteria)
	if err != nil {
		return nil, err
	}

	if !opts.all {
		next, err := cursor.Next(repo.EntityType(), page)
		if err != nil {
			return nil, err
		}

		return &listResult{entities: page.Entities(), total: page.TotalCount(), next: next}, nil
	}

	var entities []*crm.Entity

	err = repo.EntireRangeIterator(page).ForEach(ctx, func(_ int, entity *crm.Entity) error {
		entities = append(entities, entity)

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterating %s: %w", repo.CollectionName(), err)
	}

	return &listResult{entities: entities, total: page.TotalCount()}, nil
}

func newEntitiesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get ENTITY ID",
		Short: "Get an entity",
		Long:  "Display every field of a single entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			repo, err := resolveRepository(session.Client, args[0])
			if err != nil {
				return err
			}

			entity, err := repo.GetByID(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			return renderEntity(cmd.OutOrStdout(), viper.GetString(KeyOutput), entity)
		},
	}
}

func newEntitiesCreateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "create ENTITY FIELD=VALUE...",
		Short:   "Create an entity",
		Example: `  pipeliner entities create Account ORGANIZATION=Acme OWNER_ID=1`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}

			delete(fields, crm.IDField)

			return saveFields(cmd, args[0], fields, "Created")
		},
	}
}

func newEntitiesUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "update ENTITY ID FIELD=VALUE...",
		Short:   "Update an entity",
		Long:    "Update the given fields of an entity; other fields are left unchanged",
		Example: `  pipeliner entities update Account A-1 ORGANIZATION="Acme Ltd"`,
		Args:    cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields, err := parseAssignments(args[2:])
			if err != nil {
				return err
			}

			fields[crm.IDField] = args[1]

			return saveFields(cmd, args[0], fields, "Updated")
		},
	}
}

func saveFields(cmd *cobra.Command, name string, fields map[string]any, action string) error {
	session, err := CreateSession(cmd.Context())
	if err != nil {
		return err
	}
	defer session.Close()

	repo, err := resolveRepository(session.Client, name)
	if err != nil {
		return err
	}

	id, err := repo.SaveFields(cmd.Context(), fields)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", action, repo.EntityType(), id)

	return nil
}

func newEntitiesDeleteCommand() *cobra.Command {
	var (
		force        bool
		ignoreErrors bool
	)

	cmd := &cobra.Command{
		Use:   "delete ENTITY ID...",
		Short: "Delete entities",
		Long:  "Delete one entity, or several in a single batch request",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := args[1:]

			if !force && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(),
				fmt.Sprintf("Really delete %d %s entities?", len(ids), args[0])) {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")

				return nil
			}

			session, err := CreateSession(cmd.Context())
			if err != nil {
				return err
			}
			defer session.Close()

			repo, err := resolveRepository(session.Client, args[0])
			if err != nil {
				return err
			}

			if len(ids) == 1 {
				err = repo.DeleteByID(cmd.Context(), ids[0])
			} else {
				flags := crm.RollbackOnError
				if ignoreErrors {
					flags = crm.IgnoreOnError
				}

				_, err = repo.DeleteByIDs(cmd.Context(), ids, flags)
			}

			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d %s entities\n", len(ids), repo.EntityType())

			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip confirmation")
	cmd.Flags().BoolVar(&ignoreErrors, "ignore-errors", false, "delete what can be deleted instead of rolling back")

	return cmd
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	_, _ = fmt.Fprintf(out, "%s (y/N): ", question)

	answer, _ := bufio.NewReader(in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))

	return answer == "y" || answer == "yes"
}

func renderEntity(out io.Writer, format string, entity *crm.Entity) error {
	switch format {
	case constants.FormatJSON:
		return renderJSON(out, entity.Fields())
	case constants.FormatYAML:
		return renderYAML(out, entity.Fields())
	default:
		fields := entity.Fields()

		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}

		sort.Strings(names)

		table := tablewriter.NewWriter(out)
		table.Header("Field", "Value")

		for _, name := range names {
			_ = table.Append(name, entity.StringField(name))
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

func renderEntityTypes(out io.Writer, format string, types map[string]string) error {
	switch format {
	case constants.FormatJSON:
		return renderJSON(out, types)
	case constants.FormatYAML:
		return renderYAML(out, types)
	default:
		names := make([]string, 0, len(types))
		for name := range types {
			names = append(names, name)
		}

		sort.Strings(names)

		table := tablewriter.NewWriter(out)
		table.Header("Entity", "Collection")

		for _, name := range names {
			_ = table.Append(name, types[name])
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}
