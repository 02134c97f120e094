package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nimburion/tutoradmin/pkg/app"
	"github.com/nimburion/tutoradmin/pkg/complaint"
	"github.com/nimburion/tutoradmin/pkg/config"
	"github.com/nimburion/tutoradmin/pkg/knowledgebase"
	"github.com/nimburion/tutoradmin/pkg/observability/logger"
	"github.com/nimburion/tutoradmin/pkg/pricing"
	"github.com/nimburion/tutoradmin/pkg/query"
	"github.com/nimburion/tutoradmin/pkg/requeststate"
	"github.com/nimburion/tutoradmin/pkg/user"
)

type queryFlags struct {
	search   string
	filters  []string
	sortBy   string
	order    string
	page     int
	pageSize int
	output   string
}

// queryResult is what the query command prints: the accepted page and the
// lifecycle status of the list it was loaded through.
type queryResult[T any] struct {
	Domain  string              `json:"domain"`
	Options query.Options       `json:"options"`
	Page    query.Page[T]       `json:"page"`
	Request requeststate.Status `json:"request"`
}

type domainQuery func(ctx context.Context, a *app.App, f queryFlags) (any, error)

var queryDomains = map[string]domainQuery{
	"complaints": func(ctx context.Context, a *app.App, f queryFlags) (any, error) {
		return runListQuery(ctx, a, "complaints", complaint.Entity, complaint.DefaultSort, complaint.SearchFields, a.Complaints.Query, f)
	},
	"users": func(ctx context.Context, a *app.App, f queryFlags) (any, error) {
		return runListQuery(ctx, a, "users", user.Entity, user.DefaultSort, user.SearchFields, a.Users.Query, f)
	},
	"plans": func(ctx context.Context, a *app.App, f queryFlags) (any, error) {
		return runListQuery(ctx, a, "plans", pricing.Entity, pricing.DefaultSort, nil, a.Plans.Query, f)
	},
	"files": func(ctx context.Context, a *app.App, f queryFlags) (any, error) {
		return runListQuery(ctx, a, "files", knowledgebase.Entity, knowledgebase.DefaultSort, knowledgebase.SearchFields, a.Files.Query, f)
	},
}

func queryDomainNames() []string {
	names := make([]string, 0, len(queryDomains))
	for name := range queryDomains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newQueryCommand(load func(cmd *cobra.Command) (*config.Config, logger.Logger, error)) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:       "query <domain>",
		Short:     "Query a collection of the seeded in-memory backend",
		Long:      "Query lists one page of complaints, users, plans or files using the same filter, search, sort and pagination rules as the HTTP API.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: queryDomainNames(),
		RunE: func(cmd *cobra.Command, args []string) error {
			run, ok := queryDomains[args[0]]
			if !ok {
				return fmt.Errorf("unknown domain %q (want one of %s)", args[0], strings.Join(queryDomainNames(), ", "))
			}

			cfg, log, err := load(cmd)
			if err != nil {
				return err
			}
			a, err := app.New(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}

			result, err := run(cmd.Context(), a, f)
			if err != nil {
				return err
			}
			return writeQueryResult(cmd.OutOrStdout(), f.output, result)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.search, "search", "s", "", "free-text search term")
	flags.StringArrayVarP(&f.filters, "filter", "f", nil, "field=value constraint, repeatable (value \"all\" clears it)")
	flags.StringVar(&f.sortBy, "sort", "", "field to sort by (defaults to the collection's default order)")
	flags.StringVar(&f.order, "order", "", "sort order (asc, desc)")
	flags.IntVar(&f.page, "page", 1, "1-based page number")
	flags.IntVar(&f.pageSize, "page-size", 0, "page size (0 uses the configured default)")
	flags.StringVarP(&f.output, "output", "o", "yaml", "output format (yaml, json)")
	return cmd
}

func runListQuery[T any](
	ctx context.Context,
	a *app.App,
	domain, entity string,
	defaultSort query.Sort,
	searchFields []string,
	load requeststate.Loader[T],
	f queryFlags,
) (queryResult[T], error) {
	filters, err := parseFilters(f.filters)
	if err != nil {
		return queryResult[T]{}, err
	}

	// The service records its own "<entity>.list" key on the same tracker.
	view := requeststate.NewListView("cli."+entity+".list", a.Tracker, query.NewCursor(f.pageSize, defaultSort), load)
	view.Update(func(c *query.Cursor) {
		for _, field := range sortedKeys(filters) {
			c.SetFilter(field, filters[field])
		}
		if f.search != "" {
			c.SetSearch(f.search, searchFields...)
		}
		if f.sortBy != "" || f.order != "" {
			s := defaultSort
			if f.sortBy != "" {
				s.Field = f.sortBy
			}
			if f.order != "" {
				s.Order = query.SortOrder(strings.ToLower(f.order))
			}
			c.SetSort(s)
		}
		// Filters and search reset the cursor to page 1.
		c.SetPage(f.page)
	})

	page, err := view.Refresh(ctx)
	if err != nil {
		return queryResult[T]{}, err
	}
	return queryResult[T]{
		Domain:  domain,
		Options: view.Options(),
		Page:    page,
		Request: view.Status(),
	}, nil
}

// parseFilters turns field=value pairs into a filter. Values that read as
// booleans or numbers are typed so they compare equal to record fields.
func parseFilters(pairs []string) (query.Filter, error) {
	filter := query.Filter{}
	for _, pair := range pairs {
		field, raw, ok := strings.Cut(pair, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid filter %q: expected field=value", pair)
		}
		filter[field] = parseFilterValue(strings.TrimSpace(raw))
	}
	return filter, nil
}

func parseFilterValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(raw, 64); err == nil {
		return n
	}
	return raw
}

func sortedKeys(filter query.Filter) []string {
	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// writeQueryResult prints records with the same snake_case keys the HTTP API
// uses, in YAML or JSON.
func writeQueryResult(w io.Writer, format string, result any) error {
	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return writeOutput(w, "json", json.RawMessage(body))
	case "yaml", "yml", "":
		var node yaml.Node
		if err := yaml.Unmarshal(body, &node); err != nil {
			return fmt.Errorf("failed to convert result: %w", err)
		}
		blockStyle(&node)
		return writeOutput(w, "yaml", &node)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// blockStyle drops the flow style a JSON document parses into.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		n.Style = 0
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
