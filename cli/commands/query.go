package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/query/ast"
	"github.com/satishbabariya/relorm/query/filter"
	"github.com/satishbabariya/relorm/query/sqlgen"
)

type queryOptions struct {
	where  string
	order  []string
	limit  int
	offset int
	dryRun bool
}

func (a *app) queryCommand() *cobra.Command {
	var opts queryOptions

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Select rows of a table",
		Example: `  relorm query users --where "age > 18 AND name LIKE 'a%'" --order name:desc --limit 10
  relorm query users --where "deleted_at IS NULL" --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			if opts.dryRun {
				q, err := buildQuery(table, nil, opts)
				if err != nil {
					return err
				}
				sql, err := sqlgen.NewMySQL(nil).Query(q)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.ui.Out, sql+";")
				return nil
			}

			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			var fields []string
			if s.inspect != nil {
				l, err := s.conn.Layout(cmd.Context(), table)
				if err != nil {
					return err
				}
				fields = l.FieldNames()
			}

			q, err := buildQuery(table, fields, opts)
			if err != nil {
				return err
			}
			rs, err := s.conn.Query(cmd.Context(), q)
			if err != nil {
				return err
			}
			rows, err := connection.FetchAll(rs)
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				a.ui.Warning("no rows")
				return nil
			}
			headers := fields
			if len(headers) == 0 {
				headers = columnsOf(rows)
			}
			return a.ui.Table(headers, cells(headers, rows))
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.where, "where", "", "Filter expression")
	flags.StringSliceVar(&opts.order, "order", nil, "Order terms as field or field:desc")
	flags.IntVar(&opts.limit, "limit", 0, "Maximum number of rows")
	flags.IntVar(&opts.offset, "offset", 0, "Number of rows to skip")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Print the SQL without running it")
	return cmd
}

// buildQuery builds the SELECT of the query command. A non-empty fields list
// restricts the names the filter and order terms may use.
func buildQuery(table string, fields []string, opts queryOptions) (*ast.Query, error) {
	if opts.limit < 0 || opts.offset < 0 {
		return nil, fmt.Errorf("negative range %d, %d", opts.offset, opts.limit)
	}

	src := ast.NewTable(table)
	resolve := filter.TableResolver(src, fields...)
	q := ast.NewQuery(src)

	if opts.where != "" {
		expr, err := filter.Parse(opts.where)
		if err != nil {
			return nil, err
		}
		if err := expr.Apply(q.Restrictions, resolve); err != nil {
			return nil, err
		}
	}

	for _, term := range opts.order {
		name, dir, _ := strings.Cut(term, ":")
		f, err := resolve(name)
		if err != nil {
			return nil, err
		}
		switch strings.ToLower(dir) {
		case "", "asc":
			q.OrderBy(f, ast.Asc)
		case "desc":
			q.OrderBy(f, ast.Desc)
		default:
			return nil, fmt.Errorf("invalid order direction %q", dir)
		}
	}

	q.Range(opts.offset, opts.limit)
	return q, nil
}

func columnsOf(rows []map[string]interface{}) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)
	return cols
}

func cells(headers []string, rows []map[string]interface{}) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		line := make([]string, len(headers))
		for j, h := range headers {
			v := r[h]
			if v == nil {
				line[j] = "NULL"
				continue
			}
			line[j] = cast.ToString(v)
		}
		out[i] = line
	}
	return out
}
