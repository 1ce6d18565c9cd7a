package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/relorm/cli/internal/config"
	"github.com/satishbabariya/relorm/cli/internal/watch"
	"github.com/satishbabariya/relorm/migrate"
	"github.com/satishbabariya/relorm/query/sqlgen"
)

func (a *app) sqlCommand() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "sql <layout.yaml>",
		Short: "Print the CREATE TABLE statement of a layout definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !follow {
				return a.printCreate(path)
			}

			a.ui.Info("watching %s", path)
			return watch.File(cmd.Context(), path,
				func() error { return a.printCreate(path) },
				func(err error) { a.ui.Error("%v", err) },
			)
		},
	}
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "Print again whenever the file changes")
	return cmd
}

func (a *app) printCreate(path string) error {
	l, err := migrate.LoadLayout(config.AppFs, path)
	if err != nil {
		return err
	}
	sql, err := sqlgen.NewMySQL(nil).CreateTable(l)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.ui.Out, sql+";")
	return nil
}
