package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/satishbabariya/relorm/cli/internal/config"
	"github.com/satishbabariya/relorm/cli/internal/version"
	"github.com/satishbabariya/relorm/migrate"
	"github.com/satishbabariya/relorm/schema"
)

// ErrNeedsIntrospection is returned by commands that read the live schema on
// databases other than MySQL.
var ErrNeedsIntrospection = errors.New("schema introspection needs a MySQL database")

func (a *app) pingCommand() *cobra.Command {
	var minVersion string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.server.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
			v, err := s.server.ServerVersion(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to read server version: %w", err)
			}
			a.ui.Success("connected, server version %s", v)

			if minVersion == "" {
				return nil
			}
			ok, err := version.AtLeast(v, minVersion)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("server version %s is older than required %s", v, minVersion)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&minVersion, "min-version", "", "Fail unless the server is at least this version")
	return cmd
}

func (a *app) tablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if s.inspect == nil {
				return ErrNeedsIntrospection
			}

			tables, err := s.inspect.Tables(cmd.Context(), s.conn.Driver())
			if err != nil {
				return err
			}
			if len(tables) == 0 {
				a.ui.Warning("no tables")
				return nil
			}
			for _, t := range tables {
				a.ui.Plain("%s", t)
			}
			return nil
		},
	}
}

func (a *app) describeCommand() *cobra.Command {
	var markdown, asYAML bool

	cmd := &cobra.Command{
		Use:   "describe <table>",
		Short: "Show the fields and indexes of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()
			if s.inspect == nil {
				return ErrNeedsIntrospection
			}

			l, err := s.conn.Layout(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			switch {
			case asYAML:
				out, err := yaml.Marshal(schema.DefinitionOf(l))
				if err != nil {
					return err
				}
				fmt.Fprint(a.ui.Out, string(out))
				return nil
			case markdown:
				return a.ui.Markdown(layoutMarkdown(l))
			default:
				a.ui.Title(l.Name())
				if err := a.ui.Table(fieldHeaders, fieldRows(l)); err != nil {
					return err
				}
				if rows := indexRows(l); len(rows) > 0 {
					return a.ui.Table(indexHeaders, rows)
				}
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Render as markdown")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print as a layout definition")
	cmd.MarkFlagsMutuallyExclusive("markdown", "yaml")
	return cmd
}

func (a *app) createCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create <layout.yaml>",
		Short: "Create the table of a layout definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := migrate.LoadLayout(config.AppFs, args[0])
			if err != nil {
				return err
			}

			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.conn.CreateTable(cmd.Context(), l); err != nil {
				return err
			}
			a.ui.Success("created table %s", l.Name())
			return nil
		},
	}
}

func (a *app) dropCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table := args[0]
			ok, err := a.confirm(yes, fmt.Sprintf("Drop table %s? All its rows will be lost.", table))
			if err != nil {
				return err
			}
			if !ok {
				a.ui.Warning("aborted")
				return nil
			}

			s, err := a.session(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.conn.DropTable(cmd.Context(), table); err != nil {
				return err
			}
			a.ui.Success("dropped table %s", table)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
