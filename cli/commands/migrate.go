package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/relorm/cli/internal/config"
	"github.com/satishbabariya/relorm/cli/internal/ui"
	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/migrate"
)

func (a *app) migrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the layouts directory as migrations",
		Long: `Every *.yaml file of the layouts directory is a migration that creates
its table on up and drops it on down. Files apply in name order.`,
	}
	cmd.AddCommand(
		a.migrateStatusCommand(),
		a.migrateUpCommand(),
		a.migrateDownCommand(),
		a.migrateForgetCommand(),
	)
	return cmd
}

// runner opens a session and registers the layouts directory
func (a *app) runner(cmd *cobra.Command) (*session, *migrate.Runner, error) {
	migs, err := migrate.LoadDir(config.AppFs, a.cfg.LayoutsDir)
	if err != nil {
		return nil, nil, err
	}
	s, err := a.session(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	list := make([]connection.Migration, len(migs))
	for i, m := range migs {
		list[i] = m
	}
	return s, migrate.NewRunner(s.conn, list...), nil
}

func (a *app) migrateStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show which migrations are applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			status, err := r.Status(cmd.Context())
			if err != nil {
				return err
			}
			applied, err := r.Applied(cmd.Context())
			if err != nil {
				return err
			}

			known := make(map[string]bool, len(status))
			rows := make([][]string, 0, len(status))
			for _, st := range status {
				known[st.Identifier] = true
				rows = append(rows, []string{st.Identifier, ui.State(st.Applied)})
			}
			for _, id := range applied {
				if !known[id] {
					rows = append(rows, []string{id, ui.State(true) + " (missing)"})
				}
			}
			if len(rows) == 0 {
				a.ui.Warning("no migrations in %s", a.cfg.LayoutsDir)
				return nil
			}
			return a.ui.Table([]string{"Migration", "State"}, rows)
		},
	}
}

func (a *app) migrateUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			done, err := r.Up(cmd.Context())
			for _, id := range done {
				a.ui.Success("applied %s", id)
			}
			if err != nil {
				return err
			}
			if len(done) == 0 {
				a.ui.Info("nothing to apply")
			}
			return nil
		},
	}
}

func (a *app) migrateDownCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back the last applied migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.confirm(yes, "Roll back the last migration? Its table will be dropped.")
			if err != nil {
				return err
			}
			if !ok {
				a.ui.Warning("aborted")
				return nil
			}

			s, r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			id, err := r.Down(cmd.Context())
			if err != nil {
				return err
			}
			if id == "" {
				a.ui.Info("nothing to roll back")
				return nil
			}
			a.ui.Success("rolled back %s", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func (a *app) migrateForgetCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "forget <migration>",
		Short: "Mark a migration as not applied without rolling it back",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ok, err := a.confirm(yes, fmt.Sprintf("Forget migration %s? Its down step will not run.", args[0]))
			if err != nil {
				return err
			}
			if !ok {
				a.ui.Warning("aborted")
				return nil
			}

			s, r, err := a.runner(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := r.Forget(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.ui.Success("forgot %s", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}
