// Package commands implements the relorm CLI.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/relorm/cli/internal/config"
	"github.com/satishbabariya/relorm/cli/internal/ui"
	"github.com/satishbabariya/relorm/cli/internal/version"
	"github.com/satishbabariya/relorm/connection"
	"github.com/satishbabariya/relorm/connection/sqldriver"
	"github.com/satishbabariya/relorm/internal/debug"
	"github.com/satishbabariya/relorm/query/sqlgen"
	"github.com/satishbabariya/relorm/schema/introspect"
)

// ErrNoDatabase is returned by commands that need a database URL when none
// is configured.
var ErrNoDatabase = errors.New("no database url configured (use --database-url or RELORM_DATABASE_URL)")

// server is the part of a driver the ping command needs
type server interface {
	Ping(ctx context.Context) error
	ServerVersion(ctx context.Context) (string, error)
}

// session is an open database for one command
type session struct {
	conn    *connection.Connection
	inspect *introspect.MySQL
	server  server
}

func (s *session) Close() error { return s.conn.Close() }

type app struct {
	v          *viper.Viper
	cfg        *config.Config
	ui         *ui.Printer
	configFile string

	// connect opens the configured database
	connect func(ctx context.Context, cfg *config.Config) (*session, error)
}

func newApp() *app {
	return &app{v: viper.New(), ui: ui.NewPrinter(), connect: openSession}
}

// Execute is the main entry point for the CLI
func Execute() error {
	a := newApp()
	err := a.root().Execute()
	if err != nil {
		a.ui.Error("%v", err)
	}
	return err
}

func (a *app) root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "relorm",
		Short:         "Inspect and migrate relational schemas",
		Long:          "relorm compiles layouts and queries to MySQL and manages layout migrations",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, cmd.Flags(), a.configFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			a.cfg = cfg
			debug.Init(cfg.Debug)
			return nil
		},
	}
	cmd.SetOut(a.ui.Out)
	cmd.SetErr(a.ui.Err)

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Config file (default .relorm.yaml)")
	flags.String("database-url", "", "Database URL (mysql://, postgres://, sqlite://)")
	flags.Bool("debug", false, "Log statements to stderr")
	flags.String("layouts", "", "Directory of layout definitions used as migrations")

	cmd.AddCommand(
		a.versionCommand(),
		a.pingCommand(),
		a.tablesCommand(),
		a.describeCommand(),
		a.sqlCommand(),
		a.createCommand(),
		a.dropCommand(),
		a.queryCommand(),
		a.migrateCommand(),
	)
	return cmd
}

// session opens the configured database
func (a *app) session(ctx context.Context) (*session, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, ErrNoDatabase
	}
	return a.connect(ctx, a.cfg)
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	d, err := sqldriver.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	s := &session{server: d}
	var opts []connection.Option
	if d.Dialect() == sqldriver.MySQL {
		s.inspect = introspect.NewMySQL(d.Quoter())
		opts = append(opts, connection.WithSchemaLoader(s.inspect))
	} else {
		debug.Warn("dialect compiles as MySQL", "dialect", d.Dialect())
	}
	s.conn = connection.New(d, sqlgen.NewMySQL(d.Quoter()), opts...)
	return s, nil
}

// confirm asks before a destructive action unless yes is set
func (a *app) confirm(yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	return a.ui.Confirm(question)
}
