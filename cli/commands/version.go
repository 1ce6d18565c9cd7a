package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/relorm/cli/internal/version"
)

func (a *app) versionCommand() *cobra.Command {
	var check string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			a.ui.Plain("%s", info.FullString())
			if check == "" {
				return nil
			}

			ok, err := version.AtLeast(info.Version, check)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("relorm %s is older than required %s", info.Version, check)
			}
			a.ui.Success("relorm %s satisfies %s", info.Version, check)
			return nil
		},
	}
	cmd.Flags().StringVar(&check, "check", "", "Fail unless the CLI is at least this version")
	return cmd
}
