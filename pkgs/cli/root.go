package cli

import (
	"errors"

	"github.com/jdfin/dccstation/pkgs/app"
	"github.com/spf13/cobra"
)

func NewRootCommand(app *app.LocoApp) *cobra.Command {
	command := &cobra.Command{
		Use:   "dccstation",
		Short: "DCC command station & RailCom telemetry CLI",
		RunE: func(command *cobra.Command, args []string) error {
			return errors.New("please select a command")
		},
	}

	command.AddCommand(NewCVCommand(app))
	command.AddCommand(NewFnCommand(app))
	command.AddCommand(NewSpeedCommand(app))

	return command
}
