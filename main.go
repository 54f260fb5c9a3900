package main

import (
	"os"

	"github.com/jdfin/dccstation/pkgs/app"
	"github.com/jdfin/dccstation/pkgs/cli"
	"github.com/jdfin/dccstation/pkgs/output"
)

func main() {
	loco := app.LocoApp{P: output.ConsolePrinter{}}
	cmd := cli.NewRootCommand(&loco)
	args := os.Args
	if args != nil {
		args = args[1:]
		cmd.SetArgs(args)
	}
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
