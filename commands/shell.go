package commands

import (
	"context"
	"flag"

	"github.com/PapiCZ/kiv_wfs/config"
	"github.com/PapiCZ/kiv_wfs/shell"
	"github.com/google/subcommands"
)

// Shell implements subcommands.Command for the "shell" command.
type Shell struct{}

// Name implements subcommands.Command.Name.
func (*Shell) Name() string {
	return "shell"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Shell) Synopsis() string {
	return "opens an interactive shell over an image"
}

// Usage implements subcommands.Command.Usage.
func (*Shell) Usage() string {
	return "shell [image]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Shell) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Shell) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	conf := args[0].(*config.Config)
	sh, err := shell.New(imageArg(f, conf), mountOptions(conf)...)
	if err != nil {
		Fatalf("%v", err)
	}

	sh.Run()

	if err := shell.Unmount(sh); err != nil {
		Fatalf("unmounting: %v", err)
	}
	return subcommands.ExitSuccess
}
