package commands

import (
	"context"
	"flag"
	"fmt"

	"github.com/PapiCZ/kiv_wfs/config"
	"github.com/PapiCZ/kiv_wfs/vfsapi"
	"github.com/google/subcommands"
)

// Fsck implements subcommands.Command for the "fsck" command.
type Fsck struct{}

// Name implements subcommands.Command.Name.
func (*Fsck) Name() string {
	return "fsck"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Fsck) Synopsis() string {
	return "checks that the bitmaps of an image match its directory tree"
}

// Usage implements subcommands.Command.Usage.
func (*Fsck) Usage() string {
	return "fsck [image]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Fsck) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Fsck) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	conf := args[0].(*config.Config)
	path := imageArg(f, conf)
	fs, err := mountImage(path, conf)
	if err != nil {
		Fatalf("mounting %s: %v", path, err)
	}
	defer func() {
		_ = fs.Close()
	}()

	if err := vfsapi.FsCheck(fs); err != nil {
		fmt.Printf("%s: %v\n", path, err)
		return subcommands.ExitFailure
	}

	s := vfsapi.Statfs(fs)
	fmt.Printf("%s: clean, %d/%d inodes, %d/%d blocks free\n", path, s.FreeInodes, s.Inodes, s.FreeBlocks, s.Blocks)
	return subcommands.ExitSuccess
}
