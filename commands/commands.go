// Package commands holds the wfs subcommands.
package commands

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/PapiCZ/kiv_wfs/config"
	"github.com/PapiCZ/kiv_wfs/vfs"
	"github.com/PapiCZ/kiv_wfs/vfsapi"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

// Fatalf logs to stderr and exits with a failure status.
func Fatalf(format string, args ...interface{}) {
	logrus.Errorf(format, args...)
	os.Exit(int(subcommands.ExitFailure))
}

// imageArg picks the image path from the first argument, falling back to the
// configured one.
func imageArg(f *flag.FlagSet, conf *config.Config) string {
	if f.NArg() > 0 {
		return f.Arg(0)
	}
	return conf.Image
}

func mountOptions(conf *config.Config) []vfs.Option {
	uid, gid := conf.Credentials()
	return []vfs.Option{
		vfs.WithLogger(logrus.StandardLogger()),
		vfs.WithCredentials(uid, gid),
	}
}

func mountImage(path string, conf *config.Config) (*vfs.Filesystem, error) {
	volume, err := vfs.NewVolume(path)
	if err != nil {
		return nil, err
	}

	fs, err := vfs.Mount(volume, mountOptions(conf)...)
	if err != nil {
		_ = volume.Close()
		return nil, err
	}

	return fs, nil
}

// Mkfs implements subcommands.Command for the "mkfs" command.
type Mkfs struct {
	inodes uint64
	blocks uint64
}

// Name implements subcommands.Command.Name.
func (*Mkfs) Name() string {
	return "mkfs"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Mkfs) Synopsis() string {
	return "formats a disk image with an empty filesystem"
}

// Usage implements subcommands.Command.Usage.
func (*Mkfs) Usage() string {
	return "mkfs [-i inodes] [-b blocks] [image]\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (m *Mkfs) SetFlags(f *flag.FlagSet) {
	f.Uint64Var(&m.inodes, "i", 0, "number of inodes, rounded up to a multiple of 32")
	f.Uint64Var(&m.blocks, "b", 0, "number of data blocks, rounded up to a multiple of 32")
}

// Execute implements subcommands.Command.Execute.
func (m *Mkfs) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	conf := args[0].(*config.Config)
	inodes, blocks := conf.Inodes, conf.Blocks
	if m.inodes != 0 {
		inodes = m.inodes
	}
	if m.blocks != 0 {
		blocks = m.blocks
	}

	// Only a missing image is created; an existing one is formatted in place
	path := imageArg(f, conf)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		err = vfs.PrepareVolumeFile(path, vfs.FormatSize(inodes, blocks))
		if err != nil {
			Fatalf("creating image: %v", err)
		}
	}

	volume, err := vfs.NewVolume(path)
	if err != nil {
		Fatalf("opening image: %v", err)
	}
	defer func() {
		_ = volume.Close()
	}()

	uid, gid := conf.Credentials()
	opts := vfs.DefaultFormatOptions()
	opts.Uid, opts.Gid = uid, gid

	sb, err := vfs.Format(volume, inodes, blocks, opts)
	if err != nil {
		logrus.WithError(err).WithField("image", path).Error("format failed")
		return subcommands.ExitFailure
	}

	logrus.WithFields(logrus.Fields{
		"image":  path,
		"inodes": sb.InodeCount,
		"blocks": sb.DataBlockCount,
		"size":   sb.TotalSize(),
	}).Info("formatted")
	return subcommands.ExitSuccess
}

// Stat implements subcommands.Command for the "stat" command.
type Stat struct{}

// Name implements subcommands.Command.Name.
func (*Stat) Name() string {
	return "stat"
}

// Synopsis implements subcommands.Command.Synopsis.
func (*Stat) Synopsis() string {
	return "prints the attributes of a path inside an image"
}

// Usage implements subcommands.Command.Usage.
func (*Stat) Usage() string {
	return "stat <image> <path>\n"
}

// SetFlags implements subcommands.Command.SetFlags.
func (*Stat) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (*Stat) Execute(_ context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	conf := args[0].(*config.Config)
	fs, err := mountImage(f.Arg(0), conf)
	if err != nil {
		Fatalf("mounting %s: %v", f.Arg(0), err)
	}
	defer func() {
		_ = fs.Close()
	}()

	stat, err := vfsapi.Getattr(fs, f.Arg(1))
	if err != nil {
		Fatalf("%v", err)
	}

	fmt.Printf("inode %d mode %o links %d uid %d gid %d size %d blocks %d\n",
		stat.Ino, stat.Mode, stat.Nlink, stat.Uid, stat.Gid, stat.Size, stat.Blocks)
	return subcommands.ExitSuccess
}
