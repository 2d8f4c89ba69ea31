// Package config loads the settings shared by the wfs subcommands.
package config

import (
	"os"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Config is read from a TOML file. Zero values fall back to Default.
type Config struct {
	// Image is the path of the disk image.
	Image string `toml:"image"`
	// Inodes and Blocks are the capacities mkfs formats with.
	Inodes uint64 `toml:"inodes"`
	Blocks uint64 `toml:"blocks"`
	// LogLevel is any level logrus understands.
	LogLevel string `toml:"log_level"`
	// Uid and Gid own new files. Negative means the calling process.
	Uid int64 `toml:"uid"`
	Gid int64 `toml:"gid"`
}

func Default() Config {
	return Config{
		Image:    "disk.img",
		Inodes:   32,
		Blocks:   224,
		LogLevel: "info",
		Uid:      -1,
		Gid:      -1,
	}
}

// Load decodes path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return c, errors.Wrapf(err, "load config %s", path)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return c, errors.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	return c, c.Validate()
}

func (c Config) Validate() error {
	if c.Inodes == 0 || c.Blocks == 0 {
		return errors.New("inodes and blocks must be positive")
	}

	_, err := logrus.ParseLevel(c.LogLevel)
	return err
}

// Credentials resolves Uid and Gid against the calling process.
func (c Config) Credentials() (uint32, uint32) {
	uid, gid := uint32(os.Getuid()), uint32(os.Getgid())
	if c.Uid >= 0 {
		uid = uint32(c.Uid)
	}
	if c.Gid >= 0 {
		gid = uint32(c.Gid)
	}

	return uid, gid
}

// ConfigureLogger applies LogLevel to log.
func (c Config) ConfigureLogger(log *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}

	log.SetLevel(level)
	return nil
}
