package main

import (
	"context"
	"flag"
	"os"

	"github.com/PapiCZ/kiv_wfs/commands"
	"github.com/PapiCZ/kiv_wfs/config"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "", "path to a TOML config file")
	logLevel   = flag.String("log-level", "", "overrides log_level from the config")
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(commands.Mkfs), "")
	subcommands.Register(new(commands.Shell), "")
	subcommands.Register(new(commands.Stat), "")
	subcommands.Register(new(commands.Fsck), "")

	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		commands.Fatalf("%v", err)
	}
	if *logLevel != "" {
		conf.LogLevel = *logLevel
	}
	if err := conf.ConfigureLogger(logrus.StandardLogger()); err != nil {
		commands.Fatalf("%v", err)
	}

	os.Exit(int(subcommands.Execute(context.Background(), &conf)))
}
