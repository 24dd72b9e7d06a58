// Command ledgerctl runs ledger jobs and reports from the command line,
// against the same database as the server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"finledger/internal/cli"
	"finledger/internal/log"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "jobs")
	}
	for _, c := range reports {
		commander.Register(c, "reports")
	}

	flag.Parse()

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	env := &environment{cfg: cfg, logger: logger}
	defer env.close()

	os.Exit(int(commander.Execute(context.Background(), env)))
}
