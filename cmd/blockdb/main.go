package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/cli"

	"github.com/arjenvanzwam/blockdb/cmd/blockdb/command"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		args = append([]string{"run"}, args...)
	}

	commands := map[string]cli.CommandFactory{
		"run": func() (cli.Command, error) {
			return &command.RunCommand{}, nil
		},
	}

	blockCLI := &cli.CLI{
		Args:     args,
		Commands: commands,
		HelpFunc: cli.BasicHelpFunc("blockdb"),
	}

	exitCode, err := blockCLI.Run()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
	os.Exit(exitCode)
}
