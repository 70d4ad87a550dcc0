package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/britney/cmd"
	perrors "github.com/britney/internal/errors"
)

const (
	version = "0.1.0"
)

func main() {
	app := &cli.App{
		Name:     "britney",
		Usage:    "Turn source files into issues with a local language model",
		Version:  version,
		Flags:    cmd.GlobalFlags(),
		Commands: cmd.Commands(),
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		if perrors.IsUnavailable(err) {
			fmt.Fprintln(os.Stderr, perrors.UnavailableHint)
		}
		os.Exit(1)
	}
}
