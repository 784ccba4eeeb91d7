package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/PabloPavan/cobit_api/internal"
	"github.com/PabloPavan/cobit_api/internal/cli"
)

func main() {
	printer := cli.Printer{Out: os.Stdout}

	wd, err := os.Getwd()
	if err != nil {
		printer.Error("%v", err)
		os.Exit(1)
	}

	home := internal.Env("COBIT_HOME", "")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			printer.Error("cannot locate home directory: %v", err)
			os.Exit(1)
		}
		home = filepath.Join(userHome, ".cobit")
	}

	env := &cli.Env{
		Workspace: cli.Workspace{Dir: wd},
		Creds:     cli.CredentialStore{Dir: home},
		Client:    cli.NewClient(internal.Env("COBIT_API_URL", cli.DefaultAPIURL), nil),
		Prompt:    cli.TeaPrompter{In: os.Stdin, Out: os.Stdout},
		Print:     printer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewApp(env).RunContext(ctx, os.Args); err != nil {
		printer.Error("%v", err)
		stop()
		os.Exit(1)
	}
}
