package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf *core.Config
	out  io.Writer

	// openBackend opens the configured session record backend.
	openBackend func(ctx context.Context) (session.Backend, func() error, error)
	// migrate creates the session record table of the configured SQL database.
	migrate func(ctx context.Context) error
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  hashpassword                 - print the bcrypt hash of a prompted password, for the credentials file")
	fmt.Fprintln(cli.out, "  session show -client ID      - print the persisted session record of a client")
	fmt.Fprintln(cli.out, "  session clear -client ID     - delete the persisted session record of a client")
	fmt.Fprintln(cli.out, "  migrate                      - create the session record table (postgres, sqlite)")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "hashpassword":
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			cli.printUsage()
			return errHelp
		}
		return cli.hashPassword(string(pwd))

	case "session":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		sessionCmd := flag.NewFlagSet("session "+args[2], flag.ContinueOnError)
		sessionCmd.SetOutput(cli.out)
		clientID := sessionCmd.String("client", "", "The client id, as found in the client cookie.")
		if err := sessionCmd.Parse(args[3:]); err != nil {
			return errHelp
		}
		if *clientID == "" {
			sessionCmd.Usage()
			return errHelp
		}
		switch args[2] {
		case "show":
			return cli.showSession(ctx, *clientID)
		case "clear":
			return cli.clearSession(ctx, *clientID)
		}
		cli.printUsage()
		return errHelp

	case "migrate":
		return cli.migrate(ctx)

	default:
		cli.printUsage()
		return errHelp
	}
}
