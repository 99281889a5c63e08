package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/storage"
)

// sessionBackend opens the configured backend. The memory backend lives inside the API process,
// so a separate admin process cannot reach its records.
func (cli *commandLine) sessionBackend(ctx context.Context) (session.Backend, func() error, error) {
	switch cli.conf.Session.Backend {
	case storage.BackendMemory, "":
		return nil, nil, errors.New("session records of the memory backend live in the API process; set EDU_SESSION_BACKEND to redis, postgres or sqlite")
	}
	return cli.openBackend(ctx)
}

func (cli *commandLine) showSession(ctx context.Context, clientID string) error {
	backend, closeBackend, err := cli.sessionBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend()

	data, err := backend.Get(ctx, session.Key(clientID))
	if err != nil {
		if errors.Cause(err) == session.ErrNoRecord {
			return errors.Errorf("no session record for client %s", clientID)
		}
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		// not JSON: print it as stored
		out.Reset()
		out.Write(data)
	}
	fmt.Fprintln(cli.out, out.String())
	return nil
}

func (cli *commandLine) clearSession(ctx context.Context, clientID string) error {
	backend, closeBackend, err := cli.sessionBackend(ctx)
	if err != nil {
		return err
	}
	defer closeBackend()

	if err := backend.Delete(ctx, session.Key(clientID)); err != nil {
		return errors.Wrap(err, "deleting session record")
	}
	fmt.Fprintf(cli.out, "session record of client %s cleared\n", clientID)
	return nil
}
