package main

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core/user"
)

func (cli *commandLine) hashPassword(pwd string) error {
	if len([]rune(pwd)) < user.PasswordMinLen {
		return errors.Errorf("password must contain at least %d characters", user.PasswordMinLen)
	}
	var usr user.User
	if err := usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	fmt.Fprintln(cli.out, string(usr.PasswordHash))
	return nil
}
