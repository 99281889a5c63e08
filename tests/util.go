package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/eduatipico/portal/core/user"
)

// CreateUser stores a credential record in repo and fails the test on error.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	role user.Role,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Identity: user.Identity{
			ID:    uuid.NewString(),
			Name:  name,
			Email: email,
			Role:  role,
		},
		CreatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}
