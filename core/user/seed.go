package user

import (
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
)

type seedUser struct {
	Identity
	Password string
}

// demo accounts available on a fresh process.
var seedUsers = []seedUser{
	{
		Identity: Identity{
			ID:     "1",
			Name:   "Admin Sistema",
			Email:  "admin@eduatipico.com",
			Role:   RoleAdmin,
			Avatar: "https://images.unsplash.com/photo-1472099645785-5658abf4ff4e?w=400&h=400&fit=crop&crop=face",
		},
		Password: "admin123",
	},
	{
		Identity: Identity{
			ID:     "2",
			Name:   "Maria Silva",
			Email:  "maria@eduatipico.com",
			Role:   RoleCuidador,
			Avatar: "https://images.unsplash.com/photo-1494790108755-2616b612b789?w=400&h=400&fit=crop&crop=face",
		},
		Password: "cuidador123",
	},
	{
		Identity: Identity{
			ID:     "3",
			Name:   "João Santos",
			Email:  "joao@eduatipico.com",
			Role:   RoleResponsavel,
			Avatar: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400&h=400&fit=crop&crop=face",
		},
		Password: "responsavel123",
	},
	{
		Identity: Identity{
			ID:     "4",
			Name:   "Ana Costa",
			Email:  "ana@eduatipico.com",
			Role:   RoleStudent,
			Avatar: "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=400&h=400&fit=crop&crop=face",
		},
		Password: "student123",
	},
}

// CredentialRecord is one entry of a credentials file.
// PasswordHash is a bcrypt hash, as printed by `admin hashpassword`.
type CredentialRecord struct {
	Identity
	PasswordHash string `json:"password_hash"`
}

// Seed fills repo with the credential records of credentialsFile, or with the demo accounts when
// credentialsFile is empty.
func Seed(repo Repository, credentialsFile string) error {
	if credentialsFile != "" {
		return seedFromFile(repo, credentialsFile)
	}

	now := time.Now().UTC()
	for _, su := range seedUsers {
		usr := User{Identity: su.Identity, CreatedAt: now}
		if err := usr.SetPassword(su.Password); err != nil {
			return errors.Wrap(err, "hashing seed password")
		}
		if _, err := repo.CreateUser(usr); err != nil {
			return errors.Wrapf(err, "seeding user %s", su.Email)
		}
	}
	return nil
}

func seedFromFile(repo Repository, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading credentials file")
	}
	var records []CredentialRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return errors.Wrap(err, "decoding credentials file")
	}

	now := time.Now().UTC()
	for i, rec := range records {
		if !rec.Valid() || rec.PasswordHash == "" {
			return errors.Errorf("credentials file: record %d is incomplete", i)
		}
		usr := User{Identity: rec.Identity, PasswordHash: []byte(rec.PasswordHash), CreatedAt: now}
		if _, err := repo.CreateUser(usr); err != nil {
			return errors.Wrapf(err, "seeding user %s", rec.Email)
		}
	}
	return nil
}
