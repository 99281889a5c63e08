package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduatipico/portal/core"
)

// Role is one of a closed set of portal roles.
type Role string

// Roles
const (
	RoleAdmin       Role = "Admin"
	RoleCuidador    Role = "Cuidador"    // caregiver
	RoleResponsavel Role = "Responsavel" // guardian
	RoleStudent     Role = "Student"
)

var (
	AllRoles = []Role{RoleAdmin, RoleCuidador, RoleResponsavel, RoleStudent}

	// RegistrableRoles maps the URL slug of /:role/register to the Role it creates.
	RegistrableRoles = map[string]Role{
		"cuidador":    RoleCuidador,
		"responsavel": RoleResponsavel,
		"student":     RoleStudent,
	}

	roleLabels = map[Role]string{
		RoleAdmin:       "Administrador",
		RoleCuidador:    "Cuidador",
		RoleResponsavel: "Responsável",
		RoleStudent:     "Estudante",
	}
)

func (r Role) Valid() bool {
	return r.In(AllRoles...)
}

// Label is the human readable name of the role.
func (r Role) Label() string {
	return roleLabels[r]
}

// Slug is the lower-case form used in URLs.
func (r Role) Slug() string {
	return core.CleanString(string(r), true /* lower */)
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Identity is a named, uniquely-emailed principal with one fixed role.
// It never carries a secret and is what gets persisted for a session.
type Identity struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
}

// Valid reports whether the identity is complete enough to back a session.
func (i Identity) Valid() bool {
	return i.ID != "" && i.Email != "" && i.Role.Valid()
}

// Initials of the display name, used when there is no avatar.
func (i Identity) Initials() string {
	var initials []rune
	newWord := true
	for _, r := range i.Name {
		if r == ' ' {
			newWord = true
			continue
		}
		if newWord {
			initials = append(initials, r)
			newWord = false
		}
	}
	return string(initials)
}

// User is a credential record: an Identity paired with its hashed secret.
type User struct {
	Identity
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Name            string `json:"name" form:"name" validate:"required,notblank"`
	Email           string `json:"email" form:"email" validate:"required,email"`
	Password        string `json:"password" form:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" form:"password_confirm" validate:"required,eqfield=Password"`
	Role            Role   `json:"role" form:"-" validate:"required,role"`
	Avatar          string `json:"avatar" form:"avatar" validate:"omitempty,url"`
}

// Clean normalizes user input before validation.
func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Avatar = core.CleanString(nu.Avatar)
}

// QueryFilter narrows a user listing.
// Search is a case-insensitive match on one of Identity.Name, Identity.Email or Identity.Role.
type QueryFilter struct {
	Search string `query:"search"`
	Role   Role   `query:"role"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Match applies the filter to usr.
func (qf QueryFilter) Match(usr User) bool {
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.Search == "" {
		return true
	}
	return core.ContainsFold(usr.Name, qf.Search) ||
		core.ContainsFold(usr.Email, qf.Search) ||
		core.ContainsFold(string(usr.Role), qf.Search)
}
