package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduatipico/portal/core"
)

var (
	// errors
	ErrNotFound             = errors.New("user not found")
	ErrEmailExists          = errors.New("a user with this email already exists")
	ErrAuthenticationFailed = errors.New("authentication failed")
)

// compared against when the email is unknown so both failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

type (
	Repository interface {
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		FilterUsers(filter QueryFilter) ([]User, error)
		DeleteUsersByID(ids ...string) error
	}

	ServiceInterface interface {
		Create(nu NewUser) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (Identity, error)
		QueryAll() ([]User, error)
		Query(filter QueryFilter) ([]User, error)
		GetByID(id string) (User, error)
		GetByEmail(email string) (User, error)
		Delete(ids ...string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
	}
)

var _ ServiceInterface = (*Service)(nil)

// NewService returns a user Service. mailSvc may be nil, in which case no welcome email is sent.
func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, mailSvc: mailSvc, conf: conf}
}

// Create stores a new credential record from validated input and sends the welcome email.
func (svc *Service) Create(nu NewUser) (User, error) {
	usr := User{
		Identity: Identity{
			ID:     uuid.NewString(),
			Name:   nu.Name,
			Email:  nu.Email,
			Role:   nu.Role,
			Avatar: nu.Avatar,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(usr)
	if err != nil {
		return User{}, err
	}
	svc.sendWelcomeEmail(usr)
	return usr, nil
}

// Authenticate looks up the credential record by exact email and compares the secret against its hash.
// Any mismatch, including an unknown email, yields ErrAuthenticationFailed.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (Identity, error) {
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}

	usr, err := svc.repo.GetUserByEmail(email)
	if err != nil {
		if errors.Cause(err) != ErrNotFound {
			return Identity{}, errors.Wrap(err, "finding user by email")
		}
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(pwd))
		return Identity{}, ErrAuthenticationFailed
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return Identity{}, ErrAuthenticationFailed
	}
	if err := ctx.Err(); err != nil {
		return Identity{}, err
	}
	return usr.Identity, nil
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) Query(filter QueryFilter) ([]User, error) {
	if filter.IsEmpty() {
		return svc.repo.QueryAllUsers()
	}
	return svc.repo.FilterUsers(filter)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(ids...)
}

type welcomeData struct {
	Name      string
	Email     string
	RoleLabel string
}

func (svc *Service) sendWelcomeEmail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Bem-vindo(a) ao " + svc.conf.AppName,
		TemplateName: "welcome",
		TemplateData: welcomeData{Name: usr.Name, Email: usr.Email, RoleLabel: usr.Role.Label()},
	})
}
