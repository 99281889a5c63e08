package record

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

type (
	// StudentFilter applies AND operation on its non-empty fields.
	StudentFilter struct {
		UserID        string
		CuidadorID    string
		ResponsavelID string
	}

	Repository interface {
		CreateStudent(s Student) (Student, error)
		GetStudentByID(id string) (Student, error)
		FilterStudents(filter StudentFilter) ([]Student, error)
		CreateNota(n Nota) (Nota, error)
		// QueryNotas returns the notas of the given students, newest first. No ids means all notas.
		QueryNotas(studentIDs ...string) ([]Nota, error)
		CreateLaudo(l Laudo) (Laudo, error)
		// QueryLaudos returns the laudos of the given students, newest first. No ids means all laudos.
		QueryLaudos(studentIDs ...string) ([]Laudo, error)
	}

	ServiceInterface interface {
		CreateStudent(usr user.User, ns NewStudent) (Student, error)
		GetStudent(id string) (Student, error)
		StudentsFor(idt user.Identity) ([]Student, error)
		CanView(idt user.Identity, s Student) bool
		AddNota(nn NewNota, by user.Identity) (Nota, error)
		AddLaudo(nl NewLaudo, by user.Identity) (Laudo, error)
		NotasOf(students []Student) ([]Nota, error)
		LaudosOf(students []Student) ([]Laudo, error)
		Stats() (Stats, error)
	}

	Service struct {
		repo Repository
	}

	// Stats are the record totals shown on the admin dashboard.
	Stats struct {
		Students int `json:"students"`
		Notas    int `json:"notas"`
		Laudos   int `json:"laudos"`
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateStudent stores the Student record of a freshly registered Student user.
func (svc *Service) CreateStudent(usr user.User, ns NewStudent) (Student, error) {
	return svc.repo.CreateStudent(Student{
		ID:            uuid.NewString(),
		UserID:        usr.ID,
		Name:          usr.Name,
		Email:         usr.Email,
		DateOfBirth:   parseDate(ns.DateOfBirth),
		SpecialNeeds:  ns.SpecialNeeds,
		CuidadorID:    ns.CuidadorID,
		ResponsavelID: ns.ResponsavelID,
		Avatar:        usr.Avatar,
		CreatedAt:     time.Now().UTC(),
	})
}

func (svc *Service) GetStudent(id string) (Student, error) {
	return svc.repo.GetStudentByID(id)
}

// StudentsFor lists the students idt follows: all of them for an Admin, the assigned ones for a
// Cuidador or a Responsavel, and their own record for a Student.
func (svc *Service) StudentsFor(idt user.Identity) ([]Student, error) {
	var filter StudentFilter
	switch idt.Role {
	case user.RoleAdmin:
	case user.RoleCuidador:
		filter.CuidadorID = idt.ID
	case user.RoleResponsavel:
		filter.ResponsavelID = idt.ID
	case user.RoleStudent:
		filter.UserID = idt.ID
	default:
		return nil, nil
	}
	return svc.repo.FilterStudents(filter)
}

// CanView reports whether idt may open the detail view of s.
func (svc *Service) CanView(idt user.Identity, s Student) bool {
	switch idt.Role {
	case user.RoleAdmin:
		return true
	case user.RoleCuidador:
		return s.CuidadorID == idt.ID
	case user.RoleResponsavel:
		return s.ResponsavelID == idt.ID
	case user.RoleStudent:
		return s.UserID == idt.ID
	}
	return false
}

// AddNota stores a validated NewNota.
func (svc *Service) AddNota(nn NewNota, by user.Identity) (Nota, error) {
	value, maxValue, ok := nn.Values()
	if !ok {
		return Nota{}, errors.New("nota values not validated")
	}
	return svc.repo.CreateNota(Nota{
		ID:          uuid.NewString(),
		StudentID:   nn.StudentID,
		Subject:     nn.Subject,
		Value:       value,
		MaxValue:    maxValue,
		Date:        parseDate(nn.Date),
		Observation: nn.Observation,
		CreatedBy:   by.ID,
	})
}

// AddLaudo stores a validated NewLaudo.
func (svc *Service) AddLaudo(nl NewLaudo, by user.Identity) (Laudo, error) {
	return svc.repo.CreateLaudo(Laudo{
		ID:              uuid.NewString(),
		StudentID:       nl.StudentID,
		Type:            nl.Type,
		Description:     nl.Description,
		Date:            parseDate(nl.Date),
		Professional:    nl.Professional,
		CrpCrm:          nl.CrpCrm,
		Recommendations: nl.Recommendations,
		CreatedBy:       by.ID,
	})
}

// NotasOf returns the notas of students, newest first.
func (svc *Service) NotasOf(students []Student) ([]Nota, error) {
	if len(students) == 0 {
		return nil, nil
	}
	return svc.repo.QueryNotas(IDs(students)...)
}

// LaudosOf returns the laudos of students, newest first.
func (svc *Service) LaudosOf(students []Student) ([]Laudo, error) {
	if len(students) == 0 {
		return nil, nil
	}
	return svc.repo.QueryLaudos(IDs(students)...)
}

func (svc *Service) Stats() (Stats, error) {
	students, err := svc.repo.FilterStudents(StudentFilter{})
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting students")
	}
	notas, err := svc.repo.QueryNotas()
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting notas")
	}
	laudos, err := svc.repo.QueryLaudos()
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting laudos")
	}
	return Stats{Students: len(students), Notas: len(notas), Laudos: len(laudos)}, nil
}

// IDs of students.
func IDs(students []Student) []string {
	ids := make([]string, len(students))
	for i, s := range students {
		ids[i] = s.ID
	}
	return ids
}
