package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/record"
	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
)

// registration shortcuts, in display order
var registrableOrder = []user.Role{user.RoleCuidador, user.RoleResponsavel, user.RoleStudent}

type (
	loginForm struct {
		Email    string `form:"email"`
		Password string `form:"password"`
		Next     string `form:"next" query:"next"`
	}

	registerForm struct {
		user.NewUser
		record.NewStudent
	}

	dashboardData struct {
		Users        int
		Stats        record.Stats
		Registrable  []user.Role
		Students     []record.Student
		StudentNames map[string]string
		ShowRecords  bool
		Notas        []record.Nota
		Laudos       []record.Laudo
		LatestNota   map[string]*record.Nota
		LatestLaudo  map[string]*record.Laudo
	}
)

func registerViews(g *echo.Group, s *server) {
	g.GET("/", func(ctx echo.Context) error { return ctx.Redirect(http.StatusSeeOther, "/dashboard") })
	g.GET("/login", s.loginPage)
	g.POST("/login", s.login)
	g.POST("/logout", s.logout)

	g.GET("/dashboard", s.dashboard, s.gate(allRoles...))
	g.GET("/student/:id/view", s.studentView, s.gate(allRoles...))

	g.GET("/nota/add", s.notaForm, s.gate(staff...))
	g.POST("/nota/add", s.notaAdd, s.gate(staff...))
	g.GET("/laudo/add", s.laudoForm, s.gate(staff...))
	g.POST("/laudo/add", s.laudoAdd, s.gate(staff...))

	g.GET("/:role/register", s.registerPage, s.gate(adminOnly...))
	g.POST("/:role/register", s.register, s.gate(adminOnly...))
	g.GET("/users/manage", s.manageUsers, s.gate(adminOnly...))
	g.POST("/users/:id/delete", s.deleteUser, s.gate(adminOnly...))
}

// fieldErrors returns the field messages of a validation failure; any other error is returned as is.
func (s *server) fieldErrors(err error) (map[string]string, error) {
	if fields, ok := core.FieldErrors(err, s.opts.Translator); ok {
		return fields, nil
	}
	return nil, err
}

// Auth

func (s *server) loginPage(ctx echo.Context) error {
	form := loginForm{Next: ctx.QueryParam("next")}
	if snap := MustStore(ctx).Snapshot(); !snap.Loading && snap.Identity != nil {
		return ctx.Redirect(http.StatusSeeOther, safeNext(form.Next))
	}
	return s.renderForm(ctx, http.StatusOK, "login.html", "Entrar", form, nil, nil)
}

func (s *server) login(ctx echo.Context) error {
	form := new(loginForm)
	if err := ctx.Bind(form); err != nil {
		return err
	}

	ok, err := MustStore(ctx).Login(ctx.Request().Context(), form.Email, form.Password)
	if err != nil {
		if err == session.ErrUnavailable || err == session.ErrInitializing {
			errs := map[string]string{"": errHttpUnavailable.Message.(string)}
			return s.renderForm(ctx, http.StatusServiceUnavailable, "login.html", "Entrar", form, errs, nil)
		}
		return err
	}
	if !ok {
		errs := map[string]string{"": errLoginFailed}
		return s.renderForm(ctx, http.StatusUnauthorized, "login.html", "Entrar", form, errs, nil)
	}
	return ctx.Redirect(http.StatusSeeOther, safeNext(form.Next))
}

func (s *server) logout(ctx echo.Context) error {
	MustStore(ctx).Logout(ctx.Request().Context())
	return ctx.Redirect(http.StatusSeeOther, "/login")
}

// Dashboard

func (s *server) dashboard(ctx echo.Context) error {
	idt := MustIdentity(ctx)
	svc := s.opts.RecordSvc

	students, err := svc.StudentsFor(idt)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	data := dashboardData{Students: students, StudentNames: studentNames(students)}

	switch idt.Role {
	case user.RoleAdmin:
		users, err := s.opts.UserSvc.QueryAll()
		if err != nil {
			return errors.Wrap(err, "counting users")
		}
		if data.Stats, err = svc.Stats(); err != nil {
			return err
		}
		data.Users = len(users)
		data.Registrable = registrableOrder
	default:
		if data.Notas, err = svc.NotasOf(students); err != nil {
			return errors.Wrap(err, "listing notas")
		}
		if data.Laudos, err = svc.LaudosOf(students); err != nil {
			return errors.Wrap(err, "listing laudos")
		}
		if idt.Role == user.RoleResponsavel {
			data.LatestNota, data.LatestLaudo = latestRecords(data.Notas, data.Laudos)
		} else {
			data.ShowRecords = true
		}
	}
	return s.render(ctx, http.StatusOK, "dashboard.html", "Painel", data)
}

func studentNames(students []record.Student) map[string]string {
	names := make(map[string]string, len(students))
	for _, st := range students {
		names[st.ID] = st.Name
	}
	return names
}

// latestRecords picks the newest nota and laudo of each student. Both lists are newest first.
func latestRecords(notas []record.Nota, laudos []record.Laudo) (map[string]*record.Nota, map[string]*record.Laudo) {
	latestNota := make(map[string]*record.Nota)
	for i := range notas {
		if _, ok := latestNota[notas[i].StudentID]; !ok {
			latestNota[notas[i].StudentID] = &notas[i]
		}
	}
	latestLaudo := make(map[string]*record.Laudo)
	for i := range laudos {
		if _, ok := latestLaudo[laudos[i].StudentID]; !ok {
			latestLaudo[laudos[i].StudentID] = &laudos[i]
		}
	}
	return latestNota, latestLaudo
}

// Students

func (s *server) studentView(ctx echo.Context) error {
	idt := MustIdentity(ctx)
	svc := s.opts.RecordSvc

	student, err := svc.GetStudent(ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == record.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	if !svc.CanView(idt, student) {
		return errHttpForbidden
	}

	notas, err := svc.NotasOf([]record.Student{student})
	if err != nil {
		return errors.Wrap(err, "listing notas")
	}
	laudos, err := svc.LaudosOf([]record.Student{student})
	if err != nil {
		return errors.Wrap(err, "listing laudos")
	}

	return s.render(ctx, http.StatusOK, "student_view.html", student.Name, echo.Map{
		"Student":     student,
		"Cuidador":    s.userName(student.CuidadorID),
		"Responsavel": s.userName(student.ResponsavelID),
		"Notas":       notas,
		"Laudos":      laudos,
	})
}

func (s *server) userName(id string) string {
	if id == "" {
		return ""
	}
	usr, err := s.opts.UserSvc.GetByID(id)
	if err != nil {
		return ""
	}
	return usr.Name
}

// checkVisible rejects records about a student the acting identity does not follow.
func (s *server) checkVisible(idt user.Identity, studentID string) error {
	student, err := s.opts.RecordSvc.GetStudent(studentID)
	if err != nil {
		return err
	}
	if !s.opts.RecordSvc.CanView(idt, student) {
		return errHttpForbidden
	}
	return nil
}

// Notas

func (s *server) notaForm(ctx echo.Context) error {
	form := record.NewNota{
		StudentID: ctx.QueryParam("student_id"),
		MaxValue:  "10",
		Date:      time.Now().Format(core.DateLayout),
	}
	return s.renderNotaForm(ctx, http.StatusOK, form, nil)
}

func (s *server) renderNotaForm(ctx echo.Context, code int, form record.NewNota, errs map[string]string) error {
	students, err := s.opts.RecordSvc.StudentsFor(MustIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	data := echo.Map{"Students": students, "Subjects": record.Subjects}
	return s.renderForm(ctx, code, "nota_add.html", "Lançar nota", form, errs, data)
}

func (s *server) notaAdd(ctx echo.Context) error {
	idt := MustIdentity(ctx)
	form := new(record.NewNota)
	if err := ctx.Bind(form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate, s.opts.RecordSvc); err != nil {
		errs, err := s.fieldErrors(err)
		if err != nil {
			return err
		}
		return s.renderNotaForm(ctx, http.StatusBadRequest, *form, errs)
	}
	if err := s.checkVisible(idt, form.StudentID); err != nil {
		return err
	}

	if _, err := s.opts.RecordSvc.AddNota(*form, idt); err != nil {
		return errors.Wrap(err, "adding nota")
	}
	setFlash(ctx, flashSuccess, "Nota lançada com sucesso.")
	return ctx.Redirect(http.StatusSeeOther, "/student/"+form.StudentID+"/view")
}

// Laudos

func (s *server) laudoForm(ctx echo.Context) error {
	form := record.NewLaudo{
		StudentID: ctx.QueryParam("student_id"),
		Date:      time.Now().Format(core.DateLayout),
	}
	return s.renderLaudoForm(ctx, http.StatusOK, form, nil)
}

func (s *server) renderLaudoForm(ctx echo.Context, code int, form record.NewLaudo, errs map[string]string) error {
	students, err := s.opts.RecordSvc.StudentsFor(MustIdentity(ctx))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	data := echo.Map{"Students": students, "Types": record.LaudoTypes}
	return s.renderForm(ctx, code, "laudo_add.html", "Adicionar laudo", form, errs, data)
}

func (s *server) laudoAdd(ctx echo.Context) error {
	idt := MustIdentity(ctx)
	form := new(record.NewLaudo)
	if err := ctx.Bind(form); err != nil {
		return err
	}
	if err := form.Validate(s.opts.Validate, s.opts.RecordSvc); err != nil {
		errs, err := s.fieldErrors(err)
		if err != nil {
			return err
		}
		return s.renderLaudoForm(ctx, http.StatusBadRequest, *form, errs)
	}
	if err := s.checkVisible(idt, form.StudentID); err != nil {
		return err
	}

	if _, err := s.opts.RecordSvc.AddLaudo(*form, idt); err != nil {
		return errors.Wrap(err, "adding laudo")
	}
	setFlash(ctx, flashSuccess, "Laudo adicionado com sucesso.")
	return ctx.Redirect(http.StatusSeeOther, "/student/"+form.StudentID+"/view")
}

// Registration

func registrableRole(ctx echo.Context) (user.Role, error) {
	role, ok := user.RegistrableRoles[ctx.Param("role")]
	if !ok {
		return "", errHttpNotFound
	}
	return role, nil
}

func (s *server) registerPage(ctx echo.Context) error {
	role, err := registrableRole(ctx)
	if err != nil {
		return err
	}
	return s.renderRegisterForm(ctx, http.StatusOK, role, registerForm{}, nil)
}

func (s *server) renderRegisterForm(ctx echo.Context, code int, role user.Role, form registerForm, errs map[string]string) error {
	form.Password, form.PasswordConfirm = "", ""
	data := echo.Map{"Role": role}
	if role == user.RoleStudent {
		cuidadores, err := s.opts.UserSvc.Query(user.QueryFilter{Role: user.RoleCuidador})
		if err != nil {
			return errors.Wrap(err, "listing caregivers")
		}
		responsaveis, err := s.opts.UserSvc.Query(user.QueryFilter{Role: user.RoleResponsavel})
		if err != nil {
			return errors.Wrap(err, "listing guardians")
		}
		data["Cuidadores"] = cuidadores
		data["Responsaveis"] = responsaveis
	}
	return s.renderForm(ctx, code, "register.html", "Cadastrar "+role.Label(), form, errs, data)
}

func (s *server) register(ctx echo.Context) error {
	role, err := registrableRole(ctx)
	if err != nil {
		return err
	}
	form := new(registerForm)
	if err := ctx.Bind(&form.NewUser); err != nil {
		return err
	}
	if role == user.RoleStudent {
		if err := ctx.Bind(&form.NewStudent); err != nil {
			return err
		}
	}
	form.Role = role

	errs := make(map[string]string)
	if err := form.NewUser.Validate(s.opts.Validate, s.opts.UserSvc); err != nil {
		fields, err := s.fieldErrors(err)
		if err != nil {
			return err
		}
		mergeFields(errs, fields)
	}
	if role == user.RoleStudent {
		if err := form.NewStudent.Validate(s.opts.Validate, s.opts.UserSvc); err != nil {
			fields, err := s.fieldErrors(err)
			if err != nil {
				return err
			}
			mergeFields(errs, fields)
		}
	}
	if len(errs) > 0 {
		return s.renderRegisterForm(ctx, http.StatusBadRequest, role, *form, errs)
	}

	usr, err := s.opts.UserSvc.Create(form.NewUser)
	if err != nil {
		if errors.Cause(err) == user.ErrEmailExists {
			errs["email"] = user.ErrEmailExists.Error()
			return s.renderRegisterForm(ctx, http.StatusBadRequest, role, *form, errs)
		}
		return errors.Wrap(err, "creating user")
	}
	if role == user.RoleStudent {
		if _, err := s.opts.RecordSvc.CreateStudent(usr, form.NewStudent); err != nil {
			if derr := s.opts.UserSvc.Delete(usr.ID); derr != nil {
				s.opts.Logger.Error("rolling back student user", errors.Wrap(derr, "deleting user"))
			}
			return errors.Wrap(err, "creating student")
		}
	}

	setFlash(ctx, flashSuccess, role.Label()+" cadastrado(a) com sucesso.")
	return ctx.Redirect(http.StatusSeeOther, "/dashboard")
}

func mergeFields(dst, src map[string]string) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

// User management

func (s *server) manageUsers(ctx echo.Context) error {
	filter := user.QueryFilter{Search: ctx.QueryParam("q")}
	filter.Clean()
	users, err := s.opts.UserSvc.Query(filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return s.render(ctx, http.StatusOK, "users_manage.html", "Gerenciar usuários", echo.Map{
		"Query": filter.Search,
		"Users": users,
	})
}

func (s *server) deleteUser(ctx echo.Context) error {
	idt := MustIdentity(ctx)
	id := ctx.Param("id")
	if id == idt.ID {
		setFlash(ctx, flashError, errNoPermsSelfDelete)
		return ctx.Redirect(http.StatusSeeOther, "/users/manage")
	}
	usr, err := s.opts.UserSvc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return errHttpNotFound
		}
		return err
	}
	if err := s.opts.UserSvc.Delete(usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	setFlash(ctx, flashSuccess, usr.Name+" removido(a).")
	return ctx.Redirect(http.StatusSeeOther, "/users/manage")
}
