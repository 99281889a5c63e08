package echoapi

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/record"
	"github.com/eduatipico/portal/core/session"
	"github.com/eduatipico/portal/core/user"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	layoutTemplate = "layout.html"
	displayDate    = "02/01/2006"
)

type (
	// viewData is what every page template receives.
	viewData struct {
		AppName  string
		Title    string
		Identity *user.Identity
		CSRF     string
		Flash    *notice
		Form     interface{}
		Errors   map[string]string
		Data     interface{}
	}

	// renderer renders the embedded pages, each within the shared layout.
	renderer struct {
		conf  *core.Config
		pages map[string]*template.Template
	}
)

var _ echo.Renderer = (*renderer)(nil)

var templateFuncs = template.FuncMap{
	"roleLabel":  func(r user.Role) string { return r.Label() },
	"formatDate": formatDate,
	"percent":    func(n record.Nota) string { return fmt.Sprintf("%.0f%%", n.Percent()) },
	"band":       func(n record.Nota) string { return string(n.Band()) },
	"age":        func(s record.Student) int { return s.Age(time.Now()) },
	"number":     func(f float64) string { return fmt.Sprintf("%g", f) },
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(displayDate)
}

// newRenderer parses every page of templates/ once. It panics on a broken template.
func newRenderer(conf *core.Config) *renderer {
	pages, err := parsePages(templatesFS)
	if err != nil {
		panic(err)
	}
	return &renderer{conf: conf, pages: pages}
}

func parsePages(fsys fs.FS) (map[string]*template.Template, error) {
	names, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "listing templates")
	}
	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		base := path.Base(name)
		if base == layoutTemplate {
			continue
		}
		tmpl, err := template.New(base).Funcs(templateFuncs).ParseFS(fsys, "templates/"+layoutTemplate, name)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing template %s", base)
		}
		pages[base] = tmpl
	}
	return pages, nil
}

// Render implements echo.Renderer.
func (r *renderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %s not found", name)
	}
	return tmpl.ExecuteTemplate(w, layoutTemplate, data)
}

// viewData fills the fields common to every page from the request scope.
func (r *renderer) viewData(ctx echo.Context, title string) viewData {
	vd := viewData{AppName: r.conf.AppName, Title: title, Flash: popFlash(ctx)}
	if csrf, ok := ctx.Get("csrf").(string); ok {
		vd.CSRF = csrf
	}
	if idt, ok := ctx.Get(identityKey).(user.Identity); ok {
		vd.Identity = &idt
	} else if store, ok := ctx.Get(storeKey).(*session.Store); ok {
		vd.Identity = store.Snapshot().Identity
	}
	return vd
}

func (r *renderer) renderError(ctx echo.Context, code int, message interface{}) error {
	vd := r.viewData(ctx, http.StatusText(code))
	msg, ok := message.(string)
	if !ok {
		msg = fmt.Sprint(message)
	}
	vd.Data = echo.Map{"Code": code, "Message": msg}
	return ctx.Render(code, "error.html", vd)
}

func (s *server) render(ctx echo.Context, code int, name, title string, data interface{}) error {
	vd := s.tmpl.viewData(ctx, title)
	vd.Data = data
	return ctx.Render(code, name, vd)
}

// renderForm renders a form page; errs holds the message of each invalid field.
func (s *server) renderForm(ctx echo.Context, code int, name, title string, form interface{}, errs map[string]string, data interface{}) error {
	vd := s.tmpl.viewData(ctx, title)
	vd.Form = form
	vd.Errors = errs
	vd.Data = data
	return ctx.Render(code, name, vd)
}
