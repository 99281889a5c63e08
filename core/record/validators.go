package record

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/eduatipico/portal/core"
	"github.com/eduatipico/portal/core/user"
)

var (
	subjectTag  = "subject"
	subjectText = "select a subject from the list"

	laudoTypeTag  = "laudotype"
	laudoTypeText = "select a report type from the list"

	notaMaxTag  = "notamax"
	notaMaxText = "the maximum value must be at least 1"

	notaRangeTag  = "notarange"
	notaRangeText = "the grade must be between 0 and the maximum value"

	studentUnknownText     = "student not found"
	cuidadorUnknownText    = "select a registered caregiver"
	responsavelUnknownText = "select a registered guardian"
)

// InitValidators registers the record validation tags and their english texts.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(subjectTag, oneOfValidation(Subjects))
	core.RegisterCustomTranslation(validate, translator, subjectTag, subjectText)

	_ = validate.RegisterValidation(laudoTypeTag, oneOfValidation(LaudoTypes))
	core.RegisterCustomTranslation(validate, translator, laudoTypeTag, laudoTypeText)

	validate.RegisterStructValidation(notaStructValidation, NewNota{})
	core.RegisterCustomTranslation(validate, translator, notaMaxTag, notaMaxText)
	core.RegisterCustomTranslation(validate, translator, notaRangeTag, notaRangeText)
}

// Validate cleans and validates nn and checks that its student exists.
func (nn *NewNota) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nn.Clean()
	if err := validate.Struct(nn); err != nil {
		return err
	}
	return checkStudent(svc, nn.StudentID)
}

// Validate cleans and validates nl and checks that its student exists.
func (nl *NewLaudo) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nl.Clean()
	if err := validate.Struct(nl); err != nil {
		return err
	}
	return checkStudent(svc, nl.StudentID)
}

// UserLookup finds registered users by ID.
type UserLookup interface {
	GetByID(id string) (user.User, error)
}

// Validate cleans and validates ns. Caregiver and guardian, when set, must be registered with the matching role.
func (ns *NewStudent) Validate(validate *validator.Validate, users UserLookup) error {
	ns.Clean()
	if err := validate.Struct(ns); err != nil {
		return err
	}

	var fldErrs []core.FieldError
	if ns.CuidadorID != "" && !hasRole(users, ns.CuidadorID, user.RoleCuidador) {
		fldErrs = append(fldErrs, core.FieldError{Field: "cuidador_id", Error: cuidadorUnknownText})
	}
	if ns.ResponsavelID != "" && !hasRole(users, ns.ResponsavelID, user.RoleResponsavel) {
		fldErrs = append(fldErrs, core.FieldError{Field: "responsavel_id", Error: responsavelUnknownText})
	}
	if fldErrs != nil {
		return core.NewValidationError(nil, fldErrs...)
	}
	return nil
}

func hasRole(users UserLookup, id string, role user.Role) bool {
	usr, err := users.GetByID(id)
	return err == nil && usr.Role == role
}

func checkStudent(svc ServiceInterface, id string) error {
	if _, err := svc.GetStudent(id); err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: studentUnknownText})
		}
		return err
	}
	return nil
}

// Custom Validators

func oneOfValidation(choices []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		str := fl.Field().String()
		for _, c := range choices {
			if str == c {
				return true
			}
		}
		return false
	}
}

// notaStructValidation checks grade bounds: 1 <= max_value and 0 <= value <= max_value.
func notaStructValidation(sl validator.StructLevel) {
	nn, ok := sl.Current().Interface().(NewNota)
	if !ok {
		return
	}
	value, maxValue, ok := nn.Values()
	if !ok {
		return
	}
	if maxValue < 1 {
		sl.ReportError(nn.MaxValue, "max_value", "MaxValue", notaMaxTag, "")
		return
	}
	if value < 0 || value > maxValue {
		sl.ReportError(nn.Value, "value", "Value", notaRangeTag, "")
	}
}
