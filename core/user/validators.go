package user

import (
	"fmt"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/eduatipico/portal/core"
)

// PasswordMinLen is the minimum number of characters of a password.
const PasswordMinLen = 6

var (
	roleTag  = "role"
	roleText = "invalid role"

	emailExistsText = ErrEmailExists.Error()

	// password policy
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", PasswordMinLen)

	pwdConfirmText = "passwords do not match"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"
)

// InitValidators registers the user validation tags and their english texts.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)

	validate.RegisterStructValidation(userStructValidation, NewUser{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, "eqfield", pwdConfirmText, true)
}

// Validate cleans and validates nu, then checks that its email is not taken.
func (nu *NewUser) Validate(validate *validator.Validate, svc ServiceInterface) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	if _, err := svc.GetByEmail(nu.Email); err == nil {
		return core.NewValidationError(nil, core.FieldError{Field: "email", Error: emailExistsText})
	} else if err != ErrNotFound {
		return err
	}
	return nil
}

// Custom Validators

func roleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(Role); ok {
		return role.Valid()
	}
	return false
}

// userStructValidation does struct level validation on NewUser.
func userStructValidation(sl validator.StructLevel) {
	if nu, ok := sl.Current().Interface().(NewUser); ok && nu.Password != "" {
		validatePassword(nu.Password, nu.Name, nu.Email, sl)
	}
}

// validatePassword applies the password policy:
// - minLen: 6
// - no user attrs similarity
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < PasswordMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	lpwd := strings.ToLower(pwd)
	if similar(lpwd, strings.ToLower(name)) || similar(lpwd, strings.ToLower(email)) {
		reportErr(pwdAttrSimTag)
	}
}

func similar(pwd, usrAttr string) bool {
	if usrAttr == "" {
		return false
	}
	m := difflib.NewMatcher(strings.Split(pwd, ""), strings.Split(usrAttr, ""))
	return m.QuickRatio() >= pwdMaxSim && m.Ratio() >= pwdMaxSim
}
