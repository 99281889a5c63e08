package record

import (
	"strconv"
	"strings"
	"time"

	"github.com/eduatipico/portal/core"
)

// Band buckets a grade percentage.
type Band string

const (
	BandGood Band = "good" // >= 80%
	BandFair Band = "fair" // >= 60%
	BandPoor Band = "poor"

	DefaultMaxValue = 10.0
)

var (
	Subjects = []string{
		"Matemática",
		"Português",
		"História",
		"Geografia",
		"Ciências",
		"Inglês",
		"Educação Física",
		"Artes",
		"Música",
	}

	LaudoTypes = []string{
		"Psicológico",
		"Neurológico",
		"Psiquiátrico",
		"Pedagógico",
		"Fonoaudiológico",
		"Fisioterapêutico",
		"Terapêutico Ocupacional",
		"Médico Geral",
	}
)

type (
	// Student is a learner followed by the portal. UserID links it to a Student login when there is one.
	Student struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id,omitempty"`
		Name          string    `json:"name"`
		Email         string    `json:"email"`
		DateOfBirth   time.Time `json:"date_of_birth"`
		SpecialNeeds  string    `json:"special_needs,omitempty"`
		CuidadorID    string    `json:"cuidador_id,omitempty"`
		ResponsavelID string    `json:"responsavel_id,omitempty"`
		Avatar        string    `json:"avatar,omitempty"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// Nota is a grade given to a Student in one subject.
	Nota struct {
		ID          string    `json:"id"`
		StudentID   string    `json:"student_id"`
		Subject     string    `json:"subject"`
		Value       float64   `json:"value"`
		MaxValue    float64   `json:"max_value"`
		Date        time.Time `json:"date"`
		Observation string    `json:"observation,omitempty"`
		CreatedBy   string    `json:"created_by,omitempty"`
	}

	// Laudo is a medical or therapeutic report about a Student.
	Laudo struct {
		ID              string    `json:"id"`
		StudentID       string    `json:"student_id"`
		Type            string    `json:"type"`
		Description     string    `json:"description"`
		Date            time.Time `json:"date"`
		Professional    string    `json:"professional,omitempty"`
		CrpCrm          string    `json:"crp_crm,omitempty"`
		Recommendations string    `json:"recommendations,omitempty"`
		CreatedBy       string    `json:"created_by,omitempty"`
	}
)

// Age in whole years at now; zero when the date of birth is unknown.
func (s Student) Age(now time.Time) int {
	if s.DateOfBirth.IsZero() {
		return 0
	}
	dob := s.DateOfBirth
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

// Percent of MaxValue reached.
func (n Nota) Percent() float64 {
	if n.MaxValue <= 0 {
		return 0
	}
	return n.Value / n.MaxValue * 100
}

func (n Nota) Band() Band {
	switch pct := n.Percent(); {
	case pct >= 80:
		return BandGood
	case pct >= 60:
		return BandFair
	default:
		return BandPoor
	}
}

type (
	// NewStudent holds the student-specific part of a Student registration.
	NewStudent struct {
		DateOfBirth   string `json:"date_of_birth" form:"date_of_birth" validate:"isodate"`
		SpecialNeeds  string `json:"special_needs" form:"special_needs"`
		CuidadorID    string `json:"cuidador_id" form:"cuidador_id"`
		ResponsavelID string `json:"responsavel_id" form:"responsavel_id"`
	}

	// NewNota is the grade form. Numbers are kept as typed and parsed during validation.
	NewNota struct {
		StudentID   string `json:"student_id" form:"student_id" validate:"required"`
		Subject     string `json:"subject" form:"subject" validate:"required,subject"`
		Value       string `json:"value" form:"value" validate:"required,numeric"`
		MaxValue    string `json:"max_value" form:"max_value" validate:"omitempty,numeric"`
		Date        string `json:"date" form:"date" validate:"required,isodate"`
		Observation string `json:"observation" form:"observation"`
	}

	NewLaudo struct {
		StudentID       string `json:"student_id" form:"student_id" validate:"required"`
		Type            string `json:"type" form:"type" validate:"required,laudotype"`
		Description     string `json:"description" form:"description" validate:"required,min=10"`
		Date            string `json:"date" form:"date" validate:"required,isodate"`
		Professional    string `json:"professional" form:"professional"`
		CrpCrm          string `json:"crp_crm" form:"crp_crm"`
		Recommendations string `json:"recommendations" form:"recommendations"`
	}
)

func (ns *NewStudent) Clean() {
	ns.DateOfBirth = core.CleanString(ns.DateOfBirth)
	ns.SpecialNeeds = core.CleanString(ns.SpecialNeeds)
	ns.CuidadorID = core.CleanString(ns.CuidadorID)
	ns.ResponsavelID = core.CleanString(ns.ResponsavelID)
}

// Clean trims input and accepts a decimal comma.
func (nn *NewNota) Clean() {
	nn.StudentID = core.CleanString(nn.StudentID)
	nn.Subject = core.CleanString(nn.Subject)
	nn.Value = strings.ReplaceAll(core.CleanString(nn.Value), ",", ".")
	nn.MaxValue = strings.ReplaceAll(core.CleanString(nn.MaxValue), ",", ".")
	nn.Date = core.CleanString(nn.Date)
	nn.Observation = core.CleanString(nn.Observation)
}

// Values returns the parsed grade and its maximum, DefaultMaxValue when left empty.
// ok is false when either number does not parse.
func (nn NewNota) Values() (value, maxValue float64, ok bool) {
	var err error
	if value, err = strconv.ParseFloat(nn.Value, 64); err != nil {
		return 0, 0, false
	}
	maxValue = DefaultMaxValue
	if nn.MaxValue != "" {
		if maxValue, err = strconv.ParseFloat(nn.MaxValue, 64); err != nil {
			return 0, 0, false
		}
	}
	return value, maxValue, true
}

func (nl *NewLaudo) Clean() {
	nl.StudentID = core.CleanString(nl.StudentID)
	nl.Type = core.CleanString(nl.Type)
	nl.Description = core.CleanString(nl.Description)
	nl.Date = core.CleanString(nl.Date)
	nl.Professional = core.CleanString(nl.Professional)
	nl.CrpCrm = core.CleanString(nl.CrpCrm)
	nl.Recommendations = core.CleanString(nl.Recommendations)
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, _ := time.Parse(core.DateLayout, s)
	return t
}
