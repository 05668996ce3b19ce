// Package onboarding models the four step profile wizard.
//
// The wizard is stateless on the server: every step posts the whole form back
// (hidden inputs carry the other steps), FromForm rebuilds it and Next or
// Back moves between steps once the current step validates.
package onboarding

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/users"
)

const (
	StepAcademic = 1
	StepGoals    = 2
	StepBudget   = 3
	StepExams    = 4

	Steps = StepExams
)

// CountryOptions are the destinations offered in the goals step
var CountryOptions = []string{
	"United States", "Canada", "United Kingdom", "Australia",
	"Germany", "France", "Netherlands", "Sweden", "Singapore",
	"Ireland", "New Zealand", "Switzerland",
}

var validate = validator.New()

type Wizard struct {
	Step     int
	Academic backend.Academic
	Goals    backend.Goals
	Budget   backend.Budget
	Exams    backend.Exams
}

// New returns a wizard on the first step with the form defaults filled in
func New() Wizard {
	return Wizard{
		Step:   StepAcademic,
		Goals:  backend.Goals{IntakeSeason: "Fall", Countries: []string{}},
		Budget: backend.Budget{ScholarshipInterest: true, Currency: "USD"},
		Exams: backend.Exams{
			ExamStatus:   "planned",
			SOPStatus:    "not_started",
			LORStatus:    "0",
			ResumeStatus: "not_started",
		},
	}
}

// FromForm rebuilds a wizard from a posted form. Missing fields keep their defaults.
func FromForm(form url.Values) Wizard {
	w := New()

	if step, err := strconv.Atoi(form.Get("step")); err == nil {
		w.Step = clampStep(step)
	}

	set := func(dst *string, key string) {
		if _, ok := form[key]; ok {
			*dst = strings.TrimSpace(form.Get(key))
		}
	}

	set(&w.Academic.EducationLevel, "educationLevel")
	set(&w.Academic.Degree, "degree")
	set(&w.Academic.Major, "major")
	set(&w.Academic.University, "university")
	set(&w.Academic.GraduationYear, "graduationYear")
	set(&w.Academic.GPA, "gpa")
	set(&w.Academic.Specialization, "academicSpecialization")

	set(&w.Goals.TargetDegree, "targetDegree")
	set(&w.Goals.FieldOfInterest, "fieldOfInterest")
	set(&w.Goals.Specialization, "goalSpecialization")
	set(&w.Goals.IntakeYear, "intakeYear")
	set(&w.Goals.IntakeSeason, "intakeSeason")
	set(&w.Goals.PreferredCities, "preferredCities")
	for _, c := range form["countries"] {
		w.ToggleCountry(c)
	}

	set(&w.Budget.Min, "min")
	set(&w.Budget.Max, "max")
	set(&w.Budget.FundingSource, "fundingSource")
	set(&w.Budget.Currency, "currency")
	if _, ok := form["scholarshipInterestSet"]; ok {
		// the marker input is always posted; the checkbox only when ticked
		w.Budget.ScholarshipInterest = form.Get("scholarshipInterest") != ""
	}

	set(&w.Exams.IELTSScore, "ieltsScore")
	set(&w.Exams.TOEFLScore, "toeflScore")
	set(&w.Exams.GREScore, "greScore")
	set(&w.Exams.GMATScore, "gmatScore")
	set(&w.Exams.ExamStatus, "examStatus")
	set(&w.Exams.SOPStatus, "sopStatus")
	set(&w.Exams.LORStatus, "lorStatus")
	set(&w.Exams.ResumeStatus, "resumeStatus")

	return w
}

func clampStep(step int) int {
	switch {
	case step < StepAcademic:
		return StepAcademic
	case step > Steps:
		return Steps
	}
	return step
}

// ToggleCountry adds country when absent and removes it when present.
// Unknown countries are ignored.
func (w *Wizard) ToggleCountry(country string) {
	if !isCountryOption(country) {
		return
	}
	for i, c := range w.Goals.Countries {
		if c == country {
			w.Goals.Countries = append(w.Goals.Countries[:i:i], w.Goals.Countries[i+1:]...)
			return
		}
	}
	w.Goals.Countries = append(w.Goals.Countries, country)
}

func (w Wizard) HasCountry(country string) bool {
	for _, c := range w.Goals.Countries {
		if c == country {
			return true
		}
	}
	return false
}

func isCountryOption(country string) bool {
	for _, c := range CountryOptions {
		if c == country {
			return true
		}
	}
	return false
}

// Progress is the completion percentage shown above the form
func (w Wizard) Progress() int {
	return w.Step * 100 / Steps
}

func (w Wizard) IsLast() bool {
	return w.Step == Steps
}

// ValidateStep checks the fields of step. It returns nil or a users.FieldErrors.
func (w Wizard) ValidateStep(step int) error {
	fe := users.FieldErrors{}
	require := func(field string, value any, tag, msg string) {
		if err := validate.Var(value, tag); err != nil {
			fe[field] = msg
		}
	}

	switch step {
	case StepAcademic:
		require("educationLevel", w.Academic.EducationLevel, "required", "Education level is required")
		require("degree", w.Academic.Degree, "required", "Degree is required")
		require("major", w.Academic.Major, "required", "Major is required")
		require("gpa", w.Academic.GPA, "required", "GPA is required")
		require("graduationYear", w.Academic.GraduationYear, "required", "Graduation year is required")
	case StepGoals:
		require("targetDegree", w.Goals.TargetDegree, "required", "Target degree is required")
		require("fieldOfInterest", w.Goals.FieldOfInterest, "required", "Field of interest is required")
		require("countries", w.Goals.Countries, "min=1", "Select at least one country")
		require("intakeYear", w.Goals.IntakeYear, "required", "Intake year is required")
	case StepBudget:
		require("min", w.Budget.Min, "required", "Minimum budget is required")
		require("max", w.Budget.Max, "required", "Maximum budget is required")
		require("fundingSource", w.Budget.FundingSource, "required", "Funding source is required")
		minimum, errMin := strconv.ParseFloat(w.Budget.Min, 64)
		maximum, errMax := strconv.ParseFloat(w.Budget.Max, 64)
		if errMin == nil && errMax == nil && minimum > maximum {
			fe["max"] = "Maximum budget must be greater than minimum"
		}
	}

	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Next validates the current step and advances. On error the step is unchanged.
func (w *Wizard) Next() error {
	if err := w.ValidateStep(w.Step); err != nil {
		return err
	}
	if w.Step < Steps {
		w.Step++
	}
	return nil
}

// Back moves to the previous step without validating
func (w *Wizard) Back() {
	if w.Step > StepAcademic {
		w.Step--
	}
}

// Validate checks every step. On error the wizard moves to the first failing step.
func (w *Wizard) Validate() error {
	for step := StepAcademic; step <= Steps; step++ {
		if err := w.ValidateStep(step); err != nil {
			w.Step = step
			return err
		}
	}
	return nil
}

// Submission builds the profile save body
func (w Wizard) Submission(now time.Time) backend.ProfileSubmission {
	stamp := now.UTC().Format("2006-01-02T15:04:05.000Z")
	goals := w.Goals
	goals.Countries = append([]string{}, w.Goals.Countries...)
	return backend.ProfileSubmission{
		Academic:        w.Academic,
		Goal:            goals,
		Budget:          w.Budget,
		Exams:           w.Exams,
		ProfileComplete: true,
		CreatedAt:       stamp,
		UpdatedAt:       stamp,
	}
}
