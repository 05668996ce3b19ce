package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/counsellor-web/backend"
	"github.com/jrsteele09/counsellor-web/internal/errors"
	"github.com/jrsteele09/counsellor-web/onboarding"
	"github.com/jrsteele09/counsellor-web/users"
	"github.com/rs/zerolog/log"
)

const (
	wizardActionNext   = "next"
	wizardActionBack   = "back"
	wizardActionSubmit = "submit"
)

// Option is one choice of a select input
type Option struct {
	Value string
	Label string
}

// WizardOptions are the select choices offered by the wizard
type WizardOptions struct {
	EducationLevels []Option
	TargetDegrees   []Option
	Seasons         []Option
	Currencies      []Option
	FundingSources  []Option
	ExamStatuses    []Option
	SOPStatuses     []Option
	Years           []string
}

func wizardOptions(now time.Time) WizardOptions {
	opts := WizardOptions{
		EducationLevels: []Option{
			{"bachelors", "Bachelor's Degree"}, {"masters", "Master's Degree"}, {"phd", "PhD"},
			{"diploma", "Diploma"}, {"high_school", "High School"},
		},
		TargetDegrees: []Option{
			{"bachelors", "Bachelor's"}, {"masters", "Master's"}, {"phd", "PhD"}, {"diploma", "Diploma/Certificate"},
		},
		Seasons: []Option{
			{"Fall", "Fall (September)"}, {"Spring", "Spring (January)"}, {"Summer", "Summer (May)"},
		},
		Currencies: []Option{
			{"USD", "USD ($)"}, {"CAD", "CAD (C$)"}, {"GBP", "GBP (£)"}, {"EUR", "EUR (€)"}, {"AUD", "AUD (A$)"},
		},
		FundingSources: []Option{
			{"personal", "Personal/Family Savings"}, {"loan", "Education Loan"}, {"scholarship", "Scholarship"},
			{"sponsor", "Company Sponsor"}, {"assistantship", "University Assistantship"},
		},
		ExamStatuses: []Option{
			{"planned", "Planned/Not Started"}, {"in_progress", "In Progress"}, {"completed", "Completed"},
		},
		SOPStatuses: []Option{
			{"not_started", "Not Started"}, {"draft", "Draft"}, {"review", "Under Review"}, {"finalized", "Finalized"},
		},
	}
	for y := now.Year() - 10; y <= now.Year()+5; y++ {
		opts.Years = append(opts.Years, strconv.Itoa(y))
	}
	return opts
}

type OnboardingPageData struct {
	PageData
	Wizard    onboarding.Wizard
	Fields    users.FieldErrors
	Countries []string
	Steps     int
	Options   WizardOptions
}

func (s *Server) onboardingPage(r *http.Request, wiz onboarding.Wizard, fields users.FieldErrors) OnboardingPageData {
	data := OnboardingPageData{
		PageData:  s.pageData(r, "Build your profile"),
		Wizard:    wiz,
		Fields:    fields,
		Countries: onboarding.CountryOptions,
		Steps:     onboarding.Steps,
		Options:   wizardOptions(time.Now()),
	}
	if msg, ok := fields[users.FormError]; ok {
		data.Error = msg
	}
	return data
}

// OnboardingGetHandler starts the profile wizard (GET /onboarding)
func (s *Server) OnboardingGetHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("onboarding.html")
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, s.onboardingPage(r, onboarding.New(), nil))
	}
}

// OnboardingPostHandler moves the wizard between steps and, on the last one,
// saves the profile (POST /onboarding)
func (s *Server) OnboardingPostHandler() http.HandlerFunc {
	tmpl := mustParseTemplate("onboarding.html")

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}
		wiz := onboarding.FromForm(r.PostForm)

		invalid := func(err error) {
			var fe users.FieldErrors
			if !errors.As(err, &fe) {
				fe = users.FieldErrors{users.FormError: err.Error()}
			}
			renderStatus(w, http.StatusUnprocessableEntity, tmpl, s.onboardingPage(r, wiz, fe))
		}

		switch r.FormValue("action") {
		case wizardActionBack:
			wiz.Back()
		case wizardActionSubmit:
			if err := wiz.Validate(); err != nil {
				invalid(err)
				return
			}
			store := currentStore(r)
			if err := s.api.SaveProfile(r.Context(), store.State().Token, wiz.Submission(time.Now())); err != nil {
				log.Err(err).Msg("Failed to save profile")
				invalid(users.FieldErrors{users.FormError: backend.UserMessage(err, "Failed to save profile. Please try again.")})
				return
			}
			store.CompleteProfile()
			redirectSuccess(w, r, RouteDashboard)
			return
		default:
			if err := wiz.Next(); err != nil {
				invalid(err)
				return
			}
		}

		render(w, tmpl, s.onboardingPage(r, wiz, nil))
	}
}
