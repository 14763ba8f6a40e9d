package doctor

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/medbook-web/internal/model"
	"github.com/jwalitptl/medbook-web/internal/repository"
)

const fetchFailed = "Failed to fetch doctors."

type Query struct {
	Date      string `form:"date"`
	Name      string `form:"name"`
	Specialty string `form:"specialty"`
}

// ListView is everything the doctor list page renders.
type ListView struct {
	Date        string
	Name        string
	Specialty   string
	Doctors     []model.Doctor
	Suggestions []string
	Error       string
}

type Service struct {
	repo     repository.DoctorRepository
	location *time.Location
	now      func() time.Time
}

func NewService(repo repository.DoctorRepository, location *time.Location) *Service {
	if location == nil {
		location = time.Local
	}
	return &Service{repo: repo, location: location, now: time.Now}
}

// Today is the default date of the doctor list.
func (s *Service) Today() string {
	return model.FormatDate(s.now().In(s.location))
}

// Browse fetches the doctors available on q.Date and applies the filters.
func (s *Service) Browse(ctx context.Context, q Query) ListView {
	view := ListView{
		Date:      q.Date,
		Name:      strings.TrimSpace(q.Name),
		Specialty: strings.TrimSpace(q.Specialty),
		Doctors:   []model.Doctor{},
	}
	if _, err := model.ParseDate(view.Date); err != nil {
		view.Date = s.Today()
	}

	doctors, err := s.repo.ListAvailable(ctx, view.Date)
	if err != nil {
		log.Warn().Err(err).Str("date", view.Date).Msg("failed to fetch doctors")
		view.Error = fetchFailed
		return view
	}

	view.Doctors = Filter(doctors, view.Name, view.Specialty)
	view.Suggestions = SpecialtySuggestions(doctors, view.Specialty)
	return view
}

// Filter keeps the doctors whose name and specialty contain the given
// substrings, case-insensitively.
func Filter(doctors []model.Doctor, name, specialty string) []model.Doctor {
	out := make([]model.Doctor, 0, len(doctors))
	for _, d := range doctors {
		if d.Matches(name, specialty) {
			out = append(out, d)
		}
	}
	return out
}

// SpecialtySuggestions returns the distinct lowercase specialties containing
// query, in first-seen order. An empty query suggests nothing.
func SpecialtySuggestions(doctors []model.Doctor, query string) []string {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	for _, d := range doctors {
		sp := strings.ToLower(strings.TrimSpace(d.Specialty))
		if sp == "" || seen[sp] || !strings.Contains(sp, query) {
			continue
		}
		seen[sp] = true
		out = append(out, sp)
	}
	return out
}
