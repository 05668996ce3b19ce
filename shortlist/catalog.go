package shortlist

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// University is one entry of the discovery catalog
type University struct {
	ID              int
	Name            string
	Location        string
	Country         string
	Ranking         string
	AcceptanceRate  string
	Tuition         string
	PopularPrograms []string
	MatchScore      int
	Deadline        string
	Requirements    []string
}

// TuitionAmount is the tuition with currency symbols and separators removed
func (u University) TuitionAmount() int {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, u.Tuition)
	n, _ := strconv.Atoi(digits)
	return n
}

// DeadlineTime parses Deadline ("Dec 15, 2024"). Unparseable deadlines sort last.
func (u University) DeadlineTime() time.Time {
	t, err := time.Parse("Jan 2, 2006", u.Deadline)
	if err != nil {
		return time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

// MatchBand names the band the match score falls in
func (u University) MatchBand() string {
	switch {
	case u.MatchScore >= 85:
		return "excellent"
	case u.MatchScore >= 70:
		return "good"
	case u.MatchScore >= 60:
		return "moderate"
	}
	return "low"
}

var catalog = []University{
	{
		ID: 1, Name: "Stanford University", Location: "Stanford, California", Country: "United States",
		Ranking: "#3 in Computer Science", AcceptanceRate: "4%", Tuition: "$56,000",
		PopularPrograms: []string{"MSCS", "MBA", "Engineering"}, MatchScore: 92, Deadline: "Dec 15, 2024",
		Requirements: []string{"GRE: 320+", "GPA: 3.8+", "IELTS: 7.5+"},
	},
	{
		ID: 2, Name: "University of Toronto", Location: "Toronto, Ontario", Country: "Canada",
		Ranking: "#1 in Canada", AcceptanceRate: "43%", Tuition: "$45,000",
		PopularPrograms: []string{"Computer Science", "Business", "Medicine"}, MatchScore: 88, Deadline: "Jan 15, 2025",
		Requirements: []string{"GPA: 3.5+", "IELTS: 7.0+", "LOR: 3"},
	},
	{
		ID: 3, Name: "Carnegie Mellon University", Location: "Pittsburgh, Pennsylvania", Country: "United States",
		Ranking: "#1 in Computer Science", AcceptanceRate: "17%", Tuition: "$58,000",
		PopularPrograms: []string{"AI", "Robotics", "Software Engineering"}, MatchScore: 85, Deadline: "Dec 31, 2024",
		Requirements: []string{"GRE: 325+", "GPA: 3.7+", "Strong SOP"},
	},
	{
		ID: 4, Name: "University of British Columbia", Location: "Vancouver, British Columbia", Country: "Canada",
		Ranking: "#2 in Canada", AcceptanceRate: "52%", Tuition: "$38,000",
		PopularPrograms: []string{"Data Science", "Business", "Environmental Science"}, MatchScore: 82, Deadline: "Feb 1, 2025",
		Requirements: []string{"GPA: 3.4+", "IELTS: 6.5+", "Personal Profile"},
	},
	{
		ID: 5, Name: "University of California, Berkeley", Location: "Berkeley, California", Country: "United States",
		Ranking: "#2 in Computer Science", AcceptanceRate: "11%", Tuition: "$54,000",
		PopularPrograms: []string{"EECS", "Business", "Law"}, MatchScore: 79, Deadline: "Dec 15, 2024",
		Requirements: []string{"GRE: 320+", "GPA: 3.6+", "Research Experience"},
	},
	{
		ID: 6, Name: "University of Waterloo", Location: "Waterloo, Ontario", Country: "Canada",
		Ranking: "#3 in Canada", AcceptanceRate: "53%", Tuition: "$42,000",
		PopularPrograms: []string{"Computer Science", "Engineering", "Math"}, MatchScore: 76, Deadline: "Jan 31, 2025",
		Requirements: []string{"GPA: 3.3+", "IELTS: 6.5+", "Co-op Experience"},
	},
	{
		ID: 7, Name: "Massachusetts Institute of Technology", Location: "Cambridge, Massachusetts", Country: "United States",
		Ranking: "#1 in Engineering", AcceptanceRate: "7%", Tuition: "$53,000",
		PopularPrograms: []string{"Computer Science", "Engineering", "Physics"}, MatchScore: 74, Deadline: "Dec 1, 2024",
		Requirements: []string{"GRE: 330+", "GPA: 3.9+", "Research Papers"},
	},
	{
		ID: 8, Name: "McGill University", Location: "Montreal, Quebec", Country: "Canada",
		Ranking: "#4 in Canada", AcceptanceRate: "46%", Tuition: "$36,000",
		PopularPrograms: []string{"Medicine", "Law", "Computer Science"}, MatchScore: 71, Deadline: "Jan 15, 2025",
		Requirements: []string{"GPA: 3.4+", "IELTS: 6.5+", "French Proficiency"},
	},
}

// CountryFilters are the country choices offered on the discovery page
var CountryFilters = []string{"United States", "Canada", "United Kingdom", "Australia", "Germany"}

// Catalog returns a copy of the discovery catalog
func Catalog() []University {
	out := make([]University, len(catalog))
	copy(out, catalog)
	return out
}

// Find returns the catalog entry with id
func Find(id int) (University, bool) {
	for _, u := range catalog {
		if u.ID == id {
			return u, true
		}
	}
	return University{}, false
}

// View is a catalog entry annotated with the user's shortlist state
type View struct {
	University
	Saved  bool
	Locked bool
}

const (
	SortMatch    = "match"
	SortName     = "name"
	SortTuition  = "tuition"
	SortDeadline = "deadline"
)

// Filter holds the discovery page filters. Zero values mean "no filter".
type Filter struct {
	Search    string
	Country   string
	MinMatch  int
	SavedOnly bool
	SortBy    string
}

// Apply filters and sorts views. The input is not modified.
func (f Filter) Apply(views []View) []View {
	search := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]View, 0, len(views))
	for _, v := range views {
		if f.SavedOnly && !v.Saved {
			continue
		}
		if f.Country != "" && f.Country != "all" && v.Country != f.Country {
			continue
		}
		if v.MatchScore < f.MinMatch {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(v.Name), search) &&
			!strings.Contains(strings.ToLower(v.Location), search) {
			continue
		}
		out = append(out, v)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch f.SortBy {
		case SortName:
			return a.Name < b.Name
		case SortTuition:
			return a.TuitionAmount() < b.TuitionAmount()
		case SortDeadline:
			return a.DeadlineTime().Before(b.DeadlineTime())
		default:
			return a.MatchScore > b.MatchScore
		}
	})
	return out
}

// MatchStats counts views per match band
type MatchStats struct {
	Excellent int
	Good      int
	Moderate  int
	Saved     int
}

func Stats(views []View) MatchStats {
	var s MatchStats
	for _, v := range views {
		switch v.MatchBand() {
		case "excellent":
			s.Excellent++
		case "good":
			s.Good++
		case "moderate":
			s.Moderate++
		}
		if v.Saved {
			s.Saved++
		}
	}
	return s
}
